package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shandysiswandi/teleauth/internal/identity/entity"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store, email, handle string) {
	t.Helper()
	require.NoError(t, s.CreateIdentity(context.Background(), entity.NewIdentity{
		ID:             1,
		Email:          email,
		TelegramHandle: handle,
		Secret:         []byte("sealed"),
	}))
}

func TestStore_CreateIdentity_Conflict(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "ann@example.com", "@Ann_tg")

	err := s.CreateIdentity(ctx, entity.NewIdentity{Email: "ann@example.com", TelegramHandle: "other_tg"})
	assert.ErrorIs(t, err, goerror.ErrConflict)

	err = s.CreateIdentity(ctx, entity.NewIdentity{Email: "bob@example.com", TelegramHandle: "ann_TG"})
	assert.ErrorIs(t, err, goerror.ErrConflict, "handles collide case-insensitively")

	got, err := s.GetIdentityByHandle(ctx, "@ANN_TG")
	require.NoError(t, err)
	assert.Equal(t, "Ann_tg", got.TelegramHandle)
}

func TestStore_CreateIdentity_Concurrent(t *testing.T) {
	s := New()
	var wins atomic.Int32

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.CreateIdentity(context.Background(), entity.NewIdentity{Email: "x@example.com", TelegramHandle: "x_handle"}) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestStore_UpdateIdentityChannel(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "ann@example.com", "ann_tg")
	require.NoError(t, s.CreateIdentity(ctx, entity.NewIdentity{ID: 2, Email: "bob@example.com", TelegramHandle: "bob_tg"}))

	ok, err := s.UpdateIdentityChannel(ctx, "ann@example.com", "ann_tg", 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateIdentityChannel(ctx, "ann@example.com", "ann_tg", 8)
	require.NoError(t, err)
	assert.False(t, ok, "first linker wins")

	ok, err = s.UpdateIdentityChannel(ctx, "bob@example.com", "bob_tg", 7)
	require.NoError(t, err)
	assert.False(t, ok, "chat already bound elsewhere")

	got, err := s.GetIdentityByChatID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.Email)
	assert.True(t, got.Linked)

	_, err = s.GetIdentityByChatID(ctx, 8)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestStore_ConsumeIdentityOTP(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "ann@example.com", "ann_tg")
	exp := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)

	ok, err := s.UpdateIdentityOTP(ctx, "ann@example.com", "123456", exp)
	require.NoError(t, err)
	require.True(t, ok)

	reject := errors.New("reject")
	err = s.ConsumeIdentityOTP(ctx, "ann@example.com", func(id entity.Identity) error {
		assert.Equal(t, "123456", id.CurrentOTP)
		return reject
	})
	assert.ErrorIs(t, err, reject)

	got, _ := s.GetIdentityByEmail(ctx, "ann@example.com")
	assert.Equal(t, "123456", got.CurrentOTP, "rejected check leaves the code")

	require.NoError(t, s.ConsumeIdentityOTP(ctx, "ann@example.com", func(entity.Identity) error { return nil }))

	got, _ = s.GetIdentityByEmail(ctx, "ann@example.com")
	assert.Empty(t, got.CurrentOTP)
	assert.Nil(t, got.OTPExpiresAt)

	err = s.ConsumeIdentityOTP(ctx, "nobody@example.com", func(entity.Identity) error { return nil })
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestStore_ConsumeIdentityOTP_SingleFlight(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "ann@example.com", "ann_tg")
	_, _ = s.UpdateIdentityOTP(ctx, "ann@example.com", "123456", time.Now().Add(time.Minute))

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.ConsumeIdentityOTP(ctx, "ann@example.com", func(id entity.Identity) error {
				if id.CurrentOTP != "123456" {
					return errors.New("gone")
				}
				return nil
			})
			if err == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
}

func TestStore_GetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, "ann@example.com", "ann_tg")

	got, err := s.GetIdentityByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	got.Secret[0] = 'X'
	got.FirstName = "changed"

	again, _ := s.GetIdentityByEmail(ctx, "ann@example.com")
	assert.Equal(t, []byte("sealed"), again.Secret)
	assert.Empty(t, again.FirstName)
}
