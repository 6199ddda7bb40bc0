// Package memory is an in-process identity store for single-node runs and
// tests. Each identity row has its own lock, so OTP consumption for one
// email never waits on another.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shandysiswandi/teleauth/internal/identity/entity"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
)

type row struct {
	mu sync.Mutex
	id entity.Identity
}

type Store struct {
	mu       sync.RWMutex
	byEmail  map[string]*row
	byHandle map[string]*row // lower-cased handle
	byChat   map[int64]*row
}

func New() *Store {
	return &Store{
		byEmail:  make(map[string]*row),
		byHandle: make(map[string]*row),
		byChat:   make(map[int64]*row),
	}
}

func clone(in entity.Identity) *entity.Identity {
	out := in
	if in.ChatID != nil {
		v := *in.ChatID
		out.ChatID = &v
	}
	if in.OTPExpiresAt != nil {
		v := *in.OTPExpiresAt
		out.OTPExpiresAt = &v
	}
	out.Secret = append([]byte(nil), in.Secret...)
	return &out
}

func (s *Store) lookup(get func() (*row, bool)) *row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := get()
	if !ok {
		return nil
	}
	return r
}

func (s *Store) snapshot(r *row) (*entity.Identity, error) {
	if r == nil {
		return nil, goerror.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.id), nil
}

func (s *Store) CreateIdentity(_ context.Context, in entity.NewIdentity) error {
	handle := strings.ToLower(entity.NormalizeHandle(in.TelegramHandle))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[in.Email]; ok {
		return goerror.ErrConflict
	}
	if _, ok := s.byHandle[handle]; ok {
		return goerror.ErrConflict
	}

	r := &row{id: entity.Identity{
		ID:             in.ID,
		Email:          in.Email,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		TelegramHandle: entity.NormalizeHandle(in.TelegramHandle),
		Secret:         append([]byte(nil), in.Secret...),
		CreatedAt:      in.CreatedAt,
	}}
	s.byEmail[in.Email] = r
	s.byHandle[handle] = r

	return nil
}

func (s *Store) GetIdentityByEmail(_ context.Context, email string) (*entity.Identity, error) {
	return s.snapshot(s.lookup(func() (*row, bool) {
		r, ok := s.byEmail[email]
		return r, ok
	}))
}

func (s *Store) GetIdentityByHandle(_ context.Context, handle string) (*entity.Identity, error) {
	key := strings.ToLower(entity.NormalizeHandle(handle))
	return s.snapshot(s.lookup(func() (*row, bool) {
		r, ok := s.byHandle[key]
		return r, ok
	}))
}

func (s *Store) GetIdentityByChatID(_ context.Context, chatID int64) (*entity.Identity, error) {
	return s.snapshot(s.lookup(func() (*row, bool) {
		r, ok := s.byChat[chatID]
		return r, ok
	}))
}

// UpdateIdentityChannel binds chatID only while the identity has no chat and
// no other identity holds chatID. It reports false when either check fails.
func (s *Store) UpdateIdentityChannel(_ context.Context, email, handle string, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byEmail[email]
	if !ok {
		return false, nil
	}
	if _, taken := s.byChat[chatID]; taken {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.id.ChatID != nil || !strings.EqualFold(r.id.TelegramHandle, entity.NormalizeHandle(handle)) {
		return false, nil
	}

	r.id.ChatID = &chatID
	r.id.Linked = true
	s.byChat[chatID] = r

	return true, nil
}

func (s *Store) UpdateIdentityOTP(_ context.Context, email, code string, expiresAt time.Time) (bool, error) {
	r := s.lookup(func() (*row, bool) {
		r, ok := s.byEmail[email]
		return r, ok
	})
	if r == nil {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.id.CurrentOTP = code
	r.id.OTPExpiresAt = &expiresAt

	return true, nil
}

// ConsumeIdentityOTP runs check while holding the row lock and clears the
// code when check accepts it.
func (s *Store) ConsumeIdentityOTP(_ context.Context, email string, check func(entity.Identity) error) error {
	r := s.lookup(func() (*row, bool) {
		r, ok := s.byEmail[email]
		return r, ok
	})
	if r == nil {
		return goerror.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := check(*clone(r.id)); err != nil {
		return err
	}

	r.id.CurrentOTP = ""
	r.id.OTPExpiresAt = nil

	return nil
}
