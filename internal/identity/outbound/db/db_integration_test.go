//go:build integration

package db

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/teleauth/internal/identity/entity"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"github.com/stretchr/testify/suite"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

type DBSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	db        *DB
}

func TestDBSuite(t *testing.T) {
	suite.Run(t, new(DBSuite))
}

func (s *DBSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("teleauth"),
		tcpostgres.WithUsername("teleauth"),
		tcpostgres.WithPassword("teleauth"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pool, err = pgxpool.New(ctx, dsn)
	s.Require().NoError(err)

	s.db = NewDB(s.pool, instrument.NewNoop())
	s.Require().NoError(s.db.Migrate(ctx))
	s.Require().NoError(s.db.Migrate(ctx), "migration is repeatable")
}

func (s *DBSuite) TearDownSuite() {
	s.pool.Close()
	_ = s.container.Terminate(context.Background())
}

func (s *DBSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), "truncate identities")
	s.Require().NoError(err)
}

func (s *DBSuite) create(id int64, email, handle string) {
	s.Require().NoError(s.db.CreateIdentity(context.Background(), entity.NewIdentity{
		ID:             id,
		Email:          email,
		FirstName:      "Ann",
		TelegramHandle: handle,
		Secret:         []byte{1, 2, 3},
		CreatedAt:      time.Now().UTC(),
	}))
}

func (s *DBSuite) TestCreateAndGet() {
	ctx := context.Background()
	s.create(1, "ann@example.com", "@Ann_tg")

	got, err := s.db.GetIdentityByHandle(ctx, "ANN_TG")
	s.Require().NoError(err)
	s.Equal("ann@example.com", got.Email)
	s.Equal("Ann_tg", got.TelegramHandle)
	s.Equal([]byte{1, 2, 3}, got.Secret)
	s.False(got.Linked)
	s.Nil(got.ChatID)

	err = s.db.CreateIdentity(ctx, entity.NewIdentity{ID: 2, Email: "ann@example.com", TelegramHandle: "zed_tg", Secret: []byte{0}})
	s.ErrorIs(err, goerror.ErrConflict)

	err = s.db.CreateIdentity(ctx, entity.NewIdentity{ID: 3, Email: "zed@example.com", TelegramHandle: "ann_TG", Secret: []byte{0}})
	s.ErrorIs(err, goerror.ErrConflict)

	_, err = s.db.GetIdentityByEmail(ctx, "missing@example.com")
	s.ErrorIs(err, goerror.ErrNotFound)
}

func (s *DBSuite) TestUpdateIdentityChannel() {
	ctx := context.Background()
	s.create(1, "ann@example.com", "ann_tg")
	s.create(2, "bob@example.com", "bob_tg")

	ok, err := s.db.UpdateIdentityChannel(ctx, "ann@example.com", "ann_tg", 70)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.db.UpdateIdentityChannel(ctx, "ann@example.com", "ann_tg", 71)
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.db.UpdateIdentityChannel(ctx, "bob@example.com", "bob_tg", 70)
	s.Require().NoError(err)
	s.False(ok, "chat id is unique")

	got, err := s.db.GetIdentityByChatID(ctx, 70)
	s.Require().NoError(err)
	s.Equal(int64(1), got.ID)
	s.True(got.Linked)
}

func (s *DBSuite) TestConsumeIdentityOTP() {
	ctx := context.Background()
	s.create(1, "ann@example.com", "ann_tg")

	ok, err := s.db.UpdateIdentityOTP(ctx, "ann@example.com", "654321", time.Now().Add(time.Minute))
	s.Require().NoError(err)
	s.Require().True(ok)

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.db.ConsumeIdentityOTP(ctx, "ann@example.com", func(id entity.Identity) error {
				if id.CurrentOTP != "654321" {
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

	s.Equal(int32(1), accepted.Load())

	got, err := s.db.GetIdentityByEmail(ctx, "ann@example.com")
	s.Require().NoError(err)
	s.Empty(got.CurrentOTP)
	s.Nil(got.OTPExpiresAt)

	err = s.db.ConsumeIdentityOTP(ctx, "missing@example.com", func(entity.Identity) error { return nil })
	s.ErrorIs(err, goerror.ErrNotFound)
}
