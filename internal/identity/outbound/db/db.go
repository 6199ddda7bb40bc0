package db

import (
	"context"
	_ "embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/teleauth/internal/identity/entity"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:embed schema.sql
var schema string

const identityColumns = `id, email, first_name, last_name, linked, telegram_handle, chat_id, secret, current_otp, otp_expires_at, created_at`

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

// Migrate creates the identities table when it does not exist yet.
func (s *DB) Migrate(ctx context.Context) (err error) {
	ctx, span := s.startSpan(ctx, "Migrate")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, schema)
	return err
}

// - 23505 unique violation → goerror.ErrConflict
// - 23514 check_violation → returned as is, it means a bug in a query
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func scanIdentity(row pgx.Row) (*entity.Identity, error) {
	var (
		out       entity.Identity
		chatID    pgtype.Int8
		otp       pgtype.Text
		expiresAt pgtype.Timestamptz
	)

	if err := row.Scan(
		&out.ID,
		&out.Email,
		&out.FirstName,
		&out.LastName,
		&out.Linked,
		&out.TelegramHandle,
		&chatID,
		&out.Secret,
		&otp,
		&expiresAt,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}

	if chatID.Valid {
		out.ChatID = &chatID.Int64
	}
	if otp.Valid {
		out.CurrentOTP = otp.String
	}
	if expiresAt.Valid {
		out.OTPExpiresAt = &expiresAt.Time
	}

	return &out, nil
}
