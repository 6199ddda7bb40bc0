package db

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/teleauth/internal/identity/entity"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
)

// UpdateIdentityChannel binds chatID while chat_id is still null. A chat id
// held by another row violates the unique key and is reported as false.
func (s *DB) UpdateIdentityChannel(ctx context.Context, email, handle string, chatID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UpdateIdentityChannel")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`update identities set chat_id = $3, linked = true
		where email = $1 and lower(telegram_handle) = lower($2) and chat_id is null`,
		email, entity.NormalizeHandle(handle), chatID,
	)
	if err = s.mapError(err); errors.Is(err, goerror.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) UpdateIdentityOTP(ctx context.Context, email, code string, expiresAt time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UpdateIdentityOTP")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`update identities set current_otp = $2, otp_expires_at = $3 where email = $1`,
		email, code, expiresAt,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}
