package db

import (
	"context"

	"github.com/shandysiswandi/teleauth/internal/identity/entity"
)

func (s *DB) GetIdentityByEmail(ctx context.Context, email string) (_ *entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentityByEmail")
	defer func() { s.endSpan(span, err) }()

	out, err := scanIdentity(s.conn.QueryRow(ctx,
		`select `+identityColumns+` from identities where email = $1`, email))
	if err != nil {
		return nil, s.mapError(err)
	}

	return out, nil
}

func (s *DB) GetIdentityByHandle(ctx context.Context, handle string) (_ *entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentityByHandle")
	defer func() { s.endSpan(span, err) }()

	out, err := scanIdentity(s.conn.QueryRow(ctx,
		`select `+identityColumns+` from identities where lower(telegram_handle) = lower($1)`,
		entity.NormalizeHandle(handle)))
	if err != nil {
		return nil, s.mapError(err)
	}

	return out, nil
}

func (s *DB) GetIdentityByChatID(ctx context.Context, chatID int64) (_ *entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentityByChatID")
	defer func() { s.endSpan(span, err) }()

	out, err := scanIdentity(s.conn.QueryRow(ctx,
		`select `+identityColumns+` from identities where chat_id = $1`, chatID))
	if err != nil {
		return nil, s.mapError(err)
	}

	return out, nil
}
