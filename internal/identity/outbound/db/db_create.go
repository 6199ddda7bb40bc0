package db

import (
	"context"

	"github.com/shandysiswandi/teleauth/internal/identity/entity"
)

func (s *DB) CreateIdentity(ctx context.Context, in entity.NewIdentity) (err error) {
	ctx, span := s.startSpan(ctx, "CreateIdentity")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`insert into identities (id, email, first_name, last_name, telegram_handle, secret, created_at)
		values ($1, $2, $3, $4, $5, $6, $7)`,
		in.ID, in.Email, in.FirstName, in.LastName, entity.NormalizeHandle(in.TelegramHandle), in.Secret, in.CreatedAt,
	)

	return s.mapError(err)
}
