package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/teleauth/internal/identity/entity"
)

// ConsumeIdentityOTP locks the row, hands a snapshot to check and clears the
// code in the same transaction when check returns nil. Concurrent callers for
// the same email queue on the row lock and see the cleared code.
func (s *DB) ConsumeIdentityOTP(ctx context.Context, email string, check func(entity.Identity) error) (err error) {
	ctx, span := s.startSpan(ctx, "ConsumeIdentityOTP")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	identity, err := scanIdentity(tx.QueryRow(ctx,
		`select `+identityColumns+` from identities where email = $1 for update`, email))
	if err != nil {
		return s.mapError(err)
	}

	if err := check(*identity); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`update identities set current_otp = null, otp_expires_at = null where id = $1`, identity.ID); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}
