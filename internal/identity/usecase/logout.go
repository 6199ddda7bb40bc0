package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
)

// Logout revokes the caller's access token until it would have expired.
func (s *Usecase) Logout(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if clm.ID == "" || clm.ExpiresAt == nil {
		slog.WarnContext(ctx, "token without jti or expiry", "identity_id", clm.IdentityID)
		return goerror.NewBusiness("Invalid or expired token", goerror.CodeUnauthorized)
	}

	if err := s.revocation.Revoke(ctx, clm.ID, clm.ExpiresAt.Time); err != nil {
		slog.ErrorContext(ctx, "failed to revoke access token", "identity_id", clm.IdentityID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
