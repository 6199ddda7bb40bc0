package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
)

type ProfileOutput struct {
	ID             int64
	Email          string
	FirstName      string
	LastName       string
	TelegramHandle string
	Linked         bool
	GravatarHash   string
	CreatedAt      time.Time
}

func (s *Usecase) Profile(ctx context.Context) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	identity, err := s.repoDB.GetIdentityByEmail(ctx, clm.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "authenticated identity not found", "identity_id", clm.IdentityID)
		return nil, goerror.NewBusiness("Account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by email", "identity_id", clm.IdentityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ProfileOutput{
		ID:             identity.ID,
		Email:          identity.Email,
		FirstName:      identity.FirstName,
		LastName:       identity.LastName,
		TelegramHandle: identity.TelegramHandle,
		Linked:         identity.Linked,
		GravatarHash:   gravatarHash(identity.Email),
		CreatedAt:      identity.CreatedAt,
	}, nil
}

// gravatarHash follows Gravatar's addressing: md5 of the trimmed, lower-cased email.
func gravatarHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}
