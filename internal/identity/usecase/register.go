package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/teleauth/internal/identity/entity"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
	"github.com/shandysiswandi/teleauth/internal/pkg/mfa"
)

type RegisterInput struct {
	FirstName      string `validate:"required,max=100"`
	LastName       string `validate:"max=100"`
	Email          string `validate:"required,email,max=254"`
	TelegramHandle string `validate:"required,tghandle"`
}

type RegisterOutput struct {
	Secret          string
	ProvisioningURI string
	LinkInstruction string
	BotUsername     string
}

// Register creates an identity with a fresh TOTP secret. The secret is
// returned once, here, and stored only in encrypted form.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	in.TelegramHandle = strings.TrimSpace(in.TelegramHandle)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	secret, uri, err := s.totp.Generate(in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	id := s.uid.Generate()
	sealed, err := s.mfaEncryptor.Encrypt([]byte(secret), mfa.Scope{IdentityID: id, Purpose: mfa.PurposeTOTPSeed})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "identity_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.CreateIdentity(ctx, entity.NewIdentity{
		ID:             id,
		Email:          in.Email,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		TelegramHandle: entity.NormalizeHandle(in.TelegramHandle),
		Secret:         sealed,
		CreatedAt:      s.clock.Now(),
	})
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "identity already registered", "email", in.Email, "telegram_handle", in.TelegramHandle)
		return nil, goerror.NewBusinessWrap(entity.ErrConflict, "Email or Telegram handle already registered", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create identity", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RegisterOutput{
		Secret:          secret,
		ProvisioningURI: uri,
		LinkInstruction: "auth " + in.Email,
		BotUsername:     s.botUsername,
	}, nil
}
