package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/teleauth/internal/identity/entity"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
)

type RequestOTPInput struct {
	Email string `validate:"required,email"`
}

// RequestOTP mints a messenger code, stores it with its expiry and pushes it
// to the linked chat. A new request replaces any code still pending.
func (s *Usecase) RequestOTP(ctx context.Context, in RequestOTPInput) error {
	ctx, span := s.startSpan(ctx, "RequestOTP")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	errNotLinked := goerror.NewBusinessWrap(entity.ErrNotLinked, "Account not found or Telegram not linked", goerror.CodeForbidden)

	identity, err := s.repoDB.GetIdentityByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp requested for unknown identity", "email", in.Email)
		return errNotLinked
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by email", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	if !identity.Linked || identity.ChatID == nil {
		slog.WarnContext(ctx, "otp requested for identity without telegram link", "identity_id", identity.ID)
		return errNotLinked
	}

	code, err := s.otpCode.NewCode()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate messenger otp", "identity_id", identity.ID, "error", err)
		return goerror.NewServer(err)
	}

	expiresAt := s.clock.Now().Add(s.otpTTL())
	ok, err := s.repoDB.UpdateIdentityOTP(ctx, identity.Email, code, expiresAt)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update identity otp", "identity_id", identity.ID, "error", err)
		return goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "identity vanished before otp was stored", "identity_id", identity.ID)
		return errNotLinked
	}

	if err := s.repoTelegram.SendText(ctx, *identity.ChatID, fmt.Sprintf("Your OTP is %s", code)); err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp over telegram", "identity_id", identity.ID, "chat_id", *identity.ChatID, "error", err)
		s.count(ctx, s.otpDispatched, attribute.String("result", "failed"))
		return goerror.NewBusinessWrap(errors.Join(entity.ErrDispatchFailed, err),
			"Failed to deliver the code over Telegram, please request a new one", goerror.CodeBadGateway)
	}

	s.count(ctx, s.otpDispatched, attribute.String("result", "sent"))
	slog.InfoContext(ctx, "messenger otp dispatched", "identity_id", identity.ID, "expires_at", expiresAt)

	return nil
}
