package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/teleauth/internal/identity/entity"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
	"github.com/shandysiswandi/teleauth/internal/pkg/otp"
	"go.opentelemetry.io/otel/attribute"
)

type LoginInput struct {
	Email        string `validate:"required,email"`
	MessengerOTP string `validate:"required,max=16"`
	TOTPCode     string `validate:"required,max=16"`
}

type LoginOutput struct {
	AccessToken string
}

// Login verifies both codes against one consistent snapshot of the identity
// and consumes the messenger code on success. Checks run in this order:
// identity exists, chat is linked, code is present and expiry > now, then
// both codes match.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	now := s.clock.Now()
	var verified entity.Identity

	err := s.repoDB.ConsumeIdentityOTP(ctx, in.Email, func(id entity.Identity) error {
		if !id.Linked || id.ChatID == nil {
			return &entity.Rejection{Reason: entity.RejectReasonNotLinked}
		}

		if !id.HasLiveOTP(now) {
			return &entity.Rejection{Reason: entity.RejectReasonOtpExpired}
		}

		secret, err := s.openSecret(id)
		if err != nil {
			return err
		}

		// both checks always run
		messengerOK := otp.Equal(id.CurrentOTP, strings.TrimSpace(in.MessengerOTP))
		totpOK := s.totp.Validate(strings.TrimSpace(in.TOTPCode), secret, now)
		if !messengerOK || !totpOK {
			return &entity.Rejection{Reason: entity.RejectReasonInvalidOtp}
		}

		verified = id
		return nil
	})

	reason := entity.RejectReasonNone
	var rej *entity.Rejection
	switch {
	case err == nil:
	case errors.Is(err, goerror.ErrNotFound):
		reason = entity.RejectReasonUserNotFound
	case errors.As(err, &rej):
		reason = rej.Reason
	default:
		slog.ErrorContext(ctx, "failed to repo consume identity otp", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if reason != entity.RejectReasonNone {
		s.recordLogin(ctx, entity.LoginStateRejected, reason)
		slog.WarnContext(ctx, "login rejected", "email", in.Email, "reason", reason.String())
		return nil, loginError(reason)
	}

	s.recordLogin(ctx, entity.LoginStateVerified, reason)

	token, err := s.jwt.Generate(verified.ID, verified.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "identity_id", verified.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{AccessToken: token}, nil
}

func (s *Usecase) recordLogin(ctx context.Context, state entity.LoginState, reason entity.RejectReason) {
	s.count(ctx, s.loginResult,
		attribute.String("state", state.String()),
		attribute.String("reason", reason.String()),
	)
}

// loginError hides which of the two codes failed, and whether the messenger
// code was wrong or merely expired.
func loginError(reason entity.RejectReason) error {
	switch reason {
	case entity.RejectReasonUserNotFound:
		return goerror.NewBusinessWrap(entity.ErrNotFound, "Account not found", goerror.CodeNotFound)
	case entity.RejectReasonNotLinked:
		return goerror.NewBusinessWrap(entity.ErrNotLinked, "Telegram account not linked", goerror.CodeForbidden)
	default:
		return goerror.NewBusinessWrap(reason.Err(), "Invalid or expired code", goerror.CodeUnauthorized)
	}
}
