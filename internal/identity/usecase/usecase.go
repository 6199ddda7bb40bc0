package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/teleauth/internal/identity/entity"
	"github.com/shandysiswandi/teleauth/internal/pkg/clock"
	"github.com/shandysiswandi/teleauth/internal/pkg/config"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
	"github.com/shandysiswandi/teleauth/internal/pkg/idempotency"
	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"github.com/shandysiswandi/teleauth/internal/pkg/jwt"
	"github.com/shandysiswandi/teleauth/internal/pkg/mfa"
	"github.com/shandysiswandi/teleauth/internal/pkg/otp"
	"github.com/shandysiswandi/teleauth/internal/pkg/uid"
	"github.com/shandysiswandi/teleauth/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const defaultOTPTTL = 300 * time.Second

type TelegramUpdateEvent struct {
	UpdateID  int64
	ChatID    int64
	Username  string
	FirstName string
	Text      string
	SentAt    time.Time
}

type repoMessaging interface {
	PublishTelegramUpdate(ctx context.Context, msg TelegramUpdateEvent) error
}

type repoTelegram interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type repoDB interface {
	CreateIdentity(ctx context.Context, in entity.NewIdentity) error

	GetIdentityByEmail(ctx context.Context, email string) (*entity.Identity, error)
	GetIdentityByHandle(ctx context.Context, handle string) (*entity.Identity, error)
	GetIdentityByChatID(ctx context.Context, chatID int64) (*entity.Identity, error)

	UpdateIdentityChannel(ctx context.Context, email, handle string, chatID int64) (bool, error)
	UpdateIdentityOTP(ctx context.Context, email, code string, expiresAt time.Time) (bool, error)
	ConsumeIdentityOTP(ctx context.Context, email string, check func(entity.Identity) error) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	repoTelegram  repoTelegram
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	mfaEncryptor  mfa.Encryptor
	uid           uid.NumberID
	totp          otp.OTP
	otpCode       otp.CodeGenerator
	clock         clock.Clocker
	jwt           jwt.JWT
	revocation    jwt.Revocation
	ins           instrument.Instrumentation
	botUsername   string

	otpDispatched metric.Int64Counter
	loginResult   metric.Int64Counter
	linkResult    metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	RepoTelegram  repoTelegram
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	MFAEncryptor  mfa.Encryptor
	UID           uid.NumberID
	Totp          otp.OTP
	OTPCode       otp.CodeGenerator
	Clock         clock.Clocker
	JWT           jwt.JWT
	Revocation    jwt.Revocation
	Instrument    instrument.Instrumentation
	BotUsername   string
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		repoTelegram:  dep.RepoTelegram,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		mfaEncryptor:  dep.MFAEncryptor,
		uid:           dep.UID,
		totp:          dep.Totp,
		otpCode:       dep.OTPCode,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		revocation:    dep.Revocation,
		ins:           dep.Instrument,
		botUsername:   dep.BotUsername,
	}

	meter := s.ins.Meter("identity.usecase")

	var err error
	if s.otpDispatched, err = meter.Int64Counter("identity.otp.dispatched", metric.WithDescription("Messenger OTPs minted and handed to Telegram")); err != nil {
		slog.Error("failed to create otp dispatched counter", "error", err)
	}
	if s.loginResult, err = meter.Int64Counter("identity.login.result", metric.WithDescription("Finished login attempts by state and reason")); err != nil {
		slog.Error("failed to create login result counter", "error", err)
	}
	if s.linkResult, err = meter.Int64Counter("identity.link.result", metric.WithDescription("Telegram link attempts by result")); err != nil {
		slog.Error("failed to create link result counter", "error", err)
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) count(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	if c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (s *Usecase) otpTTL() time.Duration {
	if ttl := s.cfg.GetSecond("modules.identity.otp.ttl"); ttl > 0 {
		return ttl
	}
	return defaultOTPTTL
}

// openSecret decrypts the TOTP seed sealed for this identity.
func (s *Usecase) openSecret(id entity.Identity) (string, error) {
	plain, err := s.mfaEncryptor.Decrypt(id.Secret, mfa.Scope{IdentityID: id.ID, Purpose: mfa.PurposeTOTPSeed})
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}
