package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/teleauth/internal/identity/inbound"
	"github.com/shandysiswandi/teleauth/internal/identity/outbound/db"
	"github.com/shandysiswandi/teleauth/internal/identity/outbound/memory"
	"github.com/shandysiswandi/teleauth/internal/identity/outbound/mq"
	"github.com/shandysiswandi/teleauth/internal/identity/outbound/telegram"
	"github.com/shandysiswandi/teleauth/internal/identity/usecase"
	"github.com/shandysiswandi/teleauth/internal/pkg/clock"
	"github.com/shandysiswandi/teleauth/internal/pkg/config"
	"github.com/shandysiswandi/teleauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/teleauth/internal/pkg/idempotency"
	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"github.com/shandysiswandi/teleauth/internal/pkg/jwt"
	"github.com/shandysiswandi/teleauth/internal/pkg/messaging"
	"github.com/shandysiswandi/teleauth/internal/pkg/mfa"
	"github.com/shandysiswandi/teleauth/internal/pkg/otp"
	"github.com/shandysiswandi/teleauth/internal/pkg/router"
	pkgtelegram "github.com/shandysiswandi/teleauth/internal/pkg/telegram"
	"github.com/shandysiswandi/teleauth/internal/pkg/uid"
	"github.com/shandysiswandi/teleauth/internal/pkg/validator"
)

const (
	TelegramModePolling = "polling"
	TelegramModeWebhook = "webhook"
)

var ErrWebhookSecretRequired = errors.New("identity: telegram.webhook_secret is required in webhook mode")

type Dependency struct {
	Ctx          context.Context            `validate:"required"`
	Goroutine    *goroutine.Manager         `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Idempotency  idempotency.Idempotency    `validate:"required"`
	Messaging    messaging.Messaging        `validate:"required"`
	Telegram     *pkgtelegram.Client        `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UID          uid.NumberID               `validate:"required"`
	UUID         uid.StringID               `validate:"required"`
	MFAEncryptor mfa.Encryptor              `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Totp         otp.OTP                    `validate:"required"`
	OTPCode      otp.CodeGenerator          `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
	JWT          jwt.JWT                    `validate:"required"`
	Revocation   jwt.Revocation             `validate:"required"`

	// DBConn selects the PostgreSQL store; nil keeps identities in memory.
	DBConn *pgxpool.Pool
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}
	if err := checkTelegramMode(dep.Config); err != nil {
		return err
	}

	ucDep := usecase.Dependency{
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		RepoTelegram:  telegram.NewTelegram(dep.Telegram, dep.Config.GetSecond("telegram.send_timeout"), dep.Instrument),
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		MFAEncryptor:  dep.MFAEncryptor,
		UID:           dep.UID,
		Totp:          dep.Totp,
		OTPCode:       dep.OTPCode,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Revocation:    dep.Revocation,
		Instrument:    dep.Instrument,
		BotUsername:   dep.Telegram.Username(),
	}
	if dep.DBConn != nil {
		store := db.NewDB(dep.DBConn, dep.Instrument)
		if dep.Config.GetBool("database.migrate") {
			if err := store.Migrate(dep.Ctx); err != nil {
				return err
			}
		}
		ucDep.RepoDB = store
	} else {
		ucDep.RepoDB = memory.New()
	}

	uc := usecase.New(ucDep)

	mode := dep.Config.GetString("telegram.mode")

	inbound.RegisterHTTPEndpoint(dep.Router, uc, mode == TelegramModeWebhook, dep.Config.GetString("telegram.webhook_secret"))
	inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)

	if mode == TelegramModePolling {
		poller := pkgtelegram.NewPoller(dep.Telegram, dep.Config.GetInt("telegram.poll_timeout"))
		if err := inbound.RegisterTelegramPoller(dep.Ctx, dep.Goroutine, poller, dep.UUID, uc, dep.Instrument); err != nil {
			return err
		}
	}

	return nil
}

func checkTelegramMode(cfg config.Config) error {
	if cfg.GetString("telegram.mode") == TelegramModeWebhook && cfg.GetString("telegram.webhook_secret") == "" {
		return ErrWebhookSecretRequired
	}

	return nil
}
