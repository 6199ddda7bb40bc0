package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
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
	"github.com/shandysiswandi/teleauth/internal/pkg/telegram"
	"github.com/shandysiswandi/teleauth/internal/pkg/uid"
	"github.com/shandysiswandi/teleauth/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine    *goroutine.Manager
	validator    validator.Validator
	clock        clock.Clocker
	uid          uid.NumberID
	uuid         uid.StringID
	totp         otp.OTP
	otpCode      otp.CodeGenerator
	jwt          jwt.JWT
	mfaEncryptor mfa.Encryptor

	// resources
	dbConn     *pgxpool.Pool
	cacheConn  *redis.Client
	idemp      idempotency.Idempotency
	revocation jwt.Revocation
	messaging  messaging.Messaging
	telegram   *telegram.Client

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMessaging()
	app.initTelegram()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
