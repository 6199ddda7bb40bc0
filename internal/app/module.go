package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/teleauth/internal/identity"
)

func (a *App) initModules() {
	if !a.config.GetBool("modules.identity.enabled") {
		return
	}

	if err := identity.New(identity.Dependency{
		Ctx:          a.ctx,
		Config:       a.config,
		Instrument:   a.ins,
		UID:          a.uid,
		UUID:         a.uuid,
		MFAEncryptor: a.mfaEncryptor,
		Clock:        a.clock,
		Validator:    a.validator,
		Router:       a.router,
		Totp:         a.totp,
		OTPCode:      a.otpCode,
		DBConn:       a.dbConn,
		Idempotency:  a.idemp,
		Messaging:    a.messaging,
		Telegram:     a.telegram,
		Goroutine:    a.goroutine,
		JWT:          a.jwt,
		Revocation:   a.revocation,
	}); err != nil {
		slog.Error("failed to init module identity", "error", err)
		os.Exit(1)
	}
}
