package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/teleauth/internal/identity/usecase"
	"github.com/shandysiswandi/teleauth/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	RequestOTP(ctx context.Context, in usecase.RequestOTPInput) error
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*usecase.ProfileOutput, error)

	ForwardTelegramUpdate(ctx context.Context, in usecase.TelegramUpdateEvent) error
	HandleTelegramUpdate(ctx context.Context, in usecase.TelegramUpdateInput) error
}

// RegisterHTTPEndpoint mounts the identity routes. webhookSecret guards the
// Telegram webhook; the route is only mounted when webhook mode is enabled.
func RegisterHTTPEndpoint(r *router.Router, uc uc, webhook bool, webhookSecret string) {
	end := &HTTPEndpoint{uc: uc, webhookSecret: webhookSecret}

	r.Public(http.MethodPost,
		"/api/v1/identity/register",
		"/api/v1/identity/otp",
		"/api/v1/identity/login",
	)
	r.Public(http.MethodGet, "/api/v1/identity/otp")

	r.POST("/api/v1/identity/register", end.Register)
	r.POST("/api/v1/identity/otp", end.RequestOTP)
	r.GET("/api/v1/identity/otp", end.RequestOTPQuery)
	r.POST("/api/v1/identity/login", end.Login)

	// need authenticated
	r.GET("/api/v1/identity/profile", end.Profile)
	r.POST("/api/v1/identity/logout", end.Logout)

	if webhook {
		r.Public(http.MethodPost, "/api/v1/telegram/webhook")
		r.POST("/api/v1/telegram/webhook", end.TelegramWebhook)
	}
}
