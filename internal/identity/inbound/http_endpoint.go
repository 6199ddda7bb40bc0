package inbound

import (
	"errors"
	"log/slog"

	"github.com/shandysiswandi/teleauth/internal/identity/usecase"
	"github.com/shandysiswandi/teleauth/internal/pkg/goerror"
	"github.com/shandysiswandi/teleauth/internal/pkg/router"
	"github.com/shandysiswandi/teleauth/internal/pkg/telegram"
)

const gravatarBaseURL = "https://www.gravatar.com/avatar/"

// HTTPEndpoint exposes the registration, login and session handlers.
type HTTPEndpoint struct {
	uc            uc
	webhookSecret string
}

func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		TelegramHandle: req.TelegramHandle,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{
		Secret:          resp.Secret,
		ProvisioningURI: resp.ProvisioningURI,
		LinkInstruction: resp.LinkInstruction,
		BotUsername:     resp.BotUsername,
	}, nil
}

// RequestOTP sends a fresh messenger code to the linked chat.
func (h *HTTPEndpoint) RequestOTP(r *router.Request) (any, error) {
	var req RequestOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.RequestOTP(r.Context(), usecase.RequestOTPInput{Email: req.Email}); err != nil {
		return nil, err
	}

	return RequestOTPResponse{}, nil
}

// RequestOTPQuery is RequestOTP with the email in the query string.
func (h *HTTPEndpoint) RequestOTPQuery(r *router.Request) (any, error) {
	if err := h.uc.RequestOTP(r.Context(), usecase.RequestOTPInput{Email: r.GetQuery("email")}); err != nil {
		return nil, err
	}

	return RequestOTPResponse{}, nil
}

func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:        req.Email,
		MessengerOTP: req.MessengerOTP,
		TOTPCode:     req.TOTPCode,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{AccessToken: resp.AccessToken}, nil
}

func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context()); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}

func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:             resp.ID,
		Email:          resp.Email,
		FirstName:      resp.FirstName,
		LastName:       resp.LastName,
		TelegramHandle: resp.TelegramHandle,
		Linked:         resp.Linked,
		GravatarURL:    gravatarBaseURL + resp.GravatarHash,
		CreatedAt:      resp.CreatedAt,
	}, nil
}

// TelegramWebhook receives updates pushed by the Bot API and hands them to
// the broker. Telegram retries anything that is not a 2xx.
func (h *HTTPEndpoint) TelegramWebhook(r *router.Request) (any, error) {
	update, err := telegram.ParseWebhook(r.Request, h.webhookSecret)
	if errors.Is(err, telegram.ErrWebhookSecret) {
		slog.WarnContext(r.Context(), "telegram webhook with wrong secret token")
		return nil, goerror.NewBusiness("Invalid webhook secret", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.WarnContext(r.Context(), "telegram webhook body rejected", "error", err)
		return nil, goerror.NewInvalidFormat()
	}

	ev, ok := updateEvent(*update)
	if !ok {
		return WebhookResponse{}, nil
	}

	if err := h.uc.ForwardTelegramUpdate(r.Context(), ev); err != nil {
		return nil, err
	}

	return WebhookResponse{}, nil
}
