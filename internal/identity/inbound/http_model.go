package inbound

import (
	"net/http"
	"time"
)

type RegisterRequest struct {
	FirstName      string `json:"firstname"`
	LastName       string `json:"lastname"`
	Email          string `json:"email"`
	TelegramHandle string `json:"telegram_handle"`
}

type RegisterResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
	LinkInstruction string `json:"link_instruction"`
	BotUsername     string `json:"bot_username,omitempty"`
}

func (RegisterResponse) StatusCode() int { return http.StatusCreated }

func (RegisterResponse) Message() string {
	return "Registration successful. Add the secret to your authenticator app and link your Telegram account."
}

type RequestOTPRequest struct {
	Email string `json:"email"`
}

type RequestOTPResponse struct{}

func (RequestOTPResponse) Message() string {
	return "OTP sent to your Telegram account"
}

type LoginRequest struct {
	Email        string `json:"email"`
	MessengerOTP string `json:"messenger_otp"`
	TOTPCode     string `json:"totp_code"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

func (LoginResponse) Message() string { return "Login successful" }

type LogoutResponse struct{}

func (LogoutResponse) Message() string { return "Logged out" }

type ProfileResponse struct {
	ID             int64     `json:"id,string"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstname"`
	LastName       string    `json:"lastname"`
	TelegramHandle string    `json:"telegram_handle"`
	Linked         bool      `json:"linked"`
	GravatarURL    string    `json:"gravatar_url"`
	CreatedAt      time.Time `json:"created_at"`
}

type WebhookResponse struct{}

func (WebhookResponse) Message() string { return "ok" }
