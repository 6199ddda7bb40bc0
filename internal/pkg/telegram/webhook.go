package telegram

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SecretTokenHeader carries the secret_token given to setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxWebhookBody = 1 << 20

var (
	ErrWebhookSecret = errors.New("telegram: webhook secret token mismatch")
	ErrWebhookBody   = errors.New("telegram: malformed webhook body")
)

// ParseWebhook checks the secret token header and decodes the update. An empty
// secret rejects every request.
func ParseWebhook(r *http.Request, secret string) (*tgbotapi.Update, error) {
	if secret == "" {
		return nil, ErrWebhookSecret
	}
	got := r.Header.Get(SecretTokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
		return nil, ErrWebhookSecret
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&update); err != nil {
		return nil, errors.Join(ErrWebhookBody, err)
	}

	return &update, nil
}
