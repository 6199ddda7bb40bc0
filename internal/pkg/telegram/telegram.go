package telegram

import (
	"context"
	"errors"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	ErrTokenRequired = errors.New("telegram: bot token is required")
	ErrInvalidChat   = errors.New("telegram: chat id is required")
)

// Sender delivers a text message to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Config struct {
	Token string
	// APIEndpoint is a format string with two %s verbs: token and method.
	// Empty uses the public Bot API.
	APIEndpoint string
	// HTTPTimeout bounds every Bot API call, including long polls.
	HTTPTimeout time.Duration
	Debug       bool
}

// Client talks to the Bot API. Construction calls getMe, so a bad token
// fails fast.
type Client struct {
	bot *tgbotapi.BotAPI
}

func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrTokenRequired
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	bot.Debug = cfg.Debug

	return &Client{bot: bot}, nil
}

// Username is the bot's @username without the '@'.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// SendText sends text to chatID. The Bot API client has no context support,
// so the call runs in its own goroutine and ctx bounds how long we wait.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	if chatID == 0 {
		return ErrInvalidChat
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.bot.Send(tgbotapi.NewMessage(chatID, text))
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetUpdates fetches updates starting at offset, waiting up to timeout
// seconds for one to arrive.
func (c *Client) GetUpdates(offset, timeout int) ([]tgbotapi.Update, error) {
	cfg := tgbotapi.NewUpdate(offset)
	cfg.Timeout = timeout
	cfg.AllowedUpdates = []string{"message"}

	return c.bot.GetUpdates(cfg)
}
