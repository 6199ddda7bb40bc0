package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sethvargo/go-retry"
	"go.uber.org/atomic"
)

var ErrPollerRunning = errors.New("telegram: poller already running")

type updateSource interface {
	GetUpdates(offset, timeout int) ([]tgbotapi.Update, error)
}

// UpdateHandler receives every polled update. An error stops the offset from
// advancing past that update, so it is fetched again on the next poll.
type UpdateHandler func(ctx context.Context, update tgbotapi.Update) error

// Poller long-polls getUpdates and reconnects with capped backoff.
type Poller struct {
	src     updateSource
	timeout int
	running *atomic.Bool
	offset  *atomic.Int64
}

// NewPoller creates a poller. timeout is the long-poll wait in seconds.
func NewPoller(src updateSource, timeout int) *Poller {
	if timeout < 0 {
		timeout = 0
	}

	return &Poller{
		src:     src,
		timeout: timeout,
		running: atomic.NewBool(false),
		offset:  atomic.NewInt64(0),
	}
}

func (p *Poller) Running() bool {
	return p.running.Load()
}

// Run blocks until ctx is done.
func (p *Poller) Run(ctx context.Context, handle UpdateHandler) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrPollerRunning
	}
	defer p.running.Store(false)

	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := p.poll(ctx, handle); errors.Is(err, context.Canceled) {
			return nil
		} else if err != nil {
			slog.ErrorContext(ctx, "telegram poll failed", "offset", p.offset.Load(), "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func (p *Poller) poll(ctx context.Context, handle UpdateHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.src.GetUpdates(int(p.offset.Load()), p.timeout)
		if err != nil {
			return err
		}

		for _, u := range updates {
			if err := handle(ctx, u); err != nil {
				return err
			}
			p.offset.Store(int64(u.UpdateID) + 1)
		}
	}
}
