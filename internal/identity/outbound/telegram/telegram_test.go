package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
)

type slowSender struct {
	delay time.Duration
	err   error
	got   string
}

func (s *slowSender) SendText(ctx context.Context, _ int64, text string) error {
	select {
	case <-time.After(s.delay):
		s.got = text
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestTelegram_SendText(t *testing.T) {
	t.Run("delivered", func(t *testing.T) {
		sender := &slowSender{}
		tg := NewTelegram(sender, time.Second, instrument.NewNoop())

		assert.NoError(t, tg.SendText(context.Background(), 1, "hello"))
		assert.Equal(t, "hello", sender.got)
	})

	t.Run("timeout", func(t *testing.T) {
		tg := NewTelegram(&slowSender{delay: time.Second}, 10*time.Millisecond, instrument.NewNoop())

		err := tg.SendText(context.Background(), 1, "hello")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("upstream error", func(t *testing.T) {
		boom := errors.New("chat not found")
		tg := NewTelegram(&slowSender{err: boom}, time.Second, instrument.NewNoop())

		assert.ErrorIs(t, tg.SendText(context.Background(), 1, "hello"), boom)
	})
}
