package telegram

import (
	"context"
	"time"

	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"github.com/shandysiswandi/teleauth/internal/pkg/telegram"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Telegram is the message sink for bot replies and OTP delivery. Every send
// is bounded by timeout regardless of the caller's deadline.
type Telegram struct {
	client  telegram.Sender
	timeout time.Duration
	ins     instrument.Instrumentation
}

func NewTelegram(client telegram.Sender, timeout time.Duration, ins instrument.Instrumentation) *Telegram {
	return &Telegram{client: client, timeout: timeout, ins: ins}
}

func (t *Telegram) SendText(ctx context.Context, chatID int64, text string) error {
	ctx, span := t.ins.Tracer("identity.outbound.telegram").Start(ctx, "SendText")
	defer span.End()

	span.SetAttributes(attribute.Int64("telegram.chat_id", chatID))

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	if err := t.client.SendText(ctx, chatID, text); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
