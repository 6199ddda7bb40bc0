package inbound

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shandysiswandi/teleauth/internal/identity/usecase"
	"github.com/shandysiswandi/teleauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"github.com/shandysiswandi/teleauth/internal/pkg/telegram"
	"github.com/shandysiswandi/teleauth/internal/pkg/uid"
)

// RegisterTelegramPoller runs the long-polling bot gateway in the background.
// Each update is forwarded to the broker before its offset is acknowledged.
func RegisterTelegramPoller(
	ctx context.Context,
	routine *goroutine.Manager,
	poller *telegram.Poller,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) error {
	return routine.Go(ctx, func(pCtx context.Context) error {
		slog.InfoContext(ctx, "Running job for telegram long polling")
		return poller.Run(pCtx, func(ctx context.Context, update tgbotapi.Update) error {
			ctx = instrument.SetCorrelationID(ctx, uuid.Generate())

			ctx, span := ins.Tracer("identity.inbound.telegram").Start(ctx, "PollTelegramUpdate")
			defer span.End()

			ev, ok := updateEvent(update)
			if !ok {
				return nil
			}

			return uc.ForwardTelegramUpdate(ctx, ev)
		})
	})
}

// updateEvent keeps the fields of a private text message the bot reacts to.
// Anything else (edits, channel posts, stickers) is skipped.
func updateEvent(update tgbotapi.Update) (usecase.TelegramUpdateEvent, bool) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return usecase.TelegramUpdateEvent{}, false
	}

	ev := usecase.TelegramUpdateEvent{
		UpdateID: int64(update.UpdateID),
		ChatID:   msg.Chat.ID,
		Text:     msg.Text,
		SentAt:   time.Unix(int64(msg.Date), 0).UTC(),
	}
	if msg.From != nil {
		ev.Username = msg.From.UserName
		ev.FirstName = msg.From.FirstName
	}

	return ev, true
}
