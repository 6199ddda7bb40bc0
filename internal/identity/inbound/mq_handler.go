package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/teleauth/internal/identity/usecase"
	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"github.com/shandysiswandi/teleauth/internal/pkg/messaging"
	"github.com/shandysiswandi/teleauth/internal/pkg/uid"
	"github.com/shandysiswandi/teleauth/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := messaging.HeaderValue(msg, keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// TelegramUpdate runs the bot command of a forwarded update. Malformed bodies
// are dropped; use case errors nack the message so the broker hands it out
// again (the memory driver gives up after MemoryMaxDeliveries).
func (h *MQHandler) TelegramUpdate(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("identity.inbound.mq").Start(ctx, "TelegramUpdate")
	defer span.End()

	body := msg.Body()

	var payload event.TelegramUpdateMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of telegram update", "msg_id", msg.ID(), "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: telegram update", "update_id", payload.UpdateID, "chat_id", payload.ChatID)

	if err := h.uc.HandleTelegramUpdate(ctx, usecase.TelegramUpdateInput{
		UpdateID:  payload.UpdateID,
		ChatID:    payload.ChatID,
		Username:  payload.Username,
		FirstName: payload.FirstName,
		Text:      payload.Text,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to handle telegram update", "update_id", payload.UpdateID, "error", err)
		return err
	}

	return nil
}
