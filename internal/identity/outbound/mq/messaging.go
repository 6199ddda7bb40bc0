package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/teleauth/internal/identity/usecase"
	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"github.com/shandysiswandi/teleauth/internal/pkg/messaging"
	"github.com/shandysiswandi/teleauth/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishTelegramUpdate keys the message by chat so a partitioned broker
// keeps one chat's updates in order.
func (m *Messaging) PublishTelegramUpdate(ctx context.Context, msg usecase.TelegramUpdateEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishTelegramUpdate")
	defer span.End()

	body, err := json.Marshal(event.TelegramUpdateMessage{
		UpdateID:  msg.UpdateID,
		ChatID:    msg.ChatID,
		Username:  msg.Username,
		FirstName: msg.FirstName,
		Text:      msg.Text,
		SentAt:    msg.SentAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.TelegramUpdateDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatInt(msg.ChatID, 10)),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
