package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shandysiswandi/teleauth/internal/identity/usecase"
	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"github.com/shandysiswandi/teleauth/internal/pkg/messaging"
	"github.com/shandysiswandi/teleauth/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessaging_PublishTelegramUpdate(t *testing.T) {
	// Arrange
	broker := messaging.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan messaging.Message, 1)
	go func() {
		_ = broker.Consume(ctx, event.TelegramUpdateDestination, func(_ context.Context, msg messaging.Message) error {
			got <- msg
			return nil
		})
	}()
	require.Eventually(t, func() bool { return broker.Subscribers(event.TelegramUpdateDestination) == 1 }, time.Second, 5*time.Millisecond)

	m := NewMessaging(broker, instrument.NewNoop())
	pubCtx := instrument.SetCorrelationID(ctx, "cid-1")

	// Act
	err := m.PublishTelegramUpdate(pubCtx, usecase.TelegramUpdateEvent{
		UpdateID:  5,
		ChatID:    77,
		Username:  "ann_tg",
		FirstName: "Ann",
		Text:      "/auth",
		SentAt:    time.Unix(1700000000, 0),
	})

	// Assert
	require.NoError(t, err)

	var msg messaging.Message
	select {
	case msg = <-got:
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	var body event.TelegramUpdateMessage
	require.NoError(t, json.Unmarshal(msg.Body(), &body))
	assert.Equal(t, event.TelegramUpdateMessage{
		UpdateID: 5, ChatID: 77, Username: "ann_tg", FirstName: "Ann", Text: "/auth", SentAt: 1700000000,
	}, body)
	assert.Equal(t, []byte("77"), msg.Key())
	assert.Equal(t, "cid-1", messaging.HeaderValue(msg, keyOfCorrelationID))
}
