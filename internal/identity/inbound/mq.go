package inbound

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/teleauth/internal/pkg/config"
	"github.com/shandysiswandi/teleauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/teleauth/internal/pkg/instrument"
	"github.com/shandysiswandi/teleauth/internal/pkg/messaging"
	"github.com/shandysiswandi/teleauth/internal/pkg/uid"
	"github.com/shandysiswandi/teleauth/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.identity.consumer_names")

	var consumers = []struct {
		name              string
		topic             string // destination where publisher sent message
		natsConsumerName  string // for nats
		kafkaConsumerName string // for kafka
		handler           messaging.Handler
	}{
		{
			name:              event.TelegramUpdateConsumerIdentity,
			topic:             event.TelegramUpdateDestination,
			natsConsumerName:  event.TelegramUpdateConsumerIdentity,
			kafkaConsumerName: event.TelegramUpdateConsumerIdentity,
			handler:           mqHandler.TelegramUpdate,
		},
	}

	for _, consumer := range consumers {
		if !lo.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		err := routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithQueueGroup(consumer.natsConsumerName),
				messaging.WithGroup(consumer.kafkaConsumerName),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(cfg.GetInt("modules.identity.consumer_concurrency")),
			)
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to start consumer", "consumer", consumer.name, "error", err)
		}
	}
}
