package inbound

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/mindjournal/internal/pkg/goroutine"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/messaging"
	"github.com/shandysiswandi/mindjournal/internal/pkg/uid"
	"github.com/shandysiswandi/mindjournal/internal/shared/event"
)

// RegisterMQConsumer starts the notification consumers on routine. They stop
// when ctx is canceled.
func RegisterMQConsumer(
	ctx context.Context,
	routine *goroutine.Manager,
	consumer messaging.Consumer,
	concurrency int,
	uuid uid.StringID,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	var consumers = []struct {
		group   string
		topic   string
		handler messaging.Handler
	}{
		{
			group:   event.PrincipalVerifiedConsumerNotification,
			topic:   event.PrincipalVerifiedTopic,
			handler: mqHandler.PrincipalVerifiedNotification,
		},
	}

	for _, c := range consumers {
		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", c.group, "topic", c.topic)
			return consumer.Consume(pCtx,
				c.topic,
				c.handler,
				messaging.WithGroup(c.group),
				messaging.WithConcurrency(concurrency),
			)
		})
	}
}
