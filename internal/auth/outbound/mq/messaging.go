package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/mindjournal/internal/auth/usecase"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/messaging"
	"github.com/shandysiswandi/mindjournal/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishPrincipalVerified(ctx context.Context, msg usecase.PrincipalVerifiedEvent) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishPrincipalVerified")
	defer span.End()

	body, err := json.Marshal(event.PrincipalVerifiedMessage{
		PrincipalID: msg.PrincipalID,
		Username:    msg.Username,
		Email:       msg.Email,
		VerifiedAt:  msg.VerifiedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, event.PrincipalVerifiedTopic, messaging.OutgoingMessage{
		Body:    body,
		Headers: map[string]string{event.HeaderCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
