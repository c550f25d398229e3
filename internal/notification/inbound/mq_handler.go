package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/mindjournal/internal/notification/usecase"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/messaging"
	"github.com/shandysiswandi/mindjournal/internal/pkg/uid"
	"github.com/shandysiswandi/mindjournal/internal/shared/event"
)

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers map[string]string) context.Context {
	if cID := headers[event.HeaderCorrelationID]; cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// PrincipalVerifiedNotification acks unparsable payloads and returns usecase
// errors so the broker redelivers.
func (h *MQHandler) PrincipalVerifiedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "PrincipalVerifiedNotification")
	defer span.End()

	slog.InfoContext(ctx, "consume: principal verified notification", "msg_id", msg.ID, "attempts", msg.Attempts)

	var payload event.PrincipalVerifiedMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of principal verified notification", "msg_id", msg.ID, "error", err)
		return nil
	}

	if err := h.uc.ConsumePrincipalVerified(ctx, usecase.ConsumePrincipalVerifiedInput{
		PrincipalID: payload.PrincipalID,
		Username:    payload.Username,
		Email:       payload.Email,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume principal verified", "principal_id", payload.PrincipalID, "error", err)
		return err
	}

	return nil
}
