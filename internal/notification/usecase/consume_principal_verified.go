package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/mindjournal/internal/notification/entity"
	"github.com/shandysiswandi/mindjournal/internal/pkg/valueobject"
)

type ConsumePrincipalVerifiedInput struct {
	PrincipalID int64  `validate:"required,gt=0"`
	Username    string `validate:"required"`
	Email       string `validate:"required,email"`
}

// ConsumePrincipalVerified sends the welcome email for a principal until one
// send succeeds. Only the consumer holding the delivery claim sends. A returned
// error asks the broker to redeliver. Malformed events are dropped.
func (s *Usecase) ConsumePrincipalVerified(ctx context.Context, in ConsumePrincipalVerifiedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumePrincipalVerified")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid principal verified event dropped", "principal_id", in.PrincipalID, "error", err)
		return nil
	}

	d, claimed, err := s.repoDB.ClaimDelivery(ctx, entity.NewDelivery{
		ID:          s.uid.Generate(),
		PrincipalID: in.PrincipalID,
		Kind:        entity.KindWelcome,
		Channel:     entity.ChannelEmail,
		Data:        valueobject.JSONMap{"username": in.Username, "email": in.Email},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo claim delivery", "principal_id", in.PrincipalID, "error", err)
		return err
	}

	if !claimed {
		if d.Status == entity.DeliveryStatusSent {
			slog.InfoContext(ctx, "welcome email already sent", "principal_id", in.PrincipalID, "delivery_id", d.ID)
			return nil
		}
		slog.WarnContext(ctx, "welcome email held by another consumer", "principal_id", in.PrincipalID, "delivery_id", d.ID)
		return ErrDeliveryInProgress
	}

	var html bytes.Buffer
	if err := welcomeHTML.Execute(&html, welcomeData{Username: in.Username, Year: s.clock.Now().Year()}); err != nil {
		slog.ErrorContext(ctx, "failed to render welcome email", "principal_id", in.PrincipalID, "error", err)
		return nil
	}
	text := fmt.Sprintf("Welcome to Journal App, %s! Your account is verified.", in.Username)

	if err := s.repoMail.Send(ctx, in.Email, WelcomeSubject, html.String(), text); err != nil {
		slog.ErrorContext(ctx, "failed to send welcome email", "principal_id", in.PrincipalID, "delivery_id", d.ID, "error", err)
		if uErr := s.repoDB.UpdateDeliveryStatus(ctx, d.ID, entity.DeliveryStatusFailed, err.Error()); uErr != nil {
			slog.ErrorContext(ctx, "failed to repo mark delivery failed", "delivery_id", d.ID, "error", uErr)
		}
		return err
	}

	if err := s.repoDB.UpdateDeliveryStatus(ctx, d.ID, entity.DeliveryStatusSent, ""); err != nil {
		slog.ErrorContext(ctx, "failed to repo mark delivery sent", "delivery_id", d.ID, "error", err)
	}

	return nil
}
