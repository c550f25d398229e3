// Package email delivers rendered notifications through the shared mail
// transport.
package email

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/mail"
)

type Mailer struct {
	transport mail.Mail
	tracer    string
	ins       instrument.Instrumentation
}

func New(transport mail.Mail, ins instrument.Instrumentation) *Mailer {
	return &Mailer{transport: transport, tracer: "notification.outbound.email", ins: ins}
}

// Send mails one message with an HTML part and a plain-text fallback.
// Only the recipient's domain is recorded on the span.
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	ctx, span := m.ins.Tracer(m.tracer).Start(ctx, "Send")
	defer span.End()

	_, domain, _ := strings.Cut(to, "@")
	span.SetAttributes(
		attribute.String("mail.subject", subject),
		attribute.String("mail.recipient_domain", domain),
	)

	msg := mail.Message{To: []string{to}, Subject: subject, HTMLBody: htmlBody, TextBody: textBody}
	if err := m.transport.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mail transport failed")
		return fmt.Errorf("send %q: %w", subject, err)
	}
	return nil
}
