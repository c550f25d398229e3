package mail

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTP(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{Host: "localhost"})
	assert.ErrorIs(t, err, ErrSMTPHostPortRequired)

	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025})
	require.NoError(t, err)
	assert.Equal(t, "localhost:1025", s.addr)
	assert.Equal(t, defaultSMTPTimeout, s.timeout)
	assert.Nil(t, s.auth)
}

func TestSMTP_SendValidation(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025})
	require.NoError(t, err)

	err = s.Send(context.Background(), Message{Subject: "x"})
	assert.ErrorIs(t, err, ErrSMTPNoRecipients)

	err = s.Send(context.Background(), Message{To: []string{"a@example.com"}})
	assert.ErrorIs(t, err, ErrSMTPNoSender)

	err = s.Send(context.Background(), Message{To: []string{"a@example.com"}, From: "Journal App"})
	assert.ErrorContains(t, err, "parse sender")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Send(ctx, Message{To: []string{"a@example.com"}, From: "b@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSMTP_SendUnreachable(t *testing.T) {
	// Port 1 on loopback refuses connections on every CI runner we use.
	s, err := NewSMTP(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "noreply@example.com", Timeout: time.Second})
	require.NoError(t, err)

	err = s.Send(context.Background(), Message{To: []string{"a@example.com"}, TextBody: "hi"})
	assert.Error(t, err)
}

func TestBuildRaw(t *testing.T) {
	raw := string(buildRaw("noreply@example.com", Message{
		To:       []string{"alice@example.com", "bob@example.com"},
		Subject:  "Your code",
		TextBody: "123456",
	}))

	assert.True(t, strings.HasPrefix(raw, "From: noreply@example.com\r\n"))
	assert.Contains(t, raw, "To: alice@example.com, bob@example.com\r\n")
	assert.Contains(t, raw, "Subject: Your code\r\n")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=UTF-8\r\n\r\n123456")
}

func TestBuildRaw_EncodesSubject(t *testing.T) {
	raw := string(buildRaw("noreply@example.com", Message{
		To:      []string{"alice@example.com"},
		Subject: "Bienvenue à Journal",
	}))

	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.NotContains(t, raw, "à")
}

func TestBuildBody_Multipart(t *testing.T) {
	body, ct := buildBody(Message{TextBody: "plain", HTMLBody: "<b>html</b>"})

	assert.True(t, strings.HasPrefix(ct, "multipart/alternative; boundary=mindjournal-boundary-"))
	assert.Contains(t, body, "plain")
	assert.Contains(t, body, "<b>html</b>")
}
