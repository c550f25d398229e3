package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/mindjournal/internal/auth/usecase"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/messaging"
	"github.com/shandysiswandi/mindjournal/internal/shared/event"
)

func TestMessaging_PublishPrincipalVerified(t *testing.T) {
	broker := messaging.NewMemory()
	t.Cleanup(func() { _ = broker.Close() })

	verifiedAt := time.Date(2026, 5, 1, 9, 0, 10, 0, time.UTC)
	ctx := instrument.SetCorrelationID(context.Background(), "cid-1")

	err := NewMessaging(broker, instrument.NewNoop()).PublishPrincipalVerified(ctx, usecase.PrincipalVerifiedEvent{
		PrincipalID: 42,
		Username:    "alice",
		Email:       "alice@example.com",
		VerifiedAt:  verifiedAt,
	})
	require.NoError(t, err)

	got := make(chan messaging.Message, 1)
	cctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = broker.Consume(cctx, event.PrincipalVerifiedTopic, func(_ context.Context, msg messaging.Message) error {
			got <- msg
			return nil
		})
	}()

	select {
	case msg := <-got:
		assert.Equal(t, "cid-1", msg.Headers[event.HeaderCorrelationID])

		var payload event.PrincipalVerifiedMessage
		require.NoError(t, json.Unmarshal(msg.Body, &payload))
		assert.Equal(t, int64(42), payload.PrincipalID)
		assert.Equal(t, "alice", payload.Username)
		assert.True(t, verifiedAt.Equal(payload.VerifiedAt))
	case <-time.After(2 * time.Second):
		t.Fatal("event not published")
	}
}
