package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/mindjournal/internal/notification/entity"
	"github.com/shandysiswandi/mindjournal/internal/notification/usecase"
	"github.com/shandysiswandi/mindjournal/internal/pkg/config"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goroutine"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/jwt"
	"github.com/shandysiswandi/mindjournal/internal/pkg/messaging"
	"github.com/shandysiswandi/mindjournal/internal/pkg/router"
	"github.com/shandysiswandi/mindjournal/internal/pkg/uid"
	"github.com/shandysiswandi/mindjournal/internal/shared/event"
)

type fakeUC struct {
	mu       sync.Mutex
	consumed []usecase.ConsumePrincipalVerifiedInput
	cIDs     []string
	failOnce bool
}

func (f *fakeUC) ConsumePrincipalVerified(ctx context.Context, in usecase.ConsumePrincipalVerifiedInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOnce {
		f.failOnce = false
		return errors.New("smtp down")
	}
	f.consumed = append(f.consumed, in)
	f.cIDs = append(f.cIDs, instrument.GetCorrelationID(ctx))
	return nil
}

func (f *fakeUC) snapshot() ([]usecase.ConsumePrincipalVerifiedInput, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]usecase.ConsumePrincipalVerifiedInput(nil), f.consumed...), append([]string(nil), f.cIDs...)
}

func (f *fakeUC) ListDeliveries(ctx context.Context) ([]entity.Delivery, error) {
	if jwt.GetAuth(ctx) == nil {
		return nil, usecase.ErrAuthRequired
	}
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []entity.Delivery{{
		ID:        9,
		Kind:      entity.KindWelcome,
		Channel:   entity.ChannelEmail,
		Status:    entity.DeliveryStatusSent,
		CreatedAt: at,
		UpdatedAt: at,
	}}, nil
}

func publish(t *testing.T, broker messaging.Publisher, body string, headers map[string]string) {
	t.Helper()
	require.NoError(t, broker.Publish(context.Background(), event.PrincipalVerifiedTopic, messaging.OutgoingMessage{
		Body:    []byte(body),
		Headers: headers,
	}))
}

func TestRegisterMQConsumer(t *testing.T) {
	broker := messaging.NewMemory()
	t.Cleanup(func() { _ = broker.Close() })

	uc := &fakeUC{failOnce: true}
	ctx, cancel := context.WithCancel(context.Background())
	routine := goroutine.NewManager(2)
	RegisterMQConsumer(ctx, routine, broker, 1, uid.NewUUID(), uc, instrument.NewNoop())

	publish(t, broker, `{not json`, nil)
	publish(t, broker, `{"principal_id":"42","username":"alice","email":"alice@example.com"}`,
		map[string]string{event.HeaderCorrelationID: "corr-1"})

	require.Eventually(t, func() bool {
		got, _ := uc.snapshot()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	got, cIDs := uc.snapshot()
	assert.Equal(t, usecase.ConsumePrincipalVerifiedInput{PrincipalID: 42, Username: "alice", Email: "alice@example.com"}, got[0])
	assert.Equal(t, "corr-1", cIDs[0])

	publish(t, broker, `{"principal_id":"7","username":"bob","email":"bob@example.com"}`, nil)
	require.Eventually(t, func() bool {
		got, _ := uc.snapshot()
		return len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)
	_, cIDs = uc.snapshot()
	assert.NotEmpty(t, cIDs[1])

	cancel()
	require.ErrorIs(t, routine.Wait(), context.Canceled)
}

type staticJWT struct{}

func (staticJWT) Generate(int64, string) (jwt.Token, error) { return jwt.Token{}, nil }

func (staticJWT) Verify(string) (jwt.Claims, error) { return jwt.Claims{PrincipalID: 42}, nil }

func TestHTTP_ListDeliveries(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("{}"))
	require.NoError(t, err)
	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       uid.NewUUID(),
		JWT:        staticJWT{},
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, &fakeUC{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notification/deliveries", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/notification/deliveries", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Message string             `json:"message"`
		Data    DeliveriesResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "deliveries retrieved", body.Message)
	require.Len(t, body.Data.Deliveries, 1)
	assert.Equal(t, DeliveryResponse{
		ID:        9,
		Kind:      "welcome",
		Channel:   "email",
		Status:    "sent",
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}, body.Data.Deliveries[0])
}
