package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/mindjournal/internal/notification/entity"
	"github.com/shandysiswandi/mindjournal/internal/pkg/clock"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/jwt"
	"github.com/shandysiswandi/mindjournal/internal/pkg/uid"
	"github.com/shandysiswandi/mindjournal/internal/pkg/validator"
)

type fakeRepo struct {
	mu         sync.Mutex
	deliveries map[int64]entity.Delivery
	claimErr   error
	listErr    error

	// leaseExpired makes processing rows claimable, as after a crashed holder.
	leaseExpired bool
}

func (f *fakeRepo) ClaimDelivery(_ context.Context, nd entity.NewDelivery) (entity.Delivery, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return entity.Delivery{}, false, f.claimErr
	}
	for _, d := range f.deliveries {
		if d.PrincipalID == nd.PrincipalID && d.Kind == nd.Kind && d.Channel == nd.Channel {
			stale := d.Status == entity.DeliveryStatusProcessing && f.leaseExpired
			if d.Status != entity.DeliveryStatusFailed && !stale {
				return d, false, nil
			}
			d.Status = entity.DeliveryStatusProcessing
			d.Error = ""
			f.deliveries[d.ID] = d
			return d, true, nil
		}
	}
	d := entity.Delivery{
		ID:          nd.ID,
		PrincipalID: nd.PrincipalID,
		Kind:        nd.Kind,
		Channel:     nd.Channel,
		Status:      entity.DeliveryStatusProcessing,
		Data:        nd.Data,
	}
	f.deliveries[d.ID] = d
	return d, true, nil
}

func (f *fakeRepo) UpdateDeliveryStatus(_ context.Context, id int64, status entity.DeliveryStatus, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.deliveries[id]
	if !ok {
		return goerror.ErrNotFound
	}
	d.Status = status
	d.Error = errMsg
	f.deliveries[id] = d
	return nil
}

func (f *fakeRepo) ListDeliveries(_ context.Context, principalID int64) ([]entity.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []entity.Delivery
	for _, d := range f.deliveries {
		if d.PrincipalID == principalID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) only(t *testing.T) entity.Delivery {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.deliveries, 1)
	for _, d := range f.deliveries {
		return d
	}
	return entity.Delivery{}
}

type sentMail struct {
	to, subject, html, text string
}

type fakeMail struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMail) Send(_ context.Context, to, subject, htmlBody, textBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, html: htmlBody, text: textBody})
	return nil
}

type fixture struct {
	uc   *Usecase
	repo *fakeRepo
	mail *fakeMail
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)
	sf, err := uid.NewSnowflakeNode(1)
	require.NoError(t, err)

	f := &fixture{repo: &fakeRepo{deliveries: map[int64]entity.Delivery{}}, mail: &fakeMail{}}
	f.uc = NewNotification(Dependency{
		RepoDB:     f.repo,
		RepoMail:   f.mail,
		UID:        sf,
		Clock:      clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		Validator:  v,
		Instrument: instrument.NewNoop(),
	})
	return f
}

var alice = ConsumePrincipalVerifiedInput{PrincipalID: 42, Username: "alice", Email: "alice@example.com"}

func TestConsumePrincipalVerified_SendsWelcomeOnce(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.uc.ConsumePrincipalVerified(context.Background(), alice))
	require.NoError(t, f.uc.ConsumePrincipalVerified(context.Background(), alice))

	require.Len(t, f.mail.sent, 1)
	got := f.mail.sent[0]
	assert.Equal(t, "alice@example.com", got.to)
	assert.Equal(t, WelcomeSubject, got.subject)
	assert.Contains(t, got.html, "Welcome to Journal App, alice!")
	assert.Contains(t, got.html, "2026 Journal App")
	assert.Contains(t, got.text, "alice")

	d := f.repo.only(t)
	assert.Equal(t, entity.DeliveryStatusSent, d.Status)
	assert.Equal(t, entity.KindWelcome, d.Kind)
	assert.Equal(t, "alice", d.Data.GetString("username"))
}

func TestConsumePrincipalVerified_EscapesUsername(t *testing.T) {
	f := newFixture(t)
	in := alice
	in.Username = "<script>x</script>"

	require.NoError(t, f.uc.ConsumePrincipalVerified(context.Background(), in))
	require.Len(t, f.mail.sent, 1)
	assert.NotContains(t, f.mail.sent[0].html, "<script>")
}

func TestConsumePrincipalVerified_SendFailureIsRetried(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errors.New("smtp down")

	err := f.uc.ConsumePrincipalVerified(context.Background(), alice)
	require.ErrorContains(t, err, "smtp down")

	d := f.repo.only(t)
	assert.Equal(t, entity.DeliveryStatusFailed, d.Status)
	assert.Equal(t, "smtp down", d.Error)

	f.mail.err = nil
	require.NoError(t, f.uc.ConsumePrincipalVerified(context.Background(), alice))
	require.Len(t, f.mail.sent, 1)

	d = f.repo.only(t)
	assert.Equal(t, entity.DeliveryStatusSent, d.Status)
	assert.Empty(t, d.Error)
}

func TestConsumePrincipalVerified_ExistingDelivery(t *testing.T) {
	tests := []struct {
		name         string
		status       entity.DeliveryStatus
		leaseExpired bool
		wantErr      error
		wantSent     int
		wantStatus   entity.DeliveryStatus
	}{
		{name: "held by another consumer", status: entity.DeliveryStatusProcessing, wantErr: ErrDeliveryInProgress, wantStatus: entity.DeliveryStatusProcessing},
		{name: "holder lease expired", status: entity.DeliveryStatusProcessing, leaseExpired: true, wantSent: 1, wantStatus: entity.DeliveryStatusSent},
		{name: "previous send failed", status: entity.DeliveryStatusFailed, wantSent: 1, wantStatus: entity.DeliveryStatusSent},
		{name: "already sent", status: entity.DeliveryStatusSent, wantStatus: entity.DeliveryStatusSent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.leaseExpired = tt.leaseExpired
			f.repo.deliveries[1] = entity.Delivery{
				ID:          1,
				PrincipalID: alice.PrincipalID,
				Kind:        entity.KindWelcome,
				Channel:     entity.ChannelEmail,
				Status:      tt.status,
			}

			err := f.uc.ConsumePrincipalVerified(context.Background(), alice)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, f.mail.sent, tt.wantSent)
			assert.Equal(t, tt.wantStatus, f.repo.only(t).Status)
		})
	}
}

func TestConsumePrincipalVerified_ConcurrentRedeliveriesSendOnce(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f.uc.ConsumePrincipalVerified(context.Background(), alice)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrDeliveryInProgress)
		}
	}
	assert.Len(t, f.mail.sent, 1)
	assert.Equal(t, entity.DeliveryStatusSent, f.repo.only(t).Status)
}

func TestConsumePrincipalVerified_InvalidEventDropped(t *testing.T) {
	f := newFixture(t)

	err := f.uc.ConsumePrincipalVerified(context.Background(), ConsumePrincipalVerifiedInput{PrincipalID: 42, Email: "nope"})
	require.NoError(t, err)
	assert.Empty(t, f.mail.sent)
	assert.Empty(t, f.repo.deliveries)
}

func TestConsumePrincipalVerified_ClaimError(t *testing.T) {
	f := newFixture(t)
	f.repo.claimErr = goerror.ErrUnavailable

	err := f.uc.ConsumePrincipalVerified(context.Background(), alice)
	require.ErrorIs(t, err, goerror.ErrUnavailable)
	assert.Empty(t, f.mail.sent)
}

func TestListDeliveries(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.uc.ConsumePrincipalVerified(context.Background(), alice))

	_, err := f.uc.ListDeliveries(context.Background())
	require.ErrorIs(t, err, ErrAuthRequired)

	ctx := jwt.SetAuth(context.Background(), jwt.Claims{PrincipalID: 42})
	items, err := f.uc.ListDeliveries(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, entity.DeliveryStatusSent, items[0].Status)

	items, err = f.uc.ListDeliveries(jwt.SetAuth(context.Background(), jwt.Claims{PrincipalID: 7}))
	require.NoError(t, err)
	assert.Empty(t, items)

	f.repo.listErr = errors.New("boom")
	_, err = f.uc.ListDeliveries(ctx)
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.CodeInternal, gerr.Code())
}
