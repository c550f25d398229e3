package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/mindjournal/internal/auth/entity"
	"github.com/shandysiswandi/mindjournal/internal/pkg/clock"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
	"github.com/shandysiswandi/mindjournal/internal/pkg/goroutine"
	"github.com/shandysiswandi/mindjournal/internal/pkg/hash"
	"github.com/shandysiswandi/mindjournal/internal/pkg/idempotency"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/jwt"
	"github.com/shandysiswandi/mindjournal/internal/pkg/uid"
	"github.com/shandysiswandi/mindjournal/internal/pkg/validator"
)

type fakeRepo struct {
	mu         sync.Mutex
	clock      clock.Clocker
	principals map[int64]entity.Principal
	passcodes  map[int64]entity.Passcode
	err        error
}

func newFakeRepo(clk clock.Clocker) *fakeRepo {
	return &fakeRepo{
		clock:      clk,
		principals: map[int64]entity.Principal{},
		passcodes:  map[int64]entity.Passcode{},
	}
}

func (f *fakeRepo) FindPrincipalByIdentifier(_ context.Context, identifier string) (entity.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return entity.Principal{}, f.err
	}
	for _, p := range f.principals {
		if strings.EqualFold(p.Email, identifier) || strings.EqualFold(p.Username, identifier) {
			return p, nil
		}
	}
	return entity.Principal{}, goerror.ErrNotFound
}

func (f *fakeRepo) GetPrincipalByID(_ context.Context, id int64) (entity.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return entity.Principal{}, f.err
	}
	p, ok := f.principals[id]
	if !ok {
		return entity.Principal{}, goerror.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) RegisterPrincipal(_ context.Context, np entity.NewPrincipal, code string, ttl time.Duration) (entity.Principal, entity.Passcode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return entity.Principal{}, entity.Passcode{}, f.err
	}
	for _, p := range f.principals {
		if strings.EqualFold(p.Email, np.Email) || strings.EqualFold(p.Username, np.Username) {
			return entity.Principal{}, entity.Passcode{}, goerror.ErrConflict
		}
	}
	now := f.clock.Now()
	p := entity.Principal{
		ID:           np.ID,
		Username:     np.Username,
		Email:        np.Email,
		PasswordHash: np.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.principals[p.ID] = p
	pc := entity.Passcode{PrincipalID: p.ID, Code: code, IssuedAt: now, ExpiresAt: now.Add(ttl)}
	f.passcodes[p.ID] = pc
	return p, pc, nil
}

func (f *fakeRepo) IssuePasscode(_ context.Context, principalID int64, code string, ttl time.Duration) (entity.Passcode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return entity.Passcode{}, f.err
	}
	now := f.clock.Now()
	pc := entity.Passcode{PrincipalID: principalID, Code: code, IssuedAt: now, ExpiresAt: now.Add(ttl)}
	f.passcodes[principalID] = pc
	return pc, nil
}

func (f *fakeRepo) FetchPasscode(_ context.Context, principalID int64) (entity.Passcode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return entity.Passcode{}, f.err
	}
	pc, ok := f.passcodes[principalID]
	if !ok || pc.Consumed {
		return entity.Passcode{}, goerror.ErrNotFound
	}
	return pc, nil
}

func (f *fakeRepo) ConsumePasscode(_ context.Context, principalID int64, code string, now time.Time) (entity.ConsumeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return entity.ConsumeResult{}, f.err
	}
	pc, ok := f.passcodes[principalID]
	switch {
	case !ok || pc.Consumed:
		return entity.ConsumeResult{Outcome: entity.ConsumeNotFound}, nil
	case now.After(pc.ExpiresAt):
		return entity.ConsumeResult{Outcome: entity.ConsumeExpired}, nil
	case pc.Code != code:
		return entity.ConsumeResult{Outcome: entity.ConsumeMismatch}, nil
	}
	pc.Consumed = true
	pc.ConsumedAt = &now
	f.passcodes[principalID] = pc

	p := f.principals[principalID]
	p.IsVerified = true
	p.UpdatedAt = now
	f.principals[principalID] = p
	return entity.ConsumeResult{Outcome: entity.ConsumeOK, Principal: p}, nil
}

type sentMail struct {
	address, subject, body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeNotifier) Deliver(_ context.Context, address, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{address: address, subject: subject, body: body})
	return nil
}

func (f *fakeNotifier) last(t *testing.T) sentMail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []PrincipalVerifiedEvent
	err    error
}

func (f *fakeMessaging) PublishPrincipalVerified(_ context.Context, msg PrincipalVerifiedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return f.err
}

type fakeDenylist struct {
	revoked map[string]time.Duration
	err     error
}

func (f *fakeDenylist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.revoked[jti] = ttl
	return nil
}

// fakeIdempotency keeps completed keys forever, enough for single-test windows.
type fakeIdempotency struct {
	mu   sync.Mutex
	done map[string]bool
	err  error
}

func (f *fakeIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.mu.Lock()
	if f.err != nil {
		f.mu.Unlock()
		return f.err
	}
	if f.done[key] {
		f.mu.Unlock()
		return &idempotency.DuplicateError{Key: key, State: idempotency.StateCompleted}
	}
	f.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	f.done[key] = true
	f.mu.Unlock()
	return nil
}

func (f *fakeIdempotency) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done = map[string]bool{}
}

type seqOTP struct {
	mu sync.Mutex
	n  int
}

func (s *seqOTP) Generate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%06d", 100000+s.n), nil
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

type fixture struct {
	uc    *Usecase
	repo  *fakeRepo
	mail  *fakeNotifier
	mq    *fakeMessaging
	deny  *fakeDenylist
	idemp *fakeIdempotency
	clock *clock.Manual
	gm    *goroutine.Manager
	jwt   jwt.JWT
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	v, err := validator.NewV10Validator()
	require.NoError(t, err)
	hasher, err := hash.NewBcrypt(4, "")
	require.NoError(t, err)
	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "mindjournal",
		Audiences: []string{"mindjournal"},
		TTL:       time.Hour,
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	f := &fixture{
		repo:  newFakeRepo(clk),
		mail:  &fakeNotifier{},
		mq:    &fakeMessaging{},
		deny:  &fakeDenylist{revoked: map[string]time.Duration{}},
		idemp: &fakeIdempotency{done: map[string]bool{}},
		clock: clk,
		gm:    goroutine.NewManager(4),
		jwt:   tokens,
	}

	f.uc, err = New(Dependency{
		Config:        Config{PasscodeTTL: 10 * time.Minute},
		RepoDB:        f.repo,
		RepoMessaging: f.mq,
		Notifier:      f.mail,
		Denylist:      f.deny,
		Idempotency:   f.idemp,
		Validator:     v,
		Hasher:        hasher,
		OTP:           &seqOTP{},
		UID:           &seqID{},
		Clock:         clk,
		JWT:           tokens,
		Instrument:    instrument.NewNoop(),
		Goroutine:     f.gm,
	})
	require.NoError(t, err)

	return f
}

func (f *fixture) signUp(t *testing.T, username, email string) (*SignUpOutput, string) {
	t.Helper()
	out, err := f.uc.SignUp(context.Background(), SignUpInput{Email: email, Username: username, Password: "correct horse"})
	require.NoError(t, err)
	return out, f.repo.passcodes[out.PrincipalID].Code
}

func requireGoError(t *testing.T, err error, code goerror.Code) {
	t.Helper()
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, code, gerr.Code(), gerr.Msg())
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, DefaultPasscodeTTL, cfg.PasscodeTTL)
	require.Equal(t, DefaultResendCooldown, cfg.ResendCooldown)
	require.Equal(t, DefaultSignupLock, cfg.SignupLock)

	cfg = Config{PasscodeTTL: 5 * time.Minute}.withDefaults()
	require.Equal(t, 5*time.Minute, cfg.PasscodeTTL)
}

func TestPasscodeBody(t *testing.T) {
	require.Equal(t, "Your OTP code is 004271. It is valid for 10 minutes.", passcodeBody("004271", 10*time.Minute))
}
