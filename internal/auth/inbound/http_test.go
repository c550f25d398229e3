package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/mindjournal/internal/auth/usecase"
	"github.com/shandysiswandi/mindjournal/internal/pkg/config"
	"github.com/shandysiswandi/mindjournal/internal/pkg/instrument"
	"github.com/shandysiswandi/mindjournal/internal/pkg/jwt"
	"github.com/shandysiswandi/mindjournal/internal/pkg/router"
	"github.com/shandysiswandi/mindjournal/internal/pkg/uid"
)

var expiresAt = time.Date(2026, 3, 1, 9, 10, 0, 0, time.UTC)

type fakeUC struct {
	signIn    *usecase.SignInOutput
	verifyErr error
	gotVerify usecase.VerifyOTPInput
	loggedOut bool
}

func (f *fakeUC) SignUp(context.Context, usecase.SignUpInput) (*usecase.SignUpOutput, error) {
	return &usecase.SignUpOutput{PrincipalID: 42, ExpiresAt: expiresAt}, nil
}

func (f *fakeUC) SignIn(context.Context, usecase.SignInInput) (*usecase.SignInOutput, error) {
	return f.signIn, nil
}

func (f *fakeUC) VerifyOTP(_ context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error) {
	f.gotVerify = in
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &usecase.VerifyOTPOutput{PrincipalID: 42, Username: "alice", AccessToken: "tok", ExpiresAt: expiresAt}, nil
}

func (f *fakeUC) ResendOTP(context.Context, usecase.ResendOTPInput) error { return nil }

func (f *fakeUC) Logout(ctx context.Context) error {
	f.loggedOut = jwt.GetAuth(ctx) != nil
	return nil
}

func (f *fakeUC) Profile(ctx context.Context) (*usecase.ProfileOutput, error) {
	return &usecase.ProfileOutput{ID: jwt.GetAuth(ctx).PrincipalID, Username: "alice"}, nil
}

type staticJWT struct{}

func (staticJWT) Generate(int64, string) (jwt.Token, error) { return jwt.Token{}, nil }

func (staticJWT) Verify(string) (jwt.Claims, error) {
	return jwt.Claims{RegisteredClaims: libJWT.RegisteredClaims{ID: "jti"}, PrincipalID: 42}, nil
}

func newServer(t *testing.T, uc uc) http.Handler {
	t.Helper()
	cfg, err := config.NewViperFromBytes("yaml", []byte("{}"))
	require.NoError(t, err)

	r := router.NewRouter(router.Config{
		Config:          cfg,
		UUID:            uid.NewUUID(),
		JWT:             staticJWT{},
		Instrument:      instrument.NewNoop(),
		PublicEndpoints: PublicEndpoints,
	})
	RegisterHTTPEndpoint(r, uc)
	return r
}

func call(t *testing.T, h http.Handler, method, path, body string, auth bool) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth {
		req.Header.Set("Authorization", "Bearer anything")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec.Code, out
}

func TestHTTP_SignUp(t *testing.T) {
	code, body := call(t, newServer(t, &fakeUC{}), http.MethodPost, "/api/v1/auth/signup",
		`{"email":"alice@example.com","username":"alice","password":"correct horse"}`, false)

	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, map[string]any{
		"principal_id":        "42",
		"passcode_expires_at": "2026-03-01T09:10:00Z",
	}, body["data"])
}

func TestHTTP_SignIn(t *testing.T) {
	uc := &fakeUC{signIn: &usecase.SignInOutput{VerificationRequired: true, PasscodeExpiresAt: expiresAt}}
	code, body := call(t, newServer(t, uc), http.MethodPost, "/api/v1/auth/signin", `{"identifier":"alice","password":"x"}`, false)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["data"].(map[string]any)["verification_required"])
	assert.NotContains(t, body["data"], "access_token")

	uc.signIn = &usecase.SignInOutput{AccessToken: "tok", ExpiresAt: expiresAt}
	_, body = call(t, newServer(t, uc), http.MethodPost, "/api/v1/auth/signin", `{"identifier":"alice","password":"x"}`, false)
	assert.Equal(t, "tok", body["data"].(map[string]any)["access_token"])
}

func TestHTTP_Verify(t *testing.T) {
	uc := &fakeUC{}
	h := newServer(t, uc)

	code, body := call(t, h, http.MethodPost, "/api/v1/auth/verify", `{"identifier":"alice","code":"123456"}`, false)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, usecase.VerifyOTPInput{Identifier: "alice", Code: "123456"}, uc.gotVerify)
	assert.Equal(t, "tok", body["data"].(map[string]any)["access_token"])

	uc.verifyErr = usecase.ErrInvalidOrExpiredCode
	code, body = call(t, h, http.MethodPost, "/api/v1/auth/verify", `{"identifier":"alice","code":"000000"}`, false)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "invalid or expired code", body["message"])

	code, _ = call(t, h, http.MethodPost, "/api/v1/auth/verify", `{"identifier":`, false)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHTTP_Resend(t *testing.T) {
	code, body := call(t, newServer(t, &fakeUC{}), http.MethodPost, "/api/v1/auth/resend", `{"identifier":"ghost"}`, false)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, ResendResponse{}.Message(), body["message"])
}

func TestHTTP_Authenticated(t *testing.T) {
	uc := &fakeUC{}
	h := newServer(t, uc)

	code, _ := call(t, h, http.MethodGet, "/api/v1/auth/me", "", false)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := call(t, h, http.MethodGet, "/api/v1/auth/me", "", true)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "42", body["data"].(map[string]any)["id"])

	code, _ = call(t, h, http.MethodPost, "/api/v1/auth/logout", "", true)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, uc.loggedOut)
}
