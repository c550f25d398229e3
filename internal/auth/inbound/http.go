package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/mindjournal/internal/auth/usecase"
	"github.com/shandysiswandi/mindjournal/internal/pkg/router"
)

type uc interface {
	SignUp(ctx context.Context, in usecase.SignUpInput) (*usecase.SignUpOutput, error)
	SignIn(ctx context.Context, in usecase.SignInInput) (*usecase.SignInOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	ResendOTP(ctx context.Context, in usecase.ResendOTPInput) error

	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
}

// PublicEndpoints are the auth routes reachable without a bearer token.
var PublicEndpoints = map[string][]string{
	http.MethodPost: {
		"/api/v1/auth/signup",
		"/api/v1/auth/signin",
		"/api/v1/auth/verify",
		"/api/v1/auth/resend",
	},
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/auth/signup", end.SignUp)
	r.POST("/api/v1/auth/signin", end.SignIn)
	r.POST("/api/v1/auth/verify", end.VerifyOTP)
	r.POST("/api/v1/auth/resend", end.ResendOTP)

	// need authenticated
	r.POST("/api/v1/auth/logout", end.Logout)
	r.GET("/api/v1/auth/me", end.Profile)
}
