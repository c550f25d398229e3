package inbound

import (
	"net/http"
	"time"
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignUpResponse struct {
	PrincipalID       int64     `json:"principal_id,string"`
	PasscodeExpiresAt time.Time `json:"passcode_expires_at"`
}

func (SignUpResponse) Message() string {
	return "Registration successful. Please check your email for the verification code."
}

func (SignUpResponse) StatusCode() int {
	return http.StatusCreated
}

type SignInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type SignInResponse struct {
	VerificationRequired bool       `json:"verification_required"`
	PasscodeExpiresAt    *time.Time `json:"passcode_expires_at,omitempty"`
	AccessToken          string     `json:"access_token,omitempty"`
	ExpiresAt            *time.Time `json:"expires_at,omitempty"`
}

func (r SignInResponse) Message() string {
	if r.VerificationRequired {
		return "Account not verified. A verification code has been sent to your email."
	}
	return "Signed in successfully."
}

type VerifyRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

type VerifyResponse struct {
	PrincipalID int64     `json:"principal_id,string"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (VerifyResponse) Message() string {
	return "Account verified successfully."
}

type ResendRequest struct {
	Identifier string `json:"identifier"`
}

type ResendResponse struct{}

func (ResendResponse) Message() string {
	return "If the account exists and is not verified, a new code has been sent."
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string {
	return "Signed out."
}

type ProfileResponse struct {
	ID         int64     `json:"id,string"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}
