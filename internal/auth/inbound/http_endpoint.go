package inbound

import (
	"github.com/shandysiswandi/mindjournal/internal/auth/usecase"
	"github.com/shandysiswandi/mindjournal/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the signup and passcode workflows.
type HTTPEndpoint struct {
	uc uc
}

// SignUp registers an unverified principal and emails a passcode.
func (h *HTTPEndpoint) SignUp(r *router.Request) (any, error) {
	var req SignUpRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SignUp(r.Context(), usecase.SignUpInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return SignUpResponse{PrincipalID: resp.PrincipalID, PasscodeExpiresAt: resp.ExpiresAt}, nil
}

// SignIn checks credentials. An unverified principal gets a fresh passcode
// instead of a token.
func (h *HTTPEndpoint) SignIn(r *router.Request) (any, error) {
	var req SignInRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SignIn(r.Context(), usecase.SignInInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		return nil, err
	}

	if resp.VerificationRequired {
		out := SignInResponse{VerificationRequired: true}
		if !resp.PasscodeExpiresAt.IsZero() {
			out.PasscodeExpiresAt = &resp.PasscodeExpiresAt
		}
		return out, nil
	}

	return SignInResponse{AccessToken: resp.AccessToken, ExpiresAt: &resp.ExpiresAt}, nil
}

func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Identifier: req.Identifier,
		Code:       req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{
		PrincipalID: resp.PrincipalID,
		Username:    resp.Username,
		Email:       resp.Email,
		AccessToken: resp.AccessToken,
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

func (h *HTTPEndpoint) ResendOTP(r *router.Request) (any, error) {
	var req ResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ResendOTP(r.Context(), usecase.ResendOTPInput{Identifier: req.Identifier}); err != nil {
		return nil, err
	}

	return ResendResponse{}, nil
}

// Logout revokes the bearer token for the rest of its lifetime.
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context()); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}

func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:         resp.ID,
		Username:   resp.Username,
		Email:      resp.Email,
		IsVerified: resp.IsVerified,
		CreatedAt:  resp.CreatedAt,
	}, nil
}
