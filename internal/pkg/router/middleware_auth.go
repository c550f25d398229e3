package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shandysiswandi/mindjournal/internal/pkg/goerror"
	"github.com/shandysiswandi/mindjournal/internal/pkg/jwt"
)

// RevocationChecker reports whether a token ID was logged out before it
// expired.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

var (
	errAuthRequired = goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	errBadToken     = goerror.NewBusiness("Invalid or expired token", goerror.CodeUnauthorized)
)

// middlewareAuthentication requires a valid, unrevoked bearer token on every
// route outside public. Verified claims are stored with jwt.SetAuth.
func middlewareAuthentication(verifier jwt.JWT, revocation RevocationChecker, public map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := public[r.Method][matchedRoutePath(r)]; ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := authenticate(r, verifier, revocation)
			if err != nil {
				if errors.Is(err, errAuthRequired) || errors.Is(err, errBadToken) {
					w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				}
				writeError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}

func authenticate(r *http.Request, verifier jwt.JWT, revocation RevocationChecker) (jwt.Claims, error) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return jwt.Claims{}, errAuthRequired
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		return jwt.Claims{}, errBadToken
	}
	if revocation == nil {
		return claims, nil
	}

	revoked, err := revocation.IsRevoked(r.Context(), claims.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "token revocation lookup failed", "principal_id", claims.PrincipalID, "error", err)
		return jwt.Claims{}, goerror.NewUnavailable(err, "service temporarily unavailable")
	}
	if revoked {
		return jwt.Claims{}, errBadToken
	}
	return claims, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
