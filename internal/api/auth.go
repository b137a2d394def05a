package api

import (
	"errors"
	"net/http"
	"strings"

	"rentbook/internal/domain"

	"github.com/rs/zerolog"
)

// identify resolves a bearer token when present. Rejection happens in
// requireAuth so public routes stay reachable with a stale token.
func identify(verifier domain.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header != "" {
				info := infoFrom(r.Context())
				token, ok := bearerToken(header)
				if !ok {
					info.authErr = errors.New("authorization header must use the Bearer scheme")
				} else if uid, err := verifier.Verify(r.Context(), token); err != nil {
					info.authErr = err
				} else {
					info.uid = uid
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := infoFrom(r.Context())
		if info.uid != "" {
			next.ServeHTTP(w, r)
			return
		}
		if info.authErr != nil {
			zerolog.Ctx(r.Context()).Debug().Err(info.authErr).Msg("token rejected")
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		writeError(w, http.StatusUnauthorized, "missing bearer token")
	})
}

// requireAdmin must run after requireAuth.
func (h *handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, err := h.users.IsAdmin(r.Context(), principal(r))
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if !admin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

