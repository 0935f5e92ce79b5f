package middleware

import (
	"context"
	"net/http"
	"strings"

	authcore "github.com/campuskit/authcore"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity attached by Guard, if any.
func IdentityFromContext(ctx context.Context) (*authcore.AccessIdentity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*authcore.AccessIdentity)
	return id, ok
}

// Guard rejects requests without a valid bearer access token and exposes the
// validated identity to downstream handlers via the request context. Every
// rejection is a bare 401; the reason is never surfaced to the client.
func Guard(service *authcore.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if service == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := service.ValidateAccess(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
