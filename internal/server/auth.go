package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/54b3r/ragcypher-go/internal/logging"
)

// authRealm names the protected area in WWW-Authenticate challenges.
const authRealm = `Bearer realm="ragcypher"`

// authMiddleware requires "Authorization: Bearer <apiKey>" on every request
// it wraps. An empty apiKey disables the check; New warns about that once at
// startup. Rejections are 401 with a JSON body and a Bearer challenge. The
// presented token is never logged.
func authMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	want := []byte(apiKey)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token != "" && subtle.ConstantTimeCompare([]byte(token), want) == 1 {
			next.ServeHTTP(w, r)
			return
		}

		reason, challenge := "authorization required", authRealm
		if token != "" {
			reason, challenge = "invalid token", authRealm+` error="invalid_token"`
		}
		logging.FromContext(r.Context()).Warn("auth: rejected",
			slog.String("reason", reason),
			slog.String("ip", clientIP(r)),
		)
		w.Header().Set("WWW-Authenticate", challenge)
		writeError(w, http.StatusUnauthorized, reason)
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, or "" when the header is absent or uses another scheme.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
