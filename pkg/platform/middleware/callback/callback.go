// Package callback guards the oracle callback endpoint with a shared token.
package callback

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	request "finwell/pkg/platform/middleware/request"
)

// HeaderOracleToken carries the shared secret presented by the oracle relayer.
const HeaderOracleToken = "X-Oracle-Token"

// RequireOracleToken rejects callbacks that do not present the configured
// token. The decryption proof is still verified by the protocol; the token
// only keeps arbitrary callers off the endpoint.
func RequireOracleToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderOracleToken)
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "oracle token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"oracle token required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
