package testutil

import (
	"net/http"

	id "finwell/pkg/domain"
	"finwell/pkg/requestcontext"
)

// WithCaller adds a caller identity to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the identity is not a valid address, it will not be added to the context.
func WithCaller(req *http.Request, caller string) *http.Request {
	if parsed, err := id.ParseIdentity(caller); err == nil {
		return req.WithContext(requestcontext.WithCaller(req.Context(), parsed))
	}
	return req
}

// WithOperator marks the request as carrying operator rights.
func WithOperator(req *http.Request) *http.Request {
	return req.WithContext(requestcontext.WithOperator(req.Context(), true))
}
