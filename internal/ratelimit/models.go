// Package ratelimit caps how often a caller may hit the API. Decryption
// requests get their own, tighter budget because every one of them costs
// the oracle a BGV decryption.
package ratelimit

import (
	"context"
	"time"
)

// Class groups endpoints that share a budget.
type Class string

const (
	ClassRead       Class = "read"
	ClassWrite      Class = "write"
	ClassDecryption Class = "decryption"
)

// Limit allows Requests per sliding Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Limits maps each class to its budget. A class without an entry is not
// limited.
type Limits map[Class]Limit

// Result describes one rate limit decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set when the request was refused
}

// Store counts requests in a sliding window per key.
type Store interface {
	AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*Result, error)
}

// Key namespaces a subject's counter by class.
func Key(class Class, subject string) string {
	return "ratelimit:" + string(class) + ":" + subject
}
