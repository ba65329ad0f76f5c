package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into coded domain errors.
//
//   - ErrNotFound: record, request or blob does not exist
//   - ErrAlreadyUsed: one-shot transition already happened (record revealed,
//     request id registered or retired)
//   - ErrInvalidState: entity in the wrong state for the requested operation
//   - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
