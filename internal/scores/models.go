// Package scores holds the encrypted wellness score computed for each owner.
package scores

import (
	"time"

	"finwell/internal/ledger"
	id "finwell/pkg/domain"
)

// WellnessScore is the latest encrypted score for an owner. Submitting a new
// score replaces the previous one, including any revealed fields.
type WellnessScore struct {
	Owner        id.Identity
	Financial    id.Handle
	Risk         id.Handle
	Improvement  id.Handle
	SourceRecord id.RecordID
	CalculatedAt time.Time
	// Revealed holds the plaintext of fields whose decryption completed.
	Revealed map[ledger.Field]int64
}

// Present reports whether a score exists. Presence is the initialized
// financial handle.
func (s *WellnessScore) Present() bool {
	return s != nil && !s.Financial.IsNil()
}

// Handle returns the ciphertext handle of field.
func (s *WellnessScore) Handle(field ledger.Field) (id.Handle, bool) {
	switch field {
	case ledger.FieldFinancial:
		return s.Financial, true
	case ledger.FieldRisk:
		return s.Risk, true
	case ledger.FieldImprovement:
		return s.Improvement, true
	default:
		return id.Handle{}, false
	}
}

// Submission is the input of a score upsert.
type Submission struct {
	Owner        id.Identity
	Financial    id.Handle
	Risk         id.Handle
	Improvement  id.Handle
	SourceRecord id.RecordID
}
