// Package records models the encrypted financial records submitted by
// clients and their one-shot revealed counterparts.
package records

import (
	"time"

	id "finwell/pkg/domain"
)

// EncryptedRecord is an immutable submission of three ciphertext handles.
type EncryptedRecord struct {
	ID          id.RecordID
	Owner       id.Identity
	Income      id.Handle
	Expenses    id.Handle
	Savings     id.Handle
	SubmittedAt time.Time
}

// Handles returns the ciphertext handles in cleartext order: income,
// expenses, savings.
func (r *EncryptedRecord) Handles() []id.Handle {
	return []id.Handle{r.Income, r.Expenses, r.Savings}
}

// RevealedRecord holds the plaintext of a record once decryption completed.
// Until then every field is zero and Revealed is false.
type RevealedRecord struct {
	ID         id.RecordID
	Income     int64
	Expenses   int64
	Savings    int64
	Revealed   bool
	RevealedAt *time.Time
}

// Figures is the plaintext triple written by a reveal.
type Figures struct {
	Income   int64
	Expenses int64
	Savings  int64
}

// FiguresFrom builds a triple from cleartexts in income, expenses, savings order.
func FiguresFrom(values []int64) Figures {
	return Figures{Income: values[0], Expenses: values[1], Savings: values[2]}
}
