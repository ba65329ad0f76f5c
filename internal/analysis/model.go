// Package analysis computes encrypted wellness scores from encrypted records.
// Scores are linear forms over the record's figures, evaluated
// homomorphically, so the worker never sees plaintext.
package analysis

import (
	dErrors "finwell/pkg/domain-errors"
)

// Formula is bias + income·Income + expenses·Expenses + savings·Savings.
type Formula struct {
	Income   int64 `json:"income"`
	Expenses int64 `json:"expenses"`
	Savings  int64 `json:"savings"`
	Bias     int64 `json:"bias"`
}

func (f Formula) weights() []int64 {
	return []int64{f.Income, f.Expenses, f.Savings}
}

// Apply evaluates the formula on plaintext figures.
func (f Formula) Apply(income, expenses, savings int64) int64 {
	return f.Bias + f.Income*income + f.Expenses*expenses + f.Savings*savings
}

// Model holds one formula per score field.
type Model struct {
	Financial   Formula `json:"financial"`
	Risk        Formula `json:"risk"`
	Improvement Formula `json:"improvement"`
}

// DefaultModel scores net cash position, spending pressure and the room left
// to save more.
var DefaultModel = Model{
	// income - expenses + 2·savings
	Financial: Formula{Income: 1, Expenses: -1, Savings: 2},
	// 2·expenses - income - savings
	Risk: Formula{Income: -1, Expenses: 2, Savings: -1},
	// income - expenses - savings
	Improvement: Formula{Income: 1, Expenses: -1, Savings: -1},
}

func (m Model) Validate() error {
	for _, f := range []Formula{m.Financial, m.Risk, m.Improvement} {
		if f.Income == 0 && f.Expenses == 0 && f.Savings == 0 {
			return dErrors.New(dErrors.CodeValidation, "score formula needs at least one non-zero weight")
		}
	}
	return nil
}
