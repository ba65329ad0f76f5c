// Package ledger correlates outstanding oracle decryption requests with the
// record or score field they will reveal.
package ledger

import (
	"fmt"
	"strings"

	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
)

// Kind tags which variant a Target holds.
type Kind uint8

const (
	KindRecord Kind = iota + 1
	KindScore
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindScore:
		return "score"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Field selects one component of a wellness score.
type Field uint8

const (
	FieldFinancial   Field = 1
	FieldRisk        Field = 2
	FieldImprovement Field = 3
)

// Fields lists every valid score field in discriminant order.
var Fields = []Field{FieldFinancial, FieldRisk, FieldImprovement}

func (f Field) IsValid() bool {
	return f >= FieldFinancial && f <= FieldImprovement
}

func (f Field) String() string {
	switch f {
	case FieldFinancial:
		return "financial"
	case FieldRisk:
		return "risk"
	case FieldImprovement:
		return "improvement"
	default:
		return fmt.Sprintf("field(%d)", uint8(f))
	}
}

// ParseField accepts a field name or its numeric selector (1..3).
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "financial", "1":
		return FieldFinancial, nil
	case "risk", "2":
		return FieldRisk, nil
	case "improvement", "3":
		return FieldImprovement, nil
	default:
		return 0, dErrors.New(dErrors.CodeValidation, "invalid score field")
	}
}

// Target is what a pending request will reveal: either a whole record or a
// single field of an owner's score.
type Target struct {
	Kind     Kind
	RecordID id.RecordID
	Owner    id.Identity
	Field    Field
}

func RecordTarget(recordID id.RecordID) Target {
	return Target{Kind: KindRecord, RecordID: recordID}
}

func ScoreTarget(owner id.Identity, field Field) Target {
	return Target{Kind: KindScore, Owner: owner, Field: field}
}

// Validate checks that only the fields of the tagged variant are set and
// that they are in range.
func (t Target) Validate() error {
	switch t.Kind {
	case KindRecord:
		if t.RecordID.IsNil() {
			return dErrors.New(dErrors.CodeInvalidInput, "record target requires a record id")
		}
		if !t.Owner.IsNil() || t.Field != 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "record target carries score fields")
		}
	case KindScore:
		if !t.Field.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "invalid score field")
		}
		if t.Owner.IsNil() {
			return dErrors.New(dErrors.CodeInvalidInput, "score target requires an owner")
		}
		if !t.RecordID.IsNil() {
			return dErrors.New(dErrors.CodeInvalidInput, "score target carries a record id")
		}
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "unknown target kind")
	}
	return nil
}

func (t Target) String() string {
	if t.Kind == KindRecord {
		return "record:" + t.RecordID.String()
	}
	return "score:" + t.Owner.String() + ":" + t.Field.String()
}
