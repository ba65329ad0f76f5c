package handler

import (
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"finwell/internal/ledger"
	"finwell/internal/protocol"
	"finwell/internal/records"
	"finwell/internal/scores"
	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
)

// SubmitRequest carries the three ciphertext handles of a record.
type SubmitRequest struct {
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Savings  string `json:"savings"`

	handles [3]id.Handle
}

func (r *SubmitRequest) Validate() error {
	for i, raw := range []string{r.Income, r.Expenses, r.Savings} {
		if raw == "" {
			return dErrors.New(dErrors.CodeValidation, "income, expenses and savings handles are required")
		}
		h, err := id.ParseHandle(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "invalid ciphertext handle")
		}
		r.handles[i] = h
	}
	return nil
}

// CallbackRequest is the oracle's decryption result. Cleartexts and proof are
// 0x-prefixed hex.
type CallbackRequest struct {
	RequestID  id.RequestID `json:"request_id"`
	Cleartexts string       `json:"cleartexts"`
	Proof      string       `json:"proof"`

	cleartexts []byte
	proof      []byte
}

func (r *CallbackRequest) Validate() error {
	if r.RequestID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "request_id is required")
	}
	var err error
	if r.cleartexts, err = hexutil.Decode(r.Cleartexts); err != nil {
		return dErrors.New(dErrors.CodeValidation, "cleartexts must be 0x-prefixed hex")
	}
	if r.proof, err = hexutil.Decode(r.Proof); err != nil {
		return dErrors.New(dErrors.CodeValidation, "proof must be 0x-prefixed hex")
	}
	return nil
}

type SubmitResponse struct {
	RecordID id.RecordID `json:"record_id"`
}

type DecryptionResponse struct {
	RequestID id.RequestID `json:"request_id"`
}

type RecordResponse struct {
	RecordID    id.RecordID `json:"record_id"`
	Owner       id.Identity `json:"owner"`
	Income      id.Handle   `json:"income"`
	Expenses    id.Handle   `json:"expenses"`
	Savings     id.Handle   `json:"savings"`
	SubmittedAt time.Time   `json:"submitted_at"`
	Revealed    *bool       `json:"revealed,omitempty"`
}

func toRecordResponse(rec *records.EncryptedRecord) RecordResponse {
	return RecordResponse{
		RecordID:    rec.ID,
		Owner:       rec.Owner,
		Income:      rec.Income,
		Expenses:    rec.Expenses,
		Savings:     rec.Savings,
		SubmittedAt: rec.SubmittedAt,
	}
}

type RevealedResponse struct {
	RecordID   id.RecordID `json:"record_id"`
	Income     int64       `json:"income"`
	Expenses   int64       `json:"expenses"`
	Savings    int64       `json:"savings"`
	Revealed   bool        `json:"revealed"`
	RevealedAt *time.Time  `json:"revealed_at,omitempty"`
}

func toRevealedResponse(rev *records.RevealedRecord) RevealedResponse {
	return RevealedResponse{
		RecordID:   rev.ID,
		Income:     rev.Income,
		Expenses:   rev.Expenses,
		Savings:    rev.Savings,
		Revealed:   rev.Revealed,
		RevealedAt: rev.RevealedAt,
	}
}

type ListRecordsResponse struct {
	Records []RecordResponse `json:"records"`
}

func toListResponse(views []protocol.RecordView) ListRecordsResponse {
	out := ListRecordsResponse{Records: make([]RecordResponse, 0, len(views))}
	for _, v := range views {
		resp := toRecordResponse(v.Record)
		revealed := v.Revealed != nil && v.Revealed.Revealed
		resp.Revealed = &revealed
		out.Records = append(out.Records, resp)
	}
	return out
}

// ScoreResponse always reports presence. Handles and revealed fields are
// included only for callers allowed to see the score.
type ScoreResponse struct {
	Owner        id.Identity      `json:"owner"`
	HasScore     bool             `json:"has_score"`
	Financial    *id.Handle       `json:"financial,omitempty"`
	Risk         *id.Handle       `json:"risk,omitempty"`
	Improvement  *id.Handle       `json:"improvement,omitempty"`
	SourceRecord id.RecordID      `json:"source_record,omitempty"`
	CalculatedAt *time.Time       `json:"calculated_at,omitempty"`
	Revealed     map[string]int64 `json:"revealed,omitempty"`
}

func withScore(resp *ScoreResponse, score *scores.WellnessScore) {
	resp.Financial = &score.Financial
	resp.Risk = &score.Risk
	resp.Improvement = &score.Improvement
	resp.SourceRecord = score.SourceRecord
	calculated := score.CalculatedAt
	resp.CalculatedAt = &calculated
	if len(score.Revealed) > 0 {
		resp.Revealed = make(map[string]int64, len(score.Revealed))
		for _, f := range ledger.Fields {
			if v, ok := score.Revealed[f]; ok {
				resp.Revealed[f.String()] = v
			}
		}
	}
}
