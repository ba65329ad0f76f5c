package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"finwell/internal/audit"
	"finwell/internal/events"
	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
	"finwell/pkg/platform/httputil"
	"finwell/pkg/requestcontext"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Trail is the read side of the audit archive.
type Trail interface {
	List(ctx context.Context, q audit.Query) ([]audit.Entry, error)
}

// Handler serves the audit trail to operators.
type Handler struct {
	trail  Trail
	logger *slog.Logger
}

func New(trail Trail, logger *slog.Logger) *Handler {
	return &Handler{trail: trail, logger: logger}
}

// Register mounts the audit endpoints. The router must authenticate callers.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/events", h.HandleList)
}

type EntryResponse struct {
	ID         string       `json:"id"`
	Event      events.Event `json:"event"`
	RecordedAt time.Time    `json:"recorded_at"`
}

type ListResponse struct {
	Entries []EntryResponse `json:"entries"`
}

// HandleList handles GET /audit/events?record_id=&owner=&limit=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !requestcontext.IsOperator(ctx) {
		h.logger.WarnContext(ctx, "audit trail denied",
			"request_id", requestcontext.RequestID(ctx),
			"caller", requestcontext.Caller(ctx).String(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "audit trail is restricted to operators"))
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.trail.List(ctx, q)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit trail lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit trail"))
		return
	}

	resp := ListResponse{Entries: make([]EntryResponse, len(entries))}
	for i, e := range entries {
		resp.Entries[i] = EntryResponse{ID: e.ID.String(), Event: e.Event, RecordedAt: e.RecordedAt}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseQuery(r *http.Request) (audit.Query, error) {
	values := r.URL.Query()
	q := audit.Query{Limit: defaultLimit}
	if raw := values.Get("record_id"); raw != "" {
		recordID, err := id.ParseRecordID(raw)
		if err != nil {
			return q, err
		}
		q.RecordID = recordID
	}
	if raw := values.Get("owner"); raw != "" {
		owner, err := id.ParseIdentity(raw)
		if err != nil {
			return q, err
		}
		q.Owner = &owner
	}
	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxLimit {
			return q, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 1000")
		}
		q.Limit = n
	}
	return q, nil
}
