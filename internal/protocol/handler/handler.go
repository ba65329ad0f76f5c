package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"finwell/internal/ledger"
	"finwell/internal/protocol"
	"finwell/internal/records"
	"finwell/internal/scores"
	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
	"finwell/pkg/platform/httputil"
	"finwell/pkg/requestcontext"
)

// Service is the protocol surface exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, caller protocol.Caller, income, expenses, savings id.Handle) (id.RecordID, error)
	RequestAnalysis(ctx context.Context, caller protocol.Caller, recordID id.RecordID) error
	RequestDecryption(ctx context.Context, caller protocol.Caller, recordID id.RecordID) (id.RequestID, error)
	RequestScoreDecryption(ctx context.Context, caller protocol.Caller, owner id.Identity, field ledger.Field) (id.RequestID, error)
	Fulfill(ctx context.Context, requestID id.RequestID, cleartexts, proof []byte) error
	GetRecord(ctx context.Context, caller protocol.Caller, recordID id.RecordID) (*records.EncryptedRecord, error)
	GetRevealed(ctx context.Context, caller protocol.Caller, recordID id.RecordID) (*records.RevealedRecord, error)
	ListRecords(ctx context.Context, caller protocol.Caller, owner id.Identity) ([]protocol.RecordView, error)
	HasScore(ctx context.Context, owner id.Identity) (bool, error)
	GetScore(ctx context.Context, caller protocol.Caller, owner id.Identity) (*scores.WellnessScore, error)
}

// Handler exposes the protocol operations.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the client endpoints. The router must already run the
// auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/records", h.HandleSubmit)
	r.Get("/records", h.HandleListRecords)
	r.Get("/records/{id}", h.HandleGetRecord)
	r.Get("/records/{id}/revealed", h.HandleGetRevealed)
	r.Post("/records/{id}/analysis", h.HandleRequestAnalysis)
	r.Post("/records/{id}/decryption", h.HandleRequestDecryption)
	r.Get("/scores/{owner}", h.HandleGetScore)
	r.Post("/scores/{owner}/{field}/decryption", h.HandleRequestScoreDecryption)
}

// RegisterCallbacks mounts the oracle callback. The router must already
// verify the oracle token.
func (h *Handler) RegisterCallbacks(r chi.Router) {
	r.Post("/callbacks/decryption", h.HandleCallback)
}

// HandleSubmit handles POST /records.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	recordID, err := h.service.Submit(ctx, protocol.CallerFrom(ctx), req.handles[0], req.handles[1], req.handles[2])
	if err != nil {
		h.fail(ctx, w, "submit failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SubmitResponse{RecordID: recordID})
}

// HandleListRecords handles GET /records?owner=0x.... The owner defaults to
// the caller.
func (h *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := protocol.CallerFrom(ctx)
	owner := caller.Identity
	if raw := r.URL.Query().Get("owner"); raw != "" {
		parsed, err := id.ParseIdentity(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		owner = parsed
	}
	views, err := h.service.ListRecords(ctx, caller, owner)
	if err != nil {
		h.fail(ctx, w, "list records failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(views))
}

// HandleGetRecord handles GET /records/{id}.
func (h *Handler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.GetRecord(ctx, protocol.CallerFrom(ctx), recordID)
	if err != nil {
		h.fail(ctx, w, "get record failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

// HandleGetRevealed handles GET /records/{id}/revealed.
func (h *Handler) HandleGetRevealed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}
	rev, err := h.service.GetRevealed(ctx, protocol.CallerFrom(ctx), recordID)
	if err != nil {
		h.fail(ctx, w, "get revealed failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRevealedResponse(rev))
}

// HandleRequestAnalysis handles POST /records/{id}/analysis.
func (h *Handler) HandleRequestAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}
	if err := h.service.RequestAnalysis(ctx, protocol.CallerFrom(ctx), recordID); err != nil {
		h.fail(ctx, w, "request analysis failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{"record_id": recordID})
}

// HandleRequestDecryption handles POST /records/{id}/decryption.
func (h *Handler) HandleRequestDecryption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recordID, ok := parseRecordID(w, r)
	if !ok {
		return
	}
	requestID, err := h.service.RequestDecryption(ctx, protocol.CallerFrom(ctx), recordID)
	if err != nil {
		h.fail(ctx, w, "request decryption failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, DecryptionResponse{RequestID: requestID})
}

// HandleGetScore handles GET /scores/{owner}.
func (h *Handler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := id.ParseIdentity(chi.URLParam(r, "owner"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	has, err := h.service.HasScore(ctx, owner)
	if err != nil {
		h.fail(ctx, w, "score lookup failed", err)
		return
	}
	resp := ScoreResponse{Owner: owner, HasScore: has}
	if has {
		score, err := h.service.GetScore(ctx, protocol.CallerFrom(ctx), owner)
		switch {
		case err == nil:
			withScore(&resp, score)
		case dErrors.HasCode(err, dErrors.CodeForbidden), dErrors.HasCode(err, dErrors.CodeUnauthorized):
			// presence only
		default:
			h.fail(ctx, w, "get score failed", err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleRequestScoreDecryption handles POST /scores/{owner}/{field}/decryption.
func (h *Handler) HandleRequestScoreDecryption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := id.ParseIdentity(chi.URLParam(r, "owner"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	field, err := ledger.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	requestID, err := h.service.RequestScoreDecryption(ctx, protocol.CallerFrom(ctx), owner, field)
	if err != nil {
		h.fail(ctx, w, "request score decryption failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, DecryptionResponse{RequestID: requestID})
}

// HandleCallback handles POST /callbacks/decryption.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CallbackRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.Fulfill(ctx, req.RequestID, req.cleartexts, req.proof); err != nil {
		h.fail(ctx, w, "decryption callback rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"request_id": req.RequestID, "status": "fulfilled"})
}

func parseRecordID(w http.ResponseWriter, r *http.Request) (id.RecordID, bool) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return recordID, true
}

// fail logs server-side failures at error level and client errors at debug,
// then writes the error response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelDebug
	if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeInvariantViolation || code == dErrors.CodeUnavailable {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
