package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"finwell/internal/ciphertext"
	id "finwell/pkg/domain"
	dErrors "finwell/pkg/domain-errors"
	"finwell/pkg/platform/httputil"
	"finwell/pkg/platform/sentinel"
	"finwell/pkg/requestcontext"
)

// Validator rejects blobs that are not ciphertexts under the oracle key.
type Validator interface {
	Validate(blob []byte) error
}

// Handler exposes the ciphertext blob store.
type Handler struct {
	store     ciphertext.Store
	validator Validator
	logger    *slog.Logger
}

func New(store ciphertext.Store, validator Validator, logger *slog.Logger) *Handler {
	return &Handler{store: store, validator: validator, logger: logger}
}

// Register mounts ciphertext endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ciphertexts", h.HandleUpload)
	r.Get("/ciphertexts/{handle}", h.HandleGet)
}

// UploadRequest carries one base64 ciphertext.
type UploadRequest struct {
	Ciphertext string `json:"ciphertext"`

	blob []byte
}

func (r *UploadRequest) Validate() error {
	if r.Ciphertext == "" {
		return dErrors.New(dErrors.CodeValidation, "ciphertext is required")
	}
	if base64.StdEncoding.DecodedLen(len(r.Ciphertext)) > ciphertext.MaxBlobSize {
		return dErrors.New(dErrors.CodeValidation, "ciphertext too large")
	}
	blob, err := base64.StdEncoding.DecodeString(r.Ciphertext)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "ciphertext must be base64")
	}
	r.blob = blob
	return nil
}

// HandleUpload handles POST /ciphertexts.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UploadRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if h.validator != nil {
		if err := h.validator.Validate(req.blob); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	handle, err := h.store.Put(ctx, req.blob)
	if err != nil {
		h.logFailure(ctx, "ciphertext upload failed", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store ciphertext"))
		return
	}
	h.logger.InfoContext(ctx, "ciphertext stored",
		"request_id", requestID,
		"handle", handle.String(),
		"bytes", len(req.blob),
	)
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"handle": handle.String()})
}

// HandleGet handles GET /ciphertexts/{handle}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	handle, err := id.ParseHandle(chi.URLParam(r, "handle"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	blob, err := h.store.Get(ctx, handle)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "ciphertext not found"))
			return
		}
		h.logFailure(ctx, "ciphertext lookup failed", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ciphertext"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"handle":     handle.String(),
		"ciphertext": base64.StdEncoding.EncodeToString(blob),
	})
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
