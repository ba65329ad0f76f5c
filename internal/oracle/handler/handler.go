package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"finwell/internal/oracle"
	dErrors "finwell/pkg/domain-errors"
	"finwell/pkg/platform/httputil"
	"finwell/pkg/requestcontext"
)

// KeySource exposes the oracle's public key document.
type KeySource interface {
	Document() (*oracle.PublicKeyDocument, error)
}

// Handler serves the oracle public key to clients that encrypt locally.
type Handler struct {
	keys   KeySource
	logger *slog.Logger
}

func New(keys KeySource, logger *slog.Logger) *Handler {
	return &Handler{keys: keys, logger: logger}
}

// Register mounts oracle endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/oracle/public-key", h.HandlePublicKey)
}

// HandlePublicKey handles GET /oracle/public-key.
func (h *Handler) HandlePublicKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.keys.Document()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to export oracle public key",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "public key unavailable"))
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	httputil.WriteJSON(w, http.StatusOK, doc)
}
