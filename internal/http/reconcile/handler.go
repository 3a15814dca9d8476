package reconcile

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerbot/internal/http/auth"
	"github.com/MrJamesThe3rd/ledgerbot/internal/reconcile"
)

type Passer interface {
	Pass(ctx context.Context) reconcile.Report
}

// Handler lets an operator force a reconciliation pass instead of waiting
// for the next tick.
type Handler struct {
	engine Passer
	logger *slog.Logger
}

func NewHandler(engine Passer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{engine: engine, logger: logger.With("component", "http.sync")}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.run)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	report := h.engine.Pass(r.Context())

	h.logger.Info("manual sync", "operator", auth.Subject(r.Context()), "drifted", report.Drifted, "failures", report.Failures)

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
