package record

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerbot/internal/http/auth"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

type Handler struct {
	svc    *record.Service
	logger *slog.Logger
}

func NewHandler(svc *record.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{svc: svc, logger: logger.With("component", "http.record")}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{ledger}/{key}", h.get)
	r.Patch("/{ledger}/{key}/status", h.updateStatus)
}

func (h *Handler) ReviewRoutes(r chi.Router) {
	r.Get("/pending", h.pendingReviews)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ledger := r.URL.Query().Get("ledger")
	if ledger == "" {
		ledger = h.svc.Ledgers().Primary
	}

	filter := record.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		st, err := status.Parse(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		filter.Status = new(st)
	}

	recs, err := h.svc.List(r.Context(), ledger, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toResponseList(recs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetIn(r.Context(), chi.URLParam(r, "ledger"), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toResponse(rec))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	st, err := status.Parse(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ledger, key := chi.URLParam(r, "ledger"), chi.URLParam(r, "key")

	rec, err := h.svc.SetStatus(r.Context(), ledger, key, st)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("status changed by operator",
		"operator", auth.Subject(r.Context()), "ledger", ledger, "key", key, "status", st)

	h.writeJSON(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) pendingReviews(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.PendingReviews(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toResponseList(recs))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, record.ErrNotFound):
		http.Error(w, "record not found", http.StatusNotFound)
	case errors.Is(err, record.ErrUnknownLedger):
		http.Error(w, "unknown ledger", http.StatusNotFound)
	default:
		h.logger.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
