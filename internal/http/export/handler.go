package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerbot/internal/export"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

type Handler struct {
	svc     *export.Service
	primary string
	logger  *slog.Logger
}

func NewHandler(svc *export.Service, primary string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{svc: svc, primary: primary, logger: logger.With("component", "http.export")}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.download)
}

// download returns the ledger as CSV. The body is buffered so a listing
// failure can still be reported with a proper status code.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	ledger := r.URL.Query().Get("ledger")
	if ledger == "" {
		ledger = h.primary
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

	var buf bytes.Buffer

	if _, err := h.svc.WriteCSV(r.Context(), &buf, ledger, filter); err != nil {
		if errors.Is(err, record.ErrUnknownLedger) {
			http.Error(w, "unknown ledger", http.StatusNotFound)
			return
		}

		h.logger.Error("export failed", "ledger", ledger, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	filename := fmt.Sprintf("%s-%s.csv", ledger, time.Now().Format("20060102"))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}
