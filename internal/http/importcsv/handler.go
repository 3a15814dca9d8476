package importcsv

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledgerbot/internal/importer"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

type Handler struct {
	importSvc *importer.Service
	recordSvc *record.Service
	logger    *slog.Logger
}

func NewHandler(importSvc *importer.Service, recordSvc *record.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		importSvc: importSvc,
		recordSvc: recordSvc,
		logger:    logger.With("component", "http.import"),
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type importedDTO struct {
	Key    string        `json:"key"`
	Status status.Status `json:"status"`
}

type conflictDTO struct {
	Key      string        `json:"key"`
	Incoming status.Status `json:"incoming_status"`
	Existing status.Status `json:"existing_status"`
}

type importResponse struct {
	Ledger    string        `json:"ledger"`
	Imported  []importedDTO `json:"imported"`
	Conflicts []conflictDTO `json:"conflicts,omitempty"`
}

// importCSV appends every row whose key the ledger does not hold yet. When
// some rows collide the non-conflicting ones are still written and the
// response is 409 with the collisions listed.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	ledger := r.FormValue("ledger")
	if ledger == "" {
		ledger = h.recordSvc.Ledgers().Primary
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := h.importSvc.Import(importer.Format(r.FormValue("format")), file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.recordSvc.ImportBatch(r.Context(), ledger, params)
	if err != nil {
		if errors.Is(err, record.ErrUnknownLedger) {
			http.Error(w, "unknown ledger", http.StatusNotFound)
			return
		}

		h.logger.Error("import failed", "ledger", ledger, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	resp := importResponse{
		Ledger:   ledger,
		Imported: make([]importedDTO, 0, len(result.Imported)),
	}

	for _, rec := range result.Imported {
		resp.Imported = append(resp.Imported, importedDTO{Key: rec.Key, Status: rec.Status})
	}

	for _, c := range result.Conflicts {
		resp.Conflicts = append(resp.Conflicts, conflictDTO{
			Key:      c.Incoming.Key,
			Incoming: c.Incoming.Status,
			Existing: c.Existing.Status,
		})
	}

	h.logger.Info("ledger imported", "ledger", ledger, "imported", len(resp.Imported), "conflicts", len(resp.Conflicts))

	code := http.StatusCreated
	if len(resp.Conflicts) > 0 {
		code = http.StatusConflict
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
