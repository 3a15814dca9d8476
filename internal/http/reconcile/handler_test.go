package reconcile_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncHandler "github.com/MrJamesThe3rd/ledgerbot/internal/http/reconcile"
	"github.com/MrJamesThe3rd/ledgerbot/internal/reconcile"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record/recordtest"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

func TestHandler_RunsPass(t *testing.T) {
	repo := recordtest.NewMemory()
	pending, _ := status.ColorFor(status.Pending)
	repo.Put(&record.Record{Ledger: "main", Key: "1", Status: status.Pending, Mirror: "ana", Color: &pending})
	repo.Put(&record.Record{Ledger: "ana", Key: "1", Status: status.Pending, Color: &pending})
	repo.Paint("ana", "1", status.Color{R: 1, G: 1, B: 0})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := reconcile.NewEngine(repo, record.Ledgers{Primary: "main", Agents: []string{"ana"}}, reconcile.WithLogger(logger))

	r := chi.NewRouter()
	r.Route("/sync", syncHandler.NewHandler(engine, logger).Routes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got reconcile.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, 1, got.Scanned)
	assert.Equal(t, 1, got.ColorWrites)
	assert.Equal(t, 2, got.StatusWrites)
	assert.Equal(t, status.Completed, repo.Snapshot("main", "1").Status)
}
