package http_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerHttp "github.com/MrJamesThe3rd/ledgerbot/internal/http"
	"github.com/MrJamesThe3rd/ledgerbot/internal/export"
	"github.com/MrJamesThe3rd/ledgerbot/internal/http/auth"
	exportHandler "github.com/MrJamesThe3rd/ledgerbot/internal/http/export"
	"github.com/MrJamesThe3rd/ledgerbot/internal/http/importcsv"
	syncHandler "github.com/MrJamesThe3rd/ledgerbot/internal/http/reconcile"
	recordHandler "github.com/MrJamesThe3rd/ledgerbot/internal/http/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/importer"
	"github.com/MrJamesThe3rd/ledgerbot/internal/reconcile"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record/recordtest"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func newRouter(t *testing.T, db pinger) (http.Handler, *auth.Authenticator) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := recordtest.NewMemory()
	ledgers := record.Ledgers{Primary: "main"}
	svc := record.NewService(repo, ledgers)
	authn := auth.New("s3cret", time.Hour)

	return ledgerHttp.New(
		ledgerHttp.Options{AllowedOrigins: []string{"http://localhost:3000"}},
		db,
		authn,
		recordHandler.NewHandler(svc, logger),
		importcsv.NewHandler(importer.NewService(), svc, logger),
		syncHandler.NewHandler(reconcile.NewEngine(repo, ledgers, reconcile.WithLogger(logger)), logger),
		exportHandler.NewHandler(export.NewService(svc), ledgers.Primary, logger),
	), authn
}

func TestRouter_Healthz(t *testing.T) {
	tests := []struct {
		name string
		db   pinger
		want int
	}{
		{name: "Up", want: http.StatusNoContent},
		{name: "Down", db: pinger{err: errors.New("connection refused")}, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newRouter(t, tt.db)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_APIRequiresToken(t *testing.T) {
	h, authn := newRouter(t, pinger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reviews/pending", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := authn.Mint("ops")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/pending", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
