package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledgerbot/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/ledgerbot/internal/chat/telegram"
	"github.com/MrJamesThe3rd/ledgerbot/internal/config"
	"github.com/MrJamesThe3rd/ledgerbot/internal/database"
	"github.com/MrJamesThe3rd/ledgerbot/internal/export"
	"github.com/MrJamesThe3rd/ledgerbot/internal/importer"
	"github.com/MrJamesThe3rd/ledgerbot/internal/reconcile"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	recordStore "github.com/MrJamesThe3rd/ledgerbot/internal/record/store"
)

type model struct {
	recordService   *record.Service
	importService   *importer.Service
	exportService   *export.Service
	reconcileEngine *reconcile.Engine

	currentView View

	ledgerView view.LedgerModel
	importView view.ImportModel
	syncView   view.SyncModel
}

type View int

const (
	ViewMenu   View = 0
	ViewLedger View = 1
	ViewImport View = 2
	ViewSync   View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ledgers := record.Ledgers{Primary: cfg.Ledger.Primary, Agents: cfg.Ledger.Agents}
	repo := recordStore.New(db)

	recordSvc := record.NewService(repo, ledgers)
	impSvc := importer.NewService()
	expSvc := export.NewService(recordSvc, exportOptions(cfg)...)
	engine := reconcile.NewEngine(repo, ledgers,
		reconcile.WithInterval(cfg.Sync.Interval),
		reconcile.WithEpsilon(cfg.Sync.Epsilon),
	)

	return model{
		recordService:   recordSvc,
		importService:   impSvc,
		exportService:   expSvc,
		reconcileEngine: engine,
		currentView:     ViewMenu,
		ledgerView:      view.NewLedgerModel(recordSvc, expSvc),
		importView:      view.NewImportModel(recordSvc, impSvc),
		syncView:        view.NewSyncModel(engine),
	}
}

// exportOptions resolves chat file ids when a bot token is configured. Logs
// are discarded since they would draw over the screen; Summary marks proofs
// that could not be fetched.
func exportOptions(cfg *config.Config) []export.Option {
	opts := []export.Option{export.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}

	if cfg.Telegram.Token == "" {
		return opts
	}

	bot, err := telegram.New(cfg.Telegram.Token, telegram.WithBaseURL(cfg.Telegram.BaseURL))
	if err != nil {
		slog.Warn("proof downloads disabled", "error", err)
		return opts
	}

	return append(opts, export.WithFileResolver(bot))
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewLedger
				m.ledgerView = view.NewLedgerModel(m.recordService, m.exportService)

				return m, m.ledgerView.Init()
			case "2":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.recordService, m.importService)

				return m, m.importView.Init()
			case "3":
				m.currentView = ViewSync
				return m, m.syncView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLedger:
		var newModel tea.Model
		newModel, cmd = m.ledgerView.Update(msg)
		m.ledgerView = newModel.(view.LedgerModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewSync:
		var newModel tea.Model
		newModel, cmd = m.syncView.Update(msg)
		m.syncView = newModel.(view.SyncModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Ledgerbot\n\n" +
				"1. Browse Ledgers\n" +
				"2. Import Ledger CSV\n" +
				"3. Sync Ledgers\n\n" +
				"q. Quit",
		)
	case ViewLedger:
		return m.ledgerView.View()
	case ViewImport:
		return m.importView.View()
	case ViewSync:
		return m.syncView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
