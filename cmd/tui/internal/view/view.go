package view

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

const dbTimeout = 5 * time.Second

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views.
type CommonModel struct{}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// DbCtx returns a context with a standard timeout for ledger operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

// statusBadge renders a status label in the row's ledger colors, falling
// back to the canonical pair for rows that were never painted.
func statusBadge(rec *record.Record) string {
	pair := rec.Color
	if pair == nil {
		if p, ok := status.ColorFor(rec.Status); ok {
			pair = &p
		}
	}

	style := lipgloss.NewStyle().Padding(0, 1)
	if pair != nil {
		style = style.
			Background(lipgloss.Color(pair.Background.Hex())).
			Foreground(lipgloss.Color(pair.Foreground.Hex()))
	}

	return style.Render(rec.Status.Label())
}
