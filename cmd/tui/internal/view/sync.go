package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerbot/internal/reconcile"
)

const syncTimeout = 2 * time.Minute

type syncState int

const (
	syncStateIdle syncState = iota
	syncStateRunning
	syncStateResult
)

// SyncModel runs a reconciliation pass on demand and shows its report.
type SyncModel struct {
	CommonModel
	engine *reconcile.Engine

	state   syncState
	spinner spinner.Model
	report  reconcile.Report
	last    time.Time
}

func NewSyncModel(engine *reconcile.Engine) SyncModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return SyncModel{
		engine:  engine,
		spinner: s,
	}
}

func (m SyncModel) Title() string { return "Sync Ledgers" }

func (m SyncModel) ShortHelp() string {
	if m.state == syncStateRunning {
		return "Syncing..."
	}

	return "Esc: back | Enter: run pass"
}

func (m SyncModel) Init() tea.Cmd {
	return nil
}

func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncResultMsg:
		m.state = syncStateResult
		m.report = msg.report
		m.last = msg.at

		return m, nil

	case tea.KeyMsg:
		if m.state == syncStateRunning {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyEsc:
			return m, Back
		case tea.KeyEnter:
			m.state = syncStateRunning
			return m, tea.Batch(m.spinner.Tick, m.runCmd())
		}
	}

	if m.state == syncStateRunning {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m SyncModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	switch m.state {
	case syncStateRunning:
		return style.Render(fmt.Sprintf("%s Comparing agent ledgers with the primary...", m.spinner.View()))
	case syncStateResult:
		return style.Render(m.viewReport())
	}

	return style.Render(fmt.Sprintf(
		"Agent colors are pulled into the primary ledger every %s.\n\nPress Enter to run a pass now.",
		m.engine.Interval(),
	))
}

func (m SyncModel) viewReport() string {
	color := lipgloss.Color("46")
	title := "Pass complete"

	if m.report.Failures > 0 {
		color = lipgloss.Color("214")
		title = "Pass complete with failures (see logs)"
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(color).Render(title)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		fmt.Sprintf("Finished:      %s", m.last.Format(time.TimeOnly)),
		fmt.Sprintf("Scanned:       %d", m.report.Scanned),
		fmt.Sprintf("Drifted:       %d", m.report.Drifted),
		fmt.Sprintf("Color writes:  %d", m.report.ColorWrites),
		fmt.Sprintf("Status writes: %d", m.report.StatusWrites),
		fmt.Sprintf("Failures:      %d", m.report.Failures),
		fmt.Sprintf("Took:          %s", m.report.Duration.Round(time.Millisecond)),
		"",
		"(Enter to run again, Esc to go back)",
	)
}

type syncResultMsg struct {
	report reconcile.Report
	at     time.Time
}

func (m SyncModel) runCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		report := m.engine.Pass(ctx)

		return syncResultMsg{report: report, at: time.Now()}
	}
}
