package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerbot/internal/export"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

const exportTimeout = 2 * time.Minute

type ledgerState int

const (
	ledgerStateBrowse ledgerState = iota
	ledgerStateEdit
)

// LedgerModel browses one ledger at a time and lets the operator change a
// record's status.
type LedgerModel struct {
	CommonModel
	recordService *record.Service
	exportService *export.Service

	state   ledgerState
	table   table.Model
	records []*record.Record
	form    *huh.Form

	ledgers   ledgerPicker
	statusIdx int // 0 is "all", then status.All in order

	loading bool
	err     error
	status  string

	// Heap-allocated so the form keeps writing to it across model copies.
	formStatus *status.Status
}

func NewLedgerModel(recordSvc *record.Service, exportSvc *export.Service) LedgerModel {
	t := newTable([]table.Column{
		{Title: "Key", Width: 22},
		{Title: "Status", Width: 16},
		{Title: "Paid", Width: 5},
		{Title: "Owner", Width: 16},
		{Title: "PayPal", Width: 28},
		{Title: "Mirror", Width: 10},
	}, 15)

	return LedgerModel{
		recordService: recordSvc,
		exportService: exportSvc,
		table:         t,
		ledgers:       newLedgerPicker(recordSvc.Ledgers()),
		loading:       true,
	}
}

func (m LedgerModel) Title() string { return "Ledgers" }

func (m LedgerModel) ShortHelp() string {
	if m.state == ledgerStateEdit {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | e: set status | l: ledger | s: status filter | x: export | r: refresh"
}

func (m LedgerModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m LedgerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadLedgerMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.records = msg.records
		m.refreshTable()

		return m, nil

	case ledgerSaveMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("%s is now %s", msg.key, msg.status.Label())
		}

		m.state = ledgerStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case ledgerExportMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error exporting: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Exported %d records to %s", msg.count, msg.path)
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case ledgerStateBrowse:
		return m.updateBrowse(msg)
	case ledgerStateEdit:
		return m.updateEdit(msg)
	}

	return m, nil
}

func (m LedgerModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "e":
			return m.enterEditMode()
		case "x":
			m.status = fmt.Sprintf("Exporting %s...", m.currentLedger())
			return m, m.exportCmd()
		case "l":
			m.ledgers.Next()
			m.loading = true

			return m, m.loadCmd()
		case "s":
			m.statusIdx = (m.statusIdx + 1) % (len(status.All) + 1)
			m.loading = true

			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m LedgerModel) enterEditMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.records) {
		return m, nil
	}

	m.formStatus = new(m.records[idx].Status)

	options := make([]huh.Option[status.Status], 0, len(status.All))
	for _, s := range status.All {
		options = append(options, huh.NewOption(s.Label(), s))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[status.Status]().
				Key("status").
				Title("Status").
				Options(options...).
				Value(m.formStatus),
		),
	).WithWidth(40).WithShowHelp(false)

	m.state = ledgerStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m LedgerModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = ledgerStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m LedgerModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading ledger...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v\n\n(Esc to go back)", m.err))
	}

	header := fmt.Sprintf(
		"[l] Ledger: %s | [s] Status: %s | %d records",
		activeStyle(m.currentLedger()),
		activeStyle(m.statusLabel()),
		len(m.records),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		framedTable(m.table),
	)

	if idx := m.table.Cursor(); idx >= 0 && idx < len(m.records) {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", statusBadge(m.records[idx]))
	}

	if m.state == ledgerStateEdit && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(44).
			Render(fmt.Sprintf("Set status\n\n%s", m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m LedgerModel) currentLedger() string {
	return m.ledgers.Current()
}

func (m LedgerModel) statusLabel() string {
	if m.statusIdx == 0 {
		return "All"
	}

	return status.All[m.statusIdx-1].Label()
}

func (m LedgerModel) filter() record.ListFilter {
	if m.statusIdx == 0 {
		return record.ListFilter{}
	}

	return record.ListFilter{Status: new(status.All[m.statusIdx-1])}
}

func (m *LedgerModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.records))
	for _, rec := range m.records {
		paid := ""
		if rec.Paid {
			paid = "yes"
		}

		rows = append(rows, table.Row{
			rec.Key,
			rec.Status.Label(),
			paid,
			rec.OwnerHandle,
			rec.PayPal,
			rec.Mirror,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadLedgerMsg struct {
	records []*record.Record
	err     error
}

func (m LedgerModel) loadCmd() tea.Cmd {
	ledger := m.currentLedger()
	filter := m.filter()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		recs, err := m.recordService.List(ctx, ledger, filter)

		return loadLedgerMsg{records: recs, err: err}
	}
}

type ledgerSaveMsg struct {
	key    string
	status status.Status
	err    error
}

func (m LedgerModel) saveCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.records) {
		return nil
	}

	ledger := m.currentLedger()
	key := m.records[idx].Key
	st := *m.formStatus

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.recordService.SetStatus(ctx, ledger, key, st)

		return ledgerSaveMsg{key: key, status: st, err: err}
	}
}

const exportDir = "./exports"

type ledgerExportMsg struct {
	path  string
	count int
	err   error
}

func (m LedgerModel) exportCmd() tea.Cmd {
	ledger := m.currentLedger()
	filter := m.filter()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		path, items, err := m.exportService.Export(ctx, ledger, filter, exportDir)

		return ledgerExportMsg{path: path, count: len(items), err: err}
	}
}
