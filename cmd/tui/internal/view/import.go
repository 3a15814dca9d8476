package view

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerbot/internal/importer"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
)

const importTimeout = 2 * time.Minute

type importStep int

const (
	importChooseLedger importStep = iota
	importChooseFile
	importRunning
	importDone
)

// ImportModel loads a sheet export into one ledger. Keys already present are
// listed afterwards and never overwritten.
type ImportModel struct {
	CommonModel
	recordService *record.Service
	importService *importer.Service

	step    importStep
	ledgers ledgerPicker
	files   filepicker.Model
	skipped table.Model

	conflicts int
	status    string
	err       error
}

func NewImportModel(recordSvc *record.Service, impSvc *importer.Service) ImportModel {
	return ImportModel{
		recordService: recordSvc,
		importService: impSvc,
		ledgers:       newLedgerPicker(recordSvc.Ledgers()),
		files:         newCSVPicker(),
		skipped: newTable([]table.Column{
			{Title: "Key", Width: 22},
			{Title: "In file", Width: 16},
			{Title: "In ledger", Width: 16},
		}, 12),
	}
}

func (m ImportModel) Title() string { return "Import Ledger" }

func (m ImportModel) ShortHelp() string {
	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.files.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(importResultMsg); ok {
		return m.finish(res), nil
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		if m.step == importChooseLedger {
			return m, Back
		}

		m.step, m.status, m.err = importChooseLedger, "", nil

		return m, nil
	}

	switch m.step {
	case importChooseLedger:
		if key, ok := msg.(tea.KeyMsg); ok && m.ledgers.Update(key) {
			m.step = importChooseFile
			return m, m.files.Init()
		}

	case importChooseFile:
		var cmd tea.Cmd
		m.files, cmd = m.files.Update(msg)

		if didSelect, path := m.files.DidSelectFile(msg); didSelect {
			m.step = importRunning
			m.status = fmt.Sprintf("Importing %s into %s...", path, m.ledgers.Current())

			return m, m.importCmd(path)
		}

		return m, cmd

	case importDone:
		var cmd tea.Cmd
		m.skipped, cmd = m.skipped.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m ImportModel) finish(res importResultMsg) ImportModel {
	m.step = importDone
	m.err = res.err
	m.conflicts = 0

	if res.err != nil {
		m.status = fmt.Sprintf("Error: %v", res.err)
		return m
	}

	m.status = fmt.Sprintf("Imported %d records into %s.", len(res.result.Imported), m.ledgers.Current())
	m.conflicts = len(res.result.Conflicts)

	rows := make([]table.Row, 0, m.conflicts)
	for _, c := range res.result.Conflicts {
		rows = append(rows, table.Row{c.Incoming.Key, c.Incoming.Status.Label(), c.Existing.Status.Label()})
	}

	m.skipped.SetRows(rows)

	return m
}

func (m ImportModel) View() string {
	switch m.step {
	case importChooseLedger:
		return m.ledgers.View("Select ledger:")
	case importChooseFile:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select CSV to import into %s:\n\n%s", m.ledgers.Current(), m.files.View()),
		)
	case importRunning:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	}

	if m.conflicts == 0 {
		return outcome(m.status, m.err)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		outcome(m.status, m.err),
		lipgloss.NewStyle().PaddingLeft(2).Render(
			fmt.Sprintf("%d keys already in the ledger were left untouched:", m.conflicts),
		),
		framedTable(m.skipped),
	)
}

type importResultMsg struct {
	result *record.ImportResult
	err    error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	ledger := m.ledgers.Current()

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		params, err := m.importService.Import(importer.FormatSheet, f)
		if err != nil {
			return importResultMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := m.recordService.ImportBatch(ctx, ledger, params)

		return importResultMsg{result: result, err: err}
	}
}
