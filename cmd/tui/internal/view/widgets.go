package view

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
)

// ledgerPicker walks the configured ledgers, primary first.
type ledgerPicker struct {
	ids    []string
	cursor int
}

func newLedgerPicker(l record.Ledgers) ledgerPicker {
	return ledgerPicker{ids: append([]string{l.Primary}, l.Agents...)}
}

func (p ledgerPicker) Current() string {
	return p.ids[p.cursor]
}

// Next moves to the following ledger, wrapping around.
func (p *ledgerPicker) Next() {
	p.cursor = (p.cursor + 1) % len(p.ids)
}

// Update moves the cursor and reports whether the ledger was chosen.
func (p *ledgerPicker) Update(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyUp:
		if p.cursor > 0 {
			p.cursor--
		}
	case tea.KeyDown:
		if p.cursor < len(p.ids)-1 {
			p.cursor++
		}
	case tea.KeyEnter:
		return true
	}

	return false
}

func (p ledgerPicker) View(title string) string {
	var b strings.Builder

	b.WriteString(title + "\n\n")

	for i, id := range p.ids {
		cursor := " "
		if i == p.cursor {
			cursor = ">"
		}

		fmt.Fprintf(&b, "%s %s\n", cursor, id)
	}

	return lipgloss.NewStyle().Padding(2).Render(b.String())
}

// newCSVPicker browses the working directory for sheet exports.
func newCSVPicker() filepicker.Model {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return fp
}

func newTable(columns []table.Column, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func framedTable(t table.Model) string {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(t.View())
}

// outcome renders a final status line, red when err is set.
func outcome(status string, err error) string {
	color := lipgloss.Color("46")
	if err != nil {
		color = lipgloss.Color("196")
	}

	return lipgloss.NewStyle().Padding(2).Render(
		lipgloss.NewStyle().Foreground(color).Render(status) + "\n\n(Esc to go back)",
	)
}
