package view

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
)

func TestLedgerPicker(t *testing.T) {
	p := newLedgerPicker(record.Ledgers{Primary: "main", Agents: []string{"ana", "luis"}})
	assert.Equal(t, "main", p.Current())

	assert.False(t, p.Update(tea.KeyMsg{Type: tea.KeyUp}))
	assert.Equal(t, "main", p.Current())

	assert.False(t, p.Update(tea.KeyMsg{Type: tea.KeyDown}))
	assert.False(t, p.Update(tea.KeyMsg{Type: tea.KeyDown}))
	assert.False(t, p.Update(tea.KeyMsg{Type: tea.KeyDown}))
	assert.Equal(t, "luis", p.Current())

	assert.True(t, p.Update(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Contains(t, p.View("Select ledger:"), "> luis")

	p.Next()
	assert.Equal(t, "main", p.Current())
}

func TestImportModel_FinishListsSkippedKeys(t *testing.T) {
	m := ImportModel{
		ledgers: newLedgerPicker(record.Ledgers{Primary: "main"}),
		skipped: newTable(nil, 5),
	}

	m = m.finish(importResultMsg{result: &record.ImportResult{
		Imported:  []*record.Record{{Key: "111"}},
		Conflicts: []record.Conflict{{Incoming: record.CreateParams{Key: "222"}, Existing: &record.Record{Key: "222"}}},
	}})

	assert.Equal(t, importDone, m.step)
	assert.Equal(t, 1, m.conflicts)
	assert.Equal(t, "Imported 1 records into main.", m.status)
	assert.Equal(t, "222", m.skipped.Rows()[0][0])

	m = m.finish(importResultMsg{err: errors.New("bad header")})
	assert.Equal(t, 0, m.conflicts)
	assert.Contains(t, m.View(), "bad header")
}
