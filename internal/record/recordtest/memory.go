// Package recordtest provides an in-memory record.Repository for tests of
// packages that drive the record service.
package recordtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

// Memory stores records per ledger and counts writes so tests can assert on
// idempotence. FailOn injects errors per method and key.
type Memory struct {
	mu      sync.Mutex
	ledgers map[string]map[string]*record.Record
	order   map[string][]string

	Writes int
	FailOn map[string]map[string]error // method -> key -> error
}

func NewMemory() *Memory {
	return &Memory{
		ledgers: make(map[string]map[string]*record.Record),
		order:   make(map[string][]string),
		FailOn:  make(map[string]map[string]error),
	}
}

// Fail makes every call of method for key return err.
func (m *Memory) Fail(method, key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailOn[method] == nil {
		m.FailOn[method] = make(map[string]error)
	}

	m.FailOn[method][key] = err
}

func (m *Memory) failure(method, key string) error {
	if keys, ok := m.FailOn[method]; ok {
		return keys[key]
	}

	return nil
}

// Put stores rec as-is, without counting a write.
func (m *Memory) Put(rec *record.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(rec)
}

func (m *Memory) put(rec *record.Record) {
	l, ok := m.ledgers[rec.Ledger]
	if !ok {
		l = make(map[string]*record.Record)
		m.ledgers[rec.Ledger] = l
	}

	if _, exists := l[rec.Key]; !exists {
		m.order[rec.Ledger] = append(m.order[rec.Ledger], rec.Key)
	}

	cp := *rec
	l[rec.Key] = &cp
}

// Snapshot returns a copy of the stored record, or nil.
func (m *Memory) Snapshot(ledger, key string) *record.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.ledgers[ledger][key]
	if !ok {
		return nil
	}

	cp := *r

	return &cp
}

func (m *Memory) Count(ledger string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.ledgers[ledger])
}

func (m *Memory) Append(_ context.Context, ledger string, rec *record.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("Append", rec.Key); err != nil {
		return err
	}

	if _, exists := m.ledgers[ledger][rec.Key]; exists {
		return record.ErrDuplicate
	}

	rec.ID = uuid.New()
	rec.Ledger = ledger
	m.put(rec)
	m.Writes++

	return nil
}

func (m *Memory) Find(_ context.Context, ledger, key string) (*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("Find", key); err != nil {
		return nil, err
	}

	r, ok := m.ledgers[ledger][key]
	if !ok {
		return nil, record.ErrNotFound
	}

	cp := *r

	return &cp, nil
}

func (m *Memory) Update(_ context.Context, ledger, key string, patch record.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("Update", key); err != nil {
		return err
	}

	r, ok := m.ledgers[ledger][key]
	if !ok {
		return record.ErrNotFound
	}

	patch.Apply(r)
	m.Writes++

	return nil
}

func (m *Memory) List(_ context.Context, ledger string, filter record.ListFilter) ([]*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("List", ledger); err != nil {
		return nil, err
	}

	keys := append([]string(nil), m.order[ledger]...)
	sort.Strings(keys)

	var out []*record.Record

	for _, k := range keys {
		r := m.ledgers[ledger][k]
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}

		cp := *r
		out = append(out, &cp)
	}

	return out, nil
}

func (m *Memory) StatusColor(_ context.Context, ledger, key string) (*status.Color, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("StatusColor", key); err != nil {
		return nil, err
	}

	r, ok := m.ledgers[ledger][key]
	if !ok {
		return nil, record.ErrNotFound
	}

	if r.Color == nil {
		return nil, nil
	}

	bg := r.Color.Background

	return &bg, nil
}

func (m *Memory) SetStatusColor(_ context.Context, ledger, key string, bg, fg status.Color) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("SetStatusColor", key); err != nil {
		return err
	}

	r, ok := m.ledgers[ledger][key]
	if !ok {
		return fmt.Errorf("set color %s/%s: %w", ledger, key, record.ErrNotFound)
	}

	r.Color = &status.Pair{Background: bg, Foreground: fg}
	m.Writes++

	return nil
}

// Paint sets a row color directly, the way an agent edits a sheet by hand.
func (m *Memory) Paint(ledger, key string, bg status.Color) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.ledgers[ledger][key]; ok {
		r.Color = &status.Pair{Background: bg, Foreground: status.Foreground(bg)}
	}
}
