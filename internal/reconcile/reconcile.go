// Package reconcile keeps the primary ledger's status colors in line with the
// agent ledgers. Agents are authoritative for color; a pass only writes where
// it finds drift, so a converged set of ledgers costs reads only.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

const DefaultInterval = time.Minute

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithEpsilon(eps float64) Option {
	return func(e *Engine) { e.epsilon = eps }
}

func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// Report summarises one pass.
type Report struct {
	Scanned      int           `json:"scanned"`
	Drifted      int           `json:"drifted"`
	ColorWrites  int           `json:"color_writes"`
	StatusWrites int           `json:"status_writes"`
	Failures     int           `json:"failures"`
	Duration     time.Duration `json:"duration"`
}

type Engine struct {
	repo     record.Repository
	ledgers  record.Ledgers
	epsilon  float64
	interval time.Duration
	logger   *slog.Logger
}

func NewEngine(repo record.Repository, ledgers record.Ledgers, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		ledgers:  ledgers,
		epsilon:  status.DefaultEpsilon,
		interval: DefaultInterval,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With("component", "reconcile")

	return e
}

// Interval is the staleness bound: an agent's edit reaches the primary ledger
// within one interval plus the duration of a pass.
func (e *Engine) Interval() time.Duration {
	return e.interval
}

// Pass runs one reconciliation over every agent ledger. Errors on a single
// record or ledger are logged and counted; they never stop the pass.
func (e *Engine) Pass(ctx context.Context) Report {
	start := time.Now()

	var rep Report

	for _, ledger := range e.ledgers.Agents {
		if ctx.Err() != nil {
			break
		}

		recs, err := e.repo.List(ctx, ledger, record.ListFilter{})
		if err != nil {
			e.logger.Error("failed to list agent ledger", "ledger", ledger, "error", err)
			rep.Failures++

			continue
		}

		for _, rec := range recs {
			if rec.Key == "" {
				continue
			}

			rep.Scanned++

			if err := e.reconcile(ctx, ledger, rec, &rep); err != nil {
				e.logger.Error("failed to reconcile record", "ledger", ledger, "key", rec.Key, "error", err)
				rep.Failures++
			}
		}
	}

	rep.Duration = time.Since(start)

	e.logger.Info("reconciliation pass finished",
		"scanned", rep.Scanned,
		"drifted", rep.Drifted,
		"color_writes", rep.ColorWrites,
		"status_writes", rep.StatusWrites,
		"failures", rep.Failures,
		"duration", rep.Duration,
	)

	return rep
}

func (e *Engine) reconcile(ctx context.Context, ledger string, agentRec *record.Record, rep *Report) error {
	observed, err := e.repo.StatusColor(ctx, ledger, agentRec.Key)
	if err != nil {
		return fmt.Errorf("reading agent color: %w", err)
	}

	if observed == nil {
		return nil
	}

	primary, err := e.repo.Find(ctx, e.ledgers.Primary, agentRec.Key)
	if errors.Is(err, record.ErrNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("finding primary copy: %w", err)
	}

	current, err := e.repo.StatusColor(ctx, e.ledgers.Primary, agentRec.Key)
	if err != nil {
		return fmt.Errorf("reading primary color: %w", err)
	}

	if current == nil || !status.Within(*current, *observed, e.epsilon) {
		rep.Drifted++

		pair := status.PairFor(*observed)
		if err := e.repo.SetStatusColor(ctx, e.ledgers.Primary, agentRec.Key, pair.Background, pair.Foreground); err != nil {
			return fmt.Errorf("propagating color: %w", err)
		}

		rep.ColorWrites++

		e.logger.Info("propagated agent color",
			"ledger", ledger,
			"key", agentRec.Key,
			"color", observed.Hex(),
		)
	}

	// Only the Completed band drives a status change; every other color is
	// cosmetic as far as the pass is concerned.
	if status.Classify(*observed).Status != status.Completed {
		return nil
	}

	if err := e.complete(ctx, primary, rep); err != nil {
		return err
	}

	return e.complete(ctx, agentRec, rep)
}

func (e *Engine) complete(ctx context.Context, rec *record.Record, rep *Report) error {
	if rec.Status == status.Completed && rec.Paid {
		return nil
	}

	if err := e.repo.Update(ctx, rec.Ledger, rec.Key, record.StatusPatch(status.Completed)); err != nil {
		return fmt.Errorf("completing %s copy: %w", rec.Ledger, err)
	}

	rep.StatusWrites++

	e.logger.Info("record completed from agent color", "ledger", rec.Ledger, "key", rec.Key)

	return nil
}

// Run passes on every tick until ctx is done. The first pass runs
// immediately.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		e.Pass(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
