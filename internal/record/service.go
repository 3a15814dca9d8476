package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=record
type Repository interface {
	Append(ctx context.Context, ledger string, rec *Record) error
	Find(ctx context.Context, ledger, key string) (*Record, error)
	Update(ctx context.Context, ledger, key string, patch Patch) error
	List(ctx context.Context, ledger string, filter ListFilter) ([]*Record, error)

	// StatusColor returns the observed background, or nil when the row was never painted.
	StatusColor(ctx context.Context, ledger, key string) (*status.Color, error)
	SetStatusColor(ctx context.Context, ledger, key string, bg, fg status.Color) error
}

// Ledgers names the primary ledger and the per-agent secondary ledgers.
type Ledgers struct {
	Primary string
	Agents  []string
}

// Known reports whether id is the primary or one of the agent ledgers.
func (l Ledgers) Known(id string) bool {
	return id == l.Primary || slices.Contains(l.Agents, id)
}

// agentFor returns the first intermediary that has its own ledger.
func (l Ledgers) agentFor(intermediaries []string) string {
	for _, handle := range intermediaries {
		for _, agent := range l.Agents {
			if strings.EqualFold(handle, agent) {
				return agent
			}
		}
	}

	return ""
}

type ListFilter struct {
	Status *status.Status
}

type CreateParams struct {
	Key            string
	Status         status.Status
	OwnerKey       string
	OwnerChat      string
	OwnerHandle    string
	PayPal         string
	ProfileLink    string
	ProofRef       string
	ReviewLink     string
	Intermediaries []string
}

type Service struct {
	repo    Repository
	ledgers Ledgers
	logger  *slog.Logger

	colorAttempts int
	colorBackoff  time.Duration
}

type Option func(*Service)

// WithLogger sets the logger used for non-fatal write failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithColorRetry configures the compensating retry applied to color writes
// that follow a committed status write.
func WithColorRetry(attempts int, backoff time.Duration) Option {
	return func(s *Service) {
		s.colorAttempts = max(attempts, 1)
		s.colorBackoff = backoff
	}
}

func NewService(repo Repository, ledgers Ledgers, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		ledgers:       ledgers,
		logger:        slog.Default(),
		colorAttempts: 3,
		colorBackoff:  200 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) Ledgers() Ledgers {
	return s.ledgers
}

// Create appends a new record to the primary ledger, painted for its status,
// and mirrors it into the agent ledger of the owner's first known intermediary.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Record, error) {
	if _, err := s.repo.Find(ctx, s.ledgers.Primary, params.Key); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("checking existing record: %w", err)
	}

	rec := fromParams(s.ledgers.Primary, params)
	rec.Mirror = s.ledgers.agentFor(params.Intermediaries)

	if err := s.repo.Append(ctx, s.ledgers.Primary, rec); err != nil {
		return nil, fmt.Errorf("appending record: %w", err)
	}

	s.paint(ctx, rec)

	if rec.Mirror == "" {
		return rec, nil
	}

	mirror := fromParams(rec.Mirror, params)
	if err := s.repo.Append(ctx, rec.Mirror, mirror); err != nil {
		s.logger.Error("failed to mirror record", "key", rec.Key, "ledger", rec.Mirror, "error", err)
		return rec, nil
	}

	s.paint(ctx, mirror)

	return rec, nil
}

func (s *Service) Get(ctx context.Context, key string) (*Record, error) {
	return s.repo.Find(ctx, s.ledgers.Primary, key)
}

func (s *Service) GetIn(ctx context.Context, ledger, key string) (*Record, error) {
	if !s.ledgers.Known(ledger) {
		return nil, ErrUnknownLedger
	}

	return s.repo.Find(ctx, ledger, key)
}

func (s *Service) List(ctx context.Context, ledger string, filter ListFilter) ([]*Record, error) {
	if !s.ledgers.Known(ledger) {
		return nil, ErrUnknownLedger
	}

	return s.repo.List(ctx, ledger, filter)
}

// PendingReviews lists primary records whose review is waiting for the operator.
func (s *Service) PendingReviews(ctx context.Context) ([]*Record, error) {
	return s.repo.List(ctx, s.ledgers.Primary, ListFilter{Status: new(status.ReviewUploaded)})
}

// SubmitReview attaches a review link and moves the record to ReviewUploaded
// whatever its current status.
func (s *Service) SubmitReview(ctx context.Context, key, reviewLink, paypal string) (*Record, error) {
	patch := StatusPatch(status.ReviewUploaded)
	patch.ReviewLink = &reviewLink

	if paypal != "" {
		patch.PayPal = &paypal
	}

	return s.transition(ctx, key, patch)
}

// MarkPaid moves the record to Paid, keeping the payment proof reference if any.
func (s *Service) MarkPaid(ctx context.Context, key, proofRef string) (*Record, error) {
	patch := StatusPatch(status.Paid)
	if proofRef != "" {
		patch.PaymentProofRef = &proofRef
	}

	return s.transition(ctx, key, patch)
}

// SetStatus changes the status of a record in the given ledger. Changes on
// the primary copy are carried over to its mirror.
func (s *Service) SetStatus(ctx context.Context, ledger, key string, st status.Status) (*Record, error) {
	if !st.Valid() {
		return nil, fmt.Errorf("invalid status %q", st)
	}

	if ledger == s.ledgers.Primary {
		return s.transition(ctx, key, StatusPatch(st))
	}

	if !s.ledgers.Known(ledger) {
		return nil, ErrUnknownLedger
	}

	rec, err := s.repo.Find(ctx, ledger, key)
	if err != nil {
		return nil, err
	}

	if err := s.apply(ctx, rec, StatusPatch(st)); err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *Service) transition(ctx context.Context, key string, patch Patch) (*Record, error) {
	rec, err := s.repo.Find(ctx, s.ledgers.Primary, key)
	if err != nil {
		return nil, err
	}

	if err := s.apply(ctx, rec, patch); err != nil {
		return nil, err
	}

	if rec.Mirror == "" {
		return rec, nil
	}

	mirror, err := s.repo.Find(ctx, rec.Mirror, key)
	if err != nil {
		s.logger.Warn("mirror copy unavailable", "key", key, "ledger", rec.Mirror, "error", err)
		return rec, nil
	}

	if err := s.apply(ctx, mirror, patch); err != nil {
		s.logger.Error("failed to update mirror copy", "key", key, "ledger", rec.Mirror, "error", err)
	}

	return rec, nil
}

// apply persists the patch and, when the status changed, repaints the row.
func (s *Service) apply(ctx context.Context, rec *Record, patch Patch) error {
	if err := s.repo.Update(ctx, rec.Ledger, rec.Key, patch); err != nil {
		return fmt.Errorf("updating record: %w", err)
	}

	patch.Apply(rec)

	if patch.Status != nil {
		s.paint(ctx, rec)
	}

	return nil
}

// paint writes the status color pair. The status is already committed, so
// a persistent failure is logged rather than returned; reconciliation
// repairs mirrored rows on its next pass.
func (s *Service) paint(ctx context.Context, rec *Record) {
	pair, ok := status.ColorFor(rec.Status)
	if !ok {
		return
	}

	var err error

	for attempt := 1; ; attempt++ {
		err = s.repo.SetStatusColor(ctx, rec.Ledger, rec.Key, pair.Background, pair.Foreground)
		if err == nil {
			rec.Color = &pair
			return
		}

		if attempt >= s.colorAttempts || sleep(ctx, time.Duration(attempt)*s.colorBackoff) != nil {
			break
		}
	}

	s.logger.Error("failed to paint record", "key", rec.Key, "ledger", rec.Ledger, "status", rec.Status, "error", err)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type ImportResult struct {
	Imported  []*Record
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Record
}

// ImportBatch appends records to a ledger, skipping keys the ledger already
// holds and reporting them as conflicts.
func (s *Service) ImportBatch(ctx context.Context, ledger string, params []CreateParams) (*ImportResult, error) {
	if !s.ledgers.Known(ledger) {
		return nil, ErrUnknownLedger
	}

	result := &ImportResult{}

	for _, p := range params {
		existing, err := s.repo.Find(ctx, ledger, p.Key)
		if err == nil {
			result.Conflicts = append(result.Conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("checking %s: %w", p.Key, err)
		}

		rec := fromParams(ledger, p)
		if err := s.repo.Append(ctx, ledger, rec); err != nil {
			return nil, fmt.Errorf("appending %s: %w", p.Key, err)
		}

		s.paint(ctx, rec)

		result.Imported = append(result.Imported, rec)
	}

	return result, nil
}

func fromParams(ledger string, p CreateParams) *Record {
	st := p.Status
	if st == "" {
		st = status.Pending
	}

	return &Record{
		Ledger:      ledger,
		Key:         p.Key,
		Status:      st,
		Paid:        st.IsPaid(),
		OwnerKey:    p.OwnerKey,
		OwnerChat:   p.OwnerChat,
		OwnerHandle: p.OwnerHandle,
		PayPal:      p.PayPal,
		ProfileLink: p.ProfileLink,
		ProofRef:    p.ProofRef,
		ReviewLink:  p.ReviewLink,
	}
}
