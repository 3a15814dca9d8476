package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectRecordColumns = `
	id, ledger, key, status, paid, owner_key, owner_chat, owner_handle,
	paypal, profile_link, proof_ref, review_link, payment_proof_ref, mirror,
	bg_r, bg_g, bg_b, fg_r, fg_g, fg_b, created_at, updated_at
`

// scanRecord reads a row in selectRecordColumns order.
func scanRecord(s scanner) (*record.Record, error) {
	var (
		r         record.Record
		statusStr string
		bg, fg    nullColor
	)

	if err := s.Scan(
		&r.ID, &r.Ledger, &r.Key, &statusStr, &r.Paid, &r.OwnerKey, &r.OwnerChat, &r.OwnerHandle,
		&r.PayPal, &r.ProfileLink, &r.ProofRef, &r.ReviewLink, &r.PaymentProofRef, &r.Mirror,
		&bg.R, &bg.G, &bg.B, &fg.R, &fg.G, &fg.B,
		&r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	r.Status = status.Status(statusStr)

	if c, ok := bg.color(); ok {
		pair := status.Pair{Background: c}
		if f, ok := fg.color(); ok {
			pair.Foreground = f
		} else {
			pair.Foreground = status.Foreground(c)
		}

		r.Color = &pair
	}

	return &r, nil
}

type nullColor struct {
	R, G, B sql.NullFloat64
}

func (n nullColor) color() (status.Color, bool) {
	if !n.R.Valid || !n.G.Valid || !n.B.Valid {
		return status.Color{}, false
	}

	return status.Color{R: n.R.Float64, G: n.G.Float64, B: n.B.Float64}, true
}

func (s *Store) Append(ctx context.Context, ledger string, rec *record.Record) error {
	query := `
		INSERT INTO ledger_records (
			ledger, key, status, paid, owner_key, owner_chat, owner_handle,
			paypal, profile_link, proof_ref, review_link, payment_proof_ref, mirror,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		ON CONFLICT (ledger, key) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		ledger,
		rec.Key,
		rec.Status,
		rec.Paid,
		rec.OwnerKey,
		rec.OwnerChat,
		rec.OwnerHandle,
		rec.PayPal,
		rec.ProfileLink,
		rec.ProofRef,
		rec.ReviewLink,
		rec.PaymentProofRef,
		rec.Mirror,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.ErrDuplicate
		}

		return fmt.Errorf("appending record: %w", err)
	}

	rec.Ledger = ledger

	return nil
}

func (s *Store) Find(ctx context.Context, ledger, key string) (*record.Record, error) {
	query := `SELECT ` + selectRecordColumns + `
		FROM ledger_records
		WHERE ledger = $1 AND key = $2`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, ledger, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, record.ErrNotFound
		}

		return nil, fmt.Errorf("finding record: %w", err)
	}

	return rec, nil
}

func (s *Store) List(ctx context.Context, ledger string, filter record.ListFilter) ([]*record.Record, error) {
	query := `SELECT ` + selectRecordColumns + `
		FROM ledger_records
		WHERE ledger = $1`

	args := []any{ledger}

	if filter.Status != nil {
		query += " AND status = $2"

		args = append(args, *filter.Status)
	}

	query += " ORDER BY created_at ASC, key ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var recs []*record.Record

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return recs, nil
}

// Update writes only the columns named by the patch.
func (s *Store) Update(ctx context.Context, ledger, key string, patch record.Patch) error {
	if patch.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}

	if patch.Paid != nil {
		add("paid", *patch.Paid)
	}

	if patch.PayPal != nil {
		add("paypal", *patch.PayPal)
	}

	if patch.ReviewLink != nil {
		add("review_link", *patch.ReviewLink)
	}

	if patch.PaymentProofRef != nil {
		add("payment_proof_ref", *patch.PaymentProofRef)
	}

	args = append(args, ledger, key)
	query := fmt.Sprintf(
		`UPDATE ledger_records SET %s, updated_at = NOW() WHERE ledger = $%d AND key = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}

	return expectOne(res)
}

func (s *Store) StatusColor(ctx context.Context, ledger, key string) (*status.Color, error) {
	query := `SELECT bg_r, bg_g, bg_b FROM ledger_records WHERE ledger = $1 AND key = $2`

	var bg nullColor

	err := s.db.QueryRowContext(ctx, query, ledger, key).Scan(&bg.R, &bg.G, &bg.B)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, record.ErrNotFound
		}

		return nil, fmt.Errorf("reading status color: %w", err)
	}

	c, ok := bg.color()
	if !ok {
		return nil, nil
	}

	return &c, nil
}

// SetStatusColor writes background and foreground in one statement so a row
// never keeps the foreground of a previous status.
func (s *Store) SetStatusColor(ctx context.Context, ledger, key string, bg, fg status.Color) error {
	query := `
		UPDATE ledger_records
		SET bg_r = $1, bg_g = $2, bg_b = $3, fg_r = $4, fg_g = $5, fg_b = $6, updated_at = NOW()
		WHERE ledger = $7 AND key = $8
	`

	res, err := s.db.ExecContext(ctx, query, bg.R, bg.G, bg.B, fg.R, fg.G, fg.B, ledger, key)
	if err != nil {
		return fmt.Errorf("setting status color: %w", err)
	}

	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return record.ErrNotFound
	}

	return nil
}
