package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/ledgerbot/internal/participant"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectParticipantColumns = `
	id, handle, channel, profile_link, paypal, intermediaries, created_at, updated_at
`

func scanProfile(row *sql.Row) (*participant.Profile, error) {
	var (
		p     participant.Profile
		inter string
	)

	if err := row.Scan(
		&p.ID, &p.Handle, &p.Channel, &p.ProfileLink, &p.PayPal, &inter, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, participant.ErrNotFound
		}

		return nil, err
	}

	p.Intermediaries = splitIntermediaries(inter)

	return &p, nil
}

func (s *Store) FindByHandle(ctx context.Context, handle string) (*participant.Profile, error) {
	query := `SELECT ` + selectParticipantColumns + `
		FROM participants
		WHERE LOWER(handle) = LOWER($1)
		ORDER BY updated_at DESC
		LIMIT 1`

	p, err := scanProfile(s.db.QueryRowContext(ctx, query, handle))
	if err != nil && !errors.Is(err, participant.ErrNotFound) {
		return nil, fmt.Errorf("finding participant by handle: %w", err)
	}

	return p, err
}

func (s *Store) FindByChannel(ctx context.Context, channel string) (*participant.Profile, error) {
	query := `SELECT ` + selectParticipantColumns + `
		FROM participants
		WHERE channel = $1`

	p, err := scanProfile(s.db.QueryRowContext(ctx, query, channel))
	if err != nil && !errors.Is(err, participant.ErrNotFound) {
		return nil, fmt.Errorf("finding participant by channel: %w", err)
	}

	return p, err
}

func (s *Store) Upsert(ctx context.Context, p *participant.Profile) error {
	query := `
		INSERT INTO participants (handle, channel, profile_link, paypal, intermediaries, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (channel) DO UPDATE SET
			handle = EXCLUDED.handle,
			profile_link = EXCLUDED.profile_link,
			paypal = EXCLUDED.paypal,
			intermediaries = EXCLUDED.intermediaries,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		p.Handle,
		p.Channel,
		p.ProfileLink,
		p.PayPal,
		strings.Join(p.Intermediaries, ","),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting participant: %w", err)
	}

	return nil
}

func splitIntermediaries(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := parts[:0]

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
