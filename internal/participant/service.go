package participant

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=participant
type Repository interface {
	FindByHandle(ctx context.Context, handle string) (*Profile, error)
	FindByChannel(ctx context.Context, channel string) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
}

// Service is the participant directory. Lookups by channel are cached in
// memory; Upsert refreshes the cached entry.
type Service struct {
	repo Repository

	mu        sync.RWMutex
	byChannel map[string]*Profile
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:      repo,
		byChannel: make(map[string]*Profile),
	}
}

func (s *Service) FindByHandle(ctx context.Context, handle string) (*Profile, error) {
	return s.repo.FindByHandle(ctx, NormalizeHandle(handle))
}

func (s *Service) FindByChannel(ctx context.Context, channel string) (*Profile, error) {
	s.mu.RLock()
	p, ok := s.byChannel[channel]
	s.mu.RUnlock()

	if ok {
		cp := *p
		return &cp, nil
	}

	p, err := s.repo.FindByChannel(ctx, channel)
	if err != nil {
		return nil, err
	}

	s.remember(p)

	return p, nil
}

func (s *Service) Upsert(ctx context.Context, p *Profile) error {
	if p.Channel == "" {
		return fmt.Errorf("upserting participant: channel is required")
	}

	p.Handle = NormalizeHandle(p.Handle)

	if err := s.repo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upserting participant: %w", err)
	}

	s.remember(p)

	return nil
}

func (s *Service) remember(p *Profile) {
	cp := *p

	s.mu.Lock()
	s.byChannel[p.Channel] = &cp
	s.mu.Unlock()
}

// NormalizeHandle strips the leading mention marker and surrounding space.
func NormalizeHandle(h string) string {
	return strings.TrimPrefix(strings.TrimSpace(h), "@")
}
