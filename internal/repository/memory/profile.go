package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/morvo/internal/domain"
)

type ProfileRepo struct {
	mu       sync.RWMutex
	profiles map[string]domain.CulturalProfile
}

func NewProfileRepo() *ProfileRepo {
	return &ProfileRepo{profiles: make(map[string]domain.CulturalProfile)}
}

func (r *ProfileRepo) Get(_ context.Context, userID string) (*domain.CulturalProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	p.Taboos = append([]string(nil), p.Taboos...)
	return &p, nil
}

func (r *ProfileRepo) Upsert(_ context.Context, profile *domain.CulturalProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	p := *profile
	p.Taboos = append([]string(nil), profile.Taboos...)
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	r.mu.Lock()
	r.profiles[p.UserID] = p
	r.mu.Unlock()
	return nil
}
