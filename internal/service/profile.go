package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/morvo/internal/cache"
	"github.com/kitbuilder587/morvo/internal/domain"
	"github.com/kitbuilder587/morvo/internal/repository"
)

// ProfileService - культурные профили с read-through кешем.
// Кеш только ускоряет чтение, источник истины - репозиторий.
type ProfileService struct {
	repo   repository.ProfileRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	// gen растет на каждой записи. Чтение кладет строку в кеш,
	// только если за время похода в базу записей не было.
	mu  sync.Mutex
	gen uint64
}

func NewProfileService(repo repository.ProfileRepository, c cache.Cache, ttl time.Duration, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		repo:   repo,
		cache:  c,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func profileKey(userID string) string {
	return cache.Key("profile", userID)
}

// GetProfile возвращает nil, nil если профиля нет
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.CulturalProfile, error) {
	p, err := s.Get(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return nil, nil
	}
	return p, err
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.CulturalProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrEmptyUserID
	}

	if s.cache != nil {
		var cached domain.CulturalProfile
		ok, err := cache.GetJSON(ctx, s.cache, profileKey(userID), &cached)
		if err != nil {
			s.logger.Debug("profile cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		if ok {
			return &cached, nil
		}
	}

	gen := s.generation()

	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	s.fill(ctx, gen, p)
	return p, nil
}

func (s *ProfileService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// fill кладет прочитанную строку в кеш, если ее не успела обогнать запись
func (s *ProfileService) fill(ctx context.Context, gen uint64, p *domain.CulturalProfile) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, profileKey(p.UserID), p, s.ttl); err != nil {
		s.logger.Debug("profile cache write failed", zap.String("user_id", p.UserID), zap.Error(err))
	}
}

// invalidate сбрасывает копию в кеше и отменяет незавершенные fill
func (s *ProfileService) invalidate(ctx context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, profileKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate profile cache", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *ProfileService) Upsert(ctx context.Context, p *domain.CulturalProfile) error {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	// старую копию выкидываем, следующее чтение пойдет в базу
	s.invalidate(ctx, p.UserID)

	s.logger.Info("cultural profile saved", zap.String("user_id", p.UserID))
	return nil
}

// Update читает профиль (или начинает пустой), применяет fn и сохраняет
func (s *ProfileService) Update(ctx context.Context, userID string, fn func(p *domain.CulturalProfile)) (*domain.CulturalProfile, error) {
	p, err := s.Get(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		p = &domain.CulturalProfile{UserID: userID}
	case err != nil:
		return nil, err
	}

	fn(p)
	p.UserID = userID
	if err := s.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
