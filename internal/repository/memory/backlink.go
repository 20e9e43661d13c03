package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kitbuilder587/morvo/internal/domain"
)

type BacklinkRepo struct {
	mu       sync.RWMutex
	analyses []domain.BacklinkAnalysis
}

func NewBacklinkRepo() *BacklinkRepo {
	return &BacklinkRepo{}
}

func (r *BacklinkRepo) Create(_ context.Context, a *domain.BacklinkAnalysis) error {
	if err := a.Validate(); err != nil {
		return err
	}
	c := *a
	c.Domain = domain.NormalizeDomain(a.Domain)

	r.mu.Lock()
	r.analyses = append(r.analyses, c)
	r.mu.Unlock()
	return nil
}

// ListByDomain - свежие первыми
func (r *BacklinkRepo) ListByDomain(_ context.Context, domainName string, limit int) ([]domain.BacklinkAnalysis, error) {
	d := domain.NormalizeDomain(domainName)

	r.mu.RLock()
	var out []domain.BacklinkAnalysis
	for _, a := range r.analyses {
		if strings.EqualFold(a.Domain, d) {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].AnalyzedAt.After(out[j].AnalyzedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
