package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kitbuilder587/morvo/internal/domain"
)

type BacklinkRepo struct {
	db *DB
}

func NewBacklinkRepo(db *DB) *BacklinkRepo {
	return &BacklinkRepo{db: db}
}

func (r *BacklinkRepo) Create(ctx context.Context, a *domain.BacklinkAnalysis) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = time.Now()
	}

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO backlink_analyses (id, user_id, domain, total_backlinks, referring_domains,
			saudi_domains, gcc_domains, arabic_anchors, gov_backlinks, edu_backlinks,
			relevance_score, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		a.ID,
		nullString(a.UserID),
		domain.NormalizeDomain(a.Domain),
		a.TotalBacklinks,
		a.ReferringDomains,
		a.SaudiDomains,
		a.GCCDomains,
		a.ArabicAnchors,
		a.GovBacklinks,
		a.EduBacklinks,
		a.RelevanceScore,
		a.AnalyzedAt,
	)
	if err != nil {
		if isDuplicateError(err) {
			return fmt.Errorf("backlink analysis %s already stored", a.ID)
		}
		return fmt.Errorf("create backlink analysis: %w", err)
	}
	return nil
}

func (r *BacklinkRepo) ListByDomain(ctx context.Context, domainName string, limit int) ([]domain.BacklinkAnalysis, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id, domain, total_backlinks, referring_domains, saudi_domains, gcc_domains,
			arabic_anchors, gov_backlinks, edu_backlinks, relevance_score, analyzed_at
		FROM backlink_analyses
		WHERE domain = $1
		ORDER BY analyzed_at DESC
		LIMIT $2
	`, domain.NormalizeDomain(domainName), limit)
	if err != nil {
		return nil, fmt.Errorf("list backlink analyses: %w", err)
	}
	defer rows.Close()

	var out []domain.BacklinkAnalysis
	for rows.Next() {
		var (
			a      domain.BacklinkAnalysis
			userID *string
		)
		err := rows.Scan(
			&a.ID,
			&userID,
			&a.Domain,
			&a.TotalBacklinks,
			&a.ReferringDomains,
			&a.SaudiDomains,
			&a.GCCDomains,
			&a.ArabicAnchors,
			&a.GovBacklinks,
			&a.EduBacklinks,
			&a.RelevanceScore,
			&a.AnalyzedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan backlink analysis: %w", err)
		}
		a.UserID = derefString(userID)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backlink analyses: %w", err)
	}
	return out, nil
}
