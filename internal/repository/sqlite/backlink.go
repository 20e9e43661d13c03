package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kitbuilder587/morvo/internal/domain"
)

type BacklinkRepo struct {
	d *DB
}

func NewBacklinkRepo(d *DB) *BacklinkRepo {
	return &BacklinkRepo{d: d}
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

	_, err := r.d.db.ExecContext(ctx, `
		INSERT INTO backlink_analyses (id, user_id, domain, total_backlinks, referring_domains,
			saudi_domains, gcc_domains, arabic_anchors, gov_backlinks, edu_backlinks,
			relevance_score, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
		toMillis(a.AnalyzedAt),
	)
	if err != nil {
		return fmt.Errorf("create backlink analysis: %w", err)
	}
	return nil
}

func (r *BacklinkRepo) ListByDomain(ctx context.Context, domainName string, limit int) ([]domain.BacklinkAnalysis, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.d.db.QueryContext(ctx, `
		SELECT id, user_id, domain, total_backlinks, referring_domains, saudi_domains, gcc_domains,
			arabic_anchors, gov_backlinks, edu_backlinks, relevance_score, analyzed_at
		FROM backlink_analyses
		WHERE domain = ?
		ORDER BY analyzed_at DESC
		LIMIT ?
	`, domain.NormalizeDomain(domainName), limit)
	if err != nil {
		return nil, fmt.Errorf("list backlink analyses: %w", err)
	}
	defer rows.Close()

	var out []domain.BacklinkAnalysis
	for rows.Next() {
		var (
			a          domain.BacklinkAnalysis
			userID     sql.NullString
			analyzedAt int64
		)
		err := rows.Scan(&a.ID, &userID, &a.Domain, &a.TotalBacklinks, &a.ReferringDomains,
			&a.SaudiDomains, &a.GCCDomains, &a.ArabicAnchors, &a.GovBacklinks, &a.EduBacklinks,
			&a.RelevanceScore, &analyzedAt)
		if err != nil {
			return nil, fmt.Errorf("scan backlink analysis: %w", err)
		}
		a.UserID = userID.String
		a.AnalyzedAt = fromMillis(analyzedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}
