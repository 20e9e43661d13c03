package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kitbuilder587/morvo/internal/domain"
)

type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*domain.CulturalProfile, error) {
	query := `
		SELECT user_id, background, native_language, fluency_level, preferred_language, directness,
			formal_address, honorifics, storytelling, religious_considerations, calendar_awareness,
			region, taboos, updated_at
		FROM cultural_profiles
		WHERE user_id = $1
	`

	var p domain.CulturalProfile
	var background, native, fluency, preferred, directness, region *string
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&background,
		&native,
		&fluency,
		&preferred,
		&directness,
		&p.FormalAddress,
		&p.Honorifics,
		&p.Storytelling,
		&p.ReligiousConsiderations,
		&p.CalendarAwareness,
		&region,
		&p.Taboos,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	p.Background = derefString(background)
	p.NativeLanguage = derefString(native)
	p.FluencyLevel = derefString(fluency)
	p.PreferredLanguage = derefString(preferred)
	p.Directness = derefString(directness)
	p.Region = derefString(region)
	return &p, nil
}

func (r *ProfileRepo) Upsert(ctx context.Context, p *domain.CulturalProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO cultural_profiles (user_id, background, native_language, fluency_level,
			preferred_language, directness, formal_address, honorifics, storytelling,
			religious_considerations, calendar_awareness, region, taboos, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id) DO UPDATE SET
			background               = EXCLUDED.background,
			native_language          = EXCLUDED.native_language,
			fluency_level            = EXCLUDED.fluency_level,
			preferred_language       = EXCLUDED.preferred_language,
			directness               = EXCLUDED.directness,
			formal_address           = EXCLUDED.formal_address,
			honorifics               = EXCLUDED.honorifics,
			storytelling             = EXCLUDED.storytelling,
			religious_considerations = EXCLUDED.religious_considerations,
			calendar_awareness       = EXCLUDED.calendar_awareness,
			region                   = EXCLUDED.region,
			taboos                   = EXCLUDED.taboos,
			updated_at               = EXCLUDED.updated_at
	`,
		p.UserID,
		nullString(p.Background),
		nullString(p.NativeLanguage),
		nullString(p.FluencyLevel),
		nullString(p.PreferredLanguage),
		nullString(p.Directness),
		p.FormalAddress,
		p.Honorifics,
		p.Storytelling,
		p.ReligiousConsiderations,
		p.CalendarAwareness,
		nullString(p.Region),
		nonNil(p.Taboos),
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
