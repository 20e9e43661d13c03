package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kitbuilder587/morvo/internal/domain"
)

type ProfileRepo struct {
	d *DB
}

func NewProfileRepo(d *DB) *ProfileRepo {
	return &ProfileRepo{d: d}
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*domain.CulturalProfile, error) {
	row := r.d.db.QueryRowContext(ctx, `
		SELECT user_id, background, native_language, fluency_level, preferred_language, directness,
			formal_address, honorifics, storytelling, religious_considerations, calendar_awareness,
			region, taboos, updated_at
		FROM cultural_profiles WHERE user_id = ?
	`, userID)

	var (
		p                                              domain.CulturalProfile
		background, native, fluency, preferred, direct sql.NullString
		region                                         sql.NullString
		formal, honorifics, story, religious, calendar sql.NullBool
		taboos                                         string
		updatedAt                                      int64
	)
	err := row.Scan(&p.UserID, &background, &native, &fluency, &preferred, &direct,
		&formal, &honorifics, &story, &religious, &calendar, &region, &taboos, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	p.Background = background.String
	p.NativeLanguage = native.String
	p.FluencyLevel = fluency.String
	p.PreferredLanguage = preferred.String
	p.Directness = direct.String
	p.Region = region.String
	p.FormalAddress = boolPtr(formal)
	p.Honorifics = boolPtr(honorifics)
	p.Storytelling = boolPtr(story)
	p.ReligiousConsiderations = boolPtr(religious)
	p.CalendarAwareness = boolPtr(calendar)
	p.UpdatedAt = fromMillis(updatedAt)
	if p.Taboos, err = decodeList(taboos); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepo) Upsert(ctx context.Context, p *domain.CulturalProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	_, err := r.d.db.ExecContext(ctx, `
		INSERT INTO cultural_profiles (user_id, background, native_language, fluency_level,
			preferred_language, directness, formal_address, honorifics, storytelling,
			religious_considerations, calendar_awareness, region, taboos, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			background               = excluded.background,
			native_language          = excluded.native_language,
			fluency_level            = excluded.fluency_level,
			preferred_language       = excluded.preferred_language,
			directness               = excluded.directness,
			formal_address           = excluded.formal_address,
			honorifics               = excluded.honorifics,
			storytelling             = excluded.storytelling,
			religious_considerations = excluded.religious_considerations,
			calendar_awareness       = excluded.calendar_awareness,
			region                   = excluded.region,
			taboos                   = excluded.taboos,
			updated_at               = excluded.updated_at
	`,
		p.UserID,
		nullString(p.Background),
		nullString(p.NativeLanguage),
		nullString(p.FluencyLevel),
		nullString(p.PreferredLanguage),
		nullString(p.Directness),
		nullBool(p.FormalAddress),
		nullBool(p.Honorifics),
		nullBool(p.Storytelling),
		nullBool(p.ReligiousConsiderations),
		nullBool(p.CalendarAwareness),
		nullString(p.Region),
		encodeList(p.Taboos),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func boolPtr(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	return domain.BoolPtr(b.Bool)
}
