package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kitbuilder587/morvo/internal/domain"
)

const sessionColumns = `id, user_id, stage, is_active, specialists, total_turns, user_messages,
	agent_messages, key_outcomes, completion_reason, created_at, last_activity_at, completed_at`

// сколько раз переигрываем гонку "вставка проиграла, а активный уже закрыт"
const getOrCreateAttempts = 3

type ConversationRepo struct {
	db *DB
}

func NewConversationRepo(db *DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) GetOrCreateActive(ctx context.Context, candidate *domain.ConversationSession) (*domain.ConversationSession, bool, error) {
	insert := `
		INSERT INTO conversations (id, user_id, stage, is_active, created_at, last_activity_at)
		VALUES ($1, $2, $3, true, $4, $5)
		ON CONFLICT (user_id) WHERE is_active DO NOTHING
		RETURNING ` + sessionColumns

	stage := candidate.Stage
	if stage == "" {
		stage = domain.StageDiscovery
	}

	for attempt := 0; attempt < getOrCreateAttempts; attempt++ {
		row := r.db.Pool.QueryRow(ctx, insert,
			candidate.ID,
			candidate.UserID,
			string(stage),
			candidate.CreatedAt,
			candidate.LastActivityAt,
		)
		s, err := scanSession(row)
		if err == nil {
			return s, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("insert conversation: %w", err)
		}

		// уникальный индекс сработал: активный разговор уже есть
		s, err = r.GetActive(ctx, candidate.UserID)
		if err == nil {
			return s, false, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, false, err
		}
	}

	return nil, false, fmt.Errorf("get or create conversation: too much contention for user %s", candidate.UserID)
}

func (r *ConversationRepo) GetActive(ctx context.Context, userID string) (*domain.ConversationSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM conversations WHERE user_id = $1 AND is_active`

	s, err := scanSession(r.db.Pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get active conversation: %w", err)
	}
	return s, nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, id string) (*domain.ConversationSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM conversations WHERE id = $1`

	s, err := scanSession(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get conversation by id: %w", err)
	}
	return s, nil
}

// AppendTurn берет номер через UPDATE ... RETURNING: блокировка строки разговора
// сериализует параллельные записи, UNIQUE(conversation_id, turn_number) страхует.
func (r *ConversationRepo) AppendTurn(ctx context.Context, turn *domain.Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var number int
	err = tx.QueryRow(ctx, `
		UPDATE conversations SET
			total_turns      = total_turns + 1,
			user_messages    = user_messages + CASE WHEN $2 = 'user' THEN 1 ELSE 0 END,
			agent_messages   = agent_messages + CASE WHEN $2 = 'agent' THEN 1 ELSE 0 END,
			last_activity_at = GREATEST(last_activity_at, $3)
		WHERE id = $1 AND is_active
		RETURNING total_turns
	`, turn.ConversationID, string(turn.Role), turn.CreatedAt).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.inactiveOrMissing(ctx, turn.ConversationID)
		}
		return fmt.Errorf("bump turn counter: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO conversation_turns (id, conversation_id, turn_number, role, content, specialist,
			language, processing_time_ms, cost_usd, cultural_adaptation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		turn.ID,
		turn.ConversationID,
		number,
		string(turn.Role),
		turn.Content,
		nullString(turn.Specialist),
		nullString(turn.Language),
		turn.ProcessingTimeMs,
		turn.CostUSD,
		turn.CulturalAdaptationApplied,
		turn.CreatedAt,
	)
	if err != nil {
		if isDuplicateError(err) {
			return domain.ErrDuplicateTurn
		}
		return fmt.Errorf("insert turn: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	turn.Number = number
	return nil
}

func (r *ConversationRepo) ListTurns(ctx context.Context, conversationID string) ([]domain.Turn, error) {
	if _, err := r.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, conversation_id, turn_number, role, content, specialist, language,
			processing_time_ms, cost_usd, cultural_adaptation, created_at
		FROM conversation_turns
		WHERE conversation_id = $1
		ORDER BY turn_number
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var (
			t          domain.Turn
			role       string
			specialist *string
			language   *string
		)
		err := rows.Scan(
			&t.ID,
			&t.ConversationID,
			&t.Number,
			&role,
			&t.Content,
			&specialist,
			&language,
			&t.ProcessingTimeMs,
			&t.CostUSD,
			&t.CulturalAdaptationApplied,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Role = domain.Role(role)
		t.Specialist = derefString(specialist)
		t.Language = derefString(language)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	return turns, nil
}

func (r *ConversationRepo) UpdateProgress(ctx context.Context, conversationID string, specialists, outcomes []string, at time.Time) (*domain.ConversationSession, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + sessionColumns + ` FROM conversations WHERE id = $1 FOR UPDATE`
	s, err := scanSession(tx.QueryRow(ctx, query, conversationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("lock conversation: %w", err)
	}

	s.MergeSpecialists(specialists)
	s.MergeOutcomes(outcomes)
	if at.After(s.LastActivityAt) {
		s.LastActivityAt = at
	}

	_, err = tx.Exec(ctx, `
		UPDATE conversations
		SET specialists = $2, key_outcomes = $3, last_activity_at = $4
		WHERE id = $1
	`, s.ID, nonNil(s.Specialists), nonNil(s.KeyOutcomes), s.LastActivityAt)
	if err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return s, nil
}

func (r *ConversationRepo) AdvanceStage(ctx context.Context, conversationID string, stage domain.Stage) error {
	if !stage.IsValid() {
		return domain.ErrInvalidStage
	}

	before := stage.Before()
	earlier := make([]string, len(before))
	for i, st := range before {
		earlier[i] = string(st)
	}

	// условие на текущий этап в WHERE: откат назад невозможен даже при гонке
	result, err := r.db.Pool.Exec(ctx, `
		UPDATE conversations SET stage = $2
		WHERE id = $1 AND is_active AND stage = ANY($3)
	`, conversationID, string(stage), earlier)
	if err != nil {
		return fmt.Errorf("advance stage: %w", err)
	}

	if result.RowsAffected() == 0 {
		s, err := r.GetByID(ctx, conversationID)
		if err != nil {
			return err
		}
		if !s.Active {
			return domain.ErrSessionInactive
		}
	}
	return nil
}

func (r *ConversationRepo) Complete(ctx context.Context, conversationID, reason string, at time.Time) error {
	result, err := r.db.Pool.Exec(ctx, `
		UPDATE conversations
		SET is_active = false, stage = 'complete', completion_reason = $2, completed_at = $3
		WHERE id = $1 AND is_active
	`, conversationID, nullString(reason), at)
	if err != nil {
		return fmt.Errorf("complete conversation: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.inactiveOrMissing(ctx, conversationID)
	}
	return nil
}

func (r *ConversationRepo) inactiveOrMissing(ctx context.Context, conversationID string) error {
	if _, err := r.GetByID(ctx, conversationID); err != nil {
		return err
	}
	return domain.ErrSessionInactive
}

func scanSession(row pgx.Row) (*domain.ConversationSession, error) {
	var (
		s      domain.ConversationSession
		stage  string
		reason *string
	)
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&stage,
		&s.Active,
		&s.Specialists,
		&s.TotalTurns,
		&s.UserMessages,
		&s.AgentMessages,
		&s.KeyOutcomes,
		&reason,
		&s.CreatedAt,
		&s.LastActivityAt,
		&s.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Stage = domain.Stage(stage)
	s.CompletionReason = derefString(reason)
	return &s, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
