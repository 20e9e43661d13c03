package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kitbuilder587/morvo/internal/domain"
)

const sessionColumns = `id, user_id, stage, is_active, specialists, total_turns, user_messages,
	agent_messages, key_outcomes, completion_reason, created_at, last_activity_at, completed_at`

// queryer - общий кусок *sql.DB и *sql.Tx.
// Внутри транзакции ходим только через tx: соединение одно.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type ConversationRepo struct {
	d *DB
}

func NewConversationRepo(d *DB) *ConversationRepo {
	return &ConversationRepo{d: d}
}

func (r *ConversationRepo) GetOrCreateActive(ctx context.Context, candidate *domain.ConversationSession) (*domain.ConversationSession, bool, error) {
	stage := candidate.Stage
	if stage == "" {
		stage = domain.StageDiscovery
	}

	tx, err := r.d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, stage, is_active, created_at, last_activity_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT DO NOTHING
	`, candidate.ID, candidate.UserID, string(stage), toMillis(candidate.CreatedAt), toMillis(candidate.LastActivityAt))
	if err != nil {
		return nil, false, fmt.Errorf("insert conversation: %w", err)
	}
	n, _ := res.RowsAffected()

	s, err := getActive(ctx, tx, candidate.UserID)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit transaction: %w", err)
	}
	return s, n == 1 && s.ID == candidate.ID, nil
}

func (r *ConversationRepo) GetActive(ctx context.Context, userID string) (*domain.ConversationSession, error) {
	return getActive(ctx, r.d.db, userID)
}

func (r *ConversationRepo) GetByID(ctx context.Context, id string) (*domain.ConversationSession, error) {
	return getByID(ctx, r.d.db, id)
}

func (r *ConversationRepo) AppendTurn(ctx context.Context, turn *domain.Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	tx, err := r.d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var number int
	err = tx.QueryRowContext(ctx, `
		UPDATE conversations SET
			total_turns      = total_turns + 1,
			user_messages    = user_messages + (CASE WHEN ?2 = 'user' THEN 1 ELSE 0 END),
			agent_messages   = agent_messages + (CASE WHEN ?2 = 'agent' THEN 1 ELSE 0 END),
			last_activity_at = MAX(last_activity_at, ?3)
		WHERE id = ?1 AND is_active = 1
		RETURNING total_turns
	`, turn.ConversationID, string(turn.Role), toMillis(turn.CreatedAt)).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, err := getByID(ctx, tx, turn.ConversationID); err != nil {
				return err
			}
			return domain.ErrSessionInactive
		}
		return fmt.Errorf("bump turn counter: %w", err)
	}

	var ms sql.NullInt64
	if turn.ProcessingTimeMs != nil {
		ms = sql.NullInt64{Int64: *turn.ProcessingTimeMs, Valid: true}
	}
	var cost sql.NullFloat64
	if turn.CostUSD != nil {
		cost = sql.NullFloat64{Float64: *turn.CostUSD, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversation_turns (id, conversation_id, turn_number, role, content, specialist,
			language, processing_time_ms, cost_usd, cultural_adaptation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		turn.ID,
		turn.ConversationID,
		number,
		string(turn.Role),
		turn.Content,
		nullString(turn.Specialist),
		nullString(turn.Language),
		ms,
		cost,
		boolToInt(turn.CulturalAdaptationApplied),
		toMillis(turn.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	turn.Number = number
	return nil
}

func (r *ConversationRepo) ListTurns(ctx context.Context, conversationID string) ([]domain.Turn, error) {
	if _, err := r.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}

	rows, err := r.d.db.QueryContext(ctx, `
		SELECT id, conversation_id, turn_number, role, content, specialist, language,
			processing_time_ms, cost_usd, cultural_adaptation, created_at
		FROM conversation_turns
		WHERE conversation_id = ?
		ORDER BY turn_number
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var (
			t                    domain.Turn
			role                 string
			specialist, language sql.NullString
			ms                   sql.NullInt64
			cost                 sql.NullFloat64
			adapted              int
			createdAt            int64
		)
		err := rows.Scan(&t.ID, &t.ConversationID, &t.Number, &role, &t.Content,
			&specialist, &language, &ms, &cost, &adapted, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Role = domain.Role(role)
		t.Specialist = specialist.String
		t.Language = language.String
		if ms.Valid {
			t.ProcessingTimeMs = &ms.Int64
		}
		if cost.Valid {
			t.CostUSD = &cost.Float64
		}
		t.CulturalAdaptationApplied = adapted == 1
		t.CreatedAt = fromMillis(createdAt)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (r *ConversationRepo) UpdateProgress(ctx context.Context, conversationID string, specialists, outcomes []string, at time.Time) (*domain.ConversationSession, error) {
	tx, err := r.d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	s, err := getByID(ctx, tx, conversationID)
	if err != nil {
		return nil, err
	}
	s.MergeSpecialists(specialists)
	s.MergeOutcomes(outcomes)
	if at.After(s.LastActivityAt) {
		s.LastActivityAt = at
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE conversations SET specialists = ?, key_outcomes = ?, last_activity_at = ?
		WHERE id = ?
	`, encodeList(s.Specialists), encodeList(s.KeyOutcomes), toMillis(s.LastActivityAt), s.ID)
	if err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return s, nil
}

func (r *ConversationRepo) AdvanceStage(ctx context.Context, conversationID string, stage domain.Stage) error {
	if !stage.IsValid() {
		return domain.ErrInvalidStage
	}

	tx, err := r.d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	s, err := getByID(ctx, tx, conversationID)
	if err != nil {
		return err
	}
	if !s.Active {
		return domain.ErrSessionInactive
	}
	if stage.Rank() <= s.Stage.Rank() {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE conversations SET stage = ? WHERE id = ?`, string(stage), s.ID); err != nil {
		return fmt.Errorf("advance stage: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *ConversationRepo) Complete(ctx context.Context, conversationID, reason string, at time.Time) error {
	tx, err := r.d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE conversations
		SET is_active = 0, stage = 'complete', completion_reason = ?, completed_at = ?
		WHERE id = ? AND is_active = 1
	`, nullString(reason), toMillis(at), conversationID)
	if err != nil {
		return fmt.Errorf("complete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := getByID(ctx, tx, conversationID); err != nil {
			return err
		}
		return domain.ErrSessionInactive
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func getActive(ctx context.Context, q queryer, userID string) (*domain.ConversationSession, error) {
	row := q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM conversations WHERE user_id = ? AND is_active = 1`, userID)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get active conversation: %w", err)
	}
	return s, nil
}

func getByID(ctx context.Context, q queryer, id string) (*domain.ConversationSession, error) {
	row := q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM conversations WHERE id = ?`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get conversation by id: %w", err)
	}
	return s, nil
}

func scanSession(row *sql.Row) (*domain.ConversationSession, error) {
	var (
		s                         domain.ConversationSession
		stage, specialists, outs  string
		active                    int
		reason                    sql.NullString
		createdAt, lastActivityAt int64
		completedAt               sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.UserID, &stage, &active, &specialists, &s.TotalTurns,
		&s.UserMessages, &s.AgentMessages, &outs, &reason, &createdAt, &lastActivityAt, &completedAt)
	if err != nil {
		return nil, err
	}

	s.Stage = domain.Stage(stage)
	s.Active = active == 1
	s.CompletionReason = reason.String
	s.CreatedAt = fromMillis(createdAt)
	s.LastActivityAt = fromMillis(lastActivityAt)
	if completedAt.Valid {
		t := fromMillis(completedAt.Int64)
		s.CompletedAt = &t
	}
	if s.Specialists, err = decodeList(specialists); err != nil {
		return nil, err
	}
	if s.KeyOutcomes, err = decodeList(outs); err != nil {
		return nil, err
	}
	return &s, nil
}
