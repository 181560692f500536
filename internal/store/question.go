package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizstreak/internal/quiz"
)

var questionColumns = []string{
	"id", "created_at", "source_reference", "prompt", "question_text", "options", "explanation",
}

// CreateQuestion persists q. It fails with *DuplicateIDError when the id
// is already taken. A zero CreatedAt is stamped with the store clock.
func (s *Store) CreateQuestion(ctx context.Context, q *quiz.Question) error {
	if err := q.Validate(); err != nil {
		return fmt.Errorf("invalid question: %w", err)
	}
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.timestamp()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := questionExists(ctx, tx, q.ID)
		if err != nil {
			return err
		}
		if exists {
			return &DuplicateIDError{ID: q.ID}
		}

		query, args := builder().Insert(questionsTableName).
			Columns(questionColumns...).
			Values(q.ID, q.CreatedAt.UTC(), q.SourceReference, q.Prompt, q.QuestionText, string(opts), q.Explanation).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return storeErr("insert question", err)
		}
		return nil
	})
}

// GetQuestion returns the question with the given id or a
// *QuestionNotFoundError.
func (s *Store) GetQuestion(ctx context.Context, id string) (*quiz.Question, error) {
	return getQuestion(ctx, s.db, id)
}

// ListPending returns questions without any attempt, oldest first.
// limit <= 0 means no limit.
func (s *Store) ListPending(ctx context.Context, limit int) ([]*quiz.Question, error) {
	b := builder()
	sel := b.Select(questionColumns...).
		From(b.Table(questionsTableName)).
		Where(entsql.NotIn("id", b.Select("question_id").From(b.Table(attemptsTableName)))).
		OrderBy("created_at", "id")
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list pending", err)
	}
	defer rows.Close()

	var out []*quiz.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list pending", err)
	}
	return out, nil
}

// QuestionStatus derives the lifecycle state of a question from its
// deliveries and attempts.
func (s *Store) QuestionStatus(ctx context.Context, id string) (quiz.Status, error) {
	exists, err := questionExists(ctx, s.db, id)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", &QuestionNotFoundError{ID: id}
	}
	deliveries, err := countWhere(ctx, s.db, deliveriesTableName, entsql.EQ("question_id", id))
	if err != nil {
		return "", err
	}
	attempts, err := countWhere(ctx, s.db, attemptsTableName, entsql.EQ("question_id", id))
	if err != nil {
		return "", err
	}
	return quiz.DeriveStatus(deliveries > 0, attempts), nil
}

func getQuestion(ctx context.Context, q querier, id string) (*quiz.Question, error) {
	b := builder()
	query, args := b.Select(questionColumns...).
		From(b.Table(questionsTableName)).
		Where(entsql.EQ("id", id)).
		Query()

	question, err := scanQuestion(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &QuestionNotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}
	return question, nil
}

func questionExists(ctx context.Context, q querier, id string) (bool, error) {
	n, err := countWhere(ctx, q, questionsTableName, entsql.EQ("id", id))
	return n > 0, err
}

func countWhere(ctx context.Context, q querier, table string, p *entsql.Predicate) (int, error) {
	b := builder()
	query, args := b.Select(entsql.Count("*")).
		From(b.Table(table)).
		Where(p).
		Query()
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, storeErr("count "+table, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*quiz.Question, error) {
	var (
		q         quiz.Question
		createdAt time.Time
		opts      string
	)
	err := row.Scan(&q.ID, &createdAt, &q.SourceReference, &q.Prompt, &q.QuestionText, &opts, &q.Explanation)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, storeErr("scan question", err)
	}
	if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
		return nil, storeErr("decode options", err)
	}
	q.CreatedAt = createdAt.UTC()
	return &q, nil
}
