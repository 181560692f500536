package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizstreak/internal/quiz"
)

// AttemptResult is the outcome of RecordAttempt.
type AttemptResult struct {
	Question *quiz.Question
	Attempt  quiz.Attempt

	// FirstAttempt reports whether this is the question's first attempt.
	// Only first attempts count toward the streak.
	FirstAttempt bool
}

// AttemptRecord is an attempt joined with its question for history views.
type AttemptRecord struct {
	quiz.Attempt
	SourceReference string
	QuestionText    string
	FirstAttempt    bool
}

var attemptColumns = []string{"id", "question_id", "selected_label", "is_correct", "answered_at"}

// RecordAttempt appends an attempt for questionID. The existence check, the
// correctness computation and the insert happen in one transaction, so
// concurrent answers to the same question are serialized and exactly one
// of them is first.
func (s *Store) RecordAttempt(ctx context.Context, questionID, selectedLabel string) (*AttemptResult, error) {
	label := strings.ToUpper(strings.TrimSpace(selectedLabel))

	var res *AttemptResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		q, err := getQuestion(ctx, tx, questionID)
		if err != nil {
			return err
		}

		prior, err := countWhere(ctx, tx, attemptsTableName, entsql.EQ("question_id", questionID))
		if err != nil {
			return err
		}

		a := quiz.Attempt{
			QuestionID:    questionID,
			SelectedLabel: label,
			IsCorrect:     q.IsCorrectLabel(label),
			AnsweredAt:    s.timestamp(),
		}
		query, args := builder().Insert(attemptsTableName).
			Columns("question_id", "selected_label", "is_correct", "answered_at").
			Values(a.QuestionID, a.SelectedLabel, a.IsCorrect, a.AnsweredAt).
			Query()
		r, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return storeErr("insert attempt", err)
		}
		if a.ID, err = r.LastInsertId(); err != nil {
			return storeErr("attempt id", err)
		}

		res = &AttemptResult{Question: q, Attempt: a, FirstAttempt: prior == 0}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListAttempts returns every attempt for questionID in the order recorded.
func (s *Store) ListAttempts(ctx context.Context, questionID string) ([]quiz.Attempt, error) {
	b := builder()
	query, args := b.Select(attemptColumns...).
		From(b.Table(attemptsTableName)).
		Where(entsql.EQ("question_id", questionID)).
		OrderBy("id").
		Query()
	return s.queryAttempts(ctx, query, args)
}

// CountedCorrectAttempts returns the first attempt of every question when
// that attempt was correct, newest first. These are the attempts the
// streak is computed from. limit <= 0 means no limit.
func (s *Store) CountedCorrectAttempts(ctx context.Context, limit int) ([]quiz.Attempt, error) {
	b := builder()
	first := b.Select(entsql.Min("id")).
		From(b.Table(attemptsTableName)).
		GroupBy("question_id")
	sel := b.Select(attemptColumns...).
		From(b.Table(attemptsTableName)).
		Where(entsql.And(
			entsql.In("id", first),
			entsql.EQ("is_correct", true),
		)).
		OrderBy(entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()
	return s.queryAttempts(ctx, query, args)
}

// RecentAttempts returns the latest attempts joined with their questions,
// newest first. limit <= 0 means no limit.
func (s *Store) RecentAttempts(ctx context.Context, limit int) ([]AttemptRecord, error) {
	b := builder()
	a := b.Table(attemptsTableName).As("a")
	q := b.Table(questionsTableName).As("q")
	sel := b.Select(
		a.C("id"), a.C("question_id"), a.C("selected_label"), a.C("is_correct"), a.C("answered_at"),
		q.C("source_reference"), q.C("question_text"),
	).
		From(a).
		Join(q).On(a.C("question_id"), q.C("id")).
		OrderBy(entsql.Desc(a.C("id")))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("recent attempts", err)
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		var (
			r          AttemptRecord
			answeredAt time.Time
		)
		if err := rows.Scan(&r.ID, &r.QuestionID, &r.SelectedLabel, &r.IsCorrect, &answeredAt,
			&r.SourceReference, &r.QuestionText); err != nil {
			return nil, storeErr("scan attempt", err)
		}
		r.AnsweredAt = answeredAt.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("recent attempts", err)
	}
	rows.Close()

	firsts, err := s.firstAttemptIDs(ctx, out)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].FirstAttempt = firsts[out[i].QuestionID] == out[i].ID
	}
	return out, nil
}

func (s *Store) firstAttemptIDs(ctx context.Context, recs []AttemptRecord) (map[string]int64, error) {
	ids := make(map[string]int64)
	if len(recs) == 0 {
		return ids, nil
	}
	qids := make([]any, 0, len(recs))
	seen := make(map[string]bool)
	for _, r := range recs {
		if !seen[r.QuestionID] {
			seen[r.QuestionID] = true
			qids = append(qids, r.QuestionID)
		}
	}

	b := builder()
	query, args := b.Select("question_id", entsql.Min("id")).
		From(b.Table(attemptsTableName)).
		Where(entsql.In("question_id", qids...)).
		GroupBy("question_id").
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("first attempts", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			qid string
			id  int64
		)
		if err := rows.Scan(&qid, &id); err != nil {
			return nil, storeErr("scan first attempt", err)
		}
		ids[qid] = id
	}
	return ids, storeErr("first attempts", rows.Err())
}

func (s *Store) queryAttempts(ctx context.Context, query string, args []any) ([]quiz.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query attempts", err)
	}
	defer rows.Close()

	var out []quiz.Attempt
	for rows.Next() {
		var (
			a          quiz.Attempt
			answeredAt time.Time
		)
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.SelectedLabel, &a.IsCorrect, &answeredAt); err != nil {
			return nil, storeErr("scan attempt", err)
		}
		a.AnsweredAt = answeredAt.UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("query attempts", err)
	}
	return out, nil
}
