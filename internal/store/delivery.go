package store

import (
	"context"
	"database/sql"
	"time"
)

// Delivery records that a question reached the chat.
type Delivery struct {
	ID          int64
	QuestionID  string
	ChatID      int64
	MessageID   string
	DeliveredAt time.Time
}

// RecordDelivery marks questionID as delivered. A zero DeliveredAt is
// stamped with the store clock.
func (s *Store) RecordDelivery(ctx context.Context, d Delivery) (int64, error) {
	if d.DeliveredAt.IsZero() {
		d.DeliveredAt = s.timestamp()
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := questionExists(ctx, tx, d.QuestionID)
		if err != nil {
			return err
		}
		if !exists {
			return &QuestionNotFoundError{ID: d.QuestionID}
		}

		query, args := builder().Insert(deliveriesTableName).
			Columns("question_id", "chat_id", "message_id", "delivered_at").
			Values(d.QuestionID, d.ChatID, d.MessageID, d.DeliveredAt.UTC()).
			Query()
		r, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return storeErr("insert delivery", err)
		}
		id, err = r.LastInsertId()
		return storeErr("delivery id", err)
	})
	return id, err
}
