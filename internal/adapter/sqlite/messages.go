package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/fabflow/internal/domain"
)

var _ domain.MessageStore = (*MessageStore)(nil)

// MessageStore keeps the per-order chat in the order_messages table.
type MessageStore struct {
	db *sql.DB
}

// NewMessageStore wraps db.
func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

// AppendMessage inserts msg. Re-appending a message with the same ID is a
// no-op, so a retried delivery posts once.
func (s *MessageStore) AppendMessage(ctx context.Context, msg domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO order_messages (id, order_id, profile_id, text, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		msg.ID, msg.OrderID, msg.ProfileID, msg.Text, msg.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("appending message to order %d: %w", msg.OrderID, err)
	}
	return nil
}

// ListMessages returns the order's chat, oldest first.
func (s *MessageStore) ListMessages(ctx context.Context, orderID int64) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, order_id, profile_id, text, created_at
		 FROM order_messages WHERE order_id = ?
		 ORDER BY created_at, rowid`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.OrderID, &m.ProfileID, &m.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
