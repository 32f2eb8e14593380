package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fangji-app/fangji/internal/domain"
)

type ChatStore struct {
	db *sql.DB
}

func NewChatStore(db *sql.DB) *ChatStore {
	return &ChatStore{db: db}
}

// Insert appends one conversation turn. prescriptionID may be nil; when set
// it is a weak reference that outlives the prescription (nulled on delete).
func (s *ChatStore) Insert(ctx context.Context, role, content string, prescriptionID *int64) (*domain.ChatMessage, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_history (role, content, prescription_id, created_at) VALUES (?, ?, ?, ?)
	`, role, content, prescriptionID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to insert chat message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return s.getByID(ctx, id)
}

func (s *ChatStore) getByID(ctx context.Context, id int64) (*domain.ChatMessage, error) {
	m := &domain.ChatMessage{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, role, content, prescription_id, created_at FROM chat_history WHERE id = ?
	`, id).Scan(&m.ID, &m.Role, &m.Content, &m.PrescriptionID, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat message: %w", err)
	}
	return m, nil
}

// List returns the full conversation, oldest first.
func (s *ChatStore) List(ctx context.Context) ([]*domain.ChatMessage, error) {
	return s.query(ctx, `
		SELECT id, role, content, prescription_id, created_at
		FROM chat_history ORDER BY created_at ASC, id ASC
	`)
}

// Recent returns the last n messages in conversation order.
func (s *ChatStore) Recent(ctx context.Context, n int) ([]*domain.ChatMessage, error) {
	msgs, err := s.query(ctx, `
		SELECT id, role, content, prescription_id, created_at
		FROM chat_history ORDER BY created_at DESC, id DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *ChatStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chat_history"); err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}

// PurgeOlderThan removes messages created more than the given number of days
// ago.
func (s *ChatStore) PurgeOlderThan(ctx context.Context, days int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chat_history WHERE created_at < ?", cutoff); err != nil {
		return fmt.Errorf("failed to purge chat history: %w", err)
	}
	return nil
}

func (s *ChatStore) query(ctx context.Context, query string, args ...any) ([]*domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat history: %w", err)
	}
	defer closeRows(rows)

	var msgs []*domain.ChatMessage
	for rows.Next() {
		m := &domain.ChatMessage{}
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.PrescriptionID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat history: %w", err)
	}
	return msgs, nil
}
