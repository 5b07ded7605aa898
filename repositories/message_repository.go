package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/afras1234/futsal-booking-system/models"
	"github.com/lib/pq"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListBetween(ctx context.Context, userA, userB int) ([]models.Message, error)
	MarkRead(ctx context.Context, ids []int) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, readerID, peerID int) ([]models.Message, error)
}

type postgresMessageRepository struct {
	db *sql.DB
}

func NewPostgresMessageRepository(db *sql.DB) MessageRepository {
	return &postgresMessageRepository{db: db}
}

func (r *postgresMessageRepository) Create(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (sender_id, receiver_id, text, is_read)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		m.SenderID,
		m.ReceiverID,
		m.Text,
		m.IsRead,
	).Scan(&m.ID, &m.CreatedAt)
}

// ListBetween возвращает переписку пары в порядке возрастания времени.
func (r *postgresMessageRepository) ListBetween(ctx context.Context, userA, userB int) ([]models.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, text, is_read, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userA, userB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if scanErr := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.IsRead, &m.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		messages = append(messages, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead помечает сообщения прочитанными и возвращает обновлённые строки,
// чтобы relay мог уведомить отправителей.
func (r *postgresMessageRepository) MarkRead(ctx context.Context, ids []int) ([]models.Message, error) {
	if len(ids) == 0 {
		return []models.Message{}, nil
	}

	query := `
		UPDATE messages
		SET is_read = TRUE
		WHERE id = ANY($1) AND is_read = FALSE
		RETURNING id, sender_id, receiver_id, text, is_read, created_at`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUpdatedMessages(rows)
}

// MarkConversationRead помечает прочитанными все входящие сообщения
// читателя от конкретного собеседника (открытие чата).
func (r *postgresMessageRepository) MarkConversationRead(ctx context.Context, readerID, peerID int) ([]models.Message, error) {
	query := `
		UPDATE messages
		SET is_read = TRUE
		WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE
		RETURNING id, sender_id, receiver_id, text, is_read, created_at`

	rows, err := r.db.QueryContext(ctx, query, readerID, peerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUpdatedMessages(rows)
}

func scanUpdatedMessages(rows *sql.Rows) ([]models.Message, error) {
	updated := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if scanErr := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.IsRead, &m.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		updated = append(updated, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return updated, nil
}
