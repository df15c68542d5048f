package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rooms-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// ListLimitCap bounds how many messages a single listing may return.
const ListLimitCap = 100

// DefaultListLimit is used when the caller does not supply a limit.
const DefaultListLimit = 50

// MessageRepository defines interactions for room messages.
type MessageRepository interface {
	Create(ctx context.Context, room, authorID, authorName, body string) (models.Message, error)
	ListByRoom(ctx context.Context, room string, limit int) ([]models.Message, error)
	Get(ctx context.Context, id string) (models.Message, error)
	UpdateBody(ctx context.Context, id, authorID, body string) error
	Delete(ctx context.Context, id, authorID string) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create stores a new message.
func (r *MessageRepo) Create(ctx context.Context, room, authorID, authorName, body string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (id, room, author_id, author_name, body) VALUES ($1, $2, $3, $4, $5) RETURNING id, room, author_id, author_name, body, created_at`,
		uuid.NewString(), room, authorID, authorName, body).
		Scan(&msg.ID, &msg.Room, &msg.AuthorID, &msg.AuthorName, &msg.Body, &msg.CreatedAt)
	return msg, err
}

// ListByRoom returns the most recent messages in a room, newest first.
// Callers needing chronological display reverse the slice themselves.
func (r *MessageRepo) ListByRoom(ctx context.Context, room string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > ListLimitCap {
		limit = ListLimitCap
	}
	query := `SELECT id, room, author_id, author_name, body, created_at
        FROM messages
        WHERE room=$1
        ORDER BY created_at DESC
        LIMIT $2`
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, query, room, limit)
	return msgs, err
}

// Get retrieves a single message.
func (r *MessageRepo) Get(ctx context.Context, id string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT id, room, author_id, author_name, body, created_at FROM messages WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// UpdateBody replaces the body of a message owned by authorID. The ownership
// check is part of the statement so it cannot race with the write; when no
// row matches it returns ErrMessageNotFound and the caller decides whether
// that means a missing message or a foreign one.
func (r *MessageRepo) UpdateBody(ctx context.Context, id, authorID, body string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET body=$1 WHERE id=$2 AND author_id=$3`, body, id, authorID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Delete removes a message owned by authorID, with the same atomic ownership
// guard as UpdateBody.
func (r *MessageRepo) Delete(ctx context.Context, id, authorID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1 AND author_id=$2`, id, authorID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
