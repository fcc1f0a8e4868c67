package repositories

import (
	"database/sql"
	"fmt"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/shared"
)

// MessageRepository persists the shared message wall.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new MessageRepository with the given database connection
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, content, sender, recipient, sent_at, is_read`

// Create inserts a new [models.Message] with a generated ID.
func (r *MessageRepository) Create(message *models.Message) error {
	id := shared.GenerateID()
	message.SetID(id)

	if err := message.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO messages (` + messageColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		id,
		message.Content,
		message.Sender,
		message.Recipient,
		message.SentAt,
		message.Read,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

// Get retrieves a message by ID.
func (r *MessageRepository) Get(id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`

	message, err := r.scan(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	return message, nil
}

// ForUser retrieves every message the identity sent or received, newest first.
func (r *MessageRepository) ForUser(user models.Identity) ([]*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE sender = ? OR recipient = ? ORDER BY sent_at DESC, id`

	rows, err := r.db.Query(query, user, user)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		message, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return messages, nil
}

// MarkRead flags a message as read and returns the updated record.
// Returns [shared.ErrNotFound] when no message has the given ID.
func (r *MessageRepository) MarkRead(id string) (*models.Message, error) {
	result, err := r.db.Exec(`UPDATE messages SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to mark message read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return nil, shared.ErrNotFound
	}

	return r.Get(id)
}

func (r *MessageRepository) scan(s queueScanner) (*models.Message, error) {
	var message models.Message

	err := s.Scan(
		&message.MessageID,
		&message.Content,
		&message.Sender,
		&message.Recipient,
		&message.SentAt,
		&message.Read,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}
