package models

import (
	"fmt"
	"time"
)

// MaxMessageLength caps the content of a single wall message.
const MaxMessageLength = 1000

// Message is a short note one participant leaves for the other on the
// shared message wall.
type Message struct {
	MessageID string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Identity  `json:"sender"`
	Recipient Identity  `json:"recipient"`
	SentAt    time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// NewMessage creates an unread message stamped now.
func NewMessage(content string, sender, recipient Identity) *Message {
	return &Message{
		Content:   content,
		Sender:    sender,
		Recipient: recipient,
		SentAt:    time.Now().UTC(),
	}
}

func (m *Message) ID() string           { return m.MessageID }
func (m *Message) SetID(id string)      { m.MessageID = id }
func (m *Message) CreatedAt() time.Time { return m.SentAt }

// Validate checks message invariants before persistence.
func (m *Message) Validate() error {
	if m.Content == "" {
		return fmt.Errorf("content is required")
	}
	if len(m.Content) > MaxMessageLength {
		return fmt.Errorf("content must be at most %d characters", MaxMessageLength)
	}
	if !m.Sender.Valid() {
		return fmt.Errorf("sender must be a known identity, got %q", m.Sender)
	}
	if !m.Recipient.Valid() {
		return fmt.Errorf("recipient must be a known identity, got %q", m.Recipient)
	}
	return nil
}
