package services

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/repositories"
	"github.com/wherebelong/belong/internal/shared"
)

// MessageService owns the shared message wall. Every posted message is
// broadcast to connected clients as a newMessage event.
type MessageService struct {
	messages    *repositories.MessageRepository
	broadcaster Broadcaster
	logger      *log.Logger
}

// NewMessageService creates a MessageService over the given repository.
// The broadcaster may be nil; posts then skip event emission.
func NewMessageService(messages *repositories.MessageRepository, broadcaster Broadcaster, logger *log.Logger) *MessageService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &MessageService{
		messages:    messages,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// List returns every message the identity sent or received, newest first.
func (s *MessageService) List(user models.Identity) ([]*models.Message, error) {
	if !user.Valid() {
		return nil, fmt.Errorf("%w: unknown identity %q", shared.ErrInvalidInput, user)
	}
	return s.messages.ForUser(user)
}

// Post stores a new message and pushes it to connected clients.
func (s *MessageService) Post(content string, sender, recipient models.Identity) (*models.Message, error) {
	message := models.NewMessage(content, sender, recipient)
	if err := message.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	if err := s.messages.Create(message); err != nil {
		return nil, err
	}

	s.logger.Info("message posted", "from", sender, "to", recipient)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastNewMessage(message)
	}

	return message, nil
}

// MarkRead flags a message as read and returns the updated record.
func (s *MessageService) MarkRead(messageID string) (*models.Message, error) {
	return s.messages.MarkRead(messageID)
}
