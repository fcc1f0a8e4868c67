package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/repositories"
	"github.com/wherebelong/belong/internal/shared"
)

func setupMessageService(t *testing.T) (*MessageService, *recordingBroadcaster) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	broadcaster := &recordingBroadcaster{}
	service := NewMessageService(repositories.NewMessageRepository(db), broadcaster, nil)

	return service, broadcaster
}

func TestMessageServicePost(t *testing.T) {
	t.Run("Stores And Broadcasts", func(t *testing.T) {
		service, broadcaster := setupMessageService(t)

		message, err := service.Post("this one made me think of you", models.IdentityYours, models.IdentityCrush)
		if err != nil {
			t.Fatalf("failed to post message: %v", err)
		}

		if message.ID() == "" {
			t.Error("posted message should have an ID")
		}
		if message.Read {
			t.Error("new message should start unread")
		}

		if len(broadcaster.messages) != 1 {
			t.Fatalf("expected one newMessage event, got %d", len(broadcaster.messages))
		}
		if broadcaster.messages[0].Sender != models.IdentityYours {
			t.Errorf("expected sender yours, got %s", broadcaster.messages[0].Sender)
		}
	})

	t.Run("Rejects Invalid Input", func(t *testing.T) {
		service, broadcaster := setupMessageService(t)

		cases := []struct {
			name              string
			content           string
			sender, recipient models.Identity
		}{
			{"Empty Content", "", models.IdentityYours, models.IdentityCrush},
			{"Oversized Content", strings.Repeat("x", models.MaxMessageLength+1), models.IdentityYours, models.IdentityCrush},
			{"Unknown Sender", "hi", models.Identity("stranger"), models.IdentityCrush},
			{"Unknown Recipient", "hi", models.IdentityYours, models.Identity("stranger")},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := service.Post(tc.content, tc.sender, tc.recipient); !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			})
		}

		if len(broadcaster.messages) != 0 {
			t.Errorf("rejected posts should not broadcast, got %d events", len(broadcaster.messages))
		}
	})
}

func TestMessageServiceList(t *testing.T) {
	service, _ := setupMessageService(t)

	if _, err := service.Post("first", models.IdentityYours, models.IdentityCrush); err != nil {
		t.Fatalf("failed to post message: %v", err)
	}
	if _, err := service.Post("second", models.IdentityCrush, models.IdentityYours); err != nil {
		t.Fatalf("failed to post message: %v", err)
	}

	messages, err := service.List(models.IdentityYours)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}

	// Both directions show up on either side of the wall.
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}

	if _, err := service.List(models.Identity("stranger")); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown identity, got %v", err)
	}
}

func TestMessageServiceMarkRead(t *testing.T) {
	service, _ := setupMessageService(t)

	posted, err := service.Post("read me", models.IdentityYours, models.IdentityCrush)
	if err != nil {
		t.Fatalf("failed to post message: %v", err)
	}

	updated, err := service.MarkRead(posted.ID())
	if err != nil {
		t.Fatalf("failed to mark message read: %v", err)
	}
	if !updated.Read {
		t.Error("message should be flagged read")
	}

	if _, err := service.MarkRead("ghost"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown message, got %v", err)
	}
}
