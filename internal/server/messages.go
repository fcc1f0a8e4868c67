package server

import (
	"net/http"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/services"
)

// MessageHandler serves the shared message wall.
type MessageHandler struct {
	service *services.MessageService
}

// NewMessageHandler creates a MessageHandler over the given service.
func NewMessageHandler(service *services.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// Routes returns the HTTP routes this handler serves.
func (h *MessageHandler) Routes() []string {
	return []string{
		"GET /api/messages/{userId}",
		"POST /api/messages",
		"PATCH /api/messages/{messageId}/read",
	}
}

func (h *MessageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.PathValue("userId") != "":
		h.list(w, r.PathValue("userId"))
	case r.Method == http.MethodPost:
		h.post(w, r)
	case r.Method == http.MethodPatch && r.PathValue("messageId") != "":
		h.markRead(w, r.PathValue("messageId"))
	default:
		http.NotFound(w, r)
	}
}

func (h *MessageHandler) list(w http.ResponseWriter, rawUser string) {
	user, err := models.ParseIdentity(rawUser)
	if err != nil {
		writeError(w, err)
		return
	}

	messages, err := h.service.List(user)
	if err != nil {
		writeError(w, err)
		return
	}

	if messages == nil {
		messages = []*models.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

type postMessageRequest struct {
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

func (h *MessageHandler) post(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sender, err := models.ParseIdentity(req.Sender)
	if err != nil {
		writeError(w, err)
		return
	}
	recipient, err := models.ParseIdentity(req.Recipient)
	if err != nil {
		writeError(w, err)
		return
	}

	message, err := h.service.Post(req.Content, sender, recipient)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

func (h *MessageHandler) markRead(w http.ResponseWriter, messageID string) {
	message, err := h.service.MarkRead(messageID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, message)
}
