package http

import (
	"context"
	"net/http"

	"github.com/campuskart/campuskart/internal/auth"
	"github.com/campuskart/campuskart/internal/chat"
	"github.com/campuskart/campuskart/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ChatService interface {
	StartConversation(ctx context.Context, callerID string, in chat.StartInput) (*domain.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*chat.ConversationView, error)
	GetMessages(ctx context.Context, conversationID, userID string) ([]*domain.MessageView, error)
	SendMessage(ctx context.Context, in chat.SendInput) (*domain.MessageView, error)
}

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// POST /api/chat/conversation
func (h *ChatHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	var req chat.StartInput
	if !decodeJSON(w, r, &req) {
		return
	}
	conv, err := h.chat.StartConversation(r.Context(), auth.UserFrom(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, conv)
}

// GET /api/chat/conversations
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.chat.ListConversations(r.Context(), auth.UserFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, convs)
}

// GET /api/chat/messages/{id}
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chat.GetMessages(r.Context(), chi.URLParam(r, "id"), auth.UserFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, msgs)
}

// POST /api/chat/message. The sender is always the caller.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req chat.SendInput
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SenderID = auth.UserFrom(r.Context())
	msg, err := h.chat.SendMessage(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}
