package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/messagely/apiserver/internal/services"
	"github.com/messagely/apiserver/internal/store"
	"github.com/messagely/apiserver/types"
)

const maxMessageBodyBytes = 16 << 10

// MessageHandler provides HTTP handlers for messages.
type MessageHandler struct {
	messages *services.MessageService
}

// NewMessageHandler constructs a handler with the provided service.
func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// MessageRouter registers message routes on the given router. All routes run
// behind the auth gate.
func MessageRouter(r chi.Router, messages *services.MessageService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewMessageHandler(messages)

	r.Use(authMiddleware)
	r.Post("/", handler.SendMessage)
	r.Route("/{messageID}", func(r chi.Router) {
		r.Get("/", handler.GetMessage)
		r.Post("/read", handler.MarkRead)
	})
}

type SendMessageRequest struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

type MessageResponse struct {
	Message types.Message `json:"message"`
}

type ReadReceiptResponse struct {
	Message types.ReadReceipt `json:"message"`
}

// SendMessage creates a message from the caller to the named recipient.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.ToUsername = strings.TrimSpace(req.ToUsername)
	if req.ToUsername == "" || strings.TrimSpace(req.Body) == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if len(req.Body) > maxMessageBodyBytes {
		writeError(w, http.StatusBadRequest, "message body too large")
		return
	}

	msg, err := h.messages.Send(r.Context(), caller, req.ToUsername, req.Body)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipient not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: msg})
}

// GetMessage returns message detail. Only the sender or the recipient may
// read it.
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseMessageID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.messages.Get(r.Context(), caller, id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "message not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "cannot read this message")
		default:
			writeError(w, http.StatusInternalServerError, "failed to fetch message")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// MarkRead marks a message as read. Only the recipient may.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseMessageID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := h.messages.MarkRead(r.Context(), caller, id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "message not found")
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, "cannot mark this message read")
		default:
			writeError(w, http.StatusInternalServerError, "failed to mark message read")
		}
		return
	}

	writeJSON(w, http.StatusOK, ReadReceiptResponse{Message: receipt})
}

func parseMessageID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "messageID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid message id")
	}
	return id, nil
}
