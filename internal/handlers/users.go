package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/messagely/apiserver/internal/services"
	"github.com/messagely/apiserver/internal/store"
	"github.com/messagely/apiserver/types"
)

const maxAvatarBytes = 4 << 20

// UserHandler provides HTTP handlers for user profiles and per-user message
// listings.
type UserHandler struct {
	users    *services.UserService
	messages *services.MessageService
}

// NewUserHandler constructs a handler with the provided services.
func NewUserHandler(users *services.UserService, messages *services.MessageService) *UserHandler {
	return &UserHandler{users: users, messages: messages}
}

// UserRouter registers user routes on the given router. All routes run behind
// the auth gate; message listings and avatar upload additionally require the
// caller to be the named user.
func UserRouter(r chi.Router, users *services.UserService, messages *services.MessageService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUserHandler(users, messages)

	r.Use(authMiddleware)
	r.Get("/", handler.ListUsers)
	r.Route("/{username}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.With(handler.requireSameUser).Get("/to", handler.MessagesTo)
		r.With(handler.requireSameUser).Get("/from", handler.MessagesFrom)
		r.Get("/avatar", handler.GetAvatar)
		r.With(handler.requireSameUser).Put("/avatar", handler.PutAvatar)
	})
}

// requireSameUser rejects callers whose identity does not match the username
// path parameter.
func (h *UserHandler) requireSameUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if caller != chi.URLParam(r, "username") {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type UserListResponse struct {
	Users []types.UserSummary `json:"users"`
}

type UserResponse struct {
	User types.User `json:"user"`
}

type MessageListResponse struct {
	Messages []types.Message `json:"messages"`
}

// ListUsers returns profile summaries for all users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, UserListResponse{Users: users})
}

// GetUser returns a user's profile detail.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.users.Get(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

// MessagesTo returns all messages sent to the user.
func (h *UserHandler) MessagesTo(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.MessagesTo(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, MessageListResponse{Messages: messages})
}

// MessagesFrom returns all messages sent by the user.
func (h *UserHandler) MessagesFrom(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.MessagesFrom(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, MessageListResponse{Messages: messages})
}

// PutAvatar stores the caller's profile picture.
func (h *UserHandler) PutAvatar(w http.ResponseWriter, r *http.Request) {
	if !h.users.AvatarsEnabled() {
		writeError(w, http.StatusNotFound, "avatars are not enabled")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "avatar must be an image")
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "avatar too large")
		return
	}

	username := chi.URLParam(r, "username")
	err = h.users.UploadAvatar(r.Context(), username, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetAvatar streams the user's profile picture.
func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	if !h.users.AvatarsEnabled() {
		writeError(w, http.StatusNotFound, "avatars are not enabled")
		return
	}

	reader, err := h.users.DownloadAvatar(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch avatar")
		return
	}
	defer reader.Close()

	if _, err := io.Copy(w, reader); err != nil {
		return
	}
}
