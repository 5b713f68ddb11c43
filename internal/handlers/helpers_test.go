package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/messagely/apiserver/internal/services"
	"github.com/messagely/apiserver/internal/store"
	"github.com/messagely/apiserver/internal/token"
	"github.com/messagely/apiserver/types"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory backing store satisfying both the user and the
// message repository interfaces consumed by the services.
type memStore struct {
	users    map[string]types.User
	messages map[int64]types.Message
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]types.User),
		messages: make(map[int64]types.Message),
		nextID:   1,
	}
}

func (m *memStore) Create(_ context.Context, user types.User) (types.User, error) {
	if _, exists := m.users[user.Username]; exists {
		return types.User{}, store.ErrDuplicate
	}
	now := time.Now()
	user.JoinAt = now
	user.LastLoginAt = now
	m.users[user.Username] = user
	return user, nil
}

func (m *memStore) GetByUsername(_ context.Context, username string) (types.User, error) {
	user, ok := m.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memStore) All(_ context.Context) ([]types.UserSummary, error) {
	summaries := make([]types.UserSummary, 0, len(m.users))
	for _, user := range m.users {
		summaries = append(summaries, user.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Username < summaries[j].Username })
	return summaries, nil
}

func (m *memStore) UpdateLoginTimestamp(_ context.Context, username string) (types.User, error) {
	user, ok := m.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	user.LastLoginAt = time.Now()
	m.users[username] = user
	return user, nil
}

func (m *memStore) CreateMessage(_ context.Context, from, to, body string) (types.Message, error) {
	if _, ok := m.users[to]; !ok {
		return types.Message{}, store.ErrNotFound
	}
	msg := types.Message{
		ID:       m.nextID,
		FromUser: m.users[from].Summary(),
		ToUser:   m.users[to].Summary(),
		Body:     body,
		SentAt:   time.Now(),
	}
	m.messages[msg.ID] = msg
	m.nextID++
	return msg, nil
}

func (m *memStore) Get(_ context.Context, id int64) (types.Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return types.Message{}, store.ErrNotFound
	}
	return msg, nil
}

func (m *memStore) MarkRead(_ context.Context, id int64) (types.ReadReceipt, error) {
	msg, ok := m.messages[id]
	if !ok {
		return types.ReadReceipt{}, store.ErrNotFound
	}
	if msg.ReadAt == nil {
		now := time.Now()
		msg.ReadAt = &now
		m.messages[id] = msg
	}
	return types.ReadReceipt{ID: id, ReadAt: *msg.ReadAt}, nil
}

func (m *memStore) MessagesFrom(_ context.Context, username string) ([]types.Message, error) {
	out := make([]types.Message, 0)
	for id := int64(1); id < m.nextID; id++ {
		if msg, ok := m.messages[id]; ok && msg.FromUser.Username == username {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memStore) MessagesTo(_ context.Context, username string) ([]types.Message, error) {
	out := make([]types.Message, 0)
	for id := int64(1); id < m.nextID; id++ {
		if msg, ok := m.messages[id]; ok && msg.ToUser.Username == username {
			out = append(out, msg)
		}
	}
	return out, nil
}

// messageRepoAdapter renames CreateMessage to the repository's Create so one
// memStore can serve both interfaces.
type messageRepoAdapter struct {
	*memStore
}

func (a messageRepoAdapter) Create(ctx context.Context, from, to, body string) (types.Message, error) {
	return a.CreateMessage(ctx, from, to, body)
}

type testServer struct {
	router *chi.Mux
	codec  *token.Codec
	store  *memStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mem := newMemStore()
	codec := token.NewCodec("test-secret", time.Hour)
	authService := services.NewAuthService(mem)
	userService := services.NewUserService(mem, nil)
	messageService := services.NewMessageService(messageRepoAdapter{mem}, nil)
	authMiddleware := RequireAuth(codec)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authService, codec)
	})
	router.Route("/users", func(r chi.Router) {
		UserRouter(r, userService, messageService, authMiddleware)
	})
	router.Route("/messages", func(r chi.Router) {
		MessageRouter(r, messageService, authMiddleware)
	})

	return &testServer{router: router, codec: codec, store: mem}
}

func (ts *testServer) do(t *testing.T, method, path, bearer string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) register(t *testing.T, username, password string) string {
	t.Helper()

	rr := ts.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username":   username,
		"password":   password,
		"first_name": "Test",
		"last_name":  "User",
		"phone":      fmt.Sprintf("+1555%s", username),
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp TokenResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}
