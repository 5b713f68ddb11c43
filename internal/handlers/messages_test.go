package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndGetMessage(t *testing.T) {
	ts := newTestServer(t)
	aliceTok := ts.register(t, "alice", "pw1")
	bobTok := ts.register(t, "bob", "pw2")
	carolTok := ts.register(t, "carol", "pw3")

	rr := ts.do(t, http.MethodPost, "/messages", aliceTok, map[string]string{
		"to_username": "bob",
		"body":        "hi",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created MessageResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Equal(t, "alice", created.Message.FromUser.Username)
	assert.Equal(t, "bob", created.Message.ToUser.Username)
	assert.Nil(t, created.Message.ReadAt)

	path := fmt.Sprintf("/messages/%d", created.Message.ID)

	// sender and recipient may read
	for _, tok := range []string{aliceTok, bobTok} {
		rr = ts.do(t, http.MethodGet, path, tok, nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	// third party may not
	rr = ts.do(t, http.MethodGet, path, carolTok, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// unauthenticated may not
	rr = ts.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSendMessageValidation(t *testing.T) {
	ts := newTestServer(t)
	aliceTok := ts.register(t, "alice", "pw1")

	rr := ts.do(t, http.MethodPost, "/messages", aliceTok, map[string]string{
		"to_username": "nobody",
		"body":        "hi",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodPost, "/messages", aliceTok, map[string]string{
		"to_username": "",
		"body":        "hi",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMarkRead(t *testing.T) {
	ts := newTestServer(t)
	aliceTok := ts.register(t, "alice", "pw1")
	bobTok := ts.register(t, "bob", "pw2")

	rr := ts.do(t, http.MethodPost, "/messages", aliceTok, map[string]string{
		"to_username": "bob",
		"body":        "hi",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var created MessageResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	readPath := fmt.Sprintf("/messages/%d/read", created.Message.ID)

	// sender may not mark read
	rr = ts.do(t, http.MethodPost, readPath, aliceTok, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// recipient may
	rr = ts.do(t, http.MethodPost, readPath, bobTok, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var receipt ReadReceiptResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&receipt))
	assert.Equal(t, created.Message.ID, receipt.Message.ID)
	assert.False(t, receipt.Message.ReadAt.IsZero())

	// repeated mark-read keeps the first timestamp
	rr = ts.do(t, http.MethodPost, readPath, bobTok, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var again ReadReceiptResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&again))
	assert.True(t, again.Message.ReadAt.Equal(receipt.Message.ReadAt))
}

func TestMarkReadNotFound(t *testing.T) {
	ts := newTestServer(t)
	bobTok := ts.register(t, "bob", "pw2")

	rr := ts.do(t, http.MethodPost, "/messages/999/read", bobTok, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMessagingScenario(t *testing.T) {
	ts := newTestServer(t)
	aliceTok := ts.register(t, "alice", "secret")
	bobTok := ts.register(t, "bob", "pw2")

	rr := ts.do(t, http.MethodPost, "/messages", aliceTok, map[string]string{
		"to_username": "bob",
		"body":        "hi",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created MessageResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))

	// bob sees the message in his inbox with alice resolved as sender
	rr = ts.do(t, http.MethodGet, "/users/bob/to", bobTok, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var inbox MessageListResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&inbox))
	require.Len(t, inbox.Messages, 1)
	assert.Equal(t, "alice", inbox.Messages[0].FromUser.Username)
	assert.Nil(t, inbox.Messages[0].ReadAt)

	// bob marks it read
	rr = ts.do(t, http.MethodPost, fmt.Sprintf("/messages/%d/read", created.Message.ID), bobTok, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// alice's outbox now shows the read receipt
	rr = ts.do(t, http.MethodGet, "/users/alice/from", aliceTok, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var outbox MessageListResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&outbox))
	require.Len(t, outbox.Messages, 1)
	assert.NotNil(t, outbox.Messages[0].ReadAt)
}
