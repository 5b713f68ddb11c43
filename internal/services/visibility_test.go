package services

import (
	"testing"

	"github.com/messagely/apiserver/types"
	"github.com/stretchr/testify/assert"
)

func aliceToBob() types.Message {
	return types.Message{
		ID:       1,
		FromUser: types.UserSummary{Username: "alice"},
		ToUser:   types.UserSummary{Username: "bob"},
		Body:     "hi",
	}
}

func TestCanRead(t *testing.T) {
	msg := aliceToBob()

	assert.True(t, CanRead("alice", msg), "sender may read")
	assert.True(t, CanRead("bob", msg), "recipient may read")
	assert.False(t, CanRead("carol", msg), "third party may not read")
	assert.False(t, CanRead("", msg))
}

func TestCanMarkRead(t *testing.T) {
	msg := aliceToBob()

	assert.True(t, CanMarkRead("bob", msg), "recipient may mark read")
	assert.False(t, CanMarkRead("alice", msg), "sender may not mark read")
	assert.False(t, CanMarkRead("carol", msg))
	assert.False(t, CanMarkRead("", msg))
}
