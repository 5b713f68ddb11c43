package services

import "github.com/messagely/apiserver/types"

// CanRead reports whether caller may fetch the message's detail. Only the
// sender and the recipient may.
func CanRead(caller string, msg types.Message) bool {
	return caller == msg.FromUser.Username || caller == msg.ToUser.Username
}

// CanMarkRead reports whether caller may mark the message as read. Only the
// recipient may; the sender never can.
func CanMarkRead(caller string, msg types.Message) bool {
	return caller == msg.ToUser.Username
}
