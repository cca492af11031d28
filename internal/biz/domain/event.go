package domain

import "time"

// Event is an update pushed by the gateway. The set of implementations is closed:
// *NewMessage, *MessageEdited and *MessagesDeleted.
type Event interface {
	event()
}

// NewMessage is a message that just appeared in a chat (sent or received)
type NewMessage struct {
	Message *Message
}

// MessageEdited carries the new state of an edited message
type MessageEdited struct {
	Message *Message
}

// MessagesDeleted lists deleted message ids. ChannelID is 0 when the deletion
// happened outside a channel, where the gateway cannot tell which chat it was.
type MessagesDeleted struct {
	ChannelID  int64
	MessageIDs []int64
	Date       time.Time
}

func (*NewMessage) event()      {}
func (*MessageEdited) event()   {}
func (*MessagesDeleted) event() {}
