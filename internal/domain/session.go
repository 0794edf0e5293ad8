package domain

import (
	"time"
)

// ConversationID identifies one end user's chat. It is the Telegram chat ID.
type ConversationID int64

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one element of the context sent to the completion provider.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type SessionState struct {
	ConversationID  ConversationID
	Turns           []Turn
	TurnCount       int
	ContactCaptured bool
	StartedAt       time.Time
}

// Clone returns a copy that shares no slices with s.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	c := *s
	c.Turns = append([]Turn(nil), s.Turns...)
	return &c
}

// InboundMessage is a single user message as received from the messaging platform.
type InboundMessage struct {
	ConversationID ConversationID
	DisplayName    string
	Text           string
	Attachment     []byte
}
