package models

import (
	"time"

	"github.com/google/uuid"
)

type ChatSender string

const (
	SenderUser  ChatSender = "user"
	SenderCoach ChatSender = "coach"
)

// ChatMessage lives only for the duration of a coaching session; transcripts
// are never persisted.
type ChatMessage struct {
	ID        string     `json:"id"`
	Sender    ChatSender `json:"sender"`
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewChatMessage(sender ChatSender, text string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}
