package models

import "time"

// Message is a single chat message inside a conversation
type Message struct {
	ID             int64        `json:"id" db:"id"`
	ConversationID int64        `json:"conversationId" db:"conversation_id"`
	SenderID       int64        `json:"senderId" db:"sender_id"`
	Content        string       `json:"content" db:"content"`
	Attachments    []Attachment `json:"attachments" db:"attachments"`
	IsRead         bool         `json:"isRead" db:"is_read"`
	ReadAt         *time.Time   `json:"readAt,omitempty" db:"read_at"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
}

// IsEmpty reports a message with neither text nor attachments
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && len(m.Attachments) == 0
}
