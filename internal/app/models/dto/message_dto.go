package dto

import (
	"github.com/yigit/campuslink/internal/app/models"
)

// SendMessageRequest posts a message to a conversation
type SendMessageRequest struct {
	Content     string              `json:"content" binding:"max=10000"`
	Attachments []models.Attachment `json:"attachments" binding:"omitempty,max=10,dive"`
}

// ListMessagesQuery pages backwards through history
type ListMessagesQuery struct {
	Before *int64 `form:"before" binding:"omitempty,gt=0"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// MessageListResponse is one page of messages, newest first
type MessageListResponse struct {
	Messages []*models.Message `json:"messages"`
	HasMore  bool              `json:"hasMore"`
}
