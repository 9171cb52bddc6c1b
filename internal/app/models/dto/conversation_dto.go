package dto

import (
	"time"

	"github.com/yigit/campuslink/internal/app/models"
)

// CreateConversationRequest starts a direct or group conversation
type CreateConversationRequest struct {
	ParticipantIDs []int64 `json:"participantIds" binding:"required,min=1,dive,gt=0"`
	Title          *string `json:"title" binding:"omitempty,max=200"`
	IsGroup        bool    `json:"isGroup"`
}

// UpdateConversationRequest renames a group conversation
type UpdateConversationRequest struct {
	Title string `json:"title" binding:"required,notblank,max=200"`
}

// AddParticipantsRequest adds users to a group conversation
type AddParticipantsRequest struct {
	UserIDs []int64 `json:"userIds" binding:"required,min=1,dive,gt=0"`
}

// ConversationResponse is a conversation as seen by one participant
type ConversationResponse struct {
	ID             int64      `json:"id"`
	Title          *string    `json:"title,omitempty"`
	IsGroup        bool       `json:"isGroup"`
	ParticipantIDs []int64    `json:"participantIds"`
	CreatedBy      int64      `json:"createdBy"`
	LastMessageID  *int64     `json:"lastMessageId,omitempty"`
	LastMessageAt  *time.Time `json:"lastMessageAt,omitempty"`
	UnreadCount    int        `json:"unreadCount"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NewConversationResponse projects conv for viewerID
func NewConversationResponse(conv *models.Conversation, viewerID int64) ConversationResponse {
	return ConversationResponse{
		ID:             conv.ID,
		Title:          conv.Title,
		IsGroup:        conv.IsGroup,
		ParticipantIDs: conv.ParticipantIDs,
		CreatedBy:      conv.CreatedBy,
		LastMessageID:  conv.LastMessageID,
		LastMessageAt:  conv.LastMessageAt,
		UnreadCount:    conv.UnreadCounts.Get(viewerID),
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
	}
}

// NewConversationResponses projects a list for viewerID
func NewConversationResponses(convs []*models.Conversation, viewerID int64) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(convs))
	for _, c := range convs {
		out = append(out, NewConversationResponse(c, viewerID))
	}
	return out
}
