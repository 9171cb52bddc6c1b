package models

import (
	"strconv"
	"time"
)

// UnreadCounts maps a participant id (as string, matching the JSONB keys) to the
// number of messages that participant has not read yet.
type UnreadCounts map[string]int

func unreadKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Get returns the counter for userID, zero when absent
func (u UnreadCounts) Get(userID int64) int {
	return u[unreadKey(userID)]
}

// IncrementExcept bumps every participant's counter except the sender's
func (u UnreadCounts) IncrementExcept(participants []int64, senderID int64) {
	for _, id := range participants {
		if id == senderID {
			continue
		}
		u[unreadKey(id)]++
	}
}

// Reset sets userID's counter to zero
func (u UnreadCounts) Reset(userID int64) {
	u[unreadKey(userID)] = 0
}

// Remove drops userID's counter entry
func (u UnreadCounts) Remove(userID int64) {
	delete(u, unreadKey(userID))
}

// NewUnreadCounts returns zeroed counters for all participants
func NewUnreadCounts(participants []int64) UnreadCounts {
	counts := make(UnreadCounts, len(participants))
	for _, id := range participants {
		counts.Reset(id)
	}
	return counts
}

// Conversation is a direct (two participants) or group chat
type Conversation struct {
	ID             int64        `json:"id" db:"id"`
	Title          *string      `json:"title,omitempty" db:"title"`
	IsGroup        bool         `json:"isGroup" db:"is_group"`
	ParticipantIDs []int64      `json:"participantIds" db:"participant_ids"`
	UnreadCounts   UnreadCounts `json:"-" db:"unread_counts"`
	CreatedBy      int64        `json:"createdBy" db:"created_by"`
	LastMessageID  *int64       `json:"lastMessageId,omitempty" db:"last_message_id"`
	LastMessageAt  *time.Time   `json:"lastMessageAt,omitempty" db:"last_message_at"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time    `json:"updatedAt" db:"updated_at"`
}

// HasParticipant reports whether userID belongs to the conversation
func (c *Conversation) HasParticipant(userID int64) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipants returns every participant except userID
func (c *Conversation) OtherParticipants(userID int64) []int64 {
	others := make([]int64, 0, len(c.ParticipantIDs))
	for _, id := range c.ParticipantIDs {
		if id != userID {
			others = append(others, id)
		}
	}
	return others
}

// UniqueParticipants deduplicates ids, keeping first-seen order, and drops non-positive ids
func UniqueParticipants(ids ...int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
