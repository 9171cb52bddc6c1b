package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnreadCounts(t *testing.T) {
	counts := NewUnreadCounts([]int64{1, 2, 3})
	assert.Equal(t, UnreadCounts{"1": 0, "2": 0, "3": 0}, counts)

	counts.IncrementExcept([]int64{1, 2, 3}, 1)
	counts.IncrementExcept([]int64{1, 2, 3}, 2)
	assert.Equal(t, 1, counts.Get(1))
	assert.Equal(t, 1, counts.Get(2))
	assert.Equal(t, 2, counts.Get(3))

	counts.Reset(3)
	assert.Equal(t, 0, counts.Get(3))

	counts.Remove(2)
	_, ok := counts["2"]
	assert.False(t, ok)
	assert.Equal(t, 0, counts.Get(42))
}

func TestConversationParticipants(t *testing.T) {
	conv := &Conversation{ParticipantIDs: []int64{4, 7, 9}}

	assert.True(t, conv.HasParticipant(7))
	assert.False(t, conv.HasParticipant(8))
	assert.Equal(t, []int64{4, 9}, conv.OtherParticipants(7))
}

func TestUniqueParticipants(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, UniqueParticipants(3, 1, 3, 0, 2, -5, 1))
	assert.Empty(t, UniqueParticipants())
}

func TestAssignmentStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to AssignmentStatus
		allowed  bool
	}{
		{AssignmentDraft, AssignmentPublished, true},
		{AssignmentDraft, AssignmentArchived, true},
		{AssignmentPublished, AssignmentArchived, true},
		{AssignmentPublished, AssignmentDraft, false},
		{AssignmentArchived, AssignmentPublished, false},
		{AssignmentArchived, AssignmentDraft, false},
		{AssignmentDraft, AssignmentDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestAssignmentIsPastDue(t *testing.T) {
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := &Assignment{DueDate: due}

	assert.False(t, a.IsPastDue(due))
	assert.True(t, a.IsPastDue(due.Add(time.Second)))
}

func TestCourseIsTaughtBy(t *testing.T) {
	instructor := int64(5)
	assert.True(t, (&Course{InstructorID: &instructor}).IsTaughtBy(5))
	assert.False(t, (&Course{InstructorID: &instructor}).IsTaughtBy(6))
	assert.False(t, (&Course{}).IsTaughtBy(5))
}

func TestMessageIsEmpty(t *testing.T) {
	assert.True(t, (&Message{}).IsEmpty())
	assert.False(t, (&Message{Content: "hi"}).IsEmpty())
	assert.False(t, (&Message{Attachments: []Attachment{{URL: "https://x.test/a.pdf", FileName: "a.pdf"}}}).IsEmpty())
}

func TestRoleAndNotificationTypeValidity(t *testing.T) {
	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, RoleType("GUEST").IsValid())
	assert.True(t, NotificationAnnouncement.IsValid())
	assert.False(t, NotificationType("PING").IsValid())
}
