package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/app/models/dto"
	"github.com/yigit/campuslink/internal/pkg/apperrors"
	"github.com/yigit/campuslink/internal/pkg/realtime"
)

type conversationFixture struct {
	convs  *mockConversationStore
	users  *mockUserStore
	events *recordingEvents
	svc    ConversationService
}

func newConversationFixture() *conversationFixture {
	f := &conversationFixture{
		convs:  &mockConversationStore{},
		users:  &mockUserStore{},
		events: &recordingEvents{},
	}
	f.svc = NewConversationService(f.convs, f.users, f.events, zerolog.Nop())
	return f
}

func strPtr(s string) *string { return &s }

func groupConversation() *models.Conversation {
	return &models.Conversation{
		ID:             3,
		Title:          strPtr("Study group"),
		IsGroup:        true,
		ParticipantIDs: []int64{1, 2, 3},
		UnreadCounts:   models.UnreadCounts{"1": 0, "2": 2, "3": 5},
		CreatedBy:      1,
	}
}

func TestCreateDirectConversationReturnsExisting(t *testing.T) {
	f := newConversationFixture()
	existing := &models.Conversation{ID: 9, ParticipantIDs: []int64{1, 2}, UnreadCounts: models.UnreadCounts{"1": 4, "2": 0}}

	f.users.On("MissingIDs", mock.Anything, []int64{1, 2}).Return([]int64{}, nil)
	f.convs.On("FindDirect", mock.Anything, int64(1), int64(2)).Return(existing, nil)

	resp, created, err := f.svc.Create(context.Background(), 1, &dto.CreateConversationRequest{ParticipantIDs: []int64{2, 2, 1}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(9), resp.ID)
	assert.Equal(t, 4, resp.UnreadCount)
	f.convs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, f.events.find(realtime.EventConversationUpdated))
}

func TestCreateDirectConversation(t *testing.T) {
	f := newConversationFixture()

	f.users.On("MissingIDs", mock.Anything, []int64{1, 2}).Return([]int64{}, nil)
	f.convs.On("FindDirect", mock.Anything, int64(1), int64(2)).Return(nil, apperrors.ErrConversationNotFound)
	f.convs.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Conversation) bool {
		return !c.IsGroup && c.CreatedBy == 1 && c.UnreadCounts.Get(1) == 0 && c.UnreadCounts.Get(2) == 0 && len(c.UnreadCounts) == 2
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Conversation).ID = 7
	}).Return(nil)

	resp, created, err := f.svc.Create(context.Background(), 1, &dto.CreateConversationRequest{ParticipantIDs: []int64{2}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, []int64{1, 2}, resp.ParticipantIDs)
	assert.Equal(t, []string{"user:1", "user:2"}, rooms(f.events.find(realtime.EventConversationUpdated)))
	f.convs.AssertExpectations(t)
}

func TestCreateDirectConversationLosesRace(t *testing.T) {
	f := newConversationFixture()
	existing := &models.Conversation{ID: 11, ParticipantIDs: []int64{1, 2}, UnreadCounts: models.UnreadCounts{"1": 0, "2": 0}}

	f.users.On("MissingIDs", mock.Anything, []int64{1, 2}).Return([]int64{}, nil)
	f.convs.On("FindDirect", mock.Anything, int64(1), int64(2)).Return(nil, apperrors.ErrConversationNotFound).Once()
	f.convs.On("Create", mock.Anything, mock.Anything).Return(apperrors.ErrResourceAlreadyExists)
	f.convs.On("FindDirect", mock.Anything, int64(1), int64(2)).Return(existing, nil).Once()

	resp, created, err := f.svc.Create(context.Background(), 1, &dto.CreateConversationRequest{ParticipantIDs: []int64{2}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(11), resp.ID)
	assert.Empty(t, f.events.find(realtime.EventConversationUpdated))
	f.convs.AssertExpectations(t)
}

func TestCreateConversationValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   dto.CreateConversationRequest
		field string
	}{
		{"direct with self only", dto.CreateConversationRequest{ParticipantIDs: []int64{1}}, "participantIds"},
		{"direct with two others", dto.CreateConversationRequest{ParticipantIDs: []int64{2, 3}}, "participantIds"},
		{"group without title", dto.CreateConversationRequest{ParticipantIDs: []int64{2, 3}, IsGroup: true}, "title"},
		{"group with blank title", dto.CreateConversationRequest{ParticipantIDs: []int64{2, 3}, IsGroup: true, Title: strPtr("  ")}, "title"},
		{"group too small", dto.CreateConversationRequest{ParticipantIDs: []int64{2}, IsGroup: true, Title: strPtr("x")}, "participantIds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newConversationFixture()
			_, _, err := f.svc.Create(context.Background(), 1, &tt.req)

			require.ErrorIs(t, err, apperrors.ErrValidationFailed)
			var ce *apperrors.CustomError
			require.True(t, errors.As(err, &ce))
			assert.Contains(t, ce.Details, tt.field)
			f.users.AssertNotCalled(t, "MissingIDs", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateConversationUnknownUsers(t *testing.T) {
	f := newConversationFixture()
	f.users.On("MissingIDs", mock.Anything, []int64{1, 2, 9}).Return([]int64{9}, nil)

	_, _, err := f.svc.Create(context.Background(), 1, &dto.CreateConversationRequest{
		ParticipantIDs: []int64{2, 9},
		IsGroup:        true,
		Title:          strPtr("Lab"),
	})

	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	var ce *apperrors.CustomError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "unknown users: 9", ce.Details["participantIds"])
}

func TestGetConversationRequiresParticipant(t *testing.T) {
	f := newConversationFixture()
	f.convs.On("GetByID", mock.Anything, int64(3)).Return(groupConversation(), nil)

	_, err := f.svc.Get(context.Background(), 3, 8)
	assert.ErrorIs(t, err, apperrors.ErrNotParticipant)

	resp, err := f.svc.Get(context.Background(), 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.UnreadCount)
}

func TestAddParticipantsRequiresGroup(t *testing.T) {
	f := newConversationFixture()
	direct := &models.Conversation{ID: 4, ParticipantIDs: []int64{1, 2}, UnreadCounts: models.UnreadCounts{}}
	f.convs.On("GetByID", mock.Anything, int64(4)).Return(direct, nil)

	_, err := f.svc.AddParticipants(context.Background(), 4, 1, &dto.AddParticipantsRequest{UserIDs: []int64{5}})
	assert.ErrorIs(t, err, apperrors.ErrNotGroupConversation)

	_, err = f.svc.UpdateTitle(context.Background(), 4, 1, &dto.UpdateConversationRequest{Title: "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotGroupConversation)
}

func TestAddParticipantsEmitsUpdates(t *testing.T) {
	f := newConversationFixture()
	after := groupConversation()
	after.ParticipantIDs = append(after.ParticipantIDs, 4)
	after.UnreadCounts["4"] = 0

	f.convs.On("GetByID", mock.Anything, int64(3)).Return(groupConversation(), nil)
	f.users.On("MissingIDs", mock.Anything, []int64{4}).Return([]int64{}, nil)
	f.convs.On("AddParticipants", mock.Anything, int64(3), []int64{4}).Return(after, nil)

	resp, err := f.svc.AddParticipants(context.Background(), 3, 2, &dto.AddParticipantsRequest{UserIDs: []int64{4, 4}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.UnreadCount)

	updates := f.events.find(realtime.EventConversationUpdated)
	assert.Equal(t, []string{"user:1", "user:2", "user:3", "user:4"}, rooms(updates))
	assert.JSONEq(t, `5`, string(mustField(t, updates[2].Payload, "unreadCount")))
}

func TestRemoveParticipant(t *testing.T) {
	f := newConversationFixture()
	f.convs.On("GetByID", mock.Anything, int64(3)).Return(groupConversation(), nil)

	_, err := f.svc.RemoveParticipant(context.Background(), 3, 2, 3)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	after := groupConversation()
	after.ParticipantIDs = []int64{1, 3}
	delete(after.UnreadCounts, "2")
	f.convs.On("RemoveParticipant", mock.Anything, int64(3), int64(2)).Return(after, nil)

	_, err = f.svc.RemoveParticipant(context.Background(), 3, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"user:1", "user:3", "user:2"}, rooms(f.events.find(realtime.EventConversationUpdated)))
	assert.Equal(t, []eviction{{UserID: 2, ConversationID: 3}}, f.events.evictions)
}

func TestCreatorRemovesParticipantEvictsThem(t *testing.T) {
	f := newConversationFixture()
	f.convs.On("GetByID", mock.Anything, int64(3)).Return(groupConversation(), nil)

	after := groupConversation()
	after.ParticipantIDs = []int64{1, 2}
	delete(after.UnreadCounts, "3")
	f.convs.On("RemoveParticipant", mock.Anything, int64(3), int64(3)).Return(after, nil)

	_, err := f.svc.RemoveParticipant(context.Background(), 3, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []eviction{{UserID: 3, ConversationID: 3}}, f.events.evictions)
}

func TestIsParticipant(t *testing.T) {
	f := newConversationFixture()
	f.convs.On("GetByID", mock.Anything, int64(3)).Return(groupConversation(), nil)
	f.convs.On("GetByID", mock.Anything, int64(99)).Return(nil, apperrors.ErrConversationNotFound)

	ok, err := f.svc.IsParticipant(context.Background(), 3, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.IsParticipant(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.IsParticipant(context.Background(), 99, 1)
	assert.ErrorIs(t, err, apperrors.ErrConversationNotFound)
}
