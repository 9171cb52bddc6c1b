package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/app/repositories"
	"github.com/yigit/campuslink/internal/pkg/realtime"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserStore) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type mockCourseStore struct {
	mock.Mock
}

func (m *mockCourseStore) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *mockCourseStore) ActiveStudentIDs(ctx context.Context, courseID int64) ([]int64, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockCourseStore) IsStudentEnrolled(ctx context.Context, courseID, studentID int64) (bool, error) {
	args := m.Called(ctx, courseID, studentID)
	return args.Bool(0), args.Error(1)
}

type mockConversationStore struct {
	mock.Mock
}

func (m *mockConversationStore) conv(args mock.Arguments) (*models.Conversation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockConversationStore) Create(ctx context.Context, conv *models.Conversation) error {
	return m.Called(ctx, conv).Error(0)
}

func (m *mockConversationStore) GetByID(ctx context.Context, id int64) (*models.Conversation, error) {
	return m.conv(m.Called(ctx, id))
}

func (m *mockConversationStore) FindDirect(ctx context.Context, userA, userB int64) (*models.Conversation, error) {
	return m.conv(m.Called(ctx, userA, userB))
}

func (m *mockConversationStore) ListForUser(ctx context.Context, userID int64) ([]*models.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Conversation), args.Error(1)
}

func (m *mockConversationStore) UpdateTitle(ctx context.Context, id int64, title string) (*models.Conversation, error) {
	return m.conv(m.Called(ctx, id, title))
}

func (m *mockConversationStore) AddParticipants(ctx context.Context, id int64, userIDs []int64) (*models.Conversation, error) {
	return m.conv(m.Called(ctx, id, userIDs))
}

func (m *mockConversationStore) RemoveParticipant(ctx context.Context, id int64, userID int64) (*models.Conversation, error) {
	return m.conv(m.Called(ctx, id, userID))
}

func (m *mockConversationStore) TotalUnread(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockMessageStore struct {
	mock.Mock
}

func (m *mockMessageStore) CreateWithCounters(ctx context.Context, msg *models.Message) (*models.Conversation, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockMessageStore) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *mockMessageStore) ListByConversation(ctx context.Context, conversationID int64, beforeID *int64, limit int) ([]*models.Message, error) {
	args := m.Called(ctx, conversationID, beforeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *mockMessageStore) MarkConversationRead(ctx context.Context, conversationID, readerID int64) (int64, error) {
	args := m.Called(ctx, conversationID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMessageStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockNotificationStore struct {
	mock.Mock
}

func (m *mockNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotificationStore) List(ctx context.Context, recipientID int64, filter repositories.NotificationFilter) ([]*models.Notification, int64, error) {
	args := m.Called(ctx, recipientID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *mockNotificationStore) CountUnread(ctx context.Context, recipientID int64) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNotificationStore) MarkRead(ctx context.Context, id, recipientID int64) error {
	return m.Called(ctx, id, recipientID).Error(0)
}

func (m *mockNotificationStore) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNotificationStore) Delete(ctx context.Context, id, recipientID int64) error {
	return m.Called(ctx, id, recipientID).Error(0)
}

type mockAssignmentStore struct {
	mock.Mock
}

func (m *mockAssignmentStore) Create(ctx context.Context, a *models.Assignment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAssignmentStore) GetByID(ctx context.Context, id int64) (*models.Assignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}

func (m *mockAssignmentStore) List(ctx context.Context, filter repositories.AssignmentFilter) ([]*models.Assignment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Assignment), args.Error(1)
}

func (m *mockAssignmentStore) Update(ctx context.Context, a *models.Assignment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAssignmentStore) UpdateStatus(ctx context.Context, id int64, status models.AssignmentStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockAssignmentStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAssignmentStore) UpsertSubmission(ctx context.Context, s *models.Submission) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockAssignmentStore) GetSubmission(ctx context.Context, assignmentID, studentID int64) (*models.Submission, error) {
	args := m.Called(ctx, assignmentID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *mockAssignmentStore) ListSubmissions(ctx context.Context, assignmentID int64) ([]*models.Submission, error) {
	args := m.Called(ctx, assignmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Submission), args.Error(1)
}

func (m *mockAssignmentStore) GradeSubmission(ctx context.Context, s *models.Submission) error {
	return m.Called(ctx, s).Error(0)
}

// emitted is one recorded push; Room uses the socket room naming
type emitted struct {
	Room    string
	Event   string
	Payload json.RawMessage
}

// eviction is one recorded removal of a user from a conversation room
type eviction struct {
	UserID         int64
	ConversationID int64
}

type recordingEvents struct {
	mu        sync.Mutex
	events    []emitted
	evictions []eviction
	err       error
}

func (r *recordingEvents) record(room, event string, payload interface{}) error {
	raw, _ := json.Marshal(payload)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{Room: room, Event: event, Payload: raw})
	return r.err
}

func (r *recordingEvents) EmitToUser(_ context.Context, userID int64, event string, payload interface{}) error {
	return r.record(realtime.UserRoom(userID), event, payload)
}

func (r *recordingEvents) EmitToConversation(_ context.Context, conversationID int64, event string, payload interface{}) error {
	return r.record(realtime.ConversationRoom(conversationID), event, payload)
}

func (r *recordingEvents) EvictFromConversation(_ context.Context, userID, conversationID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictions = append(r.evictions, eviction{UserID: userID, ConversationID: conversationID})
	return r.err
}

// find returns the pushes of event, in order
func (r *recordingEvents) find(event string) []emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []emitted
	for _, e := range r.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func rooms(events []emitted) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Room)
	}
	return out
}

// recordingNotifier captures Notify calls for services that fan out notifications
type recordingNotifier struct {
	NotificationService
	inputs []NotificationInput
}

func (r *recordingNotifier) Notify(_ context.Context, input NotificationInput) int {
	r.inputs = append(r.inputs, input)
	return len(input.RecipientIDs)
}

var _ NotificationService = (*recordingNotifier)(nil)

// mustField extracts one top-level field of a JSON object
func mustField(t *testing.T, raw json.RawMessage, name string) json.RawMessage {
	t.Helper()
	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &obj))
	field, ok := obj[name]
	require.True(t, ok, "field %s missing in %s", name, raw)
	return field
}
