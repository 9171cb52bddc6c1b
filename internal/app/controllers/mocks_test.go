package controllers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/app/models/dto"
	"github.com/yigit/campuslink/internal/app/services"
)

type conversationServiceMock struct{ mock.Mock }

func (m *conversationServiceMock) Create(ctx context.Context, userID int64, req *dto.CreateConversationRequest) (*dto.ConversationResponse, bool, error) {
	args := m.Called(ctx, userID, req)
	conv, _ := args.Get(0).(*dto.ConversationResponse)
	return conv, args.Bool(1), args.Error(2)
}

func (m *conversationServiceMock) List(ctx context.Context, userID int64) ([]dto.ConversationResponse, error) {
	args := m.Called(ctx, userID)
	convs, _ := args.Get(0).([]dto.ConversationResponse)
	return convs, args.Error(1)
}

func (m *conversationServiceMock) Get(ctx context.Context, id, userID int64) (*dto.ConversationResponse, error) {
	args := m.Called(ctx, id, userID)
	conv, _ := args.Get(0).(*dto.ConversationResponse)
	return conv, args.Error(1)
}

func (m *conversationServiceMock) UpdateTitle(ctx context.Context, id, userID int64, req *dto.UpdateConversationRequest) (*dto.ConversationResponse, error) {
	args := m.Called(ctx, id, userID, req)
	conv, _ := args.Get(0).(*dto.ConversationResponse)
	return conv, args.Error(1)
}

func (m *conversationServiceMock) AddParticipants(ctx context.Context, id, userID int64, req *dto.AddParticipantsRequest) (*dto.ConversationResponse, error) {
	args := m.Called(ctx, id, userID, req)
	conv, _ := args.Get(0).(*dto.ConversationResponse)
	return conv, args.Error(1)
}

func (m *conversationServiceMock) RemoveParticipant(ctx context.Context, id, userID, targetID int64) (*dto.ConversationResponse, error) {
	args := m.Called(ctx, id, userID, targetID)
	conv, _ := args.Get(0).(*dto.ConversationResponse)
	return conv, args.Error(1)
}

func (m *conversationServiceMock) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *conversationServiceMock) IsParticipant(ctx context.Context, id, userID int64) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

type messageServiceMock struct{ mock.Mock }

func (m *messageServiceMock) Send(ctx context.Context, conversationID, senderID int64, req *dto.SendMessageRequest) (*models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, req)
	msg, _ := args.Get(0).(*models.Message)
	return msg, args.Error(1)
}

func (m *messageServiceMock) List(ctx context.Context, conversationID, userID int64, query dto.ListMessagesQuery) (*dto.MessageListResponse, error) {
	args := m.Called(ctx, conversationID, userID, query)
	page, _ := args.Get(0).(*dto.MessageListResponse)
	return page, args.Error(1)
}

func (m *messageServiceMock) MarkRead(ctx context.Context, conversationID, userID int64) (int64, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *messageServiceMock) Delete(ctx context.Context, messageID, userID int64) error {
	return m.Called(ctx, messageID, userID).Error(0)
}

type notificationServiceMock struct{ mock.Mock }

func (m *notificationServiceMock) Notify(ctx context.Context, input services.NotificationInput) int {
	return m.Called(ctx, input).Int(0)
}

func (m *notificationServiceMock) List(ctx context.Context, userID int64, query dto.ListNotificationsQuery) (*dto.PaginatedResponse, error) {
	args := m.Called(ctx, userID, query)
	page, _ := args.Get(0).(*dto.PaginatedResponse)
	return page, args.Error(1)
}

func (m *notificationServiceMock) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *notificationServiceMock) MarkRead(ctx context.Context, id, userID int64) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *notificationServiceMock) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *notificationServiceMock) Delete(ctx context.Context, id, userID int64) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *notificationServiceMock) Announce(ctx context.Context, actor services.Actor, req *dto.AnnouncementRequest) (*dto.AnnouncementResponse, error) {
	args := m.Called(ctx, actor, req)
	resp, _ := args.Get(0).(*dto.AnnouncementResponse)
	return resp, args.Error(1)
}

type assignmentServiceMock struct{ mock.Mock }

func (m *assignmentServiceMock) Create(ctx context.Context, actor services.Actor, req *dto.CreateAssignmentRequest) (*models.Assignment, error) {
	args := m.Called(ctx, actor, req)
	a, _ := args.Get(0).(*models.Assignment)
	return a, args.Error(1)
}

func (m *assignmentServiceMock) List(ctx context.Context, actor services.Actor, query dto.ListAssignmentsQuery) ([]*models.Assignment, error) {
	args := m.Called(ctx, actor, query)
	list, _ := args.Get(0).([]*models.Assignment)
	return list, args.Error(1)
}

func (m *assignmentServiceMock) Get(ctx context.Context, actor services.Actor, id int64) (*models.Assignment, error) {
	args := m.Called(ctx, actor, id)
	a, _ := args.Get(0).(*models.Assignment)
	return a, args.Error(1)
}

func (m *assignmentServiceMock) Update(ctx context.Context, actor services.Actor, id int64, req *dto.UpdateAssignmentRequest) (*models.Assignment, error) {
	args := m.Called(ctx, actor, id, req)
	a, _ := args.Get(0).(*models.Assignment)
	return a, args.Error(1)
}

func (m *assignmentServiceMock) Delete(ctx context.Context, actor services.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *assignmentServiceMock) UpdateStatus(ctx context.Context, actor services.Actor, id int64, status models.AssignmentStatus) (*models.Assignment, error) {
	args := m.Called(ctx, actor, id, status)
	a, _ := args.Get(0).(*models.Assignment)
	return a, args.Error(1)
}

func (m *assignmentServiceMock) Submit(ctx context.Context, actor services.Actor, id int64, req *dto.SubmitAssignmentRequest) (*models.Submission, error) {
	args := m.Called(ctx, actor, id, req)
	s, _ := args.Get(0).(*models.Submission)
	return s, args.Error(1)
}

func (m *assignmentServiceMock) ListSubmissions(ctx context.Context, actor services.Actor, id int64) ([]*models.Submission, error) {
	args := m.Called(ctx, actor, id)
	list, _ := args.Get(0).([]*models.Submission)
	return list, args.Error(1)
}

func (m *assignmentServiceMock) MySubmission(ctx context.Context, actor services.Actor, id int64) (*models.Submission, error) {
	args := m.Called(ctx, actor, id)
	s, _ := args.Get(0).(*models.Submission)
	return s, args.Error(1)
}

func (m *assignmentServiceMock) Grade(ctx context.Context, actor services.Actor, id, studentID int64, req *dto.GradeSubmissionRequest) (*models.Submission, error) {
	args := m.Called(ctx, actor, id, studentID, req)
	s, _ := args.Get(0).(*models.Submission)
	return s, args.Error(1)
}
