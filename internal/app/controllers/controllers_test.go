package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/app/models/dto"
	"github.com/yigit/campuslink/internal/app/services"
	"github.com/yigit/campuslink/internal/middleware"
	"github.com/yigit/campuslink/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidation(); err != nil {
		panic(err)
	}
}

type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

// asUser stands in for JWTAuth
func asUser(id int64, role models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextRoleType, string(role))
		c.Next()
	}
}

func perform(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func conversationEngine(svc services.ConversationService, user gin.HandlerFunc) *gin.Engine {
	c := NewConversationController(svc)
	r := gin.New()
	g := r.Group("/api/conversations")
	if user != nil {
		g.Use(user)
	}
	g.POST("", c.CreateConversation)
	g.GET("/unread-count", c.GetUnreadCount)
	g.GET("/:id", c.GetConversation)
	g.PUT("/:id", c.UpdateConversation)
	g.DELETE("/:id/participants/:userId", c.RemoveParticipant)
	return r
}

func TestCreateConversationStatus(t *testing.T) {
	tests := []struct {
		name    string
		created bool
		status  int
	}{
		{"new group", true, http.StatusCreated},
		{"existing direct", false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(conversationServiceMock)
			svc.On("Create", mock.Anything, int64(1), mock.MatchedBy(func(req *dto.CreateConversationRequest) bool {
				return len(req.ParticipantIDs) == 1 && req.ParticipantIDs[0] == 2
			})).Return(&dto.ConversationResponse{ID: 9}, tt.created, nil)

			rec, env := perform(t, conversationEngine(svc, asUser(1, models.RoleStudent)), http.MethodPost, "/api/conversations", `{"participantIds":[2]}`)

			assert.Equal(t, tt.status, rec.Code)
			assert.True(t, env.Success)
			assert.JSONEq(t, `9`, string(mustField(t, env.Data, "id")))
			svc.AssertExpectations(t)
		})
	}
}

func TestCreateConversationBindingError(t *testing.T) {
	svc := new(conversationServiceMock)

	rec, env := perform(t, conversationEngine(svc, asUser(1, models.RoleStudent)), http.MethodPost, "/api/conversations", `{"participantIds":[]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)
	assert.Contains(t, env.Error.Fields, "participantIds")
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestConversationRequiresUser(t *testing.T) {
	rec, env := perform(t, conversationEngine(new(conversationServiceMock), nil), http.MethodGet, "/api/conversations/unread-count", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrorCodeUnauthorized, env.Error.Code)
}

func TestGetConversationErrors(t *testing.T) {
	svc := new(conversationServiceMock)
	svc.On("Get", mock.Anything, int64(5), int64(1)).Return(nil, apperrors.ErrNotParticipant)
	svc.On("Get", mock.Anything, int64(6), int64(1)).Return(nil, apperrors.ErrConversationNotFound)
	r := conversationEngine(svc, asUser(1, models.RoleStudent))

	rec, env := perform(t, r, http.MethodGet, "/api/conversations/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "id", env.Error.Field)

	rec, _ = perform(t, r, http.MethodGet, "/api/conversations/5", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = perform(t, r, http.MethodGet, "/api/conversations/6", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateConversationRejectsBlankTitle(t *testing.T) {
	svc := new(conversationServiceMock)

	rec, env := perform(t, conversationEngine(svc, asUser(1, models.RoleStudent)), http.MethodPut, "/api/conversations/3", `{"title":"   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title must not be blank", env.Error.Fields["title"])
}

func TestRemoveParticipantParsesBothIDs(t *testing.T) {
	svc := new(conversationServiceMock)
	svc.On("RemoveParticipant", mock.Anything, int64(3), int64(1), int64(4)).Return(&dto.ConversationResponse{ID: 3}, nil)

	rec, _ := perform(t, conversationEngine(svc, asUser(1, models.RoleStudent)), http.MethodDelete, "/api/conversations/3/participants/4", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestConversationUnreadCount(t *testing.T) {
	svc := new(conversationServiceMock)
	svc.On("UnreadCount", mock.Anything, int64(1)).Return(int64(4), nil)

	rec, env := perform(t, conversationEngine(svc, asUser(1, models.RoleStudent)), http.MethodGet, "/api/conversations/unread-count", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":4}`, string(env.Data))
}

func messageEngine(svc services.MessageService) *gin.Engine {
	c := NewMessageController(svc)
	r := gin.New()
	r.Use(asUser(1, models.RoleStudent))
	r.POST("/api/conversations/:id/messages", c.SendMessage)
	r.GET("/api/conversations/:id/messages", c.GetMessages)
	r.PUT("/api/conversations/:id/read", c.MarkConversationRead)
	r.DELETE("/api/messages/:id", c.DeleteMessage)
	return r
}

func TestSendMessage(t *testing.T) {
	svc := new(messageServiceMock)
	svc.On("Send", mock.Anything, int64(3), int64(1), mock.MatchedBy(func(req *dto.SendMessageRequest) bool {
		return req.Content == "hi" && len(req.Attachments) == 1 && req.Attachments[0].MimeType == "application/pdf"
	})).Return(&models.Message{ID: 11, ConversationID: 3, SenderID: 1, Content: "hi"}, nil)

	body := `{"content":"hi","attachments":[{"url":"https://files.campuslink.dev/a.pdf","fileName":"a.pdf","mimeType":"application/pdf"}]}`
	rec, env := perform(t, messageEngine(svc), http.MethodPost, "/api/conversations/3/messages", body)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `11`, string(mustField(t, env.Data, "id")))
	svc.AssertExpectations(t)
}

func TestSendMessageRejectsBadAttachment(t *testing.T) {
	svc := new(messageServiceMock)

	body := `{"content":"hi","attachments":[{"url":"not a url","fileName":"a.pdf","mimeType":"pdf"}]}`
	rec, env := perform(t, messageEngine(svc), http.MethodPost, "/api/conversations/3/messages", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)
	svc.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageEmpty(t *testing.T) {
	svc := new(messageServiceMock)
	svc.On("Send", mock.Anything, int64(3), int64(1), mock.Anything).Return(nil, apperrors.ErrEmptyMessage)

	rec, env := perform(t, messageEngine(svc), http.MethodPost, "/api/conversations/3/messages", `{"content":"  "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.ErrEmptyMessage.Error(), env.Error.Message)
}

func TestGetMessagesBindsQuery(t *testing.T) {
	svc := new(messageServiceMock)
	before := int64(40)
	svc.On("List", mock.Anything, int64(3), int64(1), dto.ListMessagesQuery{Before: &before, Limit: 20}).
		Return(&dto.MessageListResponse{Messages: []*models.Message{}, HasMore: true}, nil)

	rec, env := perform(t, messageEngine(svc), http.MethodGet, "/api/conversations/3/messages?before=40&limit=20", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"messages":[],"hasMore":true}`, string(env.Data))

	rec, _ = perform(t, messageEngine(svc), http.MethodGet, "/api/conversations/3/messages?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkConversationReadAndDelete(t *testing.T) {
	svc := new(messageServiceMock)
	svc.On("MarkRead", mock.Anything, int64(3), int64(1)).Return(int64(2), nil)
	svc.On("Delete", mock.Anything, int64(11), int64(1)).Return(apperrors.NewForbiddenError("Only the sender can delete a message"))
	r := messageEngine(svc)

	rec, env := perform(t, r, http.MethodPut, "/api/conversations/3/read", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":2}`, string(env.Data))

	rec, env = perform(t, r, http.MethodDelete, "/api/messages/11", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Only the sender can delete a message", env.Error.Message)
}

func notificationEngine(svc services.NotificationService, role models.RoleType) *gin.Engine {
	c := NewNotificationController(svc)
	r := gin.New()
	r.Use(asUser(10, role))
	r.GET("/api/notifications", c.GetNotifications)
	r.PUT("/api/notifications/read-all", c.MarkAllRead)
	r.PUT("/api/notifications/:id/read", c.MarkRead)
	r.POST("/api/notifications/announcements", c.CreateAnnouncement)
	return r
}

func TestNotificationEndpoints(t *testing.T) {
	svc := new(notificationServiceMock)
	svc.On("List", mock.Anything, int64(10), dto.ListNotificationsQuery{Page: 2, Size: 5, Unread: true}).
		Return(&dto.PaginatedResponse{Items: []interface{}{}}, nil)
	svc.On("MarkAllRead", mock.Anything, int64(10)).Return(int64(3), nil)
	svc.On("MarkRead", mock.Anything, int64(8), int64(10)).Return(apperrors.ErrNotificationNotFound)
	r := notificationEngine(svc, models.RoleStudent)

	rec, _ := perform(t, r, http.MethodGet, "/api/notifications?page=2&size=5&unread=true", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = perform(t, r, http.MethodGet, "/api/notifications?type=BOGUS", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := perform(t, r, http.MethodPut, "/api/notifications/read-all", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":3}`, string(env.Data))

	rec, _ = perform(t, r, http.MethodPut, "/api/notifications/8/read", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	svc.AssertExpectations(t)
}

func TestCreateAnnouncementPassesActor(t *testing.T) {
	svc := new(notificationServiceMock)
	actor := services.Actor{UserID: 10, Role: models.RoleInstructor}
	svc.On("Announce", mock.Anything, actor, &dto.AnnouncementRequest{CourseID: 1, Title: "Quiz", Message: "Friday"}).
		Return(&dto.AnnouncementResponse{Recipients: 12}, nil)

	rec, env := perform(t, notificationEngine(svc, models.RoleInstructor), http.MethodPost, "/api/notifications/announcements",
		`{"courseId":1,"title":"Quiz","message":"Friday"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"recipients":12}`, string(env.Data))
	svc.AssertExpectations(t)
}

func assignmentEngine(svc services.AssignmentService, id int64, role models.RoleType) *gin.Engine {
	c := NewAssignmentController(svc)
	r := gin.New()
	r.Use(asUser(id, role))
	r.POST("/api/assignments", c.CreateAssignment)
	r.GET("/api/assignments", c.GetAssignments)
	r.PUT("/api/assignments/:id/status", c.UpdateAssignmentStatus)
	r.POST("/api/assignments/:id/submissions", c.SubmitAssignment)
	r.GET("/api/assignments/:id/submissions/me", c.GetMySubmission)
	r.PUT("/api/assignments/:id/submissions/:studentId/grade", c.GradeSubmission)
	return r
}

func TestUpdateAssignmentStatus(t *testing.T) {
	svc := new(assignmentServiceMock)
	actor := services.Actor{UserID: 10, Role: models.RoleInstructor}
	svc.On("UpdateStatus", mock.Anything, actor, int64(4), models.AssignmentPublished).
		Return(&models.Assignment{ID: 4, Status: models.AssignmentPublished}, nil)
	svc.On("UpdateStatus", mock.Anything, actor, int64(5), models.AssignmentDraft).
		Return(nil, apperrors.NewCustomError(apperrors.ErrInvalidStatusTransition, "Cannot move assignment from PUBLISHED to DRAFT"))
	r := assignmentEngine(svc, 10, models.RoleInstructor)

	rec, env := perform(t, r, http.MethodPut, "/api/assignments/4/status", `{"status":"PUBLISHED"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"PUBLISHED"`, string(mustField(t, env.Data, "status")))

	rec, env = perform(t, r, http.MethodPut, "/api/assignments/5/status", `{"status":"DRAFT"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot move assignment from PUBLISHED to DRAFT", env.Error.Message)

	rec, _ = perform(t, r, http.MethodPut, "/api/assignments/4/status", `{"status":"DONE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitAndGrade(t *testing.T) {
	svc := new(assignmentServiceMock)
	student := services.Actor{UserID: 20, Role: models.RoleStudent}
	svc.On("Submit", mock.Anything, student, int64(4), mock.Anything).
		Return(&models.Submission{ID: 1, AssignmentID: 4, StudentID: 20, Status: models.SubmissionLate}, nil)

	body := `{"files":[{"url":"https://files.campuslink.dev/hw.zip","fileName":"hw.zip"}],"comment":"late, sorry"}`
	rec, env := perform(t, assignmentEngine(svc, 20, models.RoleStudent), http.MethodPost, "/api/assignments/4/submissions", body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `"LATE"`, string(mustField(t, env.Data, "status")))

	rec, _ = perform(t, assignmentEngine(svc, 20, models.RoleStudent), http.MethodPost, "/api/assignments/4/submissions", `{"files":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	instructor := services.Actor{UserID: 10, Role: models.RoleInstructor}
	svc.On("Grade", mock.Anything, instructor, int64(4), int64(20), mock.MatchedBy(func(req *dto.GradeSubmissionRequest) bool {
		return req.Grade != nil && *req.Grade == 87.5 && req.Feedback == "good"
	})).Return(&models.Submission{ID: 1, Status: models.SubmissionGraded}, nil)

	rec, _ = perform(t, assignmentEngine(svc, 10, models.RoleInstructor), http.MethodPut, "/api/assignments/4/submissions/20/grade", `{"grade":87.5,"feedback":"good"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = perform(t, assignmentEngine(svc, 10, models.RoleInstructor), http.MethodPut, "/api/assignments/4/submissions/x/grade", `{"grade":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "studentId", env.Error.Field)
	svc.AssertExpectations(t)
}

func TestGetAssignmentsBindsQuery(t *testing.T) {
	svc := new(assignmentServiceMock)
	actor := services.Actor{UserID: 20, Role: models.RoleStudent}
	svc.On("List", mock.Anything, actor, dto.ListAssignmentsQuery{CourseID: 1, Status: "PUBLISHED"}).
		Return([]*models.Assignment{{ID: 4}}, nil)

	rec, env := perform(t, assignmentEngine(svc, 20, models.RoleStudent), http.MethodGet, "/api/assignments?courseId=1&status=PUBLISHED", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var list []models.Assignment
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
	svc.AssertExpectations(t)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type fixedCount int

func (n fixedCount) ClientCount() int { return int(n) }

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/ok", NewHealthController(pingerFunc(func(context.Context) error { return nil }), fixedCount(3)).Health)
	r.GET("/down", NewHealthController(pingerFunc(func(context.Context) error { return errors.New("refused") }), fixedCount(0)).Health)

	rec, env := perform(t, r, http.MethodGet, "/ok", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"up","connections":3}`, string(env.Data))

	rec, env = perform(t, r, http.MethodGet, "/down", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, dto.ErrorCodeDatabaseError, env.Error.Code)
}

func mustField(t *testing.T, raw json.RawMessage, name string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	v, ok := fields[name]
	require.True(t, ok, "missing field %s in %s", name, string(raw))
	return v
}
