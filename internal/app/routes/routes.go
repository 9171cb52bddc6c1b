package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yigit/campuslink/internal/app/controllers"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/middleware"
	"github.com/yigit/campuslink/internal/pkg/realtime"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Conversation *controllers.ConversationController
	Message      *controllers.MessageController
	Notification *controllers.NotificationController
	Assignment   *controllers.AssignmentController
	Health       *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	ctrls Controllers,
	authMiddleware *middleware.AuthMiddleware,
	socketHandler *realtime.Handler,
) {
	// Socket upgrade; authentication happens with the first event
	router.GET("/ws", socketHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", ctrls.Health.Health)

	// --- Authenticated Routes Group ---
	authenticated := api.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	conversations := authenticated.Group("/conversations")
	{
		conversations.POST("", ctrls.Conversation.CreateConversation)
		conversations.GET("", ctrls.Conversation.GetConversations)
		// Registered before /:id so it is not read as an id
		conversations.GET("/unread-count", ctrls.Conversation.GetUnreadCount)
		conversations.GET("/:id", ctrls.Conversation.GetConversation)
		conversations.PUT("/:id", ctrls.Conversation.UpdateConversation)
		conversations.POST("/:id/participants", ctrls.Conversation.AddParticipants)
		conversations.DELETE("/:id/participants/:userId", ctrls.Conversation.RemoveParticipant)

		conversations.POST("/:id/messages", ctrls.Message.SendMessage)
		conversations.GET("/:id/messages", ctrls.Message.GetMessages)
		conversations.PUT("/:id/read", ctrls.Message.MarkConversationRead)
	}

	authenticated.DELETE("/messages/:id", ctrls.Message.DeleteMessage)

	notifications := authenticated.Group("/notifications")
	{
		notifications.GET("", ctrls.Notification.GetNotifications)
		notifications.GET("/unread-count", ctrls.Notification.GetUnreadCount)
		notifications.PUT("/read-all", ctrls.Notification.MarkAllRead)
		notifications.PUT("/:id/read", ctrls.Notification.MarkRead)
		notifications.DELETE("/:id", ctrls.Notification.DeleteNotification)

		notificationsStaff := notifications.Group("")
		notificationsStaff.Use(authMiddleware.RoleRequired(models.RoleInstructor, models.RoleAdmin))
		{
			notificationsStaff.POST("/announcements", ctrls.Notification.CreateAnnouncement)
		}
	}

	assignments := authenticated.Group("/assignments")
	{
		assignments.GET("", ctrls.Assignment.GetAssignments)
		assignments.GET("/:id", ctrls.Assignment.GetAssignment)
		assignments.GET("/:id/submissions/me", ctrls.Assignment.GetMySubmission)

		// Students only
		assignmentsStudent := assignments.Group("")
		assignmentsStudent.Use(authMiddleware.RoleRequired(models.RoleStudent))
		{
			assignmentsStudent.POST("/:id/submissions", ctrls.Assignment.SubmitAssignment)
		}

		// Instructor-only routes; course ownership is checked by the service
		assignmentsStaff := assignments.Group("")
		assignmentsStaff.Use(authMiddleware.RoleRequired(models.RoleInstructor, models.RoleAdmin))
		{
			assignmentsStaff.POST("", ctrls.Assignment.CreateAssignment)
			assignmentsStaff.PUT("/:id", ctrls.Assignment.UpdateAssignment)
			assignmentsStaff.DELETE("/:id", ctrls.Assignment.DeleteAssignment)
			assignmentsStaff.PUT("/:id/status", ctrls.Assignment.UpdateAssignmentStatus)
			assignmentsStaff.GET("/:id/submissions", ctrls.Assignment.GetSubmissions)
			assignmentsStaff.PUT("/:id/submissions/:studentId/grade", ctrls.Assignment.GradeSubmission)
		}
	}
}
