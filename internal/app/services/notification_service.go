package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/campuslink/internal/app/auth"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/app/models/dto"
	"github.com/yigit/campuslink/internal/app/repositories"
	"github.com/yigit/campuslink/internal/pkg/helpers"
	"github.com/yigit/campuslink/internal/pkg/metrics"
	"github.com/yigit/campuslink/internal/pkg/realtime"
)

// NotificationInput describes one notification fanned out to several recipients
type NotificationInput struct {
	RecipientIDs  []int64
	SenderID      *int64
	Type          models.NotificationType
	Title         string
	Message       string
	ReferenceType string
	ReferenceID   *int64
}

// NotificationService defines the interface for notification operations
type NotificationService interface {
	// Notify stores and pushes one notification per recipient. A failing recipient is
	// logged and skipped; the number of stored notifications is returned.
	Notify(ctx context.Context, input NotificationInput) int
	List(ctx context.Context, userID int64, query dto.ListNotificationsQuery) (*dto.PaginatedResponse, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id, userID int64) error
	Announce(ctx context.Context, actor Actor, req *dto.AnnouncementRequest) (*dto.AnnouncementResponse, error)
}

type notificationServiceImpl struct {
	notificationRepo repositories.NotificationStore
	courseRepo       repositories.CourseStore
	authzService     *auth.AuthorizationService
	events           EventPublisher
	logger           zerolog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo repositories.NotificationStore,
	courseRepo repositories.CourseStore,
	authzService *auth.AuthorizationService,
	events EventPublisher,
	logger zerolog.Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		courseRepo:       courseRepo,
		authzService:     authzService,
		events:           events,
		logger:           logger,
	}
}

func (s *notificationServiceImpl) Notify(ctx context.Context, input NotificationInput) int {
	var refType *string
	if input.ReferenceType != "" {
		refType = &input.ReferenceType
	}

	stored := 0
	for _, recipientID := range models.UniqueParticipants(input.RecipientIDs...) {
		n := &models.Notification{
			RecipientID:   recipientID,
			SenderID:      input.SenderID,
			Type:          input.Type,
			Title:         input.Title,
			Message:       input.Message,
			ReferenceType: refType,
			ReferenceID:   input.ReferenceID,
		}

		if err := s.notificationRepo.Create(ctx, n); err != nil {
			metrics.NotificationsDispatched.WithLabelValues(string(input.Type), "failed").Inc()
			s.logger.Warn().
				Err(err).
				Int64("recipientID", recipientID).
				Str("type", string(input.Type)).
				Msg("Failed to store notification, skipping recipient")
			continue
		}
		stored++
		metrics.NotificationsDispatched.WithLabelValues(string(input.Type), "stored").Inc()

		if err := s.events.EmitToUser(ctx, recipientID, realtime.EventNotification, n); err != nil {
			s.logger.Warn().
				Err(err).
				Int64("recipientID", recipientID).
				Int64("notificationID", n.ID).
				Msg("Failed to push notification")
		}
	}

	return stored
}

func (s *notificationServiceImpl) List(ctx context.Context, userID int64, query dto.ListNotificationsQuery) (*dto.PaginatedResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(query.Page, query.Size)

	items, total, err := s.notificationRepo.List(ctx, userID, repositories.NotificationFilter{
		UnreadOnly: query.Unread,
		Type:       models.NotificationType(query.Type),
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to list notifications")
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}

	return &dto.PaginatedResponse{
		Items:      items,
		Pagination: helpers.NewPaginationInfo(total, query.Page, int(limit)),
	}, nil
}

func (s *notificationServiceImpl) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error counting unread notifications: %w", err)
	}
	return count, nil
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, id, userID int64) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	updated, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	return updated, nil
}

func (s *notificationServiceImpl) Delete(ctx context.Context, id, userID int64) error {
	return s.notificationRepo.Delete(ctx, id, userID)
}

func (s *notificationServiceImpl) Announce(ctx context.Context, actor Actor, req *dto.AnnouncementRequest) (*dto.AnnouncementResponse, error) {
	if err := s.authzService.ValidateCourseStaff(ctx, req.CourseID, actor.UserID, actor.Role); err != nil {
		return nil, err
	}

	students, err := s.courseRepo.ActiveStudentIDs(ctx, req.CourseID)
	if err != nil {
		s.logger.Error().Err(err).Int64("courseID", req.CourseID).Msg("Failed to load enrolled students")
		return nil, fmt.Errorf("error loading enrolled students: %w", err)
	}

	courseID := req.CourseID
	sent := s.Notify(ctx, NotificationInput{
		RecipientIDs:  students,
		SenderID:      &actor.UserID,
		Type:          models.NotificationAnnouncement,
		Title:         req.Title,
		Message:       req.Message,
		ReferenceType: "course",
		ReferenceID:   &courseID,
	})

	s.logger.Info().
		Int64("courseID", req.CourseID).
		Int64("senderID", actor.UserID).
		Int("recipients", sent).
		Msg("Announcement sent")

	return &dto.AnnouncementResponse{Recipients: sent}, nil
}
