package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/campuslink/internal/app/auth"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/app/models/dto"
	"github.com/yigit/campuslink/internal/app/repositories"
	"github.com/yigit/campuslink/internal/pkg/apperrors"
)

const referenceAssignment = "assignment"

// AssignmentService defines the interface for assignment and grading operations
type AssignmentService interface {
	Create(ctx context.Context, actor Actor, req *dto.CreateAssignmentRequest) (*models.Assignment, error)
	List(ctx context.Context, actor Actor, query dto.ListAssignmentsQuery) ([]*models.Assignment, error)
	Get(ctx context.Context, actor Actor, id int64) (*models.Assignment, error)
	Update(ctx context.Context, actor Actor, id int64, req *dto.UpdateAssignmentRequest) (*models.Assignment, error)
	Delete(ctx context.Context, actor Actor, id int64) error
	UpdateStatus(ctx context.Context, actor Actor, id int64, status models.AssignmentStatus) (*models.Assignment, error)

	Submit(ctx context.Context, actor Actor, id int64, req *dto.SubmitAssignmentRequest) (*models.Submission, error)
	ListSubmissions(ctx context.Context, actor Actor, id int64) ([]*models.Submission, error)
	MySubmission(ctx context.Context, actor Actor, id int64) (*models.Submission, error)
	Grade(ctx context.Context, actor Actor, id, studentID int64, req *dto.GradeSubmissionRequest) (*models.Submission, error)
}

type assignmentServiceImpl struct {
	assignmentRepo repositories.AssignmentStore
	courseRepo     repositories.CourseStore
	authzService   *auth.AuthorizationService
	notifications  NotificationService
	now            func() time.Time
	logger         zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	assignmentRepo repositories.AssignmentStore,
	courseRepo repositories.CourseStore,
	authzService *auth.AuthorizationService,
	notifications NotificationService,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentServiceImpl{
		assignmentRepo: assignmentRepo,
		courseRepo:     courseRepo,
		authzService:   authzService,
		notifications:  notifications,
		now:            time.Now,
		logger:         logger,
	}
}

func validatePoints(points int) bool {
	return points >= models.AssignmentMinPoints && points <= models.AssignmentMaxPoints
}

func (s *assignmentServiceImpl) Create(ctx context.Context, actor Actor, req *dto.CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.authzService.ValidateCourseStaff(ctx, req.CourseID, actor.UserID, actor.Role); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		fields["title"] = "title is required"
	} else if len([]rune(title)) > models.AssignmentTitleMaxLength {
		fields["title"] = fmt.Sprintf("title must be at most %d characters", models.AssignmentTitleMaxLength)
	}
	if !req.DueDate.After(s.now()) {
		fields["dueDate"] = "due date must be in the future"
	}
	if !validatePoints(req.TotalPoints) {
		fields["totalPoints"] = fmt.Sprintf("total points must be between %d and %d", models.AssignmentMinPoints, models.AssignmentMaxPoints)
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("Invalid assignment", fields)
	}

	a := &models.Assignment{
		CourseID:    req.CourseID,
		Title:       title,
		Description: req.Description,
		DueDate:     req.DueDate,
		TotalPoints: req.TotalPoints,
		Status:      models.AssignmentDraft,
		CreatedBy:   actor.UserID,
	}
	if err := s.assignmentRepo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("assignmentID", a.ID).Int64("courseID", a.CourseID).Msg("Assignment created")
	return a, nil
}

func (s *assignmentServiceImpl) List(ctx context.Context, actor Actor, query dto.ListAssignmentsQuery) ([]*models.Assignment, error) {
	var filter repositories.AssignmentFilter
	if query.CourseID > 0 {
		filter.CourseID = &query.CourseID
	}
	if query.Status != "" {
		status := models.AssignmentStatus(query.Status)
		filter.Status = &status
	}

	// students only ever see published work of their own courses
	if actor.Role == models.RoleStudent {
		published := models.AssignmentPublished
		if filter.Status != nil && *filter.Status != published {
			return []*models.Assignment{}, nil
		}
		filter.Status = &published
		filter.EnrolledStudentID = &actor.UserID
	}

	items, err := s.assignmentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing assignments: %w", err)
	}
	return items, nil
}

func (s *assignmentServiceImpl) Get(ctx context.Context, actor Actor, id int64) (*models.Assignment, error) {
	a, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleStudent {
		if a.Status != models.AssignmentPublished {
			return nil, apperrors.ErrAssignmentNotFound
		}
		if err := s.authzService.ValidateEnrolledStudent(ctx, a.CourseID, actor.UserID, actor.Role); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// loadManaged returns the assignment when the actor can manage its course
func (s *assignmentServiceImpl) loadManaged(ctx context.Context, actor Actor, id int64) (*models.Assignment, error) {
	a, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authzService.ValidateCourseStaff(ctx, a.CourseID, actor.UserID, actor.Role); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *assignmentServiceImpl) Update(ctx context.Context, actor Actor, id int64, req *dto.UpdateAssignmentRequest) (*models.Assignment, error) {
	a, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if a.Status == models.AssignmentArchived {
		return nil, apperrors.NewBadRequestError("archived assignments cannot be edited")
	}

	fields := map[string]string{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || len([]rune(title)) > models.AssignmentTitleMaxLength {
			fields["title"] = fmt.Sprintf("title must be 1 to %d characters", models.AssignmentTitleMaxLength)
		}
		a.Title = title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.DueDate != nil {
		if !req.DueDate.After(s.now()) {
			fields["dueDate"] = "due date must be in the future"
		}
		a.DueDate = *req.DueDate
	}
	if req.TotalPoints != nil {
		if !validatePoints(*req.TotalPoints) {
			fields["totalPoints"] = fmt.Sprintf("total points must be between %d and %d", models.AssignmentMinPoints, models.AssignmentMaxPoints)
		}
		a.TotalPoints = *req.TotalPoints
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("Invalid assignment", fields)
	}

	if err := s.assignmentRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *assignmentServiceImpl) Delete(ctx context.Context, actor Actor, id int64) error {
	a, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return err
	}
	if a.Status != models.AssignmentDraft {
		return apperrors.NewBadRequestError("only draft assignments can be deleted")
	}
	return s.assignmentRepo.Delete(ctx, id)
}

func (s *assignmentServiceImpl) UpdateStatus(ctx context.Context, actor Actor, id int64, status models.AssignmentStatus) (*models.Assignment, error) {
	a, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransitionTo(status) {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidStatusTransition,
			fmt.Sprintf("cannot move assignment from %s to %s", a.Status, status))
	}

	if err := s.assignmentRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	a.Status = status

	s.logger.Info().Int64("assignmentID", id).Str("status", string(status)).Msg("Assignment status changed")

	if status == models.AssignmentPublished {
		s.notifyPublished(ctx, actor, a)
	}
	return a, nil
}

func (s *assignmentServiceImpl) notifyPublished(ctx context.Context, actor Actor, a *models.Assignment) {
	students, err := s.courseRepo.ActiveStudentIDs(ctx, a.CourseID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("assignmentID", a.ID).Msg("Failed to load students for publish notification")
		return
	}

	assignmentID := a.ID
	s.notifications.Notify(ctx, NotificationInput{
		RecipientIDs:  students,
		SenderID:      &actor.UserID,
		Type:          models.NotificationAssignmentPublished,
		Title:         "New assignment: " + a.Title,
		Message:       fmt.Sprintf("Due %s", a.DueDate.UTC().Format(time.RFC1123)),
		ReferenceType: referenceAssignment,
		ReferenceID:   &assignmentID,
	})
}

func (s *assignmentServiceImpl) Submit(ctx context.Context, actor Actor, id int64, req *dto.SubmitAssignmentRequest) (*models.Submission, error) {
	a, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authzService.ValidateEnrolledStudent(ctx, a.CourseID, actor.UserID, actor.Role); err != nil {
		return nil, err
	}
	if a.Status != models.AssignmentPublished {
		return nil, apperrors.NewBadRequestError("assignment is not open for submissions")
	}
	if len(req.Files) == 0 {
		return nil, apperrors.NewValidationError("Invalid submission", map[string]string{"files": "at least one file is required"})
	}

	now := s.now()
	sub := &models.Submission{
		AssignmentID: id,
		StudentID:    actor.UserID,
		Files:        req.Files,
		Comment:      req.Comment,
		Status:       models.SubmissionSubmitted,
		SubmittedAt:  now,
	}
	if a.IsPastDue(now) {
		sub.Status = models.SubmissionLate
	}

	if err := s.assignmentRepo.UpsertSubmission(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("assignmentID", id).
		Int64("studentID", actor.UserID).
		Str("status", string(sub.Status)).
		Msg("Submission stored")

	s.notifySubmitted(ctx, actor, a, sub)
	return sub, nil
}

func (s *assignmentServiceImpl) notifySubmitted(ctx context.Context, actor Actor, a *models.Assignment, sub *models.Submission) {
	recipients := []int64{a.CreatedBy}
	if course, err := s.courseRepo.GetByID(ctx, a.CourseID); err == nil && course.InstructorID != nil {
		recipients = append([]int64{*course.InstructorID}, recipients...)
	}

	message := "A student submitted their work"
	if sub.Status == models.SubmissionLate {
		message = "A student submitted their work after the due date"
	}

	assignmentID := a.ID
	s.notifications.Notify(ctx, NotificationInput{
		RecipientIDs:  recipients,
		SenderID:      &actor.UserID,
		Type:          models.NotificationAssignmentSubmitted,
		Title:         "New submission: " + a.Title,
		Message:       message,
		ReferenceType: referenceAssignment,
		ReferenceID:   &assignmentID,
	})
}

func (s *assignmentServiceImpl) ListSubmissions(ctx context.Context, actor Actor, id int64) ([]*models.Submission, error) {
	if _, err := s.loadManaged(ctx, actor, id); err != nil {
		return nil, err
	}
	items, err := s.assignmentRepo.ListSubmissions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error listing submissions: %w", err)
	}
	return items, nil
}

func (s *assignmentServiceImpl) MySubmission(ctx context.Context, actor Actor, id int64) (*models.Submission, error) {
	if actor.Role != models.RoleStudent {
		return nil, auth.ErrNotStudent
	}
	if _, err := s.assignmentRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.assignmentRepo.GetSubmission(ctx, id, actor.UserID)
}

func (s *assignmentServiceImpl) Grade(ctx context.Context, actor Actor, id, studentID int64, req *dto.GradeSubmissionRequest) (*models.Submission, error) {
	a, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Grade == nil || *req.Grade < 0 || *req.Grade > float64(a.TotalPoints) {
		return nil, apperrors.NewValidationError("Invalid grade", map[string]string{
			"grade": fmt.Sprintf("grade must be between 0 and %d", a.TotalPoints),
		})
	}

	sub, err := s.assignmentRepo.GetSubmission(ctx, id, studentID)
	if err != nil {
		return nil, err
	}

	sub.Grade = req.Grade
	if feedback := strings.TrimSpace(req.Feedback); feedback != "" {
		sub.Feedback = &feedback
	} else {
		sub.Feedback = nil
	}
	sub.GradedBy = &actor.UserID

	if err := s.assignmentRepo.GradeSubmission(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("assignmentID", id).Int64("studentID", studentID).Float64("grade", *sub.Grade).Msg("Submission graded")

	assignmentID := a.ID
	s.notifications.Notify(ctx, NotificationInput{
		RecipientIDs:  []int64{studentID},
		SenderID:      &actor.UserID,
		Type:          models.NotificationAssignmentGraded,
		Title:         "Graded: " + a.Title,
		Message:       fmt.Sprintf("You received %g out of %d", *sub.Grade, a.TotalPoints),
		ReferenceType: referenceAssignment,
		ReferenceID:   &assignmentID,
	})
	return sub, nil
}
