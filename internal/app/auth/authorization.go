package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/app/repositories"
	"github.com/yigit/campuslink/internal/pkg/apperrors"
	"github.com/yigit/campuslink/internal/pkg/logger"
)

// Common errors specific to authorization
var (
	ErrNotCourseStaff = apperrors.NewForbiddenError("only the course instructor or an administrator can perform this action")
	ErrNotStudent     = apperrors.NewForbiddenError("only students can perform this action")
)

// AuthorizationService answers course-level permission questions
type AuthorizationService struct {
	courses repositories.CourseStore
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(courses repositories.CourseStore) *AuthorizationService {
	return &AuthorizationService{courses: courses}
}

// CanManageCourse checks if the user teaches the course or is an administrator
func (s *AuthorizationService) CanManageCourse(ctx context.Context, courseID, userID int64, role models.RoleType) (bool, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCourseNotFound) {
			return false, err
		}
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error getting course in CanManageCourse")
		return false, fmt.Errorf("failed to get course: %w", err)
	}

	if role == models.RoleAdmin {
		return true, nil
	}
	return role == models.RoleInstructor && course.IsTaughtBy(userID), nil
}

// ValidateCourseStaff returns ErrNotCourseStaff when the user cannot manage the course
func (s *AuthorizationService) ValidateCourseStaff(ctx context.Context, courseID, userID int64, role models.RoleType) error {
	ok, err := s.CanManageCourse(ctx, courseID, userID, role)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotCourseStaff
	}
	return nil
}

// ValidateEnrolledStudent checks the user is a student actively enrolled in the course
func (s *AuthorizationService) ValidateEnrolledStudent(ctx context.Context, courseID, userID int64, role models.RoleType) error {
	if role != models.RoleStudent {
		return ErrNotStudent
	}

	enrolled, err := s.courses.IsStudentEnrolled(ctx, courseID, userID)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Int64("userID", userID).Msg("Error checking enrollment")
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return apperrors.ErrNotEnrolled
	}
	return nil
}
