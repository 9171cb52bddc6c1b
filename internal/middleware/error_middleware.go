package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/campuslink/internal/app/models/dto"
	"github.com/yigit/campuslink/internal/pkg/apperrors"
	"github.com/yigit/campuslink/internal/pkg/logger"
)

type errorMapping struct {
	status  int
	code    dto.ErrorCode
	targets []error
}

// Checked in order; the first match wins
var errorMappings = []errorMapping{
	{http.StatusBadRequest, dto.ErrorCodeValidationFailed, []error{apperrors.ErrValidationFailed}},
	{http.StatusNotFound, dto.ErrorCodeResourceNotFound, []error{
		apperrors.ErrResourceNotFound,
		apperrors.ErrConversationNotFound,
		apperrors.ErrMessageNotFound,
		apperrors.ErrNotificationNotFound,
		apperrors.ErrUserNotFound,
		apperrors.ErrCourseNotFound,
		apperrors.ErrAssignmentNotFound,
		apperrors.ErrSubmissionNotFound,
	}},
	{http.StatusForbidden, dto.ErrorCodeForbidden, []error{apperrors.ErrPermissionDenied, apperrors.ErrNotParticipant}},
	{http.StatusBadRequest, dto.ErrorCodeBadRequest, []error{
		apperrors.ErrBadRequest,
		apperrors.ErrEmptyMessage,
		apperrors.ErrNotGroupConversation,
		apperrors.ErrInvalidStatusTransition,
		apperrors.ErrSubmissionGraded,
		apperrors.ErrNotEnrolled,
	}},
	{http.StatusConflict, dto.ErrorCodeConflict, []error{apperrors.ErrConflict, apperrors.ErrResourceAlreadyExists}},
	{http.StatusUnauthorized, dto.ErrorCodeExpiredToken, []error{apperrors.ErrTokenExpired}},
	{http.StatusUnauthorized, dto.ErrorCodeInvalidToken, []error{apperrors.ErrTokenInvalid}},
	{http.StatusUnauthorized, dto.ErrorCodeUnauthorized, []error{apperrors.ErrUnauthorized}},
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !apperrors.Is(err, m.targets[0], m.targets[1:]...) {
			continue
		}

		detail := dto.NewErrorDetail(m.code, clientMessage(err))
		var ce *apperrors.CustomError
		if errors.As(err, &ce) && len(ce.Details) > 0 {
			detail = detail.WithFields(stringFields(ce.Details))
		}
		c.JSON(m.status, dto.NewErrorResponse(detail))
		return
	}

	logger.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("Unhandled error")

	detail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
		WithSeverity(dto.ErrorSeverityCritical)
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(detail))
}

// HandleBindingError answers 400 for a request that failed binding or validation
func HandleBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
}

// clientMessage prefers the message of a CustomError over the sentinel text
func clientMessage(err error) string {
	var ce *apperrors.CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return err.Error()
}

func stringFields(details map[string]interface{}) map[string]string {
	out := make(map[string]string, len(details))
	for k, v := range details {
		out[k] = fmt.Sprint(v)
	}
	return out
}
