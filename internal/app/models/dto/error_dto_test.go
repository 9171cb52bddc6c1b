package dto

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	CourseID int64  `validate:"required"`
	Title    string `validate:"max=3"`
	Status   string `validate:"oneof=DRAFT PUBLISHED"`
}

func TestHandleValidationErrorBuildsFieldMap(t *testing.T) {
	err := validator.New().Struct(sample{Title: "too long", Status: "OPEN"})
	require.Error(t, err)

	detail := HandleValidationError(err)

	assert.Equal(t, ErrorCodeValidationFailed, detail.Code)
	assert.Equal(t, "courseID is required", detail.Fields["courseID"])
	assert.Equal(t, "title must be at most 3", detail.Fields["title"])
	assert.Equal(t, "status must be one of: DRAFT PUBLISHED", detail.Fields["status"])
}

func TestHandleValidationErrorNonValidator(t *testing.T) {
	detail := HandleValidationError(errors.New("unexpected EOF"))

	assert.Equal(t, ErrorCodeBadRequest, detail.Code)
	assert.Nil(t, detail.Fields)
	assert.Equal(t, "unexpected EOF", detail.Details)
}

func TestNewErrorResponseCopiesMessage(t *testing.T) {
	resp := NewErrorResponse(NewErrorDetail(ErrorCodeResourceNotFound, "Conversation not found"))

	assert.False(t, resp.Success)
	assert.Equal(t, "Conversation not found", resp.Message)
	assert.Equal(t, ErrorSeverityError, resp.Error.Severity)
}
