package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/campuslink/internal/app/models/dto"
	"github.com/yigit/campuslink/internal/app/services"
	"github.com/yigit/campuslink/internal/middleware"
)

// AssignmentController handles assignment and submission endpoints
type AssignmentController struct {
	assignmentService services.AssignmentService
}

// NewAssignmentController creates a new AssignmentController
func NewAssignmentController(assignmentService services.AssignmentService) *AssignmentController {
	return &AssignmentController{
		assignmentService: assignmentService,
	}
}

// CreateAssignment creates a DRAFT assignment
// @Summary Create an assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAssignmentRequest true "Assignment information"
// @Success 201 {object} dto.APIResponse{data=models.Assignment} "Assignment created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Not the course instructor"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /assignments [post]
func (c *AssignmentController) CreateAssignment(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var req dto.CreateAssignmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	assignment, err := c.assignmentService.Create(ctx, actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(assignment, "Assignment created successfully"))
}

// GetAssignments lists assignments visible to the caller
// @Summary List assignments
// @Description Students only see published assignments of courses they are enrolled in
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Param courseId query int false "Course ID"
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Success 200 {object} dto.APIResponse{data=[]models.Assignment}
// @Failure 400 {object} dto.ErrorResponse "Invalid query"
// @Router /assignments [get]
func (c *AssignmentController) GetAssignments(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var query dto.ListAssignmentsQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	assignments, err := c.assignmentService.List(ctx, actor, query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(assignments, ""))
}

// GetAssignment retrieves one assignment
// @Summary Get an assignment
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Assignment}
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Assignment not found"
// @Router /assignments/{id} [get]
func (c *AssignmentController) GetAssignment(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Assignment")
	if !ok {
		return
	}

	assignment, err := c.assignmentService.Get(ctx, actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(assignment, ""))
}

// UpdateAssignment edits an assignment that is not archived
// @Summary Update an assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID" Format(int64) minimum(1)
// @Param request body dto.UpdateAssignmentRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.Assignment}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data or archived assignment"
// @Failure 403 {object} dto.ErrorResponse "Not the course instructor"
// @Failure 404 {object} dto.ErrorResponse "Assignment not found"
// @Router /assignments/{id} [put]
func (c *AssignmentController) UpdateAssignment(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Assignment")
	if !ok {
		return
	}

	var req dto.UpdateAssignmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	assignment, err := c.assignmentService.Update(ctx, actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(assignment, "Assignment updated successfully"))
}

// DeleteAssignment deletes a DRAFT assignment
// @Summary Delete an assignment
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Only drafts can be deleted"
// @Failure 403 {object} dto.ErrorResponse "Not the course instructor"
// @Failure 404 {object} dto.ErrorResponse "Assignment not found"
// @Router /assignments/{id} [delete]
func (c *AssignmentController) DeleteAssignment(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Assignment")
	if !ok {
		return
	}

	if err := c.assignmentService.Delete(ctx, actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Assignment deleted successfully"))
}

// UpdateAssignmentStatus moves an assignment through DRAFT, PUBLISHED and ARCHIVED
// @Summary Change assignment status
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID" Format(int64) minimum(1)
// @Param request body dto.UpdateAssignmentStatusRequest true "Target status"
// @Success 200 {object} dto.APIResponse{data=models.Assignment}
// @Failure 400 {object} dto.ErrorResponse "Invalid status transition"
// @Failure 403 {object} dto.ErrorResponse "Not the course instructor"
// @Failure 404 {object} dto.ErrorResponse "Assignment not found"
// @Router /assignments/{id}/status [put]
func (c *AssignmentController) UpdateAssignmentStatus(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Assignment")
	if !ok {
		return
	}

	var req dto.UpdateAssignmentStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	assignment, err := c.assignmentService.UpdateStatus(ctx, actor, id, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(assignment, "Assignment status updated"))
}

// SubmitAssignment stores or replaces the caller's submission
// @Summary Submit an assignment
// @Description Submissions after the due date are stored as LATE
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID" Format(int64) minimum(1)
// @Param request body dto.SubmitAssignmentRequest true "Submitted files"
// @Success 201 {object} dto.APIResponse{data=models.Submission}
// @Failure 400 {object} dto.ErrorResponse "Not published, not enrolled or already graded"
// @Failure 403 {object} dto.ErrorResponse "Only students can submit"
// @Failure 404 {object} dto.ErrorResponse "Assignment not found"
// @Router /assignments/{id}/submissions [post]
func (c *AssignmentController) SubmitAssignment(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Assignment")
	if !ok {
		return
	}

	var req dto.SubmitAssignmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	submission, err := c.assignmentService.Submit(ctx, actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(submission, "Assignment submitted successfully"))
}

// GetSubmissions lists every submission of an assignment
// @Summary List submissions
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=[]models.Submission}
// @Failure 403 {object} dto.ErrorResponse "Not the course instructor"
// @Failure 404 {object} dto.ErrorResponse "Assignment not found"
// @Router /assignments/{id}/submissions [get]
func (c *AssignmentController) GetSubmissions(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Assignment")
	if !ok {
		return
	}

	submissions, err := c.assignmentService.ListSubmissions(ctx, actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(submissions, ""))
}

// GetMySubmission returns the caller's own submission
// @Summary Get my submission
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Submission}
// @Failure 403 {object} dto.ErrorResponse "Only students have submissions"
// @Failure 404 {object} dto.ErrorResponse "Submission not found"
// @Router /assignments/{id}/submissions/me [get]
func (c *AssignmentController) GetMySubmission(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Assignment")
	if !ok {
		return
	}

	submission, err := c.assignmentService.MySubmission(ctx, actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(submission, ""))
}

// GradeSubmission grades a student's submission
// @Summary Grade a submission
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID" Format(int64) minimum(1)
// @Param studentId path int true "Student ID" Format(int64) minimum(1)
// @Param request body dto.GradeSubmissionRequest true "Grade and feedback"
// @Success 200 {object} dto.APIResponse{data=models.Submission}
// @Failure 400 {object} dto.ErrorResponse "Grade out of range"
// @Failure 403 {object} dto.ErrorResponse "Not the course instructor"
// @Failure 404 {object} dto.ErrorResponse "Submission not found"
// @Router /assignments/{id}/submissions/{studentId}/grade [put]
func (c *AssignmentController) GradeSubmission(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Assignment")
	if !ok {
		return
	}
	studentID, ok := parseIDParam(ctx, "studentId", "Student")
	if !ok {
		return
	}

	var req dto.GradeSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	submission, err := c.assignmentService.Grade(ctx, actor, id, studentID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(submission, "Submission graded successfully"))
}
