package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/campuslink/internal/app/models/dto"
	"github.com/yigit/campuslink/internal/app/services"
	"github.com/yigit/campuslink/internal/middleware"
)

// ConversationController handles conversation endpoints
type ConversationController struct {
	conversationService services.ConversationService
}

// NewConversationController creates a new ConversationController
func NewConversationController(conversationService services.ConversationService) *ConversationController {
	return &ConversationController{
		conversationService: conversationService,
	}
}

// CreateConversation starts a direct or group conversation
// @Summary Create a conversation
// @Description Creates a group conversation, or returns the existing direct conversation between the same two users
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateConversationRequest true "Participants and optional title"
// @Success 201 {object} dto.APIResponse{data=dto.ConversationResponse} "Conversation created"
// @Success 200 {object} dto.APIResponse{data=dto.ConversationResponse} "Existing direct conversation"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /conversations [post]
func (c *ConversationController) CreateConversation(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreateConversationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	conv, created, err := c.conversationService.Create(ctx, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if created {
		ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(conv, "Conversation created successfully"))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(conv, "Conversation already exists"))
}

// GetConversations lists the caller's conversations
// @Summary List conversations
// @Description Lists the caller's conversations, most recently active first, with the caller's unread counter
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.ConversationResponse} "Conversations retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /conversations [get]
func (c *ConversationController) GetConversations(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	convs, err := c.conversationService.List(ctx, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(convs, ""))
}

// GetConversation retrieves one conversation
// @Summary Get a conversation
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.ConversationResponse} "Conversation retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid conversation ID format"
// @Failure 403 {object} dto.ErrorResponse "Caller is not a participant"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Router /conversations/{id} [get]
func (c *ConversationController) GetConversation(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Conversation")
	if !ok {
		return
	}

	conv, err := c.conversationService.Get(ctx, id, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(conv, ""))
}

// UpdateConversation renames a group conversation
// @Summary Rename a group conversation
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID" Format(int64) minimum(1)
// @Param request body dto.UpdateConversationRequest true "New title"
// @Success 200 {object} dto.APIResponse{data=dto.ConversationResponse} "Conversation updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data or not a group conversation"
// @Failure 403 {object} dto.ErrorResponse "Caller is not a participant"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Router /conversations/{id} [put]
func (c *ConversationController) UpdateConversation(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Conversation")
	if !ok {
		return
	}

	var req dto.UpdateConversationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	conv, err := c.conversationService.UpdateTitle(ctx, id, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(conv, "Conversation updated successfully"))
}

// AddParticipants adds users to a group conversation
// @Summary Add participants
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID" Format(int64) minimum(1)
// @Param request body dto.AddParticipantsRequest true "Users to add"
// @Success 200 {object} dto.APIResponse{data=dto.ConversationResponse} "Participants added"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data or not a group conversation"
// @Failure 403 {object} dto.ErrorResponse "Caller is not a participant"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Router /conversations/{id}/participants [post]
func (c *ConversationController) AddParticipants(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Conversation")
	if !ok {
		return
	}

	var req dto.AddParticipantsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	conv, err := c.conversationService.AddParticipants(ctx, id, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(conv, "Participants added successfully"))
}

// RemoveParticipant removes a user from a group conversation
// @Summary Remove a participant
// @Description The creator may remove anyone; every participant may remove themselves
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID" Format(int64) minimum(1)
// @Param userId path int true "User ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.ConversationResponse} "Participant removed"
// @Failure 400 {object} dto.ErrorResponse "Not a group conversation"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Conversation or participant not found"
// @Router /conversations/{id}/participants/{userId} [delete]
func (c *ConversationController) RemoveParticipant(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Conversation")
	if !ok {
		return
	}
	targetID, ok := parseIDParam(ctx, "userId", "User")
	if !ok {
		return
	}

	conv, err := c.conversationService.RemoveParticipant(ctx, id, userID, targetID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(conv, "Participant removed successfully"))
}

// GetUnreadCount sums the caller's unread counters
// @Summary Total unread messages
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.CountResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Router /conversations/unread-count [get]
func (c *ConversationController) GetUnreadCount(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	count, err := c.conversationService.UnreadCount(ctx, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.CountResponse{Count: count}, ""))
}
