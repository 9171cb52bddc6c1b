package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/campuslink/internal/app/models/dto"
	"github.com/yigit/campuslink/internal/app/services"
	"github.com/yigit/campuslink/internal/middleware"
)

// MessageController handles chat message endpoints
type MessageController struct {
	messageService services.MessageService
}

// NewMessageController creates a new MessageController
func NewMessageController(messageService services.MessageService) *MessageController {
	return &MessageController{
		messageService: messageService,
	}
}

// SendMessage posts a message to a conversation
// @Summary Send a message
// @Description Stores the message, bumps every other participant's unread counter and pushes new-message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID" Format(int64) minimum(1)
// @Param request body dto.SendMessageRequest true "Message content and attachments"
// @Success 201 {object} dto.APIResponse{data=models.Message} "Message sent"
// @Failure 400 {object} dto.ErrorResponse "Empty message or invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Caller is not a participant"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Router /conversations/{id}/messages [post]
func (c *MessageController) SendMessage(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	conversationID, ok := parseIDParam(ctx, "id", "Conversation")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	msg, err := c.messageService.Send(ctx, conversationID, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(msg, "Message sent successfully"))
}

// GetMessages pages backwards through a conversation's history
// @Summary List messages
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID" Format(int64) minimum(1)
// @Param before query int false "Only messages with a smaller id"
// @Param limit query int false "Page size (default 50, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.MessageListResponse}
// @Failure 403 {object} dto.ErrorResponse "Caller is not a participant"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Router /conversations/{id}/messages [get]
func (c *MessageController) GetMessages(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	conversationID, ok := parseIDParam(ctx, "id", "Conversation")
	if !ok {
		return
	}

	var query dto.ListMessagesQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	page, err := c.messageService.List(ctx, conversationID, userID, query)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(page, ""))
}

// MarkConversationRead resets the caller's unread counter
// @Summary Mark a conversation read
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.CountResponse} "Number of messages marked read"
// @Failure 403 {object} dto.ErrorResponse "Caller is not a participant"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Router /conversations/{id}/read [put]
func (c *MessageController) MarkConversationRead(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	conversationID, ok := parseIDParam(ctx, "id", "Conversation")
	if !ok {
		return
	}

	marked, err := c.messageService.MarkRead(ctx, conversationID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.CountResponse{Count: marked}, "Conversation marked as read"))
}

// DeleteMessage deletes one of the caller's messages
// @Summary Delete a message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse "Message deleted"
// @Failure 403 {object} dto.ErrorResponse "Only the sender may delete a message"
// @Failure 404 {object} dto.ErrorResponse "Message not found"
// @Router /messages/{id} [delete]
func (c *MessageController) DeleteMessage(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id", "Message")
	if !ok {
		return
	}

	if err := c.messageService.Delete(ctx, id, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Message deleted successfully"))
}
