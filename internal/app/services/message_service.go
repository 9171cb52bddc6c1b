package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/app/models/dto"
	"github.com/yigit/campuslink/internal/app/repositories"
	"github.com/yigit/campuslink/internal/pkg/apperrors"
	"github.com/yigit/campuslink/internal/pkg/helpers"
	"github.com/yigit/campuslink/internal/pkg/metrics"
	"github.com/yigit/campuslink/internal/pkg/realtime"
)

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 100

	// Length of the message preview carried by MESSAGE notifications
	notificationPreviewLength = 100
)

// MessageService defines the interface for chat message operations
type MessageService interface {
	Send(ctx context.Context, conversationID, senderID int64, req *dto.SendMessageRequest) (*models.Message, error)
	List(ctx context.Context, conversationID, userID int64, query dto.ListMessagesQuery) (*dto.MessageListResponse, error)
	MarkRead(ctx context.Context, conversationID, userID int64) (int64, error)
	Delete(ctx context.Context, messageID, userID int64) error
}

type messagesReadPayload struct {
	ConversationID int64 `json:"conversationId"`
	UserID         int64 `json:"userId"`
}

type messageDeletedPayload struct {
	ConversationID int64 `json:"conversationId"`
	MessageID      int64 `json:"messageId"`
}

type messageServiceImpl struct {
	messageRepo      repositories.MessageStore
	conversationRepo repositories.ConversationStore
	userRepo         repositories.UserStore
	notifications    NotificationService
	events           EventPublisher
	logger           zerolog.Logger
}

// NewMessageService creates a new MessageService
func NewMessageService(
	messageRepo repositories.MessageStore,
	conversationRepo repositories.ConversationStore,
	userRepo repositories.UserStore,
	notifications NotificationService,
	events EventPublisher,
	logger zerolog.Logger,
) MessageService {
	return &messageServiceImpl{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		notifications:    notifications,
		events:           events,
		logger:           logger,
	}
}

func (s *messageServiceImpl) Send(ctx context.Context, conversationID, senderID int64, req *dto.SendMessageRequest) (*models.Message, error) {
	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        strings.TrimSpace(req.Content),
		Attachments:    req.Attachments,
	}
	if msg.Attachments == nil {
		msg.Attachments = []models.Attachment{}
	}
	if msg.IsEmpty() {
		return nil, apperrors.ErrEmptyMessage
	}

	conv, err := s.messageRepo.CreateWithCounters(ctx, msg)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConversationNotFound, apperrors.ErrNotParticipant) {
			return nil, err
		}
		return nil, fmt.Errorf("error sending message: %w", err)
	}
	metrics.MessagesSent.Inc()

	s.logger.Debug().
		Int64("conversationID", conversationID).
		Int64("messageID", msg.ID).
		Int64("senderID", senderID).
		Msg("Message stored")

	s.fanOut(ctx, conv, msg)
	return msg, nil
}

// fanOut pushes the new message and counters to every participant, then stores
// MESSAGE notifications for the recipients. Failures are logged only.
func (s *messageServiceImpl) fanOut(ctx context.Context, conv *models.Conversation, msg *models.Message) {
	if err := s.events.EmitToConversation(ctx, conv.ID, realtime.EventNewMessage, msg); err != nil {
		s.logger.Warn().Err(err).Int64("conversationID", conv.ID).Msg("Failed to push message to conversation room")
	}

	recipients := conv.OtherParticipants(msg.SenderID)
	for _, rid := range recipients {
		if err := s.events.EmitToUser(ctx, rid, realtime.EventNewMessage, msg); err != nil {
			s.logger.Warn().Err(err).Int64("userID", rid).Msg("Failed to push message to user room")
		}
	}
	for _, pid := range conv.ParticipantIDs {
		if err := s.events.EmitToUser(ctx, pid, realtime.EventConversationUpdated, dto.NewConversationResponse(conv, pid)); err != nil {
			s.logger.Warn().Err(err).Int64("userID", pid).Msg("Failed to push conversation update")
		}
	}

	if len(recipients) == 0 {
		return
	}

	title := "New message"
	if sender, err := s.userRepo.GetByID(ctx, msg.SenderID); err == nil {
		title = "New message from " + sender.FullName()
	}
	if conv.IsGroup && conv.Title != nil {
		title += " in " + *conv.Title
	}

	conversationID := conv.ID
	s.notifications.Notify(ctx, NotificationInput{
		RecipientIDs:  recipients,
		SenderID:      &msg.SenderID,
		Type:          models.NotificationMessage,
		Title:         title,
		Message:       preview(msg),
		ReferenceType: "conversation",
		ReferenceID:   &conversationID,
	})
}

func preview(msg *models.Message) string {
	if msg.Content == "" {
		if len(msg.Attachments) == 1 {
			return "Sent an attachment"
		}
		return fmt.Sprintf("Sent %d attachments", len(msg.Attachments))
	}
	if utf8.RuneCountInString(msg.Content) <= notificationPreviewLength {
		return msg.Content
	}
	runes := []rune(msg.Content)
	return string(runes[:notificationPreviewLength]) + "..."
}

func (s *messageServiceImpl) List(ctx context.Context, conversationID, userID int64, query dto.ListMessagesQuery) (*dto.MessageListResponse, error) {
	conv, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, apperrors.ErrNotParticipant
	}

	limit := helpers.ClampLimit(query.Limit, defaultMessagePageSize, maxMessagePageSize)
	msgs, err := s.messageRepo.ListByConversation(ctx, conversationID, query.Before, limit+1)
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}

	hasMore := len(msgs) > limit
	if hasMore {
		msgs = msgs[:limit]
	}
	return &dto.MessageListResponse{Messages: msgs, HasMore: hasMore}, nil
}

func (s *messageServiceImpl) MarkRead(ctx context.Context, conversationID, userID int64) (int64, error) {
	marked, err := s.messageRepo.MarkConversationRead(ctx, conversationID, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConversationNotFound, apperrors.ErrNotParticipant) {
			return 0, err
		}
		return 0, fmt.Errorf("error marking conversation read: %w", err)
	}

	payload := messagesReadPayload{ConversationID: conversationID, UserID: userID}
	if err := s.events.EmitToConversation(ctx, conversationID, realtime.EventMessagesRead, payload); err != nil {
		s.logger.Warn().Err(err).Int64("conversationID", conversationID).Msg("Failed to push read receipt")
	}

	// the reader's other sessions refresh their badge
	if conv, err := s.conversationRepo.GetByID(ctx, conversationID); err == nil {
		if err := s.events.EmitToUser(ctx, userID, realtime.EventConversationUpdated, dto.NewConversationResponse(conv, userID)); err != nil {
			s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to push conversation update")
		}
	}

	return marked, nil
}

func (s *messageServiceImpl) Delete(ctx context.Context, messageID, userID int64) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return apperrors.NewForbiddenError("only the sender can delete a message")
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return err
	}

	payload := messageDeletedPayload{ConversationID: msg.ConversationID, MessageID: msg.ID}
	if err := s.events.EmitToConversation(ctx, msg.ConversationID, realtime.EventMessageDeleted, payload); err != nil {
		s.logger.Warn().Err(err).Int64("messageID", messageID).Msg("Failed to push message deletion")
	}
	return nil
}
