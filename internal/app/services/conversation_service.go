package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/campuslink/internal/app/models"
	"github.com/yigit/campuslink/internal/app/models/dto"
	"github.com/yigit/campuslink/internal/app/repositories"
	"github.com/yigit/campuslink/internal/pkg/apperrors"
	"github.com/yigit/campuslink/internal/pkg/realtime"
)

// Minimum size of a group conversation, creator included
const minGroupParticipants = 3

// ConversationService defines the interface for conversation operations
type ConversationService interface {
	// Create returns the new conversation, or the existing direct conversation
	// between the same two users with created=false.
	Create(ctx context.Context, userID int64, req *dto.CreateConversationRequest) (conv *dto.ConversationResponse, created bool, err error)
	List(ctx context.Context, userID int64) ([]dto.ConversationResponse, error)
	Get(ctx context.Context, id, userID int64) (*dto.ConversationResponse, error)
	UpdateTitle(ctx context.Context, id, userID int64, req *dto.UpdateConversationRequest) (*dto.ConversationResponse, error)
	AddParticipants(ctx context.Context, id, userID int64, req *dto.AddParticipantsRequest) (*dto.ConversationResponse, error)
	RemoveParticipant(ctx context.Context, id, userID, targetID int64) (*dto.ConversationResponse, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	IsParticipant(ctx context.Context, id, userID int64) (bool, error)
}

type conversationServiceImpl struct {
	conversationRepo repositories.ConversationStore
	userRepo         repositories.UserStore
	events           EventPublisher
	logger           zerolog.Logger
}

// NewConversationService creates a new ConversationService
func NewConversationService(
	conversationRepo repositories.ConversationStore,
	userRepo repositories.UserStore,
	events EventPublisher,
	logger zerolog.Logger,
) ConversationService {
	return &conversationServiceImpl{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		events:           events,
		logger:           logger,
	}
}

func (s *conversationServiceImpl) Create(ctx context.Context, userID int64, req *dto.CreateConversationRequest) (*dto.ConversationResponse, bool, error) {
	participants := models.UniqueParticipants(append([]int64{userID}, req.ParticipantIDs...)...)

	var title *string
	if req.IsGroup {
		if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
			return nil, false, apperrors.NewValidationError("Invalid conversation", map[string]string{
				"title": "title is required for group conversations",
			})
		}
		if len(participants) < minGroupParticipants {
			return nil, false, apperrors.NewValidationError("Invalid conversation", map[string]string{
				"participantIds": fmt.Sprintf("a group conversation needs at least %d participants", minGroupParticipants),
			})
		}
		t := strings.TrimSpace(*req.Title)
		title = &t
	} else if len(participants) != 2 {
		return nil, false, apperrors.NewValidationError("Invalid conversation", map[string]string{
			"participantIds": "a direct conversation needs exactly one other participant",
		})
	}

	if err := s.requireUsers(ctx, participants); err != nil {
		return nil, false, err
	}

	if !req.IsGroup {
		existing, err := s.findDirect(ctx, participants)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			resp := dto.NewConversationResponse(existing, userID)
			return &resp, false, nil
		}
	}

	conv := &models.Conversation{
		Title:          title,
		IsGroup:        req.IsGroup,
		ParticipantIDs: participants,
		UnreadCounts:   models.NewUnreadCounts(participants),
		CreatedBy:      userID,
	}
	if err := s.conversationRepo.Create(ctx, conv); err != nil {
		// a concurrent request created the same direct conversation first
		if !req.IsGroup && errors.Is(err, apperrors.ErrResourceAlreadyExists) {
			existing, findErr := s.findDirect(ctx, participants)
			if findErr != nil {
				return nil, false, findErr
			}
			if existing != nil {
				resp := dto.NewConversationResponse(existing, userID)
				return &resp, false, nil
			}
		}
		return nil, false, fmt.Errorf("error creating conversation: %w", err)
	}

	s.logger.Info().
		Int64("conversationID", conv.ID).
		Int64("createdBy", userID).
		Bool("isGroup", conv.IsGroup).
		Int("participants", len(participants)).
		Msg("Conversation created")

	s.broadcastUpdate(ctx, conv)
	resp := dto.NewConversationResponse(conv, userID)
	return &resp, true, nil
}

// findDirect returns the direct conversation between the pair, or nil when there is none
func (s *conversationServiceImpl) findDirect(ctx context.Context, pair []int64) (*models.Conversation, error) {
	existing, err := s.conversationRepo.FindDirect(ctx, pair[0], pair[1])
	if err == nil {
		return existing, nil
	}
	if errors.Is(err, apperrors.ErrConversationNotFound) {
		return nil, nil
	}
	s.logger.Error().Err(err).Ints64("participants", pair).Msg("Failed to look up direct conversation")
	return nil, fmt.Errorf("error looking up conversation: %w", err)
}

// requireUsers fails with a validation error naming the ids that are not active users
func (s *conversationServiceImpl) requireUsers(ctx context.Context, ids []int64) error {
	missing, err := s.userRepo.MissingIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to check participants")
		return fmt.Errorf("error checking participants: %w", err)
	}
	if len(missing) == 0 {
		return nil
	}

	parts := make([]string, len(missing))
	for i, id := range missing {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return apperrors.NewValidationError("Unknown participants", map[string]string{
		"participantIds": "unknown users: " + strings.Join(parts, ", "),
	})
}

func (s *conversationServiceImpl) List(ctx context.Context, userID int64) ([]dto.ConversationResponse, error) {
	convs, err := s.conversationRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing conversations: %w", err)
	}
	return dto.NewConversationResponses(convs, userID), nil
}

// load returns the conversation when userID participates in it
func (s *conversationServiceImpl) load(ctx context.Context, id, userID int64) (*models.Conversation, error) {
	conv, err := s.conversationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, apperrors.ErrNotParticipant
	}
	return conv, nil
}

func (s *conversationServiceImpl) loadGroup(ctx context.Context, id, userID int64) (*models.Conversation, error) {
	conv, err := s.load(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !conv.IsGroup {
		return nil, apperrors.ErrNotGroupConversation
	}
	return conv, nil
}

func (s *conversationServiceImpl) Get(ctx context.Context, id, userID int64) (*dto.ConversationResponse, error) {
	conv, err := s.load(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewConversationResponse(conv, userID)
	return &resp, nil
}

func (s *conversationServiceImpl) UpdateTitle(ctx context.Context, id, userID int64, req *dto.UpdateConversationRequest) (*dto.ConversationResponse, error) {
	if _, err := s.loadGroup(ctx, id, userID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("Invalid conversation", map[string]string{"title": "title is required"})
	}

	conv, err := s.conversationRepo.UpdateTitle(ctx, id, title)
	if err != nil {
		return nil, fmt.Errorf("error renaming conversation: %w", err)
	}

	s.broadcastUpdate(ctx, conv)
	resp := dto.NewConversationResponse(conv, userID)
	return &resp, nil
}

func (s *conversationServiceImpl) AddParticipants(ctx context.Context, id, userID int64, req *dto.AddParticipantsRequest) (*dto.ConversationResponse, error) {
	if _, err := s.loadGroup(ctx, id, userID); err != nil {
		return nil, err
	}

	ids := models.UniqueParticipants(req.UserIDs...)
	if err := s.requireUsers(ctx, ids); err != nil {
		return nil, err
	}

	conv, err := s.conversationRepo.AddParticipants(ctx, id, ids)
	if err != nil {
		return nil, fmt.Errorf("error adding participants: %w", err)
	}

	s.logger.Info().Int64("conversationID", id).Int64("by", userID).Ints64("added", ids).Msg("Participants added")
	s.broadcastUpdate(ctx, conv)
	resp := dto.NewConversationResponse(conv, userID)
	return &resp, nil
}

// RemoveParticipant lets a participant leave, or the creator remove someone else
func (s *conversationServiceImpl) RemoveParticipant(ctx context.Context, id, userID, targetID int64) (*dto.ConversationResponse, error) {
	current, err := s.loadGroup(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if targetID != userID && current.CreatedBy != userID {
		return nil, apperrors.NewForbiddenError("only the conversation creator can remove other participants")
	}

	conv, err := s.conversationRepo.RemoveParticipant(ctx, id, targetID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotParticipant) {
			return nil, apperrors.NewResourceNotFoundError("user is not a participant of this conversation")
		}
		return nil, fmt.Errorf("error removing participant: %w", err)
	}

	s.logger.Info().Int64("conversationID", id).Int64("by", userID).Int64("removed", targetID).Msg("Participant removed")
	if err := s.events.EvictFromConversation(ctx, targetID, id); err != nil {
		s.logger.Warn().Err(err).Int64("conversationID", id).Int64("userID", targetID).Msg("Failed to evict removed participant from conversation room")
	}
	s.broadcastUpdate(ctx, conv)
	s.emitUpdate(ctx, conv, targetID)

	resp := dto.NewConversationResponse(conv, userID)
	return &resp, nil
}

func (s *conversationServiceImpl) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	total, err := s.conversationRepo.TotalUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error counting unread messages: %w", err)
	}
	return total, nil
}

func (s *conversationServiceImpl) IsParticipant(ctx context.Context, id, userID int64) (bool, error) {
	conv, err := s.conversationRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return conv.HasParticipant(userID), nil
}

// broadcastUpdate sends every participant their own view of conv
func (s *conversationServiceImpl) broadcastUpdate(ctx context.Context, conv *models.Conversation) {
	for _, pid := range conv.ParticipantIDs {
		s.emitUpdate(ctx, conv, pid)
	}
}

func (s *conversationServiceImpl) emitUpdate(ctx context.Context, conv *models.Conversation, userID int64) {
	if err := s.events.EmitToUser(ctx, userID, realtime.EventConversationUpdated, dto.NewConversationResponse(conv, userID)); err != nil {
		s.logger.Warn().Err(err).Int64("conversationID", conv.ID).Int64("userID", userID).Msg("Failed to push conversation update")
	}
}
