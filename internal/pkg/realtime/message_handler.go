package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/campuslink/internal/pkg/apperrors"
	"github.com/yigit/campuslink/internal/pkg/auth"
)

const handlerTimeout = 5 * time.Second

// TokenValidator resolves the credential sent with authenticate
type TokenValidator interface {
	ValidateAndExtractClaims(token string) (*auth.Claims, error)
}

// ConversationAuthorizer answers membership checks for conversation rooms
type ConversationAuthorizer interface {
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
}

// Router applies the relay table to inbound frames
type Router struct {
	hub           *Hub
	tokens        TokenValidator
	conversations ConversationAuthorizer
	logger        zerolog.Logger
}

// NewRouter creates a new Router
func NewRouter(hub *Hub, tokens TokenValidator, conversations ConversationAuthorizer, logger zerolog.Logger) *Router {
	return &Router{
		hub:           hub,
		tokens:        tokens,
		conversations: conversations,
		logger:        logger,
	}
}

type clientError struct {
	message string
}

func (e *clientError) Error() string { return e.message }

func reject(message string) error {
	return &clientError{message: message}
}

// Handle processes one frame from client
func (r *Router) Handle(c *Client, frame Frame) {
	if frame.Event == EventAuthenticate {
		r.authenticate(c, frame.Data)
		return
	}

	if !c.Authenticated() {
		r.replyError(c, frame.Event, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var err error
	switch frame.Event {
	case EventJoinConversation:
		err = r.joinConversation(ctx, c, frame.Data)
	case EventLeaveConversation:
		err = r.leaveConversation(c, frame.Data)
	case EventTyping, EventStopTyping:
		err = r.typing(ctx, c, frame.Event, frame.Data)
	case EventCallRequest:
		err = r.callRequest(ctx, c, frame.Data)
	case EventCallResponse:
		err = r.callResponse(ctx, c, frame.Data)
	case EventCallEnd:
		err = r.callEnd(ctx, c, frame.Data)
	case EventWebRTCSignal:
		err = r.signal(ctx, c, frame.Data)
	default:
		err = reject("unknown event")
	}

	if err == nil {
		return
	}

	var ce *clientError
	if errors.As(err, &ce) {
		r.replyError(c, frame.Event, ce.message)
		return
	}

	r.logger.Error().
		Err(err).
		Str("event", frame.Event).
		Int64("userID", c.UserID()).
		Msg("Failed to handle socket event")
	r.replyError(c, frame.Event, "internal error")
}

func (r *Router) replyError(c *Client, event, message string) {
	if err := r.hub.SendTo(c, EventError, errorPayload{Message: message, Event: event}); err != nil {
		r.logger.Debug().Err(err).Msg("Failed to queue error frame")
	}
}

func (r *Router) authenticate(c *Client, data json.RawMessage) {
	if c.Authenticated() {
		r.replyError(c, EventAuthenticate, "already authenticated")
		return
	}

	var p authenticatePayload
	if err := json.Unmarshal(data, &p); err != nil || p.Token == "" {
		c.kick("authentication failed: token is required")
		return
	}

	claims, err := r.tokens.ValidateAndExtractClaims(p.Token)
	if err != nil {
		message := "authentication failed: invalid token"
		if errors.Is(err, auth.ErrExpiredToken) {
			message = "authentication failed: token expired"
		}
		r.logger.Debug().Err(err).Str("connID", c.id).Msg("Socket authentication rejected")
		c.kick(message)
		return
	}

	if !c.userID.CompareAndSwap(0, claims.UserID) {
		r.replyError(c, EventAuthenticate, "already authenticated")
		return
	}
	r.hub.Join(c, UserRoom(claims.UserID))

	r.hub.SendTo(c, EventAuthenticated, authenticatedPayload{UserID: claims.UserID, ConnectionID: c.id})
	r.logger.Info().
		Str("connID", c.id).
		Int64("userID", claims.UserID).
		Msg("Socket authenticated")
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return reject("payload is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return reject("invalid payload")
	}
	return nil
}

// requireParticipant maps a failed membership check to a client error
func (r *Router) requireParticipant(ctx context.Context, conversationID, userID int64) error {
	if conversationID <= 0 {
		return reject("conversationId is required")
	}
	ok, err := r.conversations.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrConversationNotFound) {
			return reject("conversation not found")
		}
		return err
	}
	if !ok {
		return reject("not a participant of this conversation")
	}
	return nil
}

func (r *Router) joinConversation(ctx context.Context, c *Client, data json.RawMessage) error {
	var p conversationPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := r.requireParticipant(ctx, p.ConversationID, c.UserID()); err != nil {
		return err
	}

	r.hub.Join(c, ConversationRoom(p.ConversationID))
	return r.hub.SendTo(c, EventJoinedConversation, p)
}

func (r *Router) leaveConversation(c *Client, data json.RawMessage) error {
	var p conversationPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	r.hub.Leave(c, ConversationRoom(p.ConversationID))
	return nil
}

func (r *Router) typing(ctx context.Context, c *Client, event string, data json.RawMessage) error {
	var p conversationPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := r.requireParticipant(ctx, p.ConversationID, c.UserID()); err != nil {
		return err
	}

	relay := typingPayload{ConversationID: p.ConversationID, UserID: c.UserID()}
	return r.hub.Publish(ctx, ConversationRoom(p.ConversationID), event, relay, c.id)
}

func requireTarget(c *Client, target int64) error {
	if target <= 0 {
		return reject("targetUserId is required")
	}
	if target == c.UserID() {
		return reject("cannot target yourself")
	}
	return nil
}

func (r *Router) callRequest(ctx context.Context, c *Client, data json.RawMessage) error {
	var p callRequestPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := requireTarget(c, p.TargetUserID); err != nil {
		return err
	}

	switch p.CallType {
	case "":
		p.CallType = CallTypeAudio
	case CallTypeAudio, CallTypeVideo:
	default:
		return reject("callType must be audio or video")
	}

	if p.ConversationID != nil {
		if err := r.requireParticipant(ctx, *p.ConversationID, c.UserID()); err != nil {
			return err
		}
		if err := r.requireParticipant(ctx, *p.ConversationID, p.TargetUserID); err != nil {
			var ce *clientError
			if errors.As(err, &ce) {
				return reject("target is not a participant of this conversation")
			}
			return err
		}
	}

	return r.hub.EmitToUser(ctx, p.TargetUserID, EventIncomingCall, incomingCallPayload{
		CallID:         uuid.NewString(),
		FromUserID:     c.UserID(),
		ConversationID: p.ConversationID,
		CallType:       p.CallType,
	})
}

func (r *Router) callResponse(ctx context.Context, c *Client, data json.RawMessage) error {
	var p callResponsePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := requireTarget(c, p.TargetUserID); err != nil {
		return err
	}

	return r.hub.EmitToUser(ctx, p.TargetUserID, EventCallResponse, callResponseRelay{
		CallID:     p.CallID,
		FromUserID: c.UserID(),
		Accepted:   p.Accepted,
	})
}

func (r *Router) callEnd(ctx context.Context, c *Client, data json.RawMessage) error {
	var p callEndPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := requireTarget(c, p.TargetUserID); err != nil {
		return err
	}

	return r.hub.EmitToUser(ctx, p.TargetUserID, EventCallEnded, callEndedRelay{
		CallID:     p.CallID,
		FromUserID: c.UserID(),
	})
}

func (r *Router) signal(ctx context.Context, c *Client, data json.RawMessage) error {
	var p signalPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := requireTarget(c, p.TargetUserID); err != nil {
		return err
	}
	if len(p.Signal) == 0 {
		return reject("signal is required")
	}

	return r.hub.EmitToUser(ctx, p.TargetUserID, EventWebRTCSignal, signalRelay{
		FromUserID: c.UserID(),
		CallID:     p.CallID,
		Signal:     p.Signal,
	})
}
