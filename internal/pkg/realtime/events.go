package realtime

import (
	"encoding/json"
	"strconv"
)

// Client -> server events
const (
	EventAuthenticate      = "authenticate"
	EventJoinConversation  = "join-conversation"
	EventLeaveConversation = "leave-conversation"
	EventTyping            = "typing"
	EventStopTyping        = "stop-typing"
	EventCallRequest       = "call-request"
	EventCallResponse      = "call-response"
	EventCallEnd           = "call-end"
	EventWebRTCSignal      = "webrtc-signal"
)

// Server -> client events
const (
	EventAuthenticated       = "authenticated"
	EventError               = "error"
	EventJoinedConversation  = "joined-conversation"
	EventIncomingCall        = "incoming-call"
	EventCallEnded           = "call-ended"
	EventNewMessage          = "new-message"
	EventConversationUpdated = "conversation-updated"
	EventMessagesRead        = "messages-read"
	EventMessageDeleted      = "message-deleted"
	EventNotification        = "notification"
)

// Frame is the wire format in both directions
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Envelope is what travels through the broker between instances. An envelope
// with EvictUserID carries no event: it removes that user's connections from Room.
type Envelope struct {
	Room          string          `json:"room"`
	Event         string          `json:"event,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	ExcludeConnID string          `json:"excludeConnId,omitempty"`
	EvictUserID   int64           `json:"evictUserId,omitempty"`
}

// UserRoom names the room every connection of a user joins after authenticating
func UserRoom(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// ConversationRoom names the room of an open conversation view
func ConversationRoom(conversationID int64) string {
	return "conversation:" + strconv.FormatInt(conversationID, 10)
}

type authenticatePayload struct {
	Token string `json:"token"`
}

type authenticatedPayload struct {
	UserID       int64  `json:"userId"`
	ConnectionID string `json:"connectionId"`
}

type errorPayload struct {
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

type conversationPayload struct {
	ConversationID int64 `json:"conversationId"`
}

type typingPayload struct {
	ConversationID int64 `json:"conversationId"`
	UserID         int64 `json:"userId"`
}

type callRequestPayload struct {
	TargetUserID   int64  `json:"targetUserId"`
	ConversationID *int64 `json:"conversationId,omitempty"`
	CallType       string `json:"callType"`
}

type incomingCallPayload struct {
	CallID         string `json:"callId"`
	FromUserID     int64  `json:"fromUserId"`
	ConversationID *int64 `json:"conversationId,omitempty"`
	CallType       string `json:"callType"`
}

type callResponsePayload struct {
	CallID       string `json:"callId"`
	TargetUserID int64  `json:"targetUserId"`
	Accepted     bool   `json:"accepted"`
}

type callResponseRelay struct {
	CallID     string `json:"callId"`
	FromUserID int64  `json:"fromUserId"`
	Accepted   bool   `json:"accepted"`
}

type callEndPayload struct {
	CallID       string `json:"callId"`
	TargetUserID int64  `json:"targetUserId"`
}

type callEndedRelay struct {
	CallID     string `json:"callId"`
	FromUserID int64  `json:"fromUserId"`
}

type signalPayload struct {
	TargetUserID int64           `json:"targetUserId"`
	CallID       string          `json:"callId,omitempty"`
	Signal       json.RawMessage `json:"signal"`
}

type signalRelay struct {
	FromUserID int64           `json:"fromUserId"`
	CallID     string          `json:"callId,omitempty"`
	Signal     json.RawMessage `json:"signal"`
}

// Call types accepted by call-request; empty defaults to audio
const (
	CallTypeAudio = "audio"
	CallTypeVideo = "video"
)
