package models

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Transcript entry roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleError     = "error"
	RoleLoading   = "loading"
)

// Part is one fragment of a turn: either text or an inline attachment.
type Part interface {
	isPart()
	Empty() bool
}

type TextPart struct {
	Text string `json:"text"`
}

func (TextPart) isPart() {}

func (p TextPart) Empty() bool { return strings.TrimSpace(p.Text) == "" }

// AttachmentPart carries inline binary data, base64-encoded for transport.
type AttachmentPart struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // base64, standard encoding
}

func (AttachmentPart) isPart() {}

func (p AttachmentPart) Empty() bool { return p.MIMEType == "" || p.Data == "" }

// Bytes decodes the base64 payload back into raw bytes.
func (p AttachmentPart) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(p.Data)
}

var ErrEmptyTurn = errors.New("turn must contain at least one non-empty part")

// Turn is a single user-initiated exchange sent to the assistant,
// composed of ordered parts.
type Turn struct {
	Parts []Part
}

// NewTurn validates the invariant that a turn carries content.
func NewTurn(parts ...Part) (*Turn, error) {
	for _, p := range parts {
		if !p.Empty() {
			return &Turn{Parts: parts}, nil
		}
	}
	return nil, ErrEmptyTurn
}

// TranscriptEntry is one rendered item in the visible chat log. Content is
// sanitized HTML for the assistant role and literal text otherwise.
type TranscriptEntry struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Final     bool      `json:"final"`
	CreatedAt time.Time `json:"created_at"`
}

// WebSocket feed message types
const (
	WSEntryAdded       = "entry_added"
	WSEntryRemoved     = "entry_removed"
	WSAssistantPartial = "assistant_partial"
	WSTurnCompleted    = "turn_completed"
	WSTurnFailed       = "turn_failed"
	WSBusyState        = "busy_state"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type EntryEvent struct {
	Entry TranscriptEntry `json:"entry"`
}

type PartialEvent struct {
	EntryID    uuid.UUID `json:"entry_id"`
	Content    string    `json:"content"`
	ChunksSent int       `json:"chunks_sent"`
}

type EntryRemovedEvent struct {
	EntryID uuid.UUID `json:"entry_id"`
}

type BusyEvent struct {
	Busy bool `json:"busy"`
}

type TurnFailedEvent struct {
	EntryID      uuid.UUID `json:"entry_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// Wire types for the chat endpoints.

type SendMessageRequest struct {
	Message string `json:"message"`
}

type TurnReceipt struct {
	UserEntryID      uuid.UUID  `json:"user_entry_id"`
	AssistantEntryID uuid.UUID  `json:"assistant_entry_id"`
	BookingID        *uuid.UUID `json:"booking_id,omitempty"`
}

type SessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	Available bool      `json:"assistant_available"`
}

type TranscriptResponse struct {
	Entries []TranscriptEntry `json:"entries"`
	Busy    bool              `json:"busy"`
}
