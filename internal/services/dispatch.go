package services

import (
	"context"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"warren-backend/internal/models"
)

// Intent names the user actions the widget can trigger. The preview toggle
// stays client-side and never reaches the server.
type Intent string

const (
	IntentSendMessage   Intent = "send_message"
	IntentSubmitBooking Intent = "submit_booking"
	IntentAskPlaypen    Intent = "ask_playpen"
)

const playpenQuestion = "Do you have a playpen? How much exercise and play time would my rabbit get each day?"

// PhotoUpload is an unread photo straight off the multipart form.
type PhotoUpload struct {
	Reader       io.Reader
	Filename     string
	DeclaredMime string
}

// Command is one named intent plus its payload.
type Command struct {
	Intent  Intent
	Message string
	Booking *models.BookingForm
	Photo   *PhotoUpload
}

type bookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
}

// Dispatcher is the single entry point turning intents into conversation
// turns. It is constructed once at startup with explicit dependencies and
// replaces the original's per-element event callbacks and ambient globals.
type Dispatcher struct {
	assistant *AssistantService
	bookings  *BookingService
	store     bookingStore
	encoder   *Encoder
	consumer  *StreamConsumer
	publisher Publisher
}

func NewDispatcher(
	assistant *AssistantService,
	bookings *BookingService,
	store bookingStore,
	encoder *Encoder,
	renderer *Renderer,
	publisher Publisher,
) *Dispatcher {
	return &Dispatcher{
		assistant: assistant,
		bookings:  bookings,
		store:     store,
		encoder:   encoder,
		consumer:  NewStreamConsumer(renderer),
		publisher: publisher,
	}
}

// Dispatch validates the command, claims the session's turn slot, appends
// the user-visible entries and kicks off the streamed reply. It returns as
// soon as the turn is in flight; progress reaches the widget over the feed.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *ConversationSession, cmd Command) (*models.TurnReceipt, error) {
	if !d.assistant.Available() {
		return nil, &UnavailableError{Message: "the assistant is not available right now"}
	}

	switch cmd.Intent {
	case IntentSendMessage:
		return d.sendText(ctx, sess, cmd.Message)
	case IntentAskPlaypen:
		return d.sendText(ctx, sess, playpenQuestion)
	case IntentSubmitBooking:
		return d.submitBooking(ctx, sess, cmd)
	default:
		return nil, &ValidationError{Message: "unknown intent", Fields: map[string]string{"intent": string(cmd.Intent)}}
	}
}

func (d *Dispatcher) sendText(ctx context.Context, sess *ConversationSession, message string) (*models.TurnReceipt, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, &ValidationError{Message: "Message is required", Fields: map[string]string{"message": "must not be empty"}}
	}

	turn, err := models.NewTurn(models.TextPart{Text: message})
	if err != nil {
		return nil, &ValidationError{Message: "Message is required"}
	}

	if err := sess.BeginTurn(); err != nil {
		return nil, err
	}

	userEntry := sess.Transcript.Append(models.RoleUser, message, false)
	return d.startTurn(sess, turn, userEntry, nil), nil
}

func (d *Dispatcher) submitBooking(ctx context.Context, sess *ConversationSession, cmd Command) (*models.TurnReceipt, error) {
	if cmd.Booking == nil {
		return nil, &ValidationError{Message: "Booking form is required"}
	}
	if err := d.bookings.Validate(cmd.Booking); err != nil {
		return nil, err
	}

	if err := sess.BeginTurn(); err != nil {
		return nil, err
	}

	// Photo first: an unreadable photo aborts the whole submission before
	// anything is sent, with an explicit error entry.
	var photo *models.Attachment
	if cmd.Photo != nil {
		att, err := d.encoder.Encode(cmd.Photo.Reader, cmd.Photo.Filename, cmd.Photo.DeclaredMime)
		if err != nil {
			sess.Transcript.Append(models.RoleError,
				"Your photo could not be read, so the booking request was not sent. Please try a different photo.", false)
			sess.EndTurn()
			return nil, err
		}
		photo = att
	}

	turn, err := d.bookings.BuildTurn(cmd.Booking, photo)
	if err != nil {
		sess.EndTurn()
		return nil, err
	}

	// Keep the inquiry even if the assistant call later fails. A storage
	// problem is logged, not surfaced; the conversation goes on.
	booking := d.bookings.Record(cmd.Booking, sess.ID, photo != nil)
	var bookingID *uuid.UUID
	if err := d.store.Create(ctx, booking); err != nil {
		log.Printf("failed to store booking for session %s: %v", sess.ID, err)
	} else {
		bookingID = &booking.ID
	}

	if photo != nil {
		sess.Transcript.Append(models.RoleUser, ImagePreviewHTML(photo), true)
	}
	userEntry := sess.Transcript.Append(models.RoleUser, d.bookings.ComposeDetails(cmd.Booking), false)

	receipt := d.startTurn(sess, turn, userEntry, bookingID)
	return receipt, nil
}

// startTurn shows the loading placeholder, opens the streaming assistant
// entry and drains the reply on its own goroutine. The turn cannot be
// cancelled from the widget; it ends by completing or failing.
func (d *Dispatcher) startTurn(sess *ConversationSession, turn *models.Turn, userEntry *models.TranscriptEntry, bookingID *uuid.UUID) *models.TurnReceipt {
	sess.Transcript.SetBusy(true)
	assistantEntry := sess.Transcript.Append(models.RoleAssistant, "", false)

	go d.runTurn(sess, turn, assistantEntry)

	return &models.TurnReceipt{
		UserEntryID:      userEntry.ID,
		AssistantEntryID: assistantEntry.ID,
		BookingID:        bookingID,
	}
}

func (d *Dispatcher) runTurn(sess *ConversationSession, turn *models.Turn, entry *models.TranscriptEntry) {
	defer sess.EndTurn()

	// Detached from the request context: the HTTP call has already been
	// answered and the stream outlives it.
	ctx := context.Background()

	stream, err := d.assistant.SendTurn(ctx, sess, turn)
	if err != nil {
		log.Printf("session %s: turn failed to start: %v", sess.ID, err)
		sess.Transcript.Discard(entry)
		sess.Transcript.Append(models.RoleError,
			"Sorry, I couldn't reach the assistant. Please try again.", false)
		d.publisher.Publish(ctx, sess.ID, models.WSMessage{
			Type:    models.WSTurnFailed,
			Payload: models.TurnFailedEvent{EntryID: entry.ID, ErrorCode: "STREAM_ERROR", ErrorMessage: err.Error()},
		})
		return
	}

	if err := d.consumer.Consume(stream, sess.Transcript, entry); err != nil {
		log.Printf("session %s: stream failed mid-reply: %v", sess.ID, err)
		d.publisher.Publish(ctx, sess.ID, models.WSMessage{
			Type:    models.WSTurnFailed,
			Payload: models.TurnFailedEvent{EntryID: entry.ID, ErrorCode: "STREAM_ERROR", ErrorMessage: err.Error()},
		})
		return
	}

	d.publisher.Publish(ctx, sess.ID, models.WSMessage{
		Type:    models.WSTurnCompleted,
		Payload: models.EntryEvent{Entry: *entry},
	})
}
