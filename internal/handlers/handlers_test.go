package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"warren-backend/internal/middleware"
	"warren-backend/internal/models"
	"warren-backend/internal/services"
)

type stubSessions struct {
	sess   *services.ConversationSession
	getErr error
}

func (s *stubSessions) Create() *services.ConversationSession { return s.sess }

func (s *stubSessions) Get(id uuid.UUID) (*services.ConversationSession, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.sess, nil
}

type stubStatus struct{ available bool }

func (s stubStatus) Available() bool { return s.available }

type stubDispatcher struct {
	receipt *models.TurnReceipt
	err     error
	gotCmd  services.Command
}

func (d *stubDispatcher) Dispatch(ctx context.Context, sess *services.ConversationSession, cmd services.Command) (*models.TurnReceipt, error) {
	d.gotCmd = cmd
	if d.err != nil {
		return nil, d.err
	}
	return d.receipt, nil
}

type stubLister struct {
	bookings []*models.Booking
	err      error
}

func (l *stubLister) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.Booking, error) {
	return l.bookings, l.err
}

func newTestSession() *services.ConversationSession {
	return &services.ConversationSession{
		ID:         uuid.New(),
		Transcript: services.NewTranscript(nil),
	}
}

// ─── Session Handler Tests ───

func TestCreateSession(t *testing.T) {
	sess := newTestSession()
	auth := middleware.NewSessionAuth("test-secret", time.Hour)
	h := NewSessionHandler(&stubSessions{sess: sess}, stubStatus{available: true}, auth)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session", nil)
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp models.SessionResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.SessionID != sess.ID {
		t.Errorf("Expected session ID %s, got %s", sess.ID, resp.SessionID)
	}
	if resp.Token == "" {
		t.Error("Expected a session token")
	}
	if !resp.Available {
		t.Error("Expected assistant_available true")
	}
}

func TestCreateSession_DegradedAssistant(t *testing.T) {
	auth := middleware.NewSessionAuth("test-secret", time.Hour)
	h := NewSessionHandler(&stubSessions{sess: newTestSession()}, stubStatus{available: false}, auth)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session", nil)
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected session creation to succeed while degraded, got %d", rr.Code)
	}

	var resp models.SessionResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Available {
		t.Error("Expected assistant_available false")
	}
}

func TestTranscript_Snapshot(t *testing.T) {
	sess := newTestSession()
	sess.Transcript.Append(models.RoleUser, "hello", false)
	sess.Transcript.SetBusy(true)

	auth := middleware.NewSessionAuth("test-secret", time.Hour)
	h := NewSessionHandler(&stubSessions{sess: sess}, stubStatus{available: true}, auth)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/transcript", nil)
	rr := httptest.NewRecorder()
	h.Transcript(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp models.TranscriptResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Errorf("Expected 2 entries (message + placeholder), got %d", len(resp.Entries))
	}
	if !resp.Busy {
		t.Error("Expected busy true")
	}
}

func TestTranscript_UnknownSession(t *testing.T) {
	auth := middleware.NewSessionAuth("test-secret", time.Hour)
	h := NewSessionHandler(&stubSessions{getErr: &services.NotFoundError{Message: "conversation not found or expired"}}, stubStatus{available: true}, auth)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/transcript", nil)
	rr := httptest.NewRecorder()
	h.Transcript(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}
}

// ─── Chat Handler Tests ───

func TestSendMessage(t *testing.T) {
	receipt := &models.TurnReceipt{UserEntryID: uuid.New(), AssistantEntryID: uuid.New()}
	dispatcher := &stubDispatcher{receipt: receipt}
	h := NewChatHandler(&stubSessions{sess: newTestSession()}, dispatcher)

	body, _ := json.Marshal(models.SendMessageRequest{Message: "Do you board bonded pairs?"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/message", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.SendMessage(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	if dispatcher.gotCmd.Intent != services.IntentSendMessage {
		t.Errorf("Expected send_message intent, got %s", dispatcher.gotCmd.Intent)
	}
	if dispatcher.gotCmd.Message != "Do you board bonded pairs?" {
		t.Errorf("Expected message passed through, got %q", dispatcher.gotCmd.Message)
	}

	var resp models.TurnReceipt
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode receipt: %v", err)
	}
	if resp.UserEntryID != receipt.UserEntryID {
		t.Errorf("Expected user entry ID %s, got %s", receipt.UserEntryID, resp.UserEntryID)
	}
}

func TestSendMessage_InvalidBody(t *testing.T) {
	h := NewChatHandler(&stubSessions{sess: newTestSession()}, &stubDispatcher{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/message", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.SendMessage(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

func TestSendMessage_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"busy", &services.BusyError{}, http.StatusConflict},
		{"unavailable", &services.UnavailableError{Message: "down"}, http.StatusServiceUnavailable},
		{"validation", &services.ValidationError{Message: "Message is required"}, http.StatusBadRequest},
		{"attachment", &services.AttachmentError{Message: "bad photo"}, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewChatHandler(&stubSessions{sess: newTestSession()}, &stubDispatcher{err: tc.err})

			body, _ := json.Marshal(models.SendMessageRequest{Message: "hello"})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/message", bytes.NewReader(body))
			rr := httptest.NewRecorder()
			h.SendMessage(rr, req)

			if rr.Code != tc.wantCode {
				t.Errorf("Expected %d, got %d", tc.wantCode, rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error envelope: %v", err)
			}
			if resp.Error.Code == "" {
				t.Error("Expected error code in envelope")
			}
		})
	}
}

func TestAskPlaypen(t *testing.T) {
	dispatcher := &stubDispatcher{receipt: &models.TurnReceipt{UserEntryID: uuid.New(), AssistantEntryID: uuid.New()}}
	h := NewChatHandler(&stubSessions{sess: newTestSession()}, dispatcher)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/playpen", nil)
	rr := httptest.NewRecorder()
	h.AskPlaypen(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", rr.Code)
	}
	if dispatcher.gotCmd.Intent != services.IntentAskPlaypen {
		t.Errorf("Expected ask_playpen intent, got %s", dispatcher.gotCmd.Intent)
	}
}

// ─── Booking Handler Tests ───

func bookingRequest(t *testing.T, fields map[string]string, photo []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	if photo != nil {
		fw, err := w.CreateFormFile("photo", "clover.gif")
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		fw.Write(photo)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/booking", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestSubmitBooking(t *testing.T) {
	dispatcher := &stubDispatcher{receipt: &models.TurnReceipt{UserEntryID: uuid.New(), AssistantEntryID: uuid.New()}}
	h := NewBookingHandler(&stubSessions{sess: newTestSession()}, dispatcher, &stubLister{}, 1<<20)

	req := bookingRequest(t, map[string]string{
		"rabbit_name": "Clover",
		"gender":      "Female",
		"age":         "2 years",
		"first_time":  "No",
		"check_in":    "2026-09-01",
		"check_out":   "2026-09-05",
	}, []byte("GIF87aabcd"))
	rr := httptest.NewRecorder()
	h.Submit(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", rr.Code, rr.Body.String())
	}

	cmd := dispatcher.gotCmd
	if cmd.Intent != services.IntentSubmitBooking {
		t.Errorf("Expected submit_booking intent, got %s", cmd.Intent)
	}
	if cmd.Booking == nil || cmd.Booking.RabbitName != "Clover" {
		t.Errorf("Expected form fields mapped, got %+v", cmd.Booking)
	}
	if cmd.Photo == nil {
		t.Fatal("Expected photo upload attached to command")
	}
	data, _ := io.ReadAll(cmd.Photo.Reader)
	if string(data) != "GIF87aabcd" {
		t.Errorf("Expected photo bytes passed through, got %q", data)
	}
}

func TestSubmitBooking_NoPhoto(t *testing.T) {
	dispatcher := &stubDispatcher{receipt: &models.TurnReceipt{UserEntryID: uuid.New(), AssistantEntryID: uuid.New()}}
	h := NewBookingHandler(&stubSessions{sess: newTestSession()}, dispatcher, &stubLister{}, 1<<20)

	req := bookingRequest(t, map[string]string{
		"rabbit_name": "Clover",
		"gender":      "Female",
		"age":         "2 years",
		"first_time":  "No",
		"check_in":    "2026-09-01",
		"check_out":   "2026-09-05",
	}, nil)
	rr := httptest.NewRecorder()
	h.Submit(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", rr.Code)
	}
	if dispatcher.gotCmd.Photo != nil {
		t.Error("Expected no photo on command")
	}
}

func TestSubmitBooking_ValidationErrorEnvelope(t *testing.T) {
	dispatcher := &stubDispatcher{err: &services.ValidationError{
		Message: "Please fill in all required fields",
		Fields:  map[string]string{"rabbit_name": "Rabbit's Name is required"},
	}}
	h := NewBookingHandler(&stubSessions{sess: newTestSession()}, dispatcher, &stubLister{}, 1<<20)

	req := bookingRequest(t, map[string]string{"gender": "Female"}, nil)
	rr := httptest.NewRecorder()
	h.Submit(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error envelope: %v", err)
	}
	if resp.Error.Fields["rabbit_name"] == "" {
		t.Errorf("Expected per-field detail in envelope, got %+v", resp.Error)
	}
}

func TestSubmitBooking_NotMultipart(t *testing.T) {
	h := NewBookingHandler(&stubSessions{sess: newTestSession()}, &stubDispatcher{}, &stubLister{}, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/booking", strings.NewReader(`{"rabbit_name":"Clover"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Submit(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-multipart body, got %d", rr.Code)
	}
}

func TestListBookings(t *testing.T) {
	sess := newTestSession()
	lister := &stubLister{bookings: []*models.Booking{
		{ID: uuid.New(), SessionID: sess.ID, RabbitName: "Clover", HasPhoto: true},
		{ID: uuid.New(), SessionID: sess.ID, RabbitName: "Biscuit"},
	}}
	h := NewBookingHandler(&stubSessions{sess: sess}, &stubDispatcher{}, lister, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/booking", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp models.BookingListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Bookings) != 2 {
		t.Fatalf("Expected 2 bookings, got %d", len(resp.Bookings))
	}
	if resp.Bookings[0].RabbitName != "Clover" {
		t.Errorf("Expected first booking for Clover, got %q", resp.Bookings[0].RabbitName)
	}
}

func TestListBookings_UnknownSession(t *testing.T) {
	h := NewBookingHandler(&stubSessions{getErr: &services.NotFoundError{Message: "conversation not found or expired"}}, &stubDispatcher{}, &stubLister{}, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/booking", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}
}
