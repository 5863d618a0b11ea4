package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"warren-backend/internal/middleware"
	"warren-backend/internal/models"
	"warren-backend/internal/services"
)

type bookingLister interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.Booking, error)
}

type BookingHandler struct {
	sessions   sessionStore
	dispatcher turnDispatcher
	bookings   bookingLister
	maxUpload  int64
}

func NewBookingHandler(sessions sessionStore, dispatcher turnDispatcher, bookings bookingLister, maxUpload int64) *BookingHandler {
	return &BookingHandler{
		sessions:   sessions,
		dispatcher: dispatcher,
		bookings:   bookings,
		maxUpload:  maxUpload,
	}
}

// Submit accepts the boarding request form as multipart form data, with the
// rabbit photo as an optional file part named "photo".
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid multipart form", r))
		return
	}

	form := &models.BookingForm{
		RabbitName:          r.FormValue("rabbit_name"),
		Gender:              r.FormValue("gender"),
		Age:                 r.FormValue("age"),
		Breed:               r.FormValue("breed"),
		MedicalCondition:    r.FormValue("medical_condition"),
		Temperament:         r.FormValue("temperament"),
		Favorites:           r.FormValue("favorites"),
		Habits:              r.FormValue("habits"),
		Routine:             r.FormValue("routine"),
		SpecialRequirements: r.FormValue("special_requirements"),
		Sterilised:          r.FormValue("sterilised"),
		Vaccinated:          r.FormValue("vaccinated"),
		FirstTime:           r.FormValue("first_time"),
		PreviousExperience:  r.FormValue("previous_experience"),
		CheckIn:             r.FormValue("check_in"),
		CheckOut:            r.FormValue("check_out"),
	}

	cmd := services.Command{
		Intent:  services.IntentSubmitBooking,
		Booking: form,
	}

	file, header, err := r.FormFile("photo")
	if err == nil {
		defer file.Close()
		cmd.Photo = &services.PhotoUpload{
			Reader:       file,
			Filename:     header.Filename,
			DeclaredMime: header.Header.Get("Content-Type"),
		}
	} else if err != http.ErrMissingFile {
		writeJSON(w, http.StatusBadRequest, errorResp("ATTACHMENT_ERROR", "Could not read the uploaded photo", r))
		return
	}

	sess, err := h.sessions.Get(middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	receipt, err := h.dispatcher.Dispatch(r.Context(), sess, cmd)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, receipt)
}

// List returns the boarding requests submitted during this session, so the
// widget can show past inquiries alongside the conversation.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	bookings, err := h.bookings.ListBySession(r.Context(), sess.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load bookings", r))
		return
	}

	writeJSON(w, http.StatusOK, models.BookingListResponse{Bookings: bookings})
}
