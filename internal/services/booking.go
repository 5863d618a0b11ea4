package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"warren-backend/internal/models"
)

const dateLayout = "2006-01-02"

// fieldLabels is the fixed field-to-label table, in listing order. The raw
// photo field is deliberately absent: the photo travels as its own part.
var fieldLabels = []struct {
	key   string
	label string
	get   func(f *models.BookingForm) string
}{
	{"rabbit_name", "Rabbit's Name", func(f *models.BookingForm) string { return f.RabbitName }},
	{"gender", "Gender", func(f *models.BookingForm) string { return f.Gender }},
	{"age", "Age", func(f *models.BookingForm) string { return f.Age }},
	{"breed", "Breed", func(f *models.BookingForm) string { return f.Breed }},
	{"medical_condition", "Medical Conditions", func(f *models.BookingForm) string { return f.MedicalCondition }},
	{"temperament", "Temperament", func(f *models.BookingForm) string { return f.Temperament }},
	{"favorites", "Favourite Foods & Treats", func(f *models.BookingForm) string { return f.Favorites }},
	{"habits", "Habits", func(f *models.BookingForm) string { return f.Habits }},
	{"routine", "Daily Routine", func(f *models.BookingForm) string { return f.Routine }},
	{"special_requirements", "Special Requirements", func(f *models.BookingForm) string { return f.SpecialRequirements }},
	{"sterilised", "Sterilised", func(f *models.BookingForm) string { return f.Sterilised }},
	{"vaccinated", "Vaccinated", func(f *models.BookingForm) string { return f.Vaccinated }},
	{"first_time", "First Time Boarding", func(f *models.BookingForm) string { return f.FirstTime }},
	{"previous_experience", "Previous Boarding Experience", func(f *models.BookingForm) string { return f.PreviousExperience }},
	{"check_in", "Check-in Date", func(f *models.BookingForm) string { return f.CheckIn }},
	{"check_out", "Check-out Date", func(f *models.BookingForm) string { return f.CheckOut }},
}

// requiredFields must be non-empty before anything else is checked.
var requiredFields = []struct {
	key   string
	label string
	get   func(f *models.BookingForm) string
}{
	{"rabbit_name", "Rabbit's Name", func(f *models.BookingForm) string { return f.RabbitName }},
	{"gender", "Gender", func(f *models.BookingForm) string { return f.Gender }},
	{"age", "Age", func(f *models.BookingForm) string { return f.Age }},
	{"first_time", "First Time Boarding", func(f *models.BookingForm) string { return f.FirstTime }},
	{"check_in", "Check-in Date", func(f *models.BookingForm) string { return f.CheckIn }},
	{"check_out", "Check-out Date", func(f *models.BookingForm) string { return f.CheckOut }},
}

// BookingService validates boarding request forms and projects them into
// turns for the assistant.
type BookingService struct{}

func NewBookingService() *BookingService {
	return &BookingService{}
}

// Validate applies the form checks in order, short-circuiting on the first
// failure. No turn is built and no network call happens for invalid input.
func (s *BookingService) Validate(form *models.BookingForm) error {
	// 1. Required fields
	missing := map[string]string{}
	for _, f := range requiredFields {
		if strings.TrimSpace(f.get(form)) == "" {
			missing[f.key] = f.label + " is required"
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Message: "Please fill in all required fields", Fields: missing}
	}

	// 2. Stay dates
	checkIn, err := time.Parse(dateLayout, form.CheckIn)
	if err != nil {
		return &ValidationError{
			Message: "Check-in date is not a valid date",
			Fields:  map[string]string{"check_in": "must be a valid date (YYYY-MM-DD)"},
		}
	}
	checkOut, err := time.Parse(dateLayout, form.CheckOut)
	if err != nil {
		return &ValidationError{
			Message: "Check-out date is not a valid date",
			Fields:  map[string]string{"check_out": "must be a valid date (YYYY-MM-DD)"},
		}
	}
	if !checkOut.After(checkIn) {
		return &ValidationError{
			Message: "Check-out date must be after the check-in date",
			Fields:  map[string]string{"check_out": "must be later than the check-in date"},
		}
	}

	return nil
}

// ComposeDetails renders the validated form as the prompt text: every
// non-empty field on its own "Label: value" line in fixed order. When the
// visitor marked this as a first boarding, the previous-experience answer is
// dropped even if present.
func (s *BookingService) ComposeDetails(form *models.BookingForm) string {
	var b strings.Builder
	b.WriteString("A visitor has submitted a boarding request through the booking form:\n")

	firstTime := strings.EqualFold(strings.TrimSpace(form.FirstTime), "Yes")
	for _, f := range fieldLabels {
		if f.key == "previous_experience" && firstTime {
			continue
		}
		v := strings.TrimSpace(f.get(form))
		if v == "" {
			continue
		}
		b.WriteString(f.label)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\n")
	}

	b.WriteString("\nPlease acknowledge the request and mention anything the owner should prepare.")
	return b.String()
}

// BuildTurn assembles the booking turn. The photo part, when present, is
// ordered before the text part so the model sees the rabbit it is reading
// about.
func (s *BookingService) BuildTurn(form *models.BookingForm, photo *models.Attachment) (*models.Turn, error) {
	details := s.ComposeDetails(form)

	var parts []models.Part
	if photo != nil {
		parts = append(parts, models.AttachmentPart{MIMEType: photo.MIMEType, Data: photo.Data})
	}
	parts = append(parts, models.TextPart{Text: details})

	return models.NewTurn(parts...)
}

// Record builds the persistable booking row from a validated form.
func (s *BookingService) Record(form *models.BookingForm, sessionID uuid.UUID, hasPhoto bool) *models.Booking {
	checkIn, _ := time.Parse(dateLayout, form.CheckIn)
	checkOut, _ := time.Parse(dateLayout, form.CheckOut)
	return &models.Booking{
		SessionID:  sessionID,
		RabbitName: strings.TrimSpace(form.RabbitName),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		DetailsRaw: s.ComposeDetails(form),
		HasPhoto:   hasPhoto,
		CreatedAt:  time.Now(),
	}
}
