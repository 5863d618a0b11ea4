package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingForm is the raw snapshot of the boarding request form. Field names
// mirror the form inputs on the widget page.
type BookingForm struct {
	RabbitName          string `json:"rabbit_name"`
	Gender              string `json:"gender"`
	Age                 string `json:"age"`
	Breed               string `json:"breed"`
	MedicalCondition    string `json:"medical_condition"`
	Temperament         string `json:"temperament"`
	Favorites           string `json:"favorites"`
	Habits              string `json:"habits"`
	Routine             string `json:"routine"`
	SpecialRequirements string `json:"special_requirements"`
	Sterilised          string `json:"sterilised"`
	Vaccinated          string `json:"vaccinated"`
	FirstTime           string `json:"first_time"` // "Yes" | "No"
	PreviousExperience  string `json:"previous_experience"`
	CheckIn             string `json:"check_in"`  // YYYY-MM-DD
	CheckOut            string `json:"check_out"` // YYYY-MM-DD
}

// Booking is a persisted boarding inquiry.
type Booking struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	RabbitName string    `json:"rabbit_name"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	DetailsRaw string    `json:"details"`
	HasPhoto   bool      `json:"has_photo"`
	CreatedAt  time.Time `json:"created_at"`
}

type BookingListResponse struct {
	Bookings []*Booking `json:"bookings"`
}

// Attachment is an encoded file ready to be embedded in a turn.
type Attachment struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // base64, standard encoding
}
