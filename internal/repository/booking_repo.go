package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"warren-backend/internal/models"
)

type BookingRepo struct {
	pool *pgxpool.Pool
}

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepo {
	return &BookingRepo{pool: pool}
}

// Create inserts the booking and fills in its id and created_at.
func (r *BookingRepo) Create(ctx context.Context, b *models.Booking) error {
	b.ID = uuid.New()

	query := `INSERT INTO bookings (id, session_id, rabbit_name, check_in, check_out, details, has_photo)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		b.ID, b.SessionID, b.RabbitName, b.CheckIn, b.CheckOut, b.DetailsRaw, b.HasPhoto,
	).Scan(&b.CreatedAt)
}

// ListBySession returns a session's boarding inquiries, newest first.
func (r *BookingRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.Booking, error) {
	query := `SELECT id, session_id, rabbit_name, check_in, check_out, details, has_photo, created_at
		FROM bookings WHERE session_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b := &models.Booking{}
		err := rows.Scan(
			&b.ID, &b.SessionID, &b.RabbitName, &b.CheckIn, &b.CheckOut,
			&b.DetailsRaw, &b.HasPhoto, &b.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}
