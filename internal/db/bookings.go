package db

import (
	"context"
	"time"

	"github.com/hotelops/backend/internal/models"
)

// FindOverlapping returns bookings whose stay intersects [start, end) in one of the given statuses.
func (s *Store) FindOverlapping(ctx context.Context, hotelID string, start, end time.Time, statuses []string) ([]models.Booking, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, hotel_id, status, check_in, check_out, COALESCE(room_rate, 0)
		FROM bookings
		WHERE hotel_id = $1
			AND check_in < $3
			AND check_out > $2
			AND status = ANY($4)
		ORDER BY check_in ASC, id ASC
	`, hotelID, start, end, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.HotelID, &b.Status, &b.CheckIn, &b.CheckOut, &b.RoomRate); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) CountActiveRooms(ctx context.Context, hotelID string) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM rooms WHERE hotel_id = $1 AND is_active`, hotelID).Scan(&n)
	return n, err
}

func (s *Store) CompetitorRates(ctx context.Context, hotelID string, start, end time.Time) ([]models.RateSample, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT hotel_id, competitor, night_date, rate, captured_at
		FROM competitor_rates
		WHERE hotel_id = $1 AND night_date >= $2::date AND night_date < $3::date
		ORDER BY night_date ASC, competitor ASC
	`, hotelID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RateSample
	for rows.Next() {
		var r models.RateSample
		if err := rows.Scan(&r.HotelID, &r.Competitor, &r.NightDate, &r.Rate, &r.CapturedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CountArrivals(ctx context.Context, hotelID string, from, to time.Time) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE hotel_id = $1 AND status = ANY($2) AND check_in >= $3 AND check_in < $4
	`, hotelID, []string{models.BookingStatusPending, models.BookingStatusConfirmed}, from, to).Scan(&n)
	return n, err
}

func (s *Store) CountDepartures(ctx context.Context, hotelID string, from, to time.Time) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE hotel_id = $1 AND status = $2 AND check_out >= $3 AND check_out < $4
	`, hotelID, models.BookingStatusCheckedIn, from, to).Scan(&n)
	return n, err
}

func (s *Store) CountInhouse(ctx context.Context, hotelID string) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings WHERE hotel_id = $1 AND status = $2
	`, hotelID, models.BookingStatusCheckedIn).Scan(&n)
	return n, err
}
