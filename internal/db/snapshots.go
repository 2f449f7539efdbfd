package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/hotelops/backend/internal/models"
)

// LatestSnapshot returns the newest snapshot in the (hotel, version) series, or nil when the series is empty.
func (s *Store) LatestSnapshot(ctx context.Context, hotelID, version string) (*models.PricingSnapshot, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, hotel_id, version, generated_at_utc, result, created_at
		FROM pricing_snapshots
		WHERE hotel_id = $1 AND version = $2
		ORDER BY generated_at_utc DESC
		LIMIT 1
	`, hotelID, version)

	var (
		snap models.PricingSnapshot
		raw  []byte
	)
	if err := row.Scan(&snap.ID, &snap.HotelID, &snap.Version, &snap.GeneratedAtUTC, &raw, &snap.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &snap.Result); err != nil {
		return nil, err
	}
	return &snap, nil
}

// AppendSnapshot inserts a new row; snapshots are never updated.
func (s *Store) AppendSnapshot(ctx context.Context, snap models.PricingSnapshot) error {
	raw, err := json.Marshal(snap.Result)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO pricing_snapshots (id, hotel_id, version, generated_at_utc, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, snap.ID, snap.HotelID, snap.Version, snap.GeneratedAtUTC, raw, snap.CreatedAt)
	return err
}
