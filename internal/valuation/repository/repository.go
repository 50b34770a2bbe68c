// Package repository persists valuation attempts for auditing.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Attempt is one valuation request and its outcome, resolved or not.
type Attempt struct {
	ID             uuid.UUID `json:"id"`
	VehicleLabel   string    `json:"vehicleLabel"`
	BrandID        string    `json:"brandId"`
	ModelID        string    `json:"modelId"`
	YearID         string    `json:"yearId"`
	TrimID         string    `json:"trimId"`
	Kms            int       `json:"kms"`
	ContactName    string    `json:"contactName,omitempty"`
	ContactPhone   string    `json:"contactPhone,omitempty"`
	ContactEmail   string    `json:"contactEmail,omitempty"`
	Status         string    `json:"status"`
	SuggestedOffer *float64  `json:"suggestedOffer,omitempty"`
	SecondaryOffer *float64  `json:"secondaryOffer,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Repository defines persistence operations for valuation attempts.
type Repository interface {
	InsertAttempt(ctx context.Context, attempt Attempt) error
	ListRecent(ctx context.Context, limit int) ([]Attempt, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL-backed valuation repository.
func NewPostgres(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) InsertAttempt(ctx context.Context, attempt Attempt) error {
	query := `
		INSERT INTO valuation_attempts (
			id, vehicle_label, brand_id, model_id, year_id, trim_id, kms,
			contact_name, contact_phone, contact_email,
			status, suggested_offer, secondary_offer
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		attempt.ID, attempt.VehicleLabel,
		attempt.BrandID, attempt.ModelID, attempt.YearID, attempt.TrimID, attempt.Kms,
		nullable(attempt.ContactName), nullable(attempt.ContactPhone), nullable(attempt.ContactEmail),
		attempt.Status, attempt.SuggestedOffer, attempt.SecondaryOffer,
	)
	if err != nil {
		return fmt.Errorf("insert valuation attempt: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListRecent(ctx context.Context, limit int) ([]Attempt, error) {
	query := `
		SELECT id, vehicle_label, brand_id, model_id, year_id, trim_id, kms,
		       COALESCE(contact_name, ''), COALESCE(contact_phone, ''), COALESCE(contact_email, ''),
		       status, suggested_offer, secondary_offer, created_at
		FROM valuation_attempts
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list valuation attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(
			&a.ID, &a.VehicleLabel,
			&a.BrandID, &a.ModelID, &a.YearID, &a.TrimID, &a.Kms,
			&a.ContactName, &a.ContactPhone, &a.ContactEmail,
			&a.Status, &a.SuggestedOffer, &a.SecondaryOffer, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan valuation attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
