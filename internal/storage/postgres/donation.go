package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/indiejz/storefront/internal/domain/donation"
)

const (
	createDonationSQL = `INSERT INTO donations (id, name, email, amount, message, is_public)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6)
		RETURNING created_at`

	leaderboardSQL = `SELECT name, SUM(amount), COUNT(*)
		FROM donations
		WHERE is_public = TRUE
		GROUP BY name
		ORDER BY SUM(amount) DESC, name
		LIMIT $1`
)

var _ donation.Repository = (*DonationRepository)(nil)

// DonationRepository implements donation.Repository backed by PostgreSQL.
type DonationRepository struct {
	pool *pgxpool.Pool
}

// NewDonationRepository returns a DonationRepository that uses the given pool.
func NewDonationRepository(pool *pgxpool.Pool) *DonationRepository {
	return &DonationRepository{pool: pool}
}

// Create inserts a donation and fills in its creation timestamp.
func (r *DonationRepository) Create(ctx context.Context, d *donation.Donation) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, createDonationSQL,
		d.ID, d.Name, d.Email, d.Amount, d.Message, d.IsPublic,
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating donation: %w", err)
	}
	return nil
}

// Leaderboard returns the top public supporters by total donated amount.
func (r *DonationRepository) Leaderboard(ctx context.Context, limit int) ([]donation.Supporter, error) {
	rows, err := r.pool.Query(ctx, leaderboardSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("loading donation leaderboard: %w", err)
	}

	supporters, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (donation.Supporter, error) {
		var s donation.Supporter
		err := row.Scan(&s.Name, &s.Total, &s.Count)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("loading donation leaderboard: %w", err)
	}
	return supporters, nil
}
