package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/indiejz/storefront/internal/domain/checkout"
)

const markVerifiedSQL = `INSERT INTO verified_sessions (session_id, game_id)
	VALUES ($1, $2)
	ON CONFLICT (session_id) DO NOTHING`

var _ checkout.VerificationLog = (*VerificationLog)(nil)

// VerificationLog records which checkout sessions have already been verified.
type VerificationLog struct {
	pool *pgxpool.Pool
}

// NewVerificationLog returns a VerificationLog that uses the given pool.
func NewVerificationLog(pool *pgxpool.Pool) *VerificationLog {
	return &VerificationLog{pool: pool}
}

// MarkVerified claims a session id. The first caller wins and gets
// first = true; every later call for the same session gets first = false.
func (l *VerificationLog) MarkVerified(ctx context.Context, sessionID, gameID string) (bool, error) {
	tag, err := l.pool.Exec(ctx, markVerifiedSQL, sessionID, gameID)
	if err != nil {
		return false, fmt.Errorf("marking session %q verified: %w", sessionID, err)
	}
	return tag.RowsAffected() == 1, nil
}
