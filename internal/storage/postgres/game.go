package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/indiejz/storefront/internal/domain/game"
)

const (
	gameColumns = `id, title, description, genre, price, is_free,
		file_url, file_size, thumbnail_url, rating, downloads, created_at, updated_at`

	listGamesSQL = `SELECT ` + gameColumns + ` FROM games ORDER BY created_at DESC`

	getGameSQL = `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	createGameSQL = `INSERT INTO games
		(id, title, description, genre, price, is_free, file_url, file_size, thumbnail_url, rating)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10)`

	updateGameSQL = `UPDATE games SET
		title = $2, description = $3, genre = $4, price = $5, is_free = $6,
		file_url = NULLIF($7, ''), file_size = NULLIF($8, ''), thumbnail_url = NULLIF($9, ''),
		rating = $10, updated_at = now()
		WHERE id = $1`

	deleteGameSQL = `DELETE FROM games WHERE id = $1`

	// Atomic increment: never read-then-write, so concurrent verifications
	// cannot lose counts.
	incrementDownloadsSQL = `UPDATE games SET downloads = downloads + 1 WHERE id = $1`
)

var _ game.Repository = (*GameRepository)(nil)

// GameRepository implements game.Repository backed by PostgreSQL.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository returns a GameRepository that uses the given pool.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

// List returns the full catalog, newest first.
func (r *GameRepository) List(ctx context.Context) ([]game.Game, error) {
	rows, err := r.pool.Query(ctx, listGamesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}

	games, err := pgx.CollectRows(rows, scanGame)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	return games, nil
}

// GetByID returns one game or game.ErrNotFound.
func (r *GameRepository) GetByID(ctx context.Context, id string) (*game.Game, error) {
	rows, err := r.pool.Query(ctx, getGameSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding game %q: %w", id, err)
	}

	g, err := pgx.CollectExactlyOneRow(rows, scanGame)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrNotFound
		}
		return nil, fmt.Errorf("finding game %q: %w", id, err)
	}
	return &g, nil
}

// Create inserts a new catalog entry.
func (r *GameRepository) Create(ctx context.Context, g *game.Game) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	var rating *decimal.Decimal
	if g.Rating.IsPositive() {
		rating = &g.Rating
	}
	_, err := r.pool.Exec(ctx, createGameSQL,
		g.ID, g.Title, g.Description, g.Genre, g.Price, g.IsFree,
		g.FileURL, g.FileSize, g.ThumbnailURL, rating,
	)
	if err != nil {
		return fmt.Errorf("creating game %q: %w", g.ID, err)
	}
	return nil
}

// Update rewrites a catalog entry in full.
func (r *GameRepository) Update(ctx context.Context, g *game.Game) error {
	var rating *decimal.Decimal
	if g.Rating.IsPositive() {
		rating = &g.Rating
	}
	tag, err := r.pool.Exec(ctx, updateGameSQL,
		g.ID, g.Title, g.Description, g.Genre, g.Price, g.IsFree,
		g.FileURL, g.FileSize, g.ThumbnailURL, rating,
	)
	if err != nil {
		return fmt.Errorf("updating game %q: %w", g.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrNotFound
	}
	return nil
}

// Delete removes a catalog entry.
func (r *GameRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteGameSQL, id)
	if err != nil {
		return fmt.Errorf("deleting game %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrNotFound
	}
	return nil
}

// IncrementDownloads bumps the download counter by one.
func (r *GameRepository) IncrementDownloads(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, incrementDownloadsSQL, id); err != nil {
		return fmt.Errorf("incrementing downloads for game %q: %w", id, err)
	}
	return nil
}

func scanGame(row pgx.CollectableRow) (game.Game, error) {
	var (
		g         game.Game
		desc      *string
		genre     *string
		fileURL   *string
		fileSize  *string
		thumbnail *string
		rating    *decimal.Decimal
		createdAt *time.Time
		updatedAt *time.Time
	)
	err := row.Scan(
		&g.ID, &g.Title, &desc, &genre, &g.Price, &g.IsFree,
		&fileURL, &fileSize, &thumbnail, &rating, &g.Downloads,
		&createdAt, &updatedAt,
	)
	if desc != nil {
		g.Description = *desc
	}
	if genre != nil {
		g.Genre = *genre
	}
	if fileURL != nil {
		g.FileURL = *fileURL
	}
	if fileSize != nil {
		g.FileSize = *fileSize
	}
	if thumbnail != nil {
		g.ThumbnailURL = *thumbnail
	}
	if rating != nil {
		g.Rating = *rating
	}
	if createdAt != nil {
		g.CreatedAt = *createdAt
	}
	if updatedAt != nil {
		g.UpdatedAt = *updatedAt
	}
	return g, err
}
