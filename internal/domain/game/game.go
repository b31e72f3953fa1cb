package game

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested game does not exist.
	ErrNotFound = errors.New("game not found")
	// ErrFileUnavailable is returned when a game has no download artifact yet.
	ErrFileUnavailable = errors.New("game file unavailable")
)

// Game represents a catalog entry available for download or purchase.
type Game struct {
	ID           string
	Title        string
	Description  string
	Genre        string
	Price        decimal.Decimal
	IsFree       bool
	FileURL      string
	FileSize     string
	ThumbnailURL string
	Rating       decimal.Decimal
	Downloads    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository defines persistence operations for the game catalog.
type Repository interface {
	List(ctx context.Context) ([]Game, error)
	GetByID(ctx context.Context, id string) (*Game, error)
	Create(ctx context.Context, g *Game) error
	Update(ctx context.Context, g *Game) error
	Delete(ctx context.Context, id string) error
	// IncrementDownloads bumps the download counter by one with a single
	// atomic UPDATE, never a read-then-write.
	IncrementDownloads(ctx context.Context, id string) error
}
