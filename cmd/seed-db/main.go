// Command seed-db loads a demo game catalog, sample coupons, and an admin
// API key into the database. It is idempotent: re-running upserts by natural
// key instead of duplicating rows.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/indiejz/storefront/internal/storage/postgres"
)

type gameJSON struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Genre        string          `json:"genre"`
	Price        decimal.Decimal `json:"price"`
	IsFree       bool            `json:"isFree"`
	FileURL      string          `json:"fileUrl"`
	FileSize     string          `json:"fileSize"`
	ThumbnailURL string          `json:"thumbnailUrl"`
	Rating       decimal.Decimal `json:"rating"`
}

func main() {
	var (
		databaseURL  string
		gamesFile    string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&gamesFile, "games-file", "db/seed/games.json", "path to games JSON file")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or STORE_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or STORE_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("STORE_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or STORE_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("STORE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, gamesFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, gamesFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedGames(ctx, pool, gamesFile); err != nil {
		return errors.Wrap(err, "seed games")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

const upsertGameSQL = `INSERT INTO games
	(id, title, description, genre, price, is_free, file_url, file_size, thumbnail_url, rating)
	VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		genre = EXCLUDED.genre,
		price = EXCLUDED.price,
		is_free = EXCLUDED.is_free,
		file_url = EXCLUDED.file_url,
		file_size = EXCLUDED.file_size,
		thumbnail_url = EXCLUDED.thumbnail_url,
		rating = EXCLUDED.rating,
		updated_at = now()`

func seedGames(ctx context.Context, pool *pgxpool.Pool, gamesFile string) error {
	slog.Info("reading games file", slog.String("path", gamesFile))

	data, err := os.ReadFile(gamesFile)
	if err != nil {
		return errors.Wrap(err, "read games file")
	}

	var games []gameJSON
	if err := json.Unmarshal(data, &games); err != nil {
		return errors.Wrap(err, "parse games JSON")
	}

	slog.Info("upserting games", slog.Int("count", len(games)))

	for _, g := range games {
		var rating *decimal.Decimal
		if g.Rating.IsPositive() {
			rating = &g.Rating
		}
		if _, err := pool.Exec(ctx, upsertGameSQL,
			g.ID, g.Title, g.Description, g.Genre, g.Price, g.IsFree,
			g.FileURL, g.FileSize, g.ThumbnailURL, rating,
		); err != nil {
			return errors.Wrapf(err, "upsert game %s", g.ID)
		}

		slog.Info("upserted game", slog.String("id", g.ID), slog.String("title", g.Title))
	}

	return nil
}

const upsertCouponSQL = `INSERT INTO coupons
	(code, discount_percent, discount_amount, max_uses, is_active)
	VALUES ($1, $2, $3, $4, TRUE)
	ON CONFLICT (code) DO UPDATE SET
		discount_percent = EXCLUDED.discount_percent,
		discount_amount = EXCLUDED.discount_amount,
		max_uses = EXCLUDED.max_uses,
		is_active = TRUE`

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding sample coupons")

	type seedCoupon struct {
		code    string
		percent *decimal.Decimal
		amount  *decimal.Decimal
		maxUses *int32
	}

	pct := func(s string) *decimal.Decimal { d := decimal.RequireFromString(s); return &d }
	amt := pct
	uses := func(n int32) *int32 { return &n }

	coupons := []seedCoupon{
		{code: "LANCAMENTO10", percent: pct("10")},
		{code: "INDIE25", percent: pct("25"), maxUses: uses(500)},
		{code: "APOIADOR5", amount: amt("5.00")},
	}

	for _, c := range coupons {
		if _, err := pool.Exec(ctx, upsertCouponSQL, c.code, c.percent, c.amount, c.maxUses); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}
		slog.Info("upserted coupon", slog.String("code", c.code))
	}

	return nil
}

const upsertAPIKeySQL = `INSERT INTO api_keys (key_hash, name, scopes, active)
	VALUES ($1, $2, $3, TRUE)
	ON CONFLICT (key_hash) DO UPDATE SET active = TRUE`

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding admin api key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	hash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertAPIKeySQL, hash, "seed-admin", []string{"admin"}); err != nil {
		return errors.Wrap(err, "upsert api key")
	}

	return nil
}
