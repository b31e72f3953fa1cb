// Package app wires the storefront together: configuration, database,
// payment provider, mail, HTTP server, and graceful shutdown.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/indiejz/storefront/internal/domain/checkout"
	"github.com/indiejz/storefront/internal/domain/coupon"
	"github.com/indiejz/storefront/internal/handler"
	"github.com/indiejz/storefront/internal/mail"
	"github.com/indiejz/storefront/internal/notify"
	"github.com/indiejz/storefront/internal/payment"
	"github.com/indiejz/storefront/internal/storage/postgres"
	"github.com/indiejz/storefront/pkg/health"
	"github.com/indiejz/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	gameRepo := postgres.NewGameRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	purchaseRepo := postgres.NewPurchaseRepository(pool)
	donationRepo := postgres.NewDonationRepository(pool)
	verificationLog := postgres.NewVerificationLog(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)

	// Payment provider.
	provider := payment.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.APIURL)

	// Mail + notifications. No Resend key means the notifier logs and drops.
	var mailer mail.Mailer
	if cfg.Mail.APIKey != "" {
		mailer, err = mail.NewResendMailer(cfg.Mail.APIKey, cfg.Mail.APIURL)
		if err != nil {
			return errors.Wrap(err, "create mailer")
		}
	}
	notifier := notify.New(mailer, notify.Config{
		From:       cfg.Mail.From,
		AdminEmail: cfg.Mail.AdminEmail,
	}, lg.Named("notify"))
	defer notifier.Close()

	// Domain services.
	couponValidator := coupon.NewRepoValidator(couponRepo)
	checkoutSvc := checkout.NewService(
		gameRepo,
		couponRepo,
		couponValidator,
		purchaseRepo,
		verificationLog,
		provider,
		notifier,
		cfg.Currency,
	)

	// HTTP handlers.
	h := handler.New(
		checkoutSvc,
		gameRepo,
		couponRepo,
		couponValidator,
		donationRepo,
		purchaseRepo,
		notifier,
	)
	adminAuth := handler.NewAPIKeyAuth(apikeyRepo, []byte(cfg.APIKeyPepper))

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Router(adminAuth))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-API-Key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
