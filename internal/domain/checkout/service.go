package checkout

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/indiejz/storefront/internal/domain/coupon"
	"github.com/indiejz/storefront/internal/domain/game"
	"github.com/indiejz/storefront/internal/domain/purchase"
)

// Sentinel errors for checkout requests.
var (
	ErrInvalidRequest = errors.New("missing required fields")
	ErrFreeGame       = errors.New("free games are not sold through checkout")
)

// Service owns the checkout lifecycle. Prices are always recomputed
// server-side from the catalog and coupon store; a client-supplied number is
// never charged.
type Service struct {
	games     game.Repository
	coupons   coupon.Repository
	validator coupon.Validator
	purchases purchase.Repository
	verified  VerificationLog
	provider  PaymentProvider
	notifier  Notifier
	currency  string
}

// NewService creates a checkout Service with the required dependencies.
func NewService(
	games game.Repository,
	coupons coupon.Repository,
	validator coupon.Validator,
	purchases purchase.Repository,
	verified VerificationLog,
	provider PaymentProvider,
	notifier Notifier,
	currency string,
) *Service {
	return &Service{
		games:     games,
		coupons:   coupons,
		validator: validator,
		purchases: purchases,
		verified:  verified,
		provider:  provider,
		notifier:  notifier,
		currency:  currency,
	}
}

// CreateSessionRequest is the client's checkout intent. Note the absence of
// a price field.
type CreateSessionRequest struct {
	GameID     string
	CouponCode string
	ReturnURL  string
	UserID     string
}

// CreateSessionResult holds the hosted checkout redirect for the client.
type CreateSessionResult struct {
	URL       string
	SessionID string
}

// CreateSession loads the game, re-validates the coupon, recomputes the
// final price, and creates one provider checkout session with the pricing
// audit trail embedded as session metadata.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResult, error) {
	if req.GameID == "" || req.ReturnURL == "" {
		return nil, ErrInvalidRequest
	}

	g, err := s.games.GetByID(ctx, req.GameID)
	if err != nil {
		return nil, err
	}
	if g.IsFree {
		return nil, ErrFreeGame
	}

	var c *coupon.Coupon
	if req.CouponCode != "" {
		c, err = s.validator.Validate(ctx, req.CouponCode, g.ID)
		if err != nil {
			return nil, err
		}
	}

	base := g.Price.Round(2)
	discount := coupon.Discount(base, c)
	final := coupon.FinalPrice(base, c)

	description := fmt.Sprintf("Download do jogo %s", g.Title)
	couponCode := ""
	if c != nil {
		couponCode = c.Code
		description += fmt.Sprintf(" (Cupom: %s - R$ %s de desconto)", c.Code, discount.StringFixed(2))
	}

	sess, err := s.provider.CreateSession(ctx, CreateSessionParams{
		Title:       g.Title,
		Description: description,
		AmountMinor: final.Shift(2).IntPart(),
		Currency:    s.currency,
		// {CHECKOUT_SESSION_ID} is expanded by the provider on redirect.
		SuccessURL: fmt.Sprintf("%s?success=true&game_id=%s&session_id={CHECKOUT_SESSION_ID}", req.ReturnURL, g.ID),
		CancelURL:  req.ReturnURL + "?canceled=true",
		Metadata: map[string]string{
			MetaGameID:         g.ID,
			MetaUserID:         req.UserID,
			MetaCouponCode:     couponCode,
			MetaOriginalPrice:  base.StringFixed(2),
			MetaDiscountAmount: discount.StringFixed(2),
			MetaPricePaid:      final.StringFixed(2),
		},
	})
	if err != nil {
		return nil, &ProviderError{Op: "create checkout session", Err: err}
	}

	zctx.From(ctx).Info("Checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("game_id", g.ID),
		zap.String("coupon_code", couponCode),
		zap.String("price_paid", final.StringFixed(2)),
	)

	return &CreateSessionResult{URL: sess.URL, SessionID: sess.ID}, nil
}

// VerifyResult is the outcome of a verification attempt. Verified == false
// with a message is the expected incomplete-payment state, not a fault.
type VerifyResult struct {
	Verified  bool
	Message   string
	FileURL   string
	GameTitle string
}

// VerifySession confirms payment status with the provider and, exactly once
// per session, records the sale: download counter, purchase row (for
// authenticated buyers), coupon usage, and a fire-and-forget notification.
// Repeat calls for an already-verified session return the same payload with
// no further writes.
func (s *Service) VerifySession(ctx context.Context, sessionID, gameID string) (*VerifyResult, error) {
	if sessionID == "" || gameID == "" {
		return nil, ErrInvalidRequest
	}

	lg := zctx.From(ctx)

	sess, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, &ProviderError{Op: "retrieve checkout session", Err: err}
	}

	if sess.PaymentStatus != PaymentStatusPaid {
		return &VerifyResult{Verified: false, Message: "Payment not completed"}, nil
	}

	g, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	first, err := s.verified.MarkVerified(ctx, sessionID, gameID)
	if err != nil {
		return nil, errors.Wrap(err, "record verification")
	}
	if !first {
		lg.Info("Session already verified, skipping side effects",
			zap.String("session_id", sessionID))
		return &VerifyResult{Verified: true, FileURL: g.FileURL, GameTitle: g.Title}, nil
	}

	if err := s.games.IncrementDownloads(ctx, g.ID); err != nil {
		// Best-effort counter; a miss here must not fail the verification.
		lg.Error("Increment downloads failed", zap.Error(err), zap.String("game_id", g.ID))
	}

	// Price and coupon data come from the provider-stored session metadata,
	// never from the request body.
	meta := sess.Metadata
	userID := meta[MetaUserID]
	couponCode := meta[MetaCouponCode]
	pricePaid := parseAmount(meta[MetaPricePaid])
	discountAmount := parseAmount(meta[MetaDiscountAmount])

	if userID != "" {
		p := &purchase.Purchase{
			GameID:         g.ID,
			UserID:         userID,
			SessionID:      sessionID,
			PricePaid:      pricePaid,
			CouponCode:     couponCode,
			DiscountAmount: discountAmount,
		}
		if err := s.purchases.Create(ctx, p); err != nil {
			lg.Error("Save purchase failed", zap.Error(err), zap.String("user_id", userID))
		}
	}

	if couponCode != "" {
		if err := s.coupons.IncrementUses(ctx, couponCode); err != nil {
			lg.Error("Increment coupon uses failed", zap.Error(err), zap.String("coupon_code", couponCode))
		}
	}

	s.notifier.SaleCompleted(Sale{
		GameTitle:      g.Title,
		PricePaid:      pricePaid,
		CustomerEmail:  sess.CustomerEmail,
		CouponCode:     couponCode,
		DiscountAmount: discountAmount,
		DownloadURL:    g.FileURL,
	})

	lg.Info("Payment verified",
		zap.String("session_id", sessionID),
		zap.String("game_id", g.ID),
		zap.String("price_paid", pricePaid.StringFixed(2)),
	)

	return &VerifyResult{Verified: true, FileURL: g.FileURL, GameTitle: g.Title}, nil
}

// parseAmount reads a decimal amount from session metadata, treating missing
// or malformed values as zero.
func parseAmount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
