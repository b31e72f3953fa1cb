package checkout

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indiejz/storefront/internal/domain/coupon"
	"github.com/indiejz/storefront/internal/domain/game"
	"github.com/indiejz/storefront/internal/domain/purchase"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeGames struct {
	games     map[string]*game.Game
	downloads map[string]int
	getErr    error
}

func (f *fakeGames) List(context.Context) ([]game.Game, error) { return nil, nil }
func (f *fakeGames) Create(context.Context, *game.Game) error  { return nil }
func (f *fakeGames) Update(context.Context, *game.Game) error  { return nil }
func (f *fakeGames) Delete(context.Context, string) error      { return nil }

func (f *fakeGames) GetByID(_ context.Context, id string) (*game.Game, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	g, ok := f.games[id]
	if !ok {
		return nil, game.ErrNotFound
	}
	return g, nil
}

func (f *fakeGames) IncrementDownloads(_ context.Context, id string) error {
	if f.downloads == nil {
		f.downloads = make(map[string]int)
	}
	f.downloads[id]++
	return nil
}

type fakeCoupons struct {
	byCode     map[string]*coupon.Coupon
	increments map[string]int
}

func (f *fakeCoupons) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := f.byCode[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

func (f *fakeCoupons) IncrementUses(_ context.Context, code string) error {
	if f.increments == nil {
		f.increments = make(map[string]int)
	}
	f.increments[code]++
	return nil
}

type fakePurchases struct {
	created []*purchase.Purchase
}

func (f *fakePurchases) Create(_ context.Context, p *purchase.Purchase) error {
	f.created = append(f.created, p)
	return nil
}

func (f *fakePurchases) ListByUser(context.Context, string) ([]purchase.Purchase, error) {
	return nil, nil
}

func (f *fakePurchases) Report(context.Context) (*purchase.SalesReport, error) {
	return nil, nil
}

type fakeVerificationLog struct {
	seen map[string]bool
}

func (f *fakeVerificationLog) MarkVerified(_ context.Context, sessionID, _ string) (bool, error) {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[sessionID] {
		return false, nil
	}
	f.seen[sessionID] = true
	return true, nil
}

type fakeProvider struct {
	created    []CreateSessionParams
	session    *Session
	createErr  error
	getErr     error
	getCalls   int
}

func (f *fakeProvider) CreateSession(_ context.Context, p CreateSessionParams) (*Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, p)
	return &Session{ID: "cs_test_123", URL: "https://checkout.example/cs_test_123"}, nil
}

func (f *fakeProvider) GetSession(_ context.Context, _ string) (*Session, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session, nil
}

type fakeNotifier struct {
	sales []Sale
}

func (f *fakeNotifier) SaleCompleted(s Sale) { f.sales = append(f.sales, s) }

func newTestService(games *fakeGames, coupons *fakeCoupons, provider *fakeProvider) (*Service, *fakePurchases, *fakeNotifier) {
	purchases := &fakePurchases{}
	notifier := &fakeNotifier{}
	svc := NewService(
		games,
		coupons,
		coupon.NewRepoValidator(coupons),
		purchases,
		&fakeVerificationLog{},
		provider,
		notifier,
		"brl",
	)
	return svc, purchases, notifier
}

func paidGame() *fakeGames {
	return &fakeGames{games: map[string]*game.Game{
		"g1": {ID: "g1", Title: "Dungeon Explorer", Price: dec("20.00"), FileURL: "https://files.example/g1.zip"},
		"g2": {ID: "g2", Title: "Mini Puzzle Pack", IsFree: true, FileURL: "https://files.example/g2.zip"},
	}}
}

func TestCreateSession_MissingFields(t *testing.T) {
	provider := &fakeProvider{}
	svc, _, _ := newTestService(paidGame(), &fakeCoupons{}, provider)

	_, err := svc.CreateSession(context.Background(), CreateSessionRequest{ReturnURL: "https://shop.example"})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.CreateSession(context.Background(), CreateSessionRequest{GameID: "g1"})
	require.ErrorIs(t, err, ErrInvalidRequest)

	assert.Empty(t, provider.created, "no session may be created on invalid input")
}

func TestCreateSession_FreeGameRejected(t *testing.T) {
	svc, _, _ := newTestService(paidGame(), &fakeCoupons{}, &fakeProvider{})

	_, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		GameID:    "g2",
		ReturnURL: "https://shop.example",
	})
	require.ErrorIs(t, err, ErrFreeGame)
}

func TestCreateSession_RecomputesPriceWithCoupon(t *testing.T) {
	coupons := &fakeCoupons{byCode: map[string]*coupon.Coupon{
		"SAVE10": {Code: "SAVE10", Percent: dec("10"), Active: true},
	}}
	provider := &fakeProvider{}
	svc, _, _ := newTestService(paidGame(), coupons, provider)

	res, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		GameID:     "g1",
		CouponCode: "save10",
		ReturnURL:  "https://shop.example",
		UserID:     "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", res.SessionID)
	assert.NotEmpty(t, res.URL)

	require.Len(t, provider.created, 1)
	p := provider.created[0]
	assert.Equal(t, int64(1800), p.AmountMinor)
	assert.Equal(t, "brl", p.Currency)
	assert.Equal(t, "https://shop.example?success=true&game_id=g1&session_id={CHECKOUT_SESSION_ID}", p.SuccessURL)
	assert.Equal(t, "https://shop.example?canceled=true", p.CancelURL)
	assert.Equal(t, "g1", p.Metadata[MetaGameID])
	assert.Equal(t, "u1", p.Metadata[MetaUserID])
	assert.Equal(t, "SAVE10", p.Metadata[MetaCouponCode])
	assert.Equal(t, "20.00", p.Metadata[MetaOriginalPrice])
	assert.Equal(t, "2.00", p.Metadata[MetaDiscountAmount])
	assert.Equal(t, "18.00", p.Metadata[MetaPricePaid])

	// Validation is read-only; usage is consumed at verification time.
	assert.Empty(t, coupons.increments)
}

func TestCreateSession_InvalidCouponBlocksNothingElse(t *testing.T) {
	provider := &fakeProvider{}
	svc, _, _ := newTestService(paidGame(), &fakeCoupons{}, provider)

	_, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		GameID:     "g1",
		CouponCode: "BOGUS",
		ReturnURL:  "https://shop.example",
	})
	require.ErrorIs(t, err, coupon.ErrNotFound)
	assert.Empty(t, provider.created)

	// Retrying without the coupon proceeds at full price.
	_, err = svc.CreateSession(context.Background(), CreateSessionRequest{
		GameID:    "g1",
		ReturnURL: "https://shop.example",
	})
	require.NoError(t, err)
	require.Len(t, provider.created, 1)
	assert.Equal(t, int64(2000), provider.created[0].AmountMinor)
	assert.Equal(t, "", provider.created[0].Metadata[MetaCouponCode])
	assert.Equal(t, "0.00", provider.created[0].Metadata[MetaDiscountAmount])
}

func TestCreateSession_ProviderError(t *testing.T) {
	provider := &fakeProvider{createErr: errors.New("invalid api key")}
	svc, _, _ := newTestService(paidGame(), &fakeCoupons{}, provider)

	_, err := svc.CreateSession(context.Background(), CreateSessionRequest{
		GameID:    "g1",
		ReturnURL: "https://shop.example",
	})

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "invalid api key")
}

func TestVerifySession_MissingFields(t *testing.T) {
	svc, _, _ := newTestService(paidGame(), &fakeCoupons{}, &fakeProvider{})

	_, err := svc.VerifySession(context.Background(), "", "g1")
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.VerifySession(context.Background(), "cs_1", "")
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestVerifySession_UnpaidPerformsNoWrites(t *testing.T) {
	games := paidGame()
	coupons := &fakeCoupons{}
	provider := &fakeProvider{session: &Session{
		ID:            "cs_1",
		PaymentStatus: "unpaid",
		Metadata:      map[string]string{MetaUserID: "u1", MetaCouponCode: "SAVE10"},
	}}
	svc, purchases, notifier := newTestService(games, coupons, provider)

	res, err := svc.VerifySession(context.Background(), "cs_1", "g1")
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, "Payment not completed", res.Message)

	assert.Empty(t, purchases.created)
	assert.Empty(t, games.downloads)
	assert.Empty(t, coupons.increments)
	assert.Empty(t, notifier.sales)
}

func TestVerifySession_PaidRecordsSaleOnce(t *testing.T) {
	games := paidGame()
	coupons := &fakeCoupons{byCode: map[string]*coupon.Coupon{
		"SAVE10": {Code: "SAVE10", Percent: dec("10"), Active: true},
	}}
	provider := &fakeProvider{session: &Session{
		ID:            "cs_1",
		PaymentStatus: PaymentStatusPaid,
		CustomerEmail: "buyer@example.com",
		Metadata: map[string]string{
			MetaGameID:         "g1",
			MetaUserID:         "u1",
			MetaCouponCode:     "SAVE10",
			MetaOriginalPrice:  "20.00",
			MetaDiscountAmount: "2.00",
			MetaPricePaid:      "18.00",
		},
	}}
	svc, purchases, notifier := newTestService(games, coupons, provider)

	res, err := svc.VerifySession(context.Background(), "cs_1", "g1")
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, "https://files.example/g1.zip", res.FileURL)
	assert.Equal(t, "Dungeon Explorer", res.GameTitle)

	require.Len(t, purchases.created, 1)
	p := purchases.created[0]
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "cs_1", p.SessionID)
	assert.True(t, dec("18.00").Equal(p.PricePaid))
	assert.Equal(t, "SAVE10", p.CouponCode)
	assert.True(t, dec("2.00").Equal(p.DiscountAmount))

	assert.Equal(t, 1, games.downloads["g1"])
	assert.Equal(t, 1, coupons.increments["SAVE10"])

	require.Len(t, notifier.sales, 1)
	assert.Equal(t, "buyer@example.com", notifier.sales[0].CustomerEmail)
	assert.True(t, dec("18.00").Equal(notifier.sales[0].PricePaid))

	// A duplicate verification (success-page reload) returns the same
	// payload without repeating any side effect.
	res2, err := svc.VerifySession(context.Background(), "cs_1", "g1")
	require.NoError(t, err)
	assert.True(t, res2.Verified)
	assert.Equal(t, res.FileURL, res2.FileURL)

	assert.Len(t, purchases.created, 1)
	assert.Equal(t, 1, games.downloads["g1"])
	assert.Equal(t, 1, coupons.increments["SAVE10"])
	assert.Len(t, notifier.sales, 1)
}

func TestVerifySession_AnonymousBuyerSkipsPurchase(t *testing.T) {
	games := paidGame()
	provider := &fakeProvider{session: &Session{
		ID:            "cs_2",
		PaymentStatus: PaymentStatusPaid,
		Metadata: map[string]string{
			MetaGameID:    "g1",
			MetaPricePaid: "20.00",
		},
	}}
	svc, purchases, notifier := newTestService(games, &fakeCoupons{}, provider)

	res, err := svc.VerifySession(context.Background(), "cs_2", "g1")
	require.NoError(t, err)
	assert.True(t, res.Verified)

	assert.Empty(t, purchases.created, "anonymous checkout records no purchase")
	assert.Equal(t, 1, games.downloads["g1"])
	assert.Len(t, notifier.sales, 1)
}

func TestVerifySession_GameNotFound(t *testing.T) {
	provider := &fakeProvider{session: &Session{ID: "cs_3", PaymentStatus: PaymentStatusPaid}}
	svc, _, _ := newTestService(paidGame(), &fakeCoupons{}, provider)

	_, err := svc.VerifySession(context.Background(), "cs_3", "missing")
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestVerifySession_ProviderError(t *testing.T) {
	provider := &fakeProvider{getErr: errors.New("no such session")}
	svc, purchases, _ := newTestService(paidGame(), &fakeCoupons{}, provider)

	_, err := svc.VerifySession(context.Background(), "cs_4", "g1")

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, purchases.created)
}
