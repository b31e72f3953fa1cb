package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/indiejz/storefront/internal/domain/checkout"
	"github.com/indiejz/storefront/internal/domain/donation"
	"github.com/indiejz/storefront/internal/mail"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

func testConfig() Config {
	return Config{From: "Loja <onboarding@resend.dev>", AdminEmail: "admin@example.com"}
}

func TestSaleCompleted_SendsAdminAlertAndReceipt(t *testing.T) {
	mailer := &captureMailer{}
	n := New(mailer, testConfig(), zap.NewNop())

	n.SaleCompleted(checkout.Sale{
		GameTitle:      "Dungeon Explorer",
		PricePaid:      decimal.RequireFromString("18.00"),
		CustomerEmail:  "buyer@example.com",
		CouponCode:     "SAVE10",
		DiscountAmount: decimal.RequireFromString("2.00"),
		DownloadURL:    "https://files.example/g1.zip",
	})
	n.Close()

	msgs := mailer.messages()
	require.Len(t, msgs, 2)

	var admin, receipt *mail.Message
	for i := range msgs {
		switch msgs[i].To[0] {
		case "admin@example.com":
			admin = &msgs[i]
		case "buyer@example.com":
			receipt = &msgs[i]
		}
	}

	require.NotNil(t, admin)
	assert.Contains(t, admin.Subject, "Dungeon Explorer")
	assert.Contains(t, admin.HTML, "SAVE10")
	assert.Contains(t, admin.HTML, "R$ 18.00")

	require.NotNil(t, receipt)
	assert.Contains(t, receipt.HTML, "https://files.example/g1.zip")
}

func TestSaleCompleted_NoCustomerEmailSkipsReceipt(t *testing.T) {
	mailer := &captureMailer{}
	n := New(mailer, testConfig(), zap.NewNop())

	n.SaleCompleted(checkout.Sale{
		GameTitle: "Dungeon Explorer",
		PricePaid: decimal.RequireFromString("20.00"),
	})
	n.Close()

	msgs := mailer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"admin@example.com"}, msgs[0].To)
	assert.NotContains(t, msgs[0].HTML, "Cupom usado")
}

func TestDonationReceived(t *testing.T) {
	mailer := &captureMailer{}
	n := New(mailer, testConfig(), zap.NewNop())

	n.DonationReceived(donation.Donation{
		Name:   "Maria",
		Email:  "maria@example.com",
		Amount: decimal.RequireFromString("50.00"),
	})
	n.DonationReceived(donation.Donation{Name: "Anon", Amount: decimal.NewFromInt(5)})
	n.Close()

	msgs := mailer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"maria@example.com"}, msgs[0].To)
	assert.Contains(t, msgs[0].HTML, "Maria")
	assert.Contains(t, msgs[0].HTML, "R$ 50.00")
}

func TestNilMailerDropsQuietly(t *testing.T) {
	n := New(nil, testConfig(), zap.NewNop())

	n.SaleCompleted(checkout.Sale{GameTitle: "x", PricePaid: decimal.Zero})
	n.DonationReceived(donation.Donation{Name: "y", Email: "y@example.com", Amount: decimal.NewFromInt(1)})
	n.Close()
}

func TestSendFailureIsSwallowed(t *testing.T) {
	mailer := &captureMailer{err: context.DeadlineExceeded}
	n := New(mailer, testConfig(), zap.NewNop())

	n.SaleCompleted(checkout.Sale{
		GameTitle:     "Dungeon Explorer",
		PricePaid:     decimal.RequireFromString("20.00"),
		CustomerEmail: "buyer@example.com",
	})
	n.Close()

	assert.Empty(t, mailer.messages())
}
