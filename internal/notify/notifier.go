// Package notify dispatches post-sale and donation emails. Everything here
// is fire-and-forget: a send failure is logged and swallowed, and must never
// delay or fail the request that triggered it.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/indiejz/storefront/internal/domain/checkout"
	"github.com/indiejz/storefront/internal/domain/donation"
	"github.com/indiejz/storefront/internal/mail"
)

var _ checkout.Notifier = (*Notifier)(nil)

// Config holds the addressing for outbound notifications.
type Config struct {
	From       string
	AdminEmail string
	// SendTimeout bounds each provider call. Defaults to 10s.
	SendTimeout time.Duration
}

// Notifier sends sale alerts, customer receipts, and donation thank-yous in
// background goroutines. Close drains in-flight sends.
type Notifier struct {
	mailer mail.Mailer // nil disables sending
	cfg    Config
	lg     *zap.Logger
	wg     sync.WaitGroup
}

// New creates a Notifier. A nil mailer disables delivery; events are logged
// and dropped, which keeps local development working without a Resend key.
func New(mailer mail.Mailer, cfg Config, lg *zap.Logger) *Notifier {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	return &Notifier{mailer: mailer, cfg: cfg, lg: lg}
}

// SaleCompleted dispatches the admin sale alert and, when the buyer's email
// is known, a receipt with the download link. Returns immediately.
func (n *Notifier) SaleCompleted(sale checkout.Sale) {
	if n.mailer == nil {
		n.lg.Info("Notifications disabled, dropping sale alert",
			zap.String("game_title", sale.GameTitle))
		return
	}

	n.dispatch("sale admin alert", mail.Message{
		From:    n.cfg.From,
		To:      []string{n.cfg.AdminEmail},
		Subject: fmt.Sprintf("🎮 Nova Venda: %s", sale.GameTitle),
		HTML:    adminSaleHTML(sale),
	})

	if sale.CustomerEmail != "" {
		n.dispatch("sale receipt", mail.Message{
			From:    n.cfg.From,
			To:      []string{sale.CustomerEmail},
			Subject: fmt.Sprintf("Seu download: %s", sale.GameTitle),
			HTML:    receiptHTML(sale),
		})
	}
}

// DonationReceived dispatches a thank-you email to the supporter.
func (n *Notifier) DonationReceived(d donation.Donation) {
	if n.mailer == nil || d.Email == "" {
		return
	}

	n.dispatch("donation thanks", mail.Message{
		From:    n.cfg.From,
		To:      []string{d.Email},
		Subject: "Obrigado pela sua doação! 💚",
		HTML:    donationThanksHTML(d.Name, d.Amount),
	})
}

// dispatch sends one message in the background with its own timeout context.
func (n *Notifier) dispatch(kind string, msg mail.Message) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), n.cfg.SendTimeout)
		defer cancel()

		if err := n.mailer.Send(ctx, msg); err != nil {
			n.lg.Error("Notification send failed",
				zap.String("kind", kind),
				zap.Strings("to", msg.To),
				zap.Error(err),
			)
			return
		}
		n.lg.Info("Notification sent",
			zap.String("kind", kind),
			zap.Strings("to", msg.To),
		)
	}()
}

// Close waits for in-flight sends to finish. Called during shutdown.
func (n *Notifier) Close() {
	n.wg.Wait()
}

func formatBRL(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}
