// Package payment implements checkout.PaymentProvider on top of Stripe's
// hosted checkout sessions.
package payment

import (
	"context"

	"github.com/go-faster/errors"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/indiejz/storefront/internal/domain/checkout"
)

var _ checkout.PaymentProvider = (*StripeProvider)(nil)

// StripeProvider talks to the Stripe checkout-session API.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider creates a provider authenticated with the given secret
// key. baseURL overrides the Stripe API endpoint; leave it empty for
// production. Tests point it at a stub server.
func NewStripeProvider(secretKey, baseURL string) *StripeProvider {
	api := &client.API{}
	if baseURL != "" {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL: stripe.String(baseURL),
		})
		api.Init(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	} else {
		api.Init(secretKey, nil)
	}
	return &StripeProvider{api: api}
}

// CreateSession creates one payment-mode checkout session with a single
// line item and the given metadata.
func (s *StripeProvider) CreateSession(ctx context.Context, p checkout.CreateSessionParams) (*checkout.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(p.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(p.Title),
						Description: stripe.String(p.Description),
					},
				},
			},
		},
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "stripe: create checkout session")
	}

	return mapSession(sess), nil
}

// GetSession retrieves a checkout session by id.
func (s *StripeProvider) GetSession(ctx context.Context, id string) (*checkout.Session, error) {
	sess, err := s.api.CheckoutSessions.Get(id, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "stripe: retrieve checkout session %s", id)
	}

	return mapSession(sess), nil
}

func mapSession(sess *stripe.CheckoutSession) *checkout.Session {
	email := sess.CustomerEmail
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email = sess.CustomerDetails.Email
	}

	return &checkout.Session{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
		Metadata:      sess.Metadata,
		CustomerEmail: email,
	}
}
