// Package handler exposes the storefront HTTP API: catalog, coupon preview,
// checkout and verification, donations, and the API-key protected admin
// surface.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/indiejz/storefront/internal/domain/checkout"
	"github.com/indiejz/storefront/internal/domain/coupon"
	"github.com/indiejz/storefront/internal/domain/donation"
	"github.com/indiejz/storefront/internal/domain/game"
	"github.com/indiejz/storefront/internal/domain/purchase"
)

// DonationNotifier dispatches the post-donation thank-you message.
type DonationNotifier interface {
	DonationReceived(d donation.Donation)
}

// Handler carries the domain dependencies for all HTTP endpoints.
type Handler struct {
	checkouts *checkout.Service
	games     game.Repository
	coupons   coupon.AdminRepository
	validator coupon.Validator
	donations donation.Repository
	purchases purchase.Repository
	notifier  DonationNotifier
}

// New creates a Handler with the given domain dependencies.
func New(
	checkouts *checkout.Service,
	games game.Repository,
	coupons coupon.AdminRepository,
	validator coupon.Validator,
	donations donation.Repository,
	purchases purchase.Repository,
	notifier DonationNotifier,
) *Handler {
	return &Handler{
		checkouts: checkouts,
		games:     games,
		coupons:   coupons,
		validator: validator,
		donations: donations,
		purchases: purchases,
		notifier:  notifier,
	}
}

// errorResponse is the uniform error body: {"code": ..., "message": ...}.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError converts a domain error to its HTTP shape. Unknown
// errors become an opaque 500 and are logged with their cause.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := mapDomainError(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		message = "internal error"
	}
	respondError(w, status, message)
}

// mapDomainError decides the status code for each domain error.
func mapDomainError(err error) (int, string) {
	var provErr *checkout.ProviderError
	switch {
	case errors.Is(err, checkout.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, game.ErrFileUnavailable):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, checkout.ErrFreeGame):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, coupon.ErrNotApplicable),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrExhausted):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, donation.ErrInvalidAmount):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &provErr):
		return http.StatusBadGateway, provErr.Error()
	}
	return http.StatusInternalServerError, ""
}

// decodeJSON reads a request body into dst, rejecting malformed payloads.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(checkout.ErrInvalidRequest, "decode request body")
	}
	return nil
}
