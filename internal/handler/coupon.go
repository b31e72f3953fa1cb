package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/indiejz/storefront/internal/domain/coupon"
)

type validateCouponRequest struct {
	Code   string `json:"code"`
	GameID string `json:"gameId"`
}

type validateCouponResponse struct {
	Valid          bool    `json:"valid"`
	Code           string  `json:"code,omitempty"`
	DiscountAmount float64 `json:"discountAmount,omitempty"`
	FinalPrice     float64 `json:"finalPrice,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// ValidateCoupon previews a coupon against a game. A bad code is a normal
// outcome for the buyer, so every user-correctable failure is a 200 with
// valid == false; only infrastructure faults get an error status.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDomainError(w, r, err)
		return
	}
	if req.Code == "" || req.GameID == "" {
		respondError(w, http.StatusBadRequest, "code and gameId are required")
		return
	}

	g, err := h.games.GetByID(r.Context(), req.GameID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	c, err := h.validator.Validate(r.Context(), req.Code, g.ID)
	if err != nil {
		if couponRejection(err) {
			respondJSON(w, http.StatusOK, validateCouponResponse{Valid: false, Error: err.Error()})
			return
		}
		respondDomainError(w, r, err)
		return
	}

	base := g.Price.Round(2)
	respondJSON(w, http.StatusOK, validateCouponResponse{
		Valid:          true,
		Code:           c.Code,
		DiscountAmount: coupon.Discount(base, c).InexactFloat64(),
		FinalPrice:     coupon.FinalPrice(base, c).InexactFloat64(),
	})
}

// couponRejection reports whether err is a rule rejection rather than a
// system fault.
func couponRejection(err error) bool {
	return errors.Is(err, coupon.ErrNotFound) ||
		errors.Is(err, coupon.ErrNotApplicable) ||
		errors.Is(err, coupon.ErrExpired) ||
		errors.Is(err, coupon.ErrExhausted)
}
