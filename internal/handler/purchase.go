package handler

import (
	"net/http"
	"time"

	"github.com/indiejz/storefront/internal/domain/purchase"
)

type purchaseResponse struct {
	ID             string  `json:"id"`
	GameID         string  `json:"gameId"`
	SessionID      string  `json:"sessionId"`
	PricePaid      float64 `json:"pricePaid"`
	CouponCode     string  `json:"couponCode,omitempty"`
	DiscountAmount float64 `json:"discountAmount,omitempty"`
	CreatedAt      string  `json:"createdAt"`
}

// ListPurchases returns the purchase history for one buyer, newest first.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	purchases, err := h.purchases.ListByUser(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]purchaseResponse, len(purchases))
	for i, p := range purchases {
		resp[i] = toPurchaseResponse(p)
	}
	respondJSON(w, http.StatusOK, resp)
}

func toPurchaseResponse(p purchase.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:             p.ID,
		GameID:         p.GameID,
		SessionID:      p.SessionID,
		PricePaid:      p.PricePaid.InexactFloat64(),
		CouponCode:     p.CouponCode,
		DiscountAmount: p.DiscountAmount.InexactFloat64(),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
}
