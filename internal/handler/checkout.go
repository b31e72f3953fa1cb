package handler

import (
	"net/http"

	"github.com/indiejz/storefront/internal/domain/checkout"
)

type createCheckoutRequest struct {
	GameID     string `json:"gameId"`
	CouponCode string `json:"couponCode"`
	ReturnURL  string `json:"returnUrl"`
	UserID     string `json:"userId"`
}

type createCheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// CreateCheckout starts a hosted checkout session for a paid game. The price
// is recomputed server-side; the request never carries one.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req createCheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDomainError(w, r, err)
		return
	}

	result, err := h.checkouts.CreateSession(r.Context(), checkout.CreateSessionRequest{
		GameID:     req.GameID,
		CouponCode: req.CouponCode,
		ReturnURL:  req.ReturnURL,
		UserID:     req.UserID,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, createCheckoutResponse{
		URL:       result.URL,
		SessionID: result.SessionID,
	})
}

type verifyPaymentRequest struct {
	SessionID string `json:"sessionId"`
	GameID    string `json:"gameId"`
}

type verifyPaymentResponse struct {
	Verified  bool   `json:"verified"`
	Message   string `json:"message,omitempty"`
	FileURL   string `json:"fileUrl,omitempty"`
	GameTitle string `json:"gameTitle,omitempty"`
}

// VerifyPayment confirms a session's payment status with the provider and
// releases the download link. An unpaid session is a 200 with
// verified == false, not an error.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDomainError(w, r, err)
		return
	}

	result, err := h.checkouts.VerifySession(r.Context(), req.SessionID, req.GameID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, verifyPaymentResponse{
		Verified:  result.Verified,
		Message:   result.Message,
		FileURL:   result.FileURL,
		GameTitle: result.GameTitle,
	})
}
