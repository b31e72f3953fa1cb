package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/indiejz/storefront/internal/domain/donation"
)

type createDonationRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Amount   float64 `json:"amount"`
	Message  string  `json:"message"`
	IsPublic *bool   `json:"isPublic"`
}

type createDonationResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// CreateDonation records a supporter contribution and fires the thank-you
// email without blocking the response.
func (h *Handler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var req createDonationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDomainError(w, r, err)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	amount := decimal.NewFromFloat(req.Amount).Round(2)
	if !amount.IsPositive() {
		respondDomainError(w, r, donation.ErrInvalidAmount)
		return
	}

	// Public unless the donor opted out.
	isPublic := req.IsPublic == nil || *req.IsPublic

	d := donation.Donation{
		Name:     req.Name,
		Email:    req.Email,
		Amount:   amount,
		Message:  req.Message,
		IsPublic: isPublic,
	}
	if err := h.donations.Create(r.Context(), &d); err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.notifier.DonationReceived(d)

	respondJSON(w, http.StatusCreated, createDonationResponse{
		ID:     d.ID,
		Name:   d.Name,
		Amount: d.Amount.InexactFloat64(),
	})
}

type supporterResponse struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

const leaderboardLimit = 10

// Leaderboard returns the top public supporters by total donated amount.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	supporters, err := h.donations.Leaderboard(r.Context(), leaderboardLimit)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]supporterResponse, len(supporters))
	for i, s := range supporters {
		resp[i] = supporterResponse{
			Name:  s.Name,
			Total: s.Total.InexactFloat64(),
			Count: s.Count,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
