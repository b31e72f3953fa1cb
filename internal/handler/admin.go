package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/indiejz/storefront/internal/domain/coupon"
	"github.com/indiejz/storefront/internal/domain/game"
)

type couponPayload struct {
	Code            string  `json:"code"`
	DiscountPercent float64 `json:"discountPercent"`
	DiscountAmount  float64 `json:"discountAmount"`
	MaxUses         int     `json:"maxUses"`
	ExpiresAt       string  `json:"expiresAt"`
	IsActive        *bool   `json:"isActive"`
	GameID          string  `json:"gameId"`
}

type couponResponse struct {
	ID              string  `json:"id"`
	Code            string  `json:"code"`
	DiscountPercent float64 `json:"discountPercent,omitempty"`
	DiscountAmount  float64 `json:"discountAmount,omitempty"`
	MaxUses         int     `json:"maxUses,omitempty"`
	CurrentUses     int     `json:"currentUses"`
	ExpiresAt       string  `json:"expiresAt,omitempty"`
	IsActive        bool    `json:"isActive"`
	GameID          string  `json:"gameId,omitempty"`
	CreatedAt       string  `json:"createdAt"`
}

func toCouponResponse(c coupon.Coupon) couponResponse {
	resp := couponResponse{
		ID:              c.ID,
		Code:            c.Code,
		DiscountPercent: c.Percent.InexactFloat64(),
		DiscountAmount:  c.Amount.InexactFloat64(),
		MaxUses:         c.MaxUses,
		CurrentUses:     c.CurrentUses,
		IsActive:        c.Active,
		GameID:          c.GameID,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
	if c.ExpiresAt != nil {
		resp.ExpiresAt = c.ExpiresAt.Format(time.RFC3339)
	}
	return resp
}

// couponFromPayload validates the percent-xor-amount rule and builds the
// domain coupon.
func couponFromPayload(p couponPayload) (*coupon.Coupon, string) {
	if p.Code == "" {
		return nil, "code is required"
	}
	hasPercent := p.DiscountPercent > 0
	hasAmount := p.DiscountAmount > 0
	if hasPercent == hasAmount {
		return nil, "exactly one of discountPercent and discountAmount must be positive"
	}
	if p.DiscountPercent > 100 {
		return nil, "discountPercent must not exceed 100"
	}

	c := &coupon.Coupon{
		Code:    coupon.Normalize(p.Code),
		MaxUses: p.MaxUses,
		Active:  p.IsActive == nil || *p.IsActive,
		GameID:  p.GameID,
	}
	if hasPercent {
		c.Percent = decimal.NewFromFloat(p.DiscountPercent)
	} else {
		c.Amount = decimal.NewFromFloat(p.DiscountAmount).Round(2)
	}
	if p.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, p.ExpiresAt)
		if err != nil {
			return nil, "invalid expiresAt; use RFC3339"
		}
		c.ExpiresAt = &t
	}
	return c, ""
}

// AdminListCoupons returns all coupons including inactive ones.
func (h *Handler) AdminListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		resp[i] = toCouponResponse(c)
	}
	respondJSON(w, http.StatusOK, resp)
}

// AdminCreateCoupon creates a coupon from an admin payload.
func (h *Handler) AdminCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var payload couponPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondDomainError(w, r, err)
		return
	}

	c, msg := couponFromPayload(payload)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.coupons.Create(r.Context(), c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCouponResponse(*c))
}

// AdminUpdateCoupon rewrites a coupon's rule and status.
func (h *Handler) AdminUpdateCoupon(w http.ResponseWriter, r *http.Request) {
	var payload couponPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondDomainError(w, r, err)
		return
	}

	c, msg := couponFromPayload(payload)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	c.ID = chi.URLParam(r, "id")

	if err := h.coupons.Update(r.Context(), c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCouponResponse(*c))
}

// AdminDeleteCoupon removes a coupon.
func (h *Handler) AdminDeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type gamePayload struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Genre        string  `json:"genre"`
	Price        float64 `json:"price"`
	IsFree       bool    `json:"isFree"`
	FileURL      string  `json:"fileUrl"`
	FileSize     string  `json:"fileSize"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	Rating       float64 `json:"rating"`
}

func gameFromPayload(p gamePayload) (*game.Game, string) {
	if p.Title == "" {
		return nil, "title is required"
	}
	if p.Price < 0 {
		return nil, "price must not be negative"
	}
	return &game.Game{
		Title:        p.Title,
		Description:  p.Description,
		Genre:        p.Genre,
		Price:        decimal.NewFromFloat(p.Price).Round(2),
		IsFree:       p.IsFree,
		FileURL:      p.FileURL,
		FileSize:     p.FileSize,
		ThumbnailURL: p.ThumbnailURL,
		Rating:       decimal.NewFromFloat(p.Rating),
	}, ""
}

// AdminCreateGame adds a catalog entry.
func (h *Handler) AdminCreateGame(w http.ResponseWriter, r *http.Request) {
	var payload gamePayload
	if err := decodeJSON(r, &payload); err != nil {
		respondDomainError(w, r, err)
		return
	}

	g, msg := gameFromPayload(payload)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.games.Create(r.Context(), g); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toGameResponse(*g))
}

// AdminUpdateGame rewrites a catalog entry.
func (h *Handler) AdminUpdateGame(w http.ResponseWriter, r *http.Request) {
	var payload gamePayload
	if err := decodeJSON(r, &payload); err != nil {
		respondDomainError(w, r, err)
		return
	}

	g, msg := gameFromPayload(payload)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	g.ID = chi.URLParam(r, "id")

	if err := h.games.Update(r.Context(), g); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGameResponse(*g))
}

// AdminDeleteGame removes a catalog entry.
func (h *Handler) AdminDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.games.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type salesReportResponse struct {
	TotalRevenue  float64               `json:"totalRevenue"`
	TotalDiscount float64               `json:"totalDiscount"`
	PurchaseCount int                   `json:"purchaseCount"`
	CouponUsage   []couponUsageResponse `json:"couponUsage"`
}

type couponUsageResponse struct {
	Code          string  `json:"code"`
	Uses          int     `json:"uses"`
	TotalDiscount float64 `json:"totalDiscount"`
}

// AdminSalesReport aggregates revenue and coupon performance across all
// recorded purchases.
func (h *Handler) AdminSalesReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.purchases.Report(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	usage := make([]couponUsageResponse, len(report.CouponUsage))
	for i, u := range report.CouponUsage {
		usage[i] = couponUsageResponse{
			Code:          u.Code,
			Uses:          u.Uses,
			TotalDiscount: u.TotalDiscount.InexactFloat64(),
		}
	}
	respondJSON(w, http.StatusOK, salesReportResponse{
		TotalRevenue:  report.TotalRevenue.InexactFloat64(),
		TotalDiscount: report.TotalDiscount.InexactFloat64(),
		PurchaseCount: report.PurchaseCount,
		CouponUsage:   usage,
	})
}
