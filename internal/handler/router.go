package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router builds the public API router. Admin routes are mounted behind the
// API-key middleware.
func (h *Handler) Router(adminAuth *APIKeyAuth) http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/games", h.ListGames)
		r.Get("/games/{id}/download", h.DownloadGame)

		r.Post("/coupons/validate", h.ValidateCoupon)

		r.Post("/checkout", h.CreateCheckout)
		r.Post("/verify-payment", h.VerifyPayment)

		r.Get("/purchases", h.ListPurchases)

		r.Post("/donations", h.CreateDonation)
		r.Get("/donations/leaderboard", h.Leaderboard)

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth.Middleware)

			r.Get("/coupons", h.AdminListCoupons)
			r.Post("/coupons", h.AdminCreateCoupon)
			r.Put("/coupons/{id}", h.AdminUpdateCoupon)
			r.Delete("/coupons/{id}", h.AdminDeleteCoupon)

			r.Post("/games", h.AdminCreateGame)
			r.Put("/games/{id}", h.AdminUpdateGame)
			r.Delete("/games/{id}", h.AdminDeleteGame)

			r.Get("/sales-report", h.AdminSalesReport)
		})
	})

	return r
}
