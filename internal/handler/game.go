package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/indiejz/storefront/internal/domain/game"
)

type gameResponse struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Genre        string  `json:"genre"`
	Price        float64 `json:"price"`
	IsFree       bool    `json:"isFree"`
	FileSize     string  `json:"fileSize,omitempty"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	Downloads    int64   `json:"downloads"`
	CreatedAt    string  `json:"createdAt"`
}

// toGameResponse omits file_url: the download link is only released through
// the free-download endpoint or a verified payment.
func toGameResponse(g game.Game) gameResponse {
	return gameResponse{
		ID:           g.ID,
		Title:        g.Title,
		Description:  g.Description,
		Genre:        g.Genre,
		Price:        g.Price.InexactFloat64(),
		IsFree:       g.IsFree,
		FileSize:     g.FileSize,
		ThumbnailURL: g.ThumbnailURL,
		Rating:       g.Rating.InexactFloat64(),
		Downloads:    g.Downloads,
		CreatedAt:    g.CreatedAt.Format(time.RFC3339),
	}
}

// ListGames returns the public catalog.
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]gameResponse, len(games))
	for i, g := range games {
		resp[i] = toGameResponse(g)
	}
	respondJSON(w, http.StatusOK, resp)
}

type downloadResponse struct {
	FileURL string `json:"fileUrl"`
}

// DownloadGame hands out the file link for a free game and bumps the
// download counter. Paid games must go through checkout.
func (h *Handler) DownloadGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	g, err := h.games.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if !g.IsFree {
		respondError(w, http.StatusUnprocessableEntity, "paid games require checkout")
		return
	}
	if g.FileURL == "" {
		respondDomainError(w, r, game.ErrFileUnavailable)
		return
	}

	if err := h.games.IncrementDownloads(r.Context(), g.ID); err != nil {
		zctx.From(r.Context()).Error("Increment downloads failed",
			zap.Error(err), zap.String("game_id", g.ID))
	}

	respondJSON(w, http.StatusOK, downloadResponse{FileURL: g.FileURL})
}
