package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/indiejz/storefront/internal/domain/auth"
)

// APIKeyHeader carries the admin API key.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth authenticates admin requests via HMAC-SHA256 hashed API keys.
// Raw keys are never stored; lookups go by hash, and the row's stored hash
// is re-compared in constant time to guard against timing side-channels.
type APIKeyAuth struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewAPIKeyAuth creates an APIKeyAuth middleware with the given key
// repository and HMAC pepper.
func NewAPIKeyAuth(apikeys auth.Repository, pepper []byte) *APIKeyAuth {
	return &APIKeyAuth{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// HashKey computes the stored form of a raw API key.
func (a *APIKeyAuth) HashKey(raw string) string {
	mac := hmac.New(sha256.New, a.pepper)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// Middleware rejects requests whose API key is missing, unknown, or inactive.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(APIKeyHeader)
		if raw == "" {
			respondError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		mac := hmac.New(sha256.New, a.pepper)
		mac.Write([]byte(raw))
		hash := mac.Sum(nil)

		info, err := a.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		stored, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}
