package httpapi

import (
	"net/http"
	"time"

	"floorline.org/internal/authn"
)

type tokenRequest struct {
	UserID     string `json:"user_id"`
	TenantID   string `json:"tenant_id"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// handleTokenMint issues a short-lived development token. Real deployments
// front this with an identity provider; the endpoint mirrors the shape so
// integration tests exercise the same token path.
func (a *API) handleTokenMint(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ttl := time.Duration(req.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	if ttl > 24*time.Hour {
		writeError(w, r, http.StatusBadRequest, "ttl_seconds too large")
		return
	}
	token, err := authn.GenerateToken(req.UserID, req.TenantID, ttl)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(ttl.Seconds()),
	})
}
