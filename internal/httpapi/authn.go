package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"floorline.org/internal/access"
	"floorline.org/internal/authn"
)

const (
	authHeader   = "Authorization"
	bearer       = "Bearer "
	tenantHeader = "X-Tenant-Id"
)

const tenantHintCtxKey ctxKey = "tenant_hint"

var publicPaths = []string{
	"/v1/auth/token",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

// withAuth authenticates every non-public request: verify the bearer token,
// load the principal record, reject inactive principals, and stash the
// token's tenant hint for later resolution.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := authn.ParseAndValidate(token)
		if err != nil {
			if errors.Is(err, authn.ErrInvalidToken) {
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			respondError(w, http.StatusInternalServerError, "authentication error")
			return
		}

		principal, err := a.principals.GetPrincipal(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, access.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, "unknown principal")
				return
			}
			respondError(w, http.StatusInternalServerError, "authentication error")
			return
		}
		if !principal.Active {
			respondError(w, http.StatusUnauthorized, "principal is deactivated")
			return
		}

		ctx := access.ContextWithPrincipal(r.Context(), principal)
		if claims.Tenant != "" {
			ctx = context.WithValue(ctx, tenantHintCtxKey, claims.Tenant)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestedTenant returns the tenant the caller asked for. The X-Tenant-Id
// header wins over the token claim; neither is ever defaulted.
func requestedTenant(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get(tenantHeader)); header != "" {
		return header
	}
	if hint, ok := r.Context().Value(tenantHintCtxKey).(string); ok {
		return hint
	}
	return ""
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
