// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/cubegate/internal/logging"
)

type contextKey int

const claimsKey contextKey = iota

// FailFunc writes an authentication failure.
type FailFunc func(w http.ResponseWriter, r *http.Request, status int, msg string)

// RequireRole rejects requests without a valid bearer token carrying role.
// A nil manager lets every request through, which is how admin routes
// behave when no secret is configured.
func RequireRole(m *JWTManager, role string, fail FailFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearer(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="cubegate"`)
				fail(w, r, http.StatusUnauthorized, "Missing bearer token")
				return
			}
			claims, err := m.ValidateToken(raw)
			if err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Msg("Rejected admin token")
				w.Header().Set("WWW-Authenticate", `Bearer realm="cubegate", error="invalid_token"`)
				fail(w, r, http.StatusUnauthorized, "Invalid bearer token")
				return
			}
			if claims.Role != role {
				fail(w, r, http.StatusForbidden, "Insufficient role")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

// ClaimsFromContext returns the claims stored by RequireRole.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
