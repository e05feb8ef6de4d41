package auth

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Auth guards the admin API with a single operator token. Only the bcrypt
// hash of the token is kept in memory; the token itself lives with the
// operator.
type Auth struct {
	tokenHash []byte
}

// New creates an Auth from a bcrypt token hash. An empty hash disables the
// admin API entirely rather than leaving it open.
func New(tokenHash []byte) *Auth {
	return &Auth{tokenHash: tokenHash}
}

// Configured reports whether an admin token is set.
func (a *Auth) Configured() bool {
	return len(a.tokenHash) > 0
}

// Verify checks a presented token against the stored hash.
func (a *Auth) Verify(token string) bool {
	if !a.Configured() || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.tokenHash, []byte(token)) == nil
}

// RequireAuth wraps a handler with bearer-token authentication.
func (a *Auth) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Configured() {
			http.Error(w, "admin token not configured", http.StatusForbidden)
			return
		}
		token := bearerToken(r)
		if !a.Verify(token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
