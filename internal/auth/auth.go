// Package auth guards admin routes with HTTP Basic credentials checked against a bcrypt hash.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// HashPassword hashes a plain-text password using bcrypt cost 12.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("auth.HashPassword: %w", err)
	}
	return string(b), nil
}

// CheckPassword compares plain text against a bcrypt hash.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Admin holds the single admin credential. The password is kept only as a hash.
type Admin struct {
	username string
	hash     string
}

// NewAdmin hashes password once at startup.
func NewAdmin(username, password string) (*Admin, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("auth.NewAdmin: username and password are required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &Admin{username: username, hash: hash}, nil
}

// Verify checks a username/password pair.
func (a *Admin) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := CheckPassword(password, a.hash)
	return userOK && passOK
}

// RequireAdmin is middleware that checks HTTP Basic credentials.
func (a *Admin) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !a.Verify(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="allocheck"`)
			http.Error(w, `{"success":false,"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the authenticated admin username, or "".
func UserFromContext(ctx context.Context) string {
	u, _ := ctx.Value(contextKeyUser).(string)
	return u
}

type contextKey int

const contextKeyUser contextKey = iota
