package middleware

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/memorycenter/memorycenter-api/config"
	"github.com/memorycenter/memorycenter-api/models"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

type contextKey string

const userContextKey contextKey = "user"

// LoadUser resolves the validated token's subject to a models.User and
// attaches it to the request context. Users are created by the register
// endpoint, so a subject without a row is an invalid token, not a signup.
func LoadUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
		if !ok || claims.RegisteredClaims.Subject == "" {
			http.Error(w, "No token subject found", http.StatusUnauthorized)
			return
		}

		userID, err := strconv.ParseUint(claims.RegisteredClaims.Subject, 10, 32)
		if err != nil {
			http.Error(w, "Invalid token subject", http.StatusUnauthorized)
			return
		}

		var user models.User
		if err := config.Database.First(&user, uint(userID)).Error; err != nil {
			log.Printf("LoadUser: no user for subject %d: %v", userID, err)
			http.Error(w, "Unknown user", http.StatusUnauthorized)
			return
		}

		// Add user to context for downstream handlers
		ctx := context.WithValue(r.Context(), userContextKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// UserFromContext returns the user attached by LoadUser.
func UserFromContext(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	return user, ok
}
