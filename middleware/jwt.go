package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/memorycenter/memorycenter-api/auth"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// EnsureValidToken builds the middleware that rejects requests without a
// valid bearer token. Tokens are the HS256 access tokens issued by the auth
// package; issuer and audience must match what CreateToken stamps.
func EnsureValidToken() func(next http.Handler) http.Handler {
	secret := auth.Secret()

	jwtValidator, err := validator.New(
		func(ctx context.Context) (interface{}, error) {
			return secret, nil
		},
		validator.HS256,
		auth.Issuer(),
		[]string{auth.Audience()},
	)
	if err != nil {
		log.Fatalf("failed to set up JWT validator: %v", err)
	}

	middleware := jwtmiddleware.New(jwtValidator.ValidateToken)

	return func(next http.Handler) http.Handler {
		return middleware.CheckJWT(next)
	}
}
