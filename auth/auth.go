package auth

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultIssuer   = "https://memorycenter.app/"
	defaultAudience = "memorycenter-api"
)

// Issuer returns the token issuer claim, overridable per deployment.
func Issuer() string {
	if iss := os.Getenv("AUTH_TOKEN_ISSUER"); iss != "" {
		return iss
	}
	return defaultIssuer
}

// Audience returns the token audience claim.
func Audience() string {
	if aud := os.Getenv("AUTH_TOKEN_AUDIENCE"); aud != "" {
		return aud
	}
	return defaultAudience
}

// Secret returns the HS256 signing key. A service without a key must not
// come up and silently accept anything.
func Secret() []byte {
	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		log.Fatal("auth.go: JWT_SECRET_KEY not set")
	}
	return []byte(secret)
}

// CreateToken issues a 24h HS256 access token whose subject is the user's
// database ID.
func CreateToken(userID uint) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.RegisteredClaims{
			Issuer:    Issuer(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Audience:  jwt.ClaimStrings{Audience()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		})

	tokenString, err := token.SignedString(Secret())
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// HashPassword returns the bcrypt hash stored for a user.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
