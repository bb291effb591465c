package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin = "admin"
	tokenTTL  = 24 * time.Hour
)

// IssueAdminToken signs an HS256 token carrying the admin's email and role.
func IssueAdminToken(secret, email string, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   strings.ToLower(email),
		"email": strings.ToLower(email),
		"role":  RoleAdmin,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenTTL).Unix(),
	})
	return t.SignedString([]byte(secret))
}
