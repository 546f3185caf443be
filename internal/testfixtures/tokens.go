package testfixtures

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignedToken returns an HS256 JWT for subject expiring at exp. A zero exp
// omits the claim.
func SignedToken(subject string, exp time.Time) string {
	claims := jwt.RegisteredClaims{Subject: subject}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("fixture-signing-key"))
	if err != nil {
		panic(err)
	}
	return token
}
