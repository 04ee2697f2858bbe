package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RedemptionTokenTTL bounds how long a validation-issued token stays usable
const RedemptionTokenTTL = time.Hour

// IssueRedemptionToken signs a short-lived token bound to an invitation
// code. The public validation endpoint hands it out so the redemption step
// can prove the pre-redemption flow was actually walked, instead of being
// skipped by posting straight to redeem.
func IssueRedemptionToken(code, secret string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"code": code,
		"iat":  now.Unix(),
		"exp":  now.Add(RedemptionTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyRedemptionToken checks signature, expiry and that the token was
// issued for the given code. Any failure collapses to false; the caller
// decides whether a token is required at all.
func VerifyRedemptionToken(tokenString, code, secret string) bool {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	claimed, ok := claims["code"].(string)
	return ok && claimed == code
}
