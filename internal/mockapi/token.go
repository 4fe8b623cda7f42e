package mockapi

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenTTL  = 30 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// tokenSource issues and verifies the HMAC-signed access/refresh pair the
// real backend hands out.
type tokenSource struct {
	secret []byte
}

func newTokenSource(secret string) *tokenSource {
	return &tokenSource{secret: []byte(secret)}
}

func (t *tokenSource) issuePair(userID int64) (access, refresh string, err error) {
	access, err = t.issue(userID, "access", accessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = t.issue(userID, "refresh", refreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (t *tokenSource) issue(userID int64, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"type": tokenType,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// verify parses a token of the expected type and returns the subject user id.
func (t *tokenSource) verify(tokenString, expectedType string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid token claims")
	}
	if tokenType, _ := claims["type"].(string); tokenType != expectedType {
		return 0, fmt.Errorf("unexpected token type %q", tokenType)
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("token subject: %w", err)
	}
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("token subject %q is not a user id", subject)
	}
	return userID, nil
}
