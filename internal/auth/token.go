package auth

import (
	"fmt"
	"strconv"
	"time"

	"victoria-kids-api/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenManager issues and verifies access and refresh tokens.
type TokenManager struct {
	secret        []byte
	refreshSecret []byte
	expiry        time.Duration
	refreshExpiry time.Duration
}

// NewTokenManager creates a new token manager
func NewTokenManager(secret, refreshSecret string, expiryMinutes, refreshExpiryHours int) *TokenManager {
	return &TokenManager{
		secret:        []byte(secret),
		refreshSecret: []byte(refreshSecret),
		expiry:        time.Duration(expiryMinutes) * time.Minute,
		refreshExpiry: time.Duration(refreshExpiryHours) * time.Hour,
	}
}

// GenerateToken issues a short-lived access token for a user
func (tm *TokenManager) GenerateToken(userID int64) (string, error) {
	return tm.sign(userID, tm.secret, tm.expiry)
}

// GenerateRefreshToken issues a long-lived refresh token
func (tm *TokenManager) GenerateRefreshToken(userID int64) (string, error) {
	return tm.sign(userID, tm.refreshSecret, tm.refreshExpiry)
}

func (tm *TokenManager) sign(userID int64, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyToken validates an access token and returns the user id
func (tm *TokenManager) VerifyToken(tokenString string) (int64, error) {
	return tm.verify(tokenString, tm.secret)
}

// VerifyRefreshToken validates a refresh token and returns the user id
func (tm *TokenManager) VerifyRefreshToken(tokenString string) (int64, error) {
	return tm.verify(tokenString, tm.refreshSecret)
}

func (tm *TokenManager) verify(tokenString string, secret []byte) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("token: %w", models.ErrForbidden)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, fmt.Errorf("token claims: %w", models.ErrForbidden)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("token subject: %w", models.ErrForbidden)
	}
	return userID, nil
}

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against its hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
