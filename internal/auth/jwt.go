package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const issuer = "warehouse-ledger"

// Claims identifies the operator behind a command. Username becomes the
// PerformedBy of ledger entries when the request body does not name one.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTManager signs and validates HS256 bearer tokens
type JWTManager struct {
	secretKey []byte
	ttl       time.Duration
	logger    *zap.Logger
}

func NewJWTManager(secretKey string, ttl time.Duration, logger *zap.Logger) *JWTManager {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &JWTManager{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		logger:    logger,
	}
}

// TTL is the lifetime of issued tokens
func (j *JWTManager) TTL() time.Duration {
	return j.ttl
}

// GenerateToken issues a token for username valid for the manager's ttl
func (j *JWTManager) GenerateToken(username string) (string, error) {
	now := time.Now()
	expiresAt := now.Add(j.ttl)

	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   username,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		j.logger.Error("Failed to sign token", zap.Error(err))
		return "", err
	}
	return signed, nil
}

// ValidateToken checks signature, expiry and issuer
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return j.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		j.logger.Debug("Token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.VerifyIssuer(issuer, true) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
