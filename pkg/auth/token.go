package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pontodigital/pdv-backend/pkg/config"
	"github.com/pontodigital/pdv-backend/pkg/enums"
)

// Claims carries the operator identity a terminal authenticates with. The
// account type decides whether seller attribution is mandatory at checkout.
type Claims struct {
	OperatorID  uuid.UUID         `json:"operator_id"`
	AccountType enums.AccountType `json:"account_type"`
	SellerID    *uuid.UUID        `json:"seller_id,omitempty"`
	TerminalID  string            `json:"terminal_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueAccessToken signs an access token for the given operator.
func IssueAccessToken(cfg config.JWTConfig, claims Claims) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ParseAccessToken validates the signature, issuer and expiry of a raw
// bearer token and returns its claims.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid access token")
	}
	if claims.OperatorID == uuid.Nil {
		return nil, fmt.Errorf("access token missing operator id")
	}
	if !claims.AccountType.IsValid() {
		return nil, fmt.Errorf("access token missing account type")
	}
	return claims, nil
}
