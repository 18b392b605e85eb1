package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTClaims struct {
	ClientID string `json:"client_id"`
	Tier     string `json:"tier"` // free, premium
	jwt.RegisteredClaims
}

type AuthRequest struct {
	APIKey   string `json:"api_key" validate:"required"`
	ClientID string `json:"client_id,omitempty" validate:"omitempty,max=64"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Tier      string    `json:"tier"`
}

type RateLimitInfo struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}
