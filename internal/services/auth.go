package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/internal/config"
	"github.com/temcen/moviepick/pkg/models"
)

const tokenIssuer = "github.com/temcen/moviepick"

type AuthService struct {
	config    *config.AuthConfig
	logger    *logrus.Logger
	jwtSecret []byte
}

func NewAuthService(cfg *config.AuthConfig, logger *logrus.Logger) *AuthService {
	return &AuthService{
		config:    cfg,
		logger:    logger,
		jwtSecret: []byte(cfg.JWTSecret),
	}
}

// ValidateAPIKey returns the tier configured for apiKey.
func (s *AuthService) ValidateAPIKey(apiKey string) (string, error) {
	if tier, exists := s.config.APIKeys[apiKey]; exists {
		return tier, nil
	}
	return "", fmt.Errorf("invalid API key")
}

// IssueToken exchanges an API key for a signed token. An empty clientID gets
// a random one.
func (s *AuthService) IssueToken(req *models.AuthRequest) (*models.AuthResponse, error) {
	tier, err := s.ValidateAPIKey(req.APIKey)
	if err != nil {
		return nil, err
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	token, expiresAt, err := s.GenerateToken(clientID, tier)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, Tier: tier}, nil
}

func (s *AuthService) GenerateToken(clientID, tier string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.TokenTTL)
	claims := &models.JWTClaims{
		ClientID: clientID,
		Tier:     tier,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   clientID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
