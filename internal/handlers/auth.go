package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/pkg/models"
)

// TokenIssuer exchanges API keys for tokens
type TokenIssuer interface {
	IssueToken(req *models.AuthRequest) (*models.AuthResponse, error)
}

type AuthHandler struct {
	issuer    TokenIssuer
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewAuthHandler(issuer TokenIssuer, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		issuer:    issuer,
		validator: validator.New(),
		logger:    logger,
	}
}

// Token handles POST /auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", "Invalid request format")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		badRequest(c, "VALIDATION_FAILED", err.Error())
		return
	}

	resp, err := h.issuer.IssueToken(&req)
	if err != nil {
		h.logger.WithError(err).Warn("Token request rejected")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "INVALID_API_KEY",
				"message": "Invalid API key",
			},
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
