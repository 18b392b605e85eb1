package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/internal/services"
	"github.com/temcen/moviepick/pkg/models"
)

type RecommendationHandler struct {
	recommendations services.RecommendationServiceInterface
	validator       *validator.Validate
	logger          *logrus.Logger
}

func NewRecommendationHandler(
	recommendations services.RecommendationServiceInterface,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		recommendations: recommendations,
		validator:       validator.New(),
		logger:          logger,
	}
}

// Get handles GET /recommendations/:userId?genres=&min_rating=&count=&mode=
func (h *RecommendationHandler) Get(c *gin.Context) {
	query := &services.RecommendationQuery{
		UserID: c.Param("userId"),
		Genres: splitList(c.Query("genres")),
		Mode:   c.Query("mode"),
	}

	if countStr := c.Query("count"); countStr != "" {
		count, err := strconv.Atoi(countStr)
		if err != nil || count < 1 || count > 100 {
			badRequest(c, "INVALID_QUERY_PARAM", "count must be an integer between 1 and 100")
			return
		}
		query.Count = count
	}

	minRating, ok := parseMinRating(c)
	if !ok {
		return
	}
	query.MinRating = minRating

	h.recommend(c, query)
}

// Post handles POST /recommendations with a JSON body
func (h *RecommendationHandler) Post(c *gin.Context) {
	var req models.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Debug("Failed to bind recommendation request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid request format",
				"details": err.Error(),
			},
		})
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "VALIDATION_FAILED",
				"message": "Request validation failed",
				"details": err.Error(),
			},
		})
		return
	}

	h.recommend(c, &services.RecommendationQuery{
		UserID:    req.UserID,
		Genres:    req.Genres,
		MinRating: req.MinRating,
		Count:     req.Count,
		Mode:      req.Mode,
	})
}

func (h *RecommendationHandler) recommend(c *gin.Context, query *services.RecommendationQuery) {
	resp, err := h.recommendations.Recommend(c.Request.Context(), query)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Preferences handles GET /users/:userId/preferences?min_rating=
func (h *RecommendationHandler) Preferences(c *gin.Context) {
	minRating, ok := parseMinRating(c)
	if !ok {
		return
	}

	profile, err := h.recommendations.Preferences(c.Request.Context(), c.Param("userId"), minRating)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Genres handles GET /genres
func (h *RecommendationHandler) Genres(c *gin.Context) {
	genres := h.recommendations.Genres()
	c.JSON(http.StatusOK, models.GenresResponse{Genres: genres, Total: len(genres)})
}

// parseMinRating writes a 400 and reports false when min_rating is malformed.
func parseMinRating(c *gin.Context) (*float64, bool) {
	s := c.Query("min_rating")
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		badRequest(c, "INVALID_QUERY_PARAM", "min_rating must be a number")
		return nil, false
	}
	return &v, true
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
