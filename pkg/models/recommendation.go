package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PreferenceSourceExplicit = "explicit"
	PreferenceSourceRatings  = "ratings"
	PreferenceSourceNone     = "none"
)

type PreferenceProfile struct {
	UserID    *int     `json:"user_id,omitempty"`
	Genres    []string `json:"genres"`
	Source    string   `json:"source"` // explicit, ratings, none
	MinRating float64  `json:"min_rating,omitempty"`
}

type RecommendationResult struct {
	ID            uuid.UUID         `json:"id"`
	UserID        *int              `json:"user_id,omitempty"`
	Movies        []Movie           `json:"movies"`
	Profile       PreferenceProfile `json:"profile"`
	Mode          string            `json:"mode"`
	CandidatePool int               `json:"candidate_pool"`
	Fallback      bool              `json:"fallback"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

type RecommendationRequest struct {
	UserID    string   `json:"user_id,omitempty" validate:"omitempty,numeric"`
	Genres    []string `json:"genres,omitempty" validate:"omitempty,max=20,dive,min=1,max=64"`
	MinRating *float64 `json:"min_rating,omitempty" validate:"omitempty,min=1,max=5"`
	Count     int      `json:"count,omitempty" validate:"omitempty,min=1,max=100"`
	Mode      string   `json:"mode,omitempty" validate:"omitempty,oneof=uniform rerank weighted"`
}

type RecommendationResponse struct {
	Result        *RecommendationResult `json:"result"`
	SessionStored bool                  `json:"session_stored"`
}

type ExportResponse struct {
	UserID   int    `json:"user_id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Count    int    `json:"count"`
}

type GenresResponse struct {
	Genres []string `json:"genres"`
	Total  int      `json:"total"`
}
