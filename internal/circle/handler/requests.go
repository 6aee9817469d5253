package handler

import (
	"strings"

	"faircircle/internal/circle/models"
	"faircircle/internal/circle/service"
	dErrors "faircircle/pkg/domain-errors"
)

// CreateCircleRequest is the JSON body of POST /circles.
type CreateCircleRequest struct {
	Name               string `json:"name"`
	ContributionAmount int64  `json:"contribution_amount"`
	PeriodLength       int64  `json:"period_length"`
	MinScore           uint8  `json:"min_score"`
}

// Validate checks creator-supplied parameters before they reach the service.
func (r *CreateCircleRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "circle name is required")
	}
	if len(r.Name) > models.MaxNameLen {
		return dErrors.New(dErrors.CodeBadRequest, "circle name is too long")
	}
	if r.ContributionAmount <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "contribution amount must be positive")
	}
	if r.PeriodLength <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "period length must be positive")
	}
	return nil
}

// ToServiceRequest converts the validated body into the service request.
func (r *CreateCircleRequest) ToServiceRequest() service.CreateCircleRequest {
	return service.CreateCircleRequest{
		Name:               r.Name,
		ContributionAmount: r.ContributionAmount,
		PeriodLength:       r.PeriodLength,
		MinScore:           r.MinScore,
	}
}

// UpdateScoreRequest is the JSON body of the member score endpoint.
type UpdateScoreRequest struct {
	Score uint8 `json:"score"`
}

// Validate bounds the score to the fair-score scale.
func (r *UpdateScoreRequest) Validate() error {
	if r.Score > models.MaxScore {
		return dErrors.New(dErrors.CodeBadRequest, "score must be between 0 and 100")
	}
	return nil
}
