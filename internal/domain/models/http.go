package models

// Requests for the status HTTP endpoints.

type VerdictsRequest struct {
	Date string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type RecommendationsRequest struct {
	Date            string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	Limit           int    `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
	RecommendedOnly bool   `query:"recommendedOnly" json:"recommendedOnly"`
}

// RecommendationsResponse is the fused view of stored verdicts and scores for one date.
type RecommendationsResponse struct {
	Date             string                `json:"date"`
	Total            int                   `json:"total"`
	RecommendedCount int                   `json:"recommendedCount"`
	Items            []FusedRecommendation `json:"items"`
}
