package similarity

import (
	"math"

	"github.com/interview-prep/backend/internal/config"
	"github.com/interview-prep/backend/internal/models"
)

// Thresholds returns the review and reject cut-offs derived from the caller's
// duplicate threshold:
//
//	reject = max(threshold, RejectFloor)
//	review = max(threshold - ReviewMargin, ReviewFloor)
func Thresholds(cfg config.SimilarityConfig, threshold float64) (review, reject float64) {
	reject = roundThreshold(math.Max(threshold, cfg.RejectFloor))
	review = roundThreshold(math.Max(threshold-cfg.ReviewMargin, cfg.ReviewFloor))
	return review, reject
}

// Recommend maps the best match score onto save / review / reject.
func Recommend(cfg config.SimilarityConfig, maxSimilarity, threshold float64) models.Recommendation {
	review, reject := Thresholds(cfg, threshold)
	switch {
	case maxSimilarity >= reject:
		return models.RecommendReject
	case maxSimilarity >= review:
		return models.RecommendReview
	default:
		return models.RecommendSave
	}
}

// roundThreshold removes float noise such as 0.8-0.1 = 0.7000000000000001.
func roundThreshold(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
