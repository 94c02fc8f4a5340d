package config

import "fmt"

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validProviders = map[string]bool{
	"anthropic": true,
	"openai":    true,
	"gemini":    true,
	"cli":       true,
	"mock":      true,
	"none":      true,
}

// Validate checks the configuration for errors
func Validate(cfg *Config) []error {
	var errs []error

	c := cfg.Completion
	if !validProviders[c.Provider] {
		errs = append(errs, ValidationError{"completion.provider", "must be one of anthropic, openai, gemini, cli, mock, none"})
	}
	if needsKey(c.Provider) && c.APIKey == "" {
		errs = append(errs, ValidationError{"completion.api_key", "required for provider " + c.Provider})
	}
	if c.FallbackProvider != "" {
		if !validProviders[c.FallbackProvider] || c.FallbackProvider == "none" {
			errs = append(errs, ValidationError{"completion.fallback_provider", "must be one of anthropic, openai, gemini, cli, mock"})
		} else if needsKey(c.FallbackProvider) && c.FallbackAPIKey == "" {
			errs = append(errs, ValidationError{"completion.fallback_api_key", "required for provider " + c.FallbackProvider})
		}
	}

	s := cfg.Similarity
	for field, v := range map[string]float64{
		"similarity.similarity_threshold":      s.SimilarityThreshold,
		"similarity.min_similarity":            s.MinSimilarity,
		"similarity.reject_floor":              s.RejectFloor,
		"similarity.review_floor":              s.ReviewFloor,
		"similarity.stem_weight":               s.StemWeight,
		"similarity.options_weight":            s.OptionsWeight,
		"similarity.explanation_weight":        s.ExplanationWeight,
		"similarity.fallback_confidence":       s.FallbackConfidence,
		"similarity.fallback_review_threshold": s.FallbackReviewThreshold,
		"similarity.review_margin":             s.ReviewMargin,
		"similarity.correct_answer_overlap":    s.CorrectAnswerOverlap,
		"similarity.stem_divergence":           s.StemDivergence,
		"similarity.shared_answer_penalty":     s.SharedAnswerPenalty,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, ValidationError{field, "must be between 0 and 1"})
		}
	}
	if sum := s.StemWeight + s.OptionsWeight + s.ExplanationWeight; sum > 1.0001 {
		errs = append(errs, ValidationError{"similarity", fmt.Sprintf("component weights sum to %.2f, must not exceed 1", sum)})
	}
	if s.SimilarityThreshold == 0 {
		errs = append(errs, ValidationError{"similarity.similarity_threshold", "must be greater than 0"})
	}
	if s.BatchDelayMs < 0 {
		errs = append(errs, ValidationError{"similarity.batch_delay_ms", "must not be negative"})
	}
	if s.MaxComparisons < 1 {
		errs = append(errs, ValidationError{"similarity.max_comparisons", "must be positive"})
	}
	if s.PoolLimit < s.MinAIPool {
		errs = append(errs, ValidationError{"similarity.pool_limit", "must be at least min_ai_pool"})
	}
	if s.Pacing != "fixed" && s.Pacing != "token_bucket" {
		errs = append(errs, ValidationError{"similarity.pacing", "must be 'fixed' or 'token_bucket'"})
	}

	if cfg.Import.MaxQuestions < 1 {
		errs = append(errs, ValidationError{"import.max_questions", "must be positive"})
	}

	return errs
}

func needsKey(provider string) bool {
	return provider == "anthropic" || provider == "openai" || provider == "gemini"
}
