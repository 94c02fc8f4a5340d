package similarity

import (
	"context"
	"log"

	"github.com/interview-prep/backend/internal/completion"
	"github.com/interview-prep/backend/internal/config"
	"github.com/interview-prep/backend/internal/models"
)

// Checker decides whether candidate questions duplicate the existing bank.
// The completion client is optional; without one every check is lexical.
type Checker struct {
	cfg    config.SimilarityConfig
	client completion.Client
	source CandidateSource
	pacer  Pacer
}

func NewChecker(cfg config.SimilarityConfig, client completion.Client, source CandidateSource) *Checker {
	return &Checker{
		cfg:    cfg,
		client: client,
		source: source,
		pacer:  NewPacer(cfg),
	}
}

// WithPacer replaces the pacer used between AI calls in a batch.
func (c *Checker) WithPacer(p Pacer) *Checker {
	c.pacer = p
	return c
}

func (c *Checker) Config() config.SimilarityConfig {
	return c.cfg
}

// CheckDuplicate compares q against existing. Only invalid input produces an
// error; upstream failures degrade to the lexical scorer.
func (c *Checker) CheckDuplicate(ctx context.Context, q models.Question, existing []models.Question, threshold float64) (*models.DuplicateCheckResult, error) {
	if err := ValidateCandidate(q); err != nil {
		return nil, err
	}
	threshold = c.threshold(threshold)

	if len(existing) == 0 {
		return emptyPoolResult(), nil
	}

	pool := existing
	if c.cfg.MaxComparisons > 0 && len(pool) > c.cfg.MaxComparisons {
		pool = pool[:c.cfg.MaxComparisons]
	}

	if c.client == nil || len(pool) < c.cfg.MinAIPool {
		return c.fallbackCheck(q, pool, threshold), nil
	}

	result, err := c.aiCheck(ctx, q, pool, threshold)
	if err != nil {
		log.Printf("WARN: AI duplicate check failed, using lexical scoring: %v", err)
		return c.fallbackCheck(q, pool, threshold), nil
	}
	return result, nil
}

func (c *Checker) aiCheck(ctx context.Context, q models.Question, pool []models.Question, threshold float64) (*models.DuplicateCheckResult, error) {
	resp, err := c.client.Complete(ctx, []completion.Message{
		{Role: completion.RoleSystem, Content: SimilaritySystemPrompt()},
		{Role: completion.RoleUser, Content: BuildComparisonPrompt(q, pool)},
	})
	if err != nil {
		return nil, &UpstreamCallError{Err: err}
	}

	parsed, err := parseAIResponse(resp.Content)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Question, len(pool))
	for _, e := range pool {
		byID[e.ID] = e
	}

	best := make(map[int64]models.SimilarityResult)
	for _, s := range parsed.Similarities {
		id, ok := parseQuestionID(s.QuestionID)
		if !ok {
			continue
		}
		e, ok := byID[id]
		if !ok {
			// ID not in the pool we sent
			continue
		}
		sim := clamp01(s.Similarity)
		if sim < c.cfg.MinSimilarity {
			continue
		}
		if prev, seen := best[id]; seen && prev.Similarity >= sim {
			continue
		}
		reason := s.Reason
		if reason == "" {
			reason = "Judged similar by AI review"
		}
		best[id] = models.SimilarityResult{QuestionID: id, Similarity: sim, Reason: reason, Stem: e.Stem}
	}

	similar := make([]models.SimilarityResult, 0, len(best))
	for _, e := range pool {
		if r, ok := best[e.ID]; ok {
			similar = append(similar, r)
			delete(best, e.ID)
		}
	}
	sortBySimilarity(similar)

	top := topSimilarity(similar)
	return &models.DuplicateCheckResult{
		IsDuplicate:      len(similar) > 0 && top >= threshold,
		SimilarQuestions: similar,
		Confidence:       clamp01(parsed.OverallAssessment.Confidence),
		Recommendation:   Recommend(c.cfg, top, threshold),
		Method:           models.MethodAI,
	}, nil
}

func (c *Checker) threshold(t float64) float64 {
	if t <= 0 {
		return c.cfg.SimilarityThreshold
	}
	if t > 1 {
		return 1
	}
	return t
}

func emptyPoolResult() *models.DuplicateCheckResult {
	return &models.DuplicateCheckResult{
		IsDuplicate:      false,
		SimilarQuestions: []models.SimilarityResult{},
		Confidence:       1.0,
		Recommendation:   models.RecommendSave,
		Method:           models.MethodEmptyPool,
	}
}
