package similarity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/interview-prep/backend/internal/models"
)

// CandidateSource loads the existing questions a batch is compared against.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, filter models.CandidateFilter, limit int) ([]models.Question, error)
}

// BatchCheck fetches one shared candidate pool for the whole batch and checks
// every question against it. Results are index-aligned with questions.
func (c *Checker) BatchCheck(ctx context.Context, questions []models.Question, threshold float64) ([]models.DuplicateCheckResult, error) {
	if len(questions) == 0 {
		return []models.DuplicateCheckResult{}, nil
	}
	if c.source == nil {
		return nil, errors.New("no candidate source configured")
	}

	pool, err := c.source.FetchCandidates(ctx, BatchFilter(questions), c.cfg.PoolLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate pool: %w", err)
	}

	return c.CheckAgainstPool(ctx, questions, pool, threshold)
}

// CheckAgainstPool checks questions one at a time against an already loaded
// pool. A failure on one question never aborts the rest; only context
// cancellation stops the batch.
func (c *Checker) CheckAgainstPool(ctx context.Context, questions []models.Question, pool []models.Question, threshold float64) ([]models.DuplicateCheckResult, error) {
	results := make([]models.DuplicateCheckResult, len(questions))

	if len(pool) == 0 {
		for i := range questions {
			r := emptyPoolResult()
			r.Index = i
			results[i] = *r
		}
		return results, nil
	}

	paced := c.client != nil && len(pool) >= c.cfg.MinAIPool

	for i, q := range questions {
		if i > 0 && paced {
			if err := c.pacer.Wait(ctx); err != nil {
				return nil, fmt.Errorf("batch interrupted at question %d: %w", i+1, err)
			}
		}

		r, err := c.checkOne(ctx, q, pool, threshold)
		if err != nil {
			log.Printf("WARN: duplicate check failed for question %d, treating as unique: %v", i+1, err)
			r = &models.DuplicateCheckResult{
				IsDuplicate:      false,
				SimilarQuestions: []models.SimilarityResult{},
				Confidence:       0,
				Recommendation:   models.RecommendSave,
				Method:           models.MethodError,
				Error:            err.Error(),
			}
		}
		r.Index = i
		results[i] = *r
	}

	return results, nil
}

func (c *Checker) checkOne(ctx context.Context, q models.Question, pool []models.Question, threshold float64) (result *models.DuplicateCheckResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("panic during duplicate check: %v", rec)
		}
	}()
	return c.CheckDuplicate(ctx, q, pool, threshold)
}

// BatchFilter is the union of categories and fields referenced by the batch.
func BatchFilter(questions []models.Question) models.CandidateFilter {
	categories := make(map[string]bool)
	fields := make(map[string]bool)
	for _, q := range questions {
		if c := strings.TrimSpace(q.Category); c != "" {
			categories[c] = true
		}
		for _, f := range q.Fields {
			if f = strings.TrimSpace(f); f != "" {
				fields[f] = true
			}
		}
	}
	return models.CandidateFilter{
		Categories: sortedKeys(categories),
		Fields:     sortedKeys(fields),
	}
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
