package similarity

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/interview-prep/backend/internal/models"
)

// componentScores is the lexical breakdown for one (candidate, existing) pair.
type componentScores struct {
	Stem           float64
	Options        float64
	Explanation    float64
	HasOptions     bool
	HasExplanation bool
	SharedAnswer   bool
	Total          float64
}

// FallbackCheck scores q against existing with weighted Jaccard overlap only.
// It is deterministic and never calls out.
func (c *Checker) FallbackCheck(q models.Question, existing []models.Question, threshold float64) (*models.DuplicateCheckResult, error) {
	if err := ValidateCandidate(q); err != nil {
		return nil, err
	}
	return c.fallbackCheck(q, existing, c.threshold(threshold)), nil
}

func (c *Checker) fallbackCheck(q models.Question, existing []models.Question, threshold float64) *models.DuplicateCheckResult {
	similar := make([]models.SimilarityResult, 0)
	for _, e := range existing {
		s := c.scorePair(q, e)
		if s.Total < c.cfg.MinSimilarity {
			continue
		}
		similar = append(similar, models.SimilarityResult{
			QuestionID: e.ID,
			Similarity: s.Total,
			Reason:     lexicalReason(s),
			Stem:       e.Stem,
		})
	}
	sortBySimilarity(similar)

	top := topSimilarity(similar)
	rec := models.RecommendSave
	if top >= c.cfg.FallbackReviewThreshold {
		rec = models.RecommendReview
	}

	return &models.DuplicateCheckResult{
		IsDuplicate:      len(similar) > 0 && top >= threshold,
		SimilarQuestions: similar,
		Confidence:       c.cfg.FallbackConfidence,
		Recommendation:   rec,
		Method:           models.MethodLexical,
	}
}

// scorePair combines stem, options and explanation overlap. Optional
// components only carry weight when both sides have them; otherwise the
// stem absorbs the remaining weight.
func (c *Checker) scorePair(q, existing models.Question) componentScores {
	s := componentScores{Stem: c.textSimilarity(q.Stem, existing.Stem)}

	optionsWeight, explanationWeight := 0.0, 0.0

	if q.HasOptions() && existing.HasOptions() {
		s.HasOptions = true
		s.Options = c.textSimilarity(joinOptions(q.Options), joinOptions(existing.Options))

		correct := c.textSimilarity(
			strings.Join(q.CorrectOptions(), " "),
			strings.Join(existing.CorrectOptions(), " "),
		)
		if correct > c.cfg.CorrectAnswerOverlap && s.Stem < c.cfg.StemDivergence {
			s.Options *= c.cfg.SharedAnswerPenalty
			s.SharedAnswer = true
		}
		optionsWeight = c.cfg.OptionsWeight
	}

	if strings.TrimSpace(q.Explanation) != "" && strings.TrimSpace(existing.Explanation) != "" {
		s.HasExplanation = true
		s.Explanation = c.textSimilarity(q.Explanation, existing.Explanation)
		explanationWeight = c.cfg.ExplanationWeight
	}

	stemWeight := c.cfg.StemWeight
	if optionsWeight+explanationWeight == 0 {
		stemWeight = 1
	}

	s.Total = s.Stem*stemWeight + s.Options*optionsWeight + s.Explanation*explanationWeight
	return s
}

func (c *Checker) textSimilarity(a, b string) float64 {
	return jaccardSimilarity(c.tokenize(a), c.tokenize(b))
}

func (c *Checker) tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, word := range strings.Fields(normalizeText(s)) {
		// Skip very short words (articles, prepositions)
		if utf8.RuneCountInString(word) >= c.cfg.MinTokenLength {
			tokens[word] = true
		}
	}
	return tokens
}

// normalizeText lowercases s, turns punctuation into spaces and collapses whitespace.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func jaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

func joinOptions(options []models.Option) string {
	texts := make([]string, len(options))
	for i, o := range options {
		texts[i] = o.Text
	}
	return strings.Join(texts, " ")
}

func lexicalReason(s componentScores) string {
	reason := fmt.Sprintf("Lexical overlap: stem %.0f%%, options %.0f%%, explanation %.0f%%",
		s.Stem*100, s.Options*100, s.Explanation*100)
	if s.SharedAnswer {
		reason += " (shared correct answer discounted)"
	}
	return reason
}

func sortBySimilarity(results []models.SimilarityResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
}

func topSimilarity(results []models.SimilarityResult) float64 {
	if len(results) == 0 {
		return 0
	}
	return results[0].Similarity
}
