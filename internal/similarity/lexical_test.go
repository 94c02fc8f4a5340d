package similarity

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/interview-prep/backend/internal/config"
	"github.com/interview-prep/backend/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

func lexicalChecker() *Checker {
	return NewChecker(config.DefaultSimilarity(), nil, nil)
}

func trueFalse(correct string) []models.Option {
	return []models.Option{
		{Text: "True", IsCorrect: correct == "True"},
		{Text: "False", IsCorrect: correct == "False"},
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"What's a Closure?", "what s a closure"},
		{"  multiple   spaces\tand\nlines ", "multiple spaces and lines"},
		{"snake_case stays", "snake_case stays"},
		{"HTTP/2 vs. HTTP/1.1", "http 2 vs http 1 1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeText(tt.in); got != tt.want {
			t.Errorf("normalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenize_DropsShortWords(t *testing.T) {
	tokens := lexicalChecker().tokenize("What is a closure in Go?")
	for _, w := range []string{"is", "a", "in", "go"} {
		if tokens[w] {
			t.Errorf("short word %q should be dropped", w)
		}
	}
	for _, w := range []string{"what", "closure"} {
		if !tokens[w] {
			t.Errorf("expected token %q", w)
		}
	}
}

func TestJaccardSimilarity(t *testing.T) {
	set := func(words ...string) map[string]bool {
		m := make(map[string]bool)
		for _, w := range words {
			m[w] = true
		}
		return m
	}

	tests := []struct {
		name string
		a, b map[string]bool
		want float64
	}{
		{"both empty", set(), set(), 0},
		{"one empty", set("alpha"), set(), 0},
		{"identical", set("alpha", "beta"), set("alpha", "beta"), 1},
		{"half", set("alpha", "beta"), set("alpha", "gamma", "beta", "delta"), 0.5},
		{"disjoint", set("alpha"), set("beta"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jaccardSimilarity(tt.a, tt.b); !almostEqual(got, tt.want) {
				t.Errorf("got %.3f, want %.3f", got, tt.want)
			}
		})
	}
}

func TestFallbackCheck_IdenticalStem(t *testing.T) {
	c := lexicalChecker()
	q := models.Question{Stem: "What is a closure in JavaScript?"}
	existing := []models.Question{
		{ID: 7, Stem: "What is a closure in JavaScript?"},
		{ID: 8, Stem: "How does the event loop schedule microtasks?"},
	}

	r, err := c.FallbackCheck(q, existing, 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.IsDuplicate {
		t.Error("identical stem should be a duplicate")
	}
	if len(r.SimilarQuestions) != 1 {
		t.Fatalf("expected 1 similar question, got %d", len(r.SimilarQuestions))
	}
	top := r.SimilarQuestions[0]
	if top.QuestionID != 7 || !almostEqual(top.Similarity, 1.0) {
		t.Errorf("top match = %+v", top)
	}
	if top.Stem != existing[0].Stem {
		t.Errorf("stem not carried through: %q", top.Stem)
	}
	if r.Recommendation != models.RecommendReview {
		t.Errorf("lexical path never rejects; got %s", r.Recommendation)
	}
	if r.Method != models.MethodLexical || !almostEqual(r.Confidence, 0.7) {
		t.Errorf("method=%s confidence=%.2f", r.Method, r.Confidence)
	}
}

func TestFallbackCheck_RewordedBelowThreshold(t *testing.T) {
	c := lexicalChecker()
	q := models.Question{Stem: "Explain what a closure is in JavaScript."}
	existing := []models.Question{{ID: 1, Stem: "What is a closure in JavaScript?"}}

	r, err := c.FallbackCheck(q, existing, 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// {explain, what, closure, javascript} vs {what, closure, javascript}
	if len(r.SimilarQuestions) != 1 || !almostEqual(r.SimilarQuestions[0].Similarity, 0.75) {
		t.Fatalf("unexpected matches: %+v", r.SimilarQuestions)
	}
	if r.IsDuplicate {
		t.Error("0.75 is below the 0.8 threshold")
	}
	if r.Recommendation != models.RecommendSave {
		t.Errorf("expected save, got %s", r.Recommendation)
	}
}

func TestFallbackCheck_UnrelatedTopic(t *testing.T) {
	c := lexicalChecker()
	q := models.Question{Stem: "How does Docker networking work between containers on a bridge network?"}
	existing := []models.Question{
		{ID: 1, Stem: "What are React hooks and why were they introduced?"},
		{ID: 2, Stem: "Explain the rules of React hooks."},
		{ID: 3, Stem: "How does useEffect cleanup work in React hooks?"},
	}

	r, err := c.FallbackCheck(q, existing, 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.IsDuplicate || len(r.SimilarQuestions) != 0 {
		t.Errorf("expected no matches, got %+v", r.SimilarQuestions)
	}
	if r.Recommendation != models.RecommendSave {
		t.Errorf("expected save, got %s", r.Recommendation)
	}
}

func TestFallbackCheck_SharedTrueAnswerIsNotDuplicate(t *testing.T) {
	c := lexicalChecker()
	q := models.Question{
		Stem:    "Is the Earth's core hotter than the surface of the Sun?",
		Options: trueFalse("True"),
	}
	existing := models.Question{
		ID:      4,
		Stem:    "Does JavaScript hoist function declarations?",
		Options: trueFalse("True"),
	}

	s := c.scorePair(q, existing)
	if !s.SharedAnswer {
		t.Fatal("shared-answer guard should fire")
	}
	if !almostEqual(s.Options, 0.5) {
		t.Errorf("options similarity = %.3f, want 0.5 after discount", s.Options)
	}
	if !almostEqual(s.Total, 0.15) {
		t.Errorf("total = %.3f, want 0.15", s.Total)
	}

	r, err := c.FallbackCheck(q, []models.Question{existing}, 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.IsDuplicate || len(r.SimilarQuestions) != 0 {
		t.Errorf("True/False questions on unrelated topics must not match: %+v", r)
	}
}

func TestScorePair_Weights(t *testing.T) {
	c := lexicalChecker()
	options := []models.Option{
		{Text: "Goroutines share memory", IsCorrect: true},
		{Text: "Threads are heavier"},
	}

	tests := []struct {
		name        string
		a, b        models.Question
		wantTotal   float64
		wantOptions bool
		wantExpl    bool
	}{
		{
			name:      "stem only carries full weight",
			a:         models.Question{Stem: "Describe goroutine scheduling"},
			b:         models.Question{Stem: "Describe goroutine scheduling"},
			wantTotal: 1.0,
		},
		{
			name:        "stem and options",
			a:           models.Question{Stem: "Describe goroutine scheduling", Options: options},
			b:           models.Question{Stem: "Describe goroutine scheduling", Options: options, Explanation: "only one side"},
			wantTotal:   0.8,
			wantOptions: true,
		},
		{
			name:        "all components",
			a:           models.Question{Stem: "Describe goroutine scheduling", Options: options, Explanation: "The runtime multiplexes goroutines"},
			b:           models.Question{Stem: "Describe goroutine scheduling", Options: options, Explanation: "The runtime multiplexes goroutines"},
			wantTotal:   1.0,
			wantOptions: true,
			wantExpl:    true,
		},
		{
			name:      "options on one side only",
			a:         models.Question{Stem: "Describe goroutine scheduling", Options: options},
			b:         models.Question{Stem: "Describe goroutine scheduling"},
			wantTotal: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := c.scorePair(tt.a, tt.b)
			if !almostEqual(s.Total, tt.wantTotal) {
				t.Errorf("total = %.3f, want %.3f", s.Total, tt.wantTotal)
			}
			if s.HasOptions != tt.wantOptions || s.HasExplanation != tt.wantExpl {
				t.Errorf("components: options=%v explanation=%v", s.HasOptions, s.HasExplanation)
			}
		})
	}
}

func TestFallbackCheck_SortedAndDeterministic(t *testing.T) {
	c := lexicalChecker()
	q := models.Question{Stem: "What is the difference between a mutex and a semaphore?"}
	existing := []models.Question{
		{ID: 1, Stem: "What is the difference between a mutex and a channel?"},
		{ID: 2, Stem: "What is the difference between a mutex and a semaphore?"},
		{ID: 3, Stem: "Explain the difference between a mutex and a semaphore."},
	}

	first, err := c.FallbackCheck(q, existing, 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := c.FallbackCheck(q, existing, 0.8)
	if !reflect.DeepEqual(first, second) {
		t.Error("fallback scoring must be deterministic")
	}

	for i := 1; i < len(first.SimilarQuestions); i++ {
		if first.SimilarQuestions[i-1].Similarity < first.SimilarQuestions[i].Similarity {
			t.Errorf("results not sorted descending: %+v", first.SimilarQuestions)
		}
	}
	if first.SimilarQuestions[0].QuestionID != 2 {
		t.Errorf("expected exact match first, got %d", first.SimilarQuestions[0].QuestionID)
	}
	for _, s := range first.SimilarQuestions {
		if s.Similarity < 0.6 {
			t.Errorf("match %d below floor: %.3f", s.QuestionID, s.Similarity)
		}
		if !strings.HasPrefix(s.Reason, "Lexical overlap: stem") {
			t.Errorf("unexpected reason %q", s.Reason)
		}
	}
}

func TestFallbackCheck_EmptyStem(t *testing.T) {
	_, err := lexicalChecker().FallbackCheck(models.Question{Stem: "   "}, nil, 0.8)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if err.Error() != "Question stem is required" {
		t.Errorf("message = %q", err.Error())
	}
}
