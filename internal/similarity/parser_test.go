package similarity

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/interview-prep/backend/internal/models"
)

const validAIResponse = `{
  "similarities": [
    {"questionId": 12, "similarity": 0.91, "reason": "Same concept"}
  ],
  "overallAssessment": {
    "isDuplicate": true,
    "confidence": 0.85,
    "recommendation": "reject",
    "reasoning": "Near-identical wording"
  }
}`

func TestParseAIResponse_ValidJSON(t *testing.T) {
	resp, err := parseAIResponse(validAIResponse)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(resp.Similarities) != 1 {
		t.Fatalf("expected 1 similarity, got %d", len(resp.Similarities))
	}
	if !almostEqual(resp.Similarities[0].Similarity, 0.91) {
		t.Errorf("similarity = %.2f", resp.Similarities[0].Similarity)
	}
	if !resp.OverallAssessment.IsDuplicate || resp.OverallAssessment.Recommendation != "reject" {
		t.Errorf("unexpected assessment: %+v", resp.OverallAssessment)
	}
}

func TestParseAIResponse_MarkdownFences(t *testing.T) {
	for _, input := range []string{
		"```json\n" + validAIResponse + "\n```",
		"```\n" + validAIResponse + "\n```",
		"Here is my analysis:\n" + validAIResponse + "\nLet me know if you need more.",
	} {
		if _, err := parseAIResponse(input); err != nil {
			t.Errorf("expected no error for %q, got: %v", input[:20], err)
		}
	}
}

func TestParseAIResponse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not json", "I could not compare these questions."},
		{"truncated", `{"similarities": [{"questionId": 1`},
		{"missing assessment", `{"similarities": []}`},
		{"missing similarities", `{"overallAssessment": {"isDuplicate": false, "confidence": 0.9}}`},
		{"wrong type", `{"similarities": [{"questionId": 1, "similarity": "high"}], "overallAssessment": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAIResponse(tt.input)
			var pErr *UpstreamParseError
			if !errors.As(err, &pErr) {
				t.Errorf("expected UpstreamParseError, got %v", err)
			}
		})
	}
}

func TestParseAIResponse_EmptySimilarities(t *testing.T) {
	resp, err := parseAIResponse(`{"similarities": [], "overallAssessment": {"isDuplicate": false, "confidence": 0.95, "recommendation": "save"}}`)
	if err != nil {
		t.Fatalf("empty similarities array is valid: %v", err)
	}
	if len(resp.Similarities) != 0 {
		t.Errorf("expected no similarities, got %d", len(resp.Similarities))
	}
}

func TestParseQuestionID(t *testing.T) {
	tests := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{`42`, 42, true},
		{`"42"`, 42, true},
		{`" 42 "`, 42, true},
		{`42.0`, 42, true},
		{`42.5`, 0, false},
		{`"Q42"`, 0, false},
		{`null`, 0, false},
		{``, 0, false},
	}

	for _, tt := range tests {
		got, ok := parseQuestionID(json.RawMessage(tt.raw))
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseQuestionID(%s) = (%d, %v), want (%d, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBuildComparisonPrompt(t *testing.T) {
	q := models.Question{
		Stem: "What does the defer keyword do?",
		Options: []models.Option{
			{Text: "Runs a call when the function returns", IsCorrect: true},
			{Text: "Starts a goroutine"},
		},
		Explanation: "Deferred calls run in LIFO order.",
	}
	existing := []models.Question{
		{ID: 31, Stem: "When do deferred functions execute?"},
		{ID: 47, Stem: "What is a goroutine?"},
	}

	prompt := BuildComparisonPrompt(q, existing)

	for _, want := range []string{
		"NEW QUESTION:",
		"Question: What does the defer keyword do?",
		"(A) Runs a call when the function returns [correct]",
		"(B) Starts a goroutine [incorrect]",
		"Explanation: Deferred calls run in LIFO order.",
		"EXISTING QUESTIONS (2):",
		"1. [ID: 31]",
		"2. [ID: 47]",
		"Question: What is a goroutine?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if strings.Count(prompt, "Explanation:") != 1 {
		t.Error("existing questions without explanations should not render one")
	}
}

func TestSimilaritySystemPrompt(t *testing.T) {
	prompt := SimilaritySystemPrompt()
	for _, want := range []string{"0.9-1.0", "0.6", `"similarities"`, `"overallAssessment"`, `"questionId"`, "JSON only"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}
