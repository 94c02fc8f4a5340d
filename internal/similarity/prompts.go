package similarity

import (
	"fmt"
	"strings"

	"github.com/interview-prep/backend/internal/models"
)

func SimilaritySystemPrompt() string {
	return `You are an expert curator of a technical interview question bank. Your job is to decide whether a newly submitted question duplicates questions already in the bank.

Two questions are duplicates when they test the same knowledge and would be answered the same way, even if the wording differs. Shared vocabulary alone does not make questions duplicates. Two different questions that happen to share a correct answer such as "True" are NOT duplicates.

SIMILARITY SCALE:
- 0.9-1.0: Same question. Identical or trivially reworded, same correct answer.
- 0.8-0.9: Near duplicate. Same concept and same expected answer with different framing.
- 0.7-0.8: Strongly related. Overlapping concept, but a candidate could reasonably answer one and not the other.
- 0.6-0.7: Related topic. Worth mentioning but clearly a different question.
- Below 0.6: Unrelated. Do not list it.

RULES:
- Compare the new question against every existing question provided
- Only list existing questions with similarity of 0.6 or higher
- Use the numeric ID shown in brackets for questionId
- Give a one-sentence reason for every listed question
- recommendation must be one of "save", "review", "reject"

You must respond with valid JSON only. No markdown, no explanation outside the JSON.

Respond with this exact JSON structure:
{
  "similarities": [
    {"questionId": 123, "similarity": 0.85, "reason": "..."}
  ],
  "overallAssessment": {
    "isDuplicate": true,
    "confidence": 0.9,
    "recommendation": "review",
    "reasoning": "..."
  }
}`
}

// BuildComparisonPrompt renders the candidate and the existing pool as a
// single user document.
func BuildComparisonPrompt(q models.Question, existing []models.Question) string {
	var sb strings.Builder

	sb.WriteString("NEW QUESTION:\n")
	writeQuestion(&sb, q)

	sb.WriteString(fmt.Sprintf("\nEXISTING QUESTIONS (%d):\n", len(existing)))
	for i, e := range existing {
		sb.WriteString(fmt.Sprintf("\n%d. [ID: %d]\n", i+1, e.ID))
		writeQuestion(&sb, e)
	}

	sb.WriteString("\nCompare the new question against each existing question and respond with the JSON structure described.")
	return sb.String()
}

func writeQuestion(sb *strings.Builder, q models.Question) {
	sb.WriteString("Question: ")
	sb.WriteString(strings.TrimSpace(q.Stem))
	sb.WriteString("\n")

	if q.HasOptions() {
		sb.WriteString("Options:\n")
		for i, o := range q.Options {
			mark := "incorrect"
			if o.IsCorrect {
				mark = "correct"
			}
			sb.WriteString(fmt.Sprintf("  (%s) %s [%s]\n", optionLabel(i), strings.TrimSpace(o.Text), mark))
		}
	}

	if exp := strings.TrimSpace(q.Explanation); exp != "" {
		sb.WriteString("Explanation: ")
		sb.WriteString(exp)
		sb.WriteString("\n")
	}
}

func optionLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("%d", i+1)
}
