package similarity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type aiResponse struct {
	Similarities      []aiSimilarity `json:"similarities"`
	OverallAssessment *aiAssessment  `json:"overallAssessment"`
}

type aiSimilarity struct {
	QuestionID json.RawMessage `json:"questionId"`
	Similarity float64         `json:"similarity"`
	Reason     string          `json:"reason"`
}

type aiAssessment struct {
	IsDuplicate    bool    `json:"isDuplicate"`
	Confidence     float64 `json:"confidence"`
	Recommendation string  `json:"recommendation"`
	Reasoning      string  `json:"reasoning"`
}

func parseAIResponse(content string) (*aiResponse, error) {
	cleaned := extractJSONObject(stripCodeFences(content))
	if cleaned == "" {
		return nil, &UpstreamParseError{Err: errors.New("empty response")}
	}

	var resp aiResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, &UpstreamParseError{Err: fmt.Errorf("failed to parse JSON response: %w", err)}
	}
	if resp.Similarities == nil {
		return nil, &UpstreamParseError{Err: errors.New("response missing similarities array")}
	}
	if resp.OverallAssessment == nil {
		return nil, &UpstreamParseError{Err: errors.New("response missing overallAssessment")}
	}
	return &resp, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

// extractJSONObject drops any prose surrounding the outermost {...}.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// parseQuestionID accepts 42, "42" and 42.0.
func parseQuestionID(raw json.RawMessage) (int64, bool) {
	s := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	if s == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}
