package similarity

import (
	"fmt"
	"strings"

	"github.com/interview-prep/backend/internal/models"
)

const msgStemRequired = "Question stem is required"

// ValidationError reports malformed candidate input. It is the only error
// the checker surfaces to callers.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

// UpstreamCallError wraps a failed completion call.
type UpstreamCallError struct {
	Err error
}

func (e *UpstreamCallError) Error() string {
	return fmt.Sprintf("completion call failed: %v", e.Err)
}

func (e *UpstreamCallError) Unwrap() error { return e.Err }

// UpstreamParseError wraps a completion response that does not match the
// expected JSON contract.
type UpstreamParseError struct {
	Err error
}

func (e *UpstreamParseError) Error() string {
	return fmt.Sprintf("unusable completion response: %v", e.Err)
}

func (e *UpstreamParseError) Unwrap() error { return e.Err }

// ValidateCandidate checks the inputs every similarity path depends on.
func ValidateCandidate(q models.Question) error {
	if strings.TrimSpace(q.Stem) == "" {
		return &ValidationError{Errors: []string{msgStemRequired}}
	}
	return nil
}
