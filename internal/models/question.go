package models

import "time"

type QuestionStatus string

const (
	StatusActive        QuestionStatus = "active"
	StatusPendingReview QuestionStatus = "pending_review"
	StatusRejected      QuestionStatus = "rejected"
)

type Recommendation string

const (
	RecommendSave   Recommendation = "save"
	RecommendReview Recommendation = "review"
	RecommendReject Recommendation = "reject"
)

// CheckMethod records which path produced a DuplicateCheckResult.
type CheckMethod string

const (
	MethodAI        CheckMethod = "ai"
	MethodLexical   CheckMethod = "lexical"
	MethodEmptyPool CheckMethod = "empty_pool"
	MethodSkipped   CheckMethod = "skipped"
	MethodError     CheckMethod = "error"
)

type ImportStatus string

const ImportCompleted ImportStatus = "completed"

// ── Core Structs ───────────────────────────────────────

type Question struct {
	ID                  int64          `json:"id,omitempty" yaml:"id,omitempty"`
	Stem                string         `json:"stem" yaml:"stem"`
	Options             []Option       `json:"options,omitempty" yaml:"options,omitempty"`
	Explanation         string         `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Category            string         `json:"category,omitempty" yaml:"category,omitempty"`
	Fields              []string       `json:"fields,omitempty" yaml:"fields,omitempty"`
	Topics              []string       `json:"topics,omitempty" yaml:"topics,omitempty"`
	Status              QuestionStatus `json:"status,omitempty" yaml:"-"`
	DuplicateOf         *int64         `json:"duplicate_of,omitempty" yaml:"-"`
	DuplicateSimilarity *float64       `json:"duplicate_similarity,omitempty" yaml:"-"`
	ImportID            *string        `json:"import_id,omitempty" yaml:"-"`
	CreatedAt           time.Time      `json:"created_at,omitempty" yaml:"-"`
}

type Option struct {
	Text      string `json:"text" yaml:"text"`
	IsCorrect bool   `json:"is_correct" yaml:"is_correct"`
}

// HasOptions reports whether the question is a choice-type question.
func (q Question) HasOptions() bool {
	return len(q.Options) > 0
}

// CorrectOptions returns the texts of every option marked correct.
func (q Question) CorrectOptions() []string {
	var out []string
	for _, o := range q.Options {
		if o.IsCorrect {
			out = append(out, o.Text)
		}
	}
	return out
}

type SimilarityResult struct {
	QuestionID int64   `json:"question_id"`
	Similarity float64 `json:"similarity"`
	Reason     string  `json:"reason"`
	Stem       string  `json:"stem"`
}

type DuplicateCheckResult struct {
	Index            int                `json:"index"`
	IsDuplicate      bool               `json:"is_duplicate"`
	SimilarQuestions []SimilarityResult `json:"similar_questions"`
	Confidence       float64            `json:"confidence"`
	Recommendation   Recommendation     `json:"recommendation"`
	Method           CheckMethod        `json:"method"`
	Error            string             `json:"error,omitempty"`
}

// TopMatch returns the highest-scoring similar question, if any.
func (r *DuplicateCheckResult) TopMatch() (SimilarityResult, bool) {
	if r == nil || len(r.SimilarQuestions) == 0 {
		return SimilarityResult{}, false
	}
	return r.SimilarQuestions[0], true
}

// CandidateFilter narrows the existing-question pool. A question matches when
// its category is in Categories or it shares any entry of Fields.
type CandidateFilter struct {
	Categories []string `json:"categories,omitempty"`
	Fields     []string `json:"fields,omitempty"`
}

func (f CandidateFilter) IsEmpty() bool {
	return len(f.Categories) == 0 && len(f.Fields) == 0
}

type ImportBatch struct {
	ID                 string       `json:"id"`
	Status             ImportStatus `json:"status"`
	CreatedBy          string       `json:"created_by,omitempty"`
	Total              int          `json:"total"`
	Saved              int          `json:"saved"`
	Flagged            int          `json:"flagged"`
	Rejected           int          `json:"rejected"`
	Invalid            int          `json:"invalid"`
	Threshold          float64      `json:"similarity_threshold"`
	SkipDuplicateCheck bool         `json:"skip_duplicate_check"`
	CreatedAt          time.Time    `json:"created_at"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty"`
}

// ── Request Types ─────────────────────────────────────

type BulkImportRequest struct {
	Questions           []Question `json:"questions"`
	SkipDuplicateCheck  bool       `json:"skip_duplicate_check,omitempty"`
	SimilarityThreshold *float64   `json:"similarity_threshold,omitempty"`
}

type ReviewDecisionRequest struct {
	Approve bool `json:"approve"`
}

// ── Response Types ────────────────────────────────────

type ImportItemStatus string

const (
	ItemSaved    ImportItemStatus = "saved"
	ItemFlagged  ImportItemStatus = "flagged"
	ItemRejected ImportItemStatus = "rejected"
	ItemInvalid  ImportItemStatus = "invalid"
)

type ImportItemResult struct {
	Index      int                   `json:"index"`
	Status     ImportItemStatus      `json:"status"`
	QuestionID *int64                `json:"question_id,omitempty"`
	Errors     []string              `json:"errors,omitempty"`
	Check      *DuplicateCheckResult `json:"duplicate_check,omitempty"`
}

type BulkImportResponse struct {
	ImportID string             `json:"import_id,omitempty"`
	DryRun   bool               `json:"dry_run"`
	Total    int                `json:"total"`
	Saved    int                `json:"saved"`
	Flagged  int                `json:"flagged"`
	Rejected int                `json:"rejected"`
	Invalid  int                `json:"invalid"`
	Results  []ImportItemResult `json:"results"`
}

type ReviewQueueResponse struct {
	Questions []Question `json:"questions"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}
