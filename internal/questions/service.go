package questions

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/interview-prep/backend/internal/models"
	"github.com/interview-prep/backend/internal/similarity"
)

const (
	defaultReviewLimit = 20
	maxReviewLimit     = 100
)

type questionStore interface {
	SaveImport(ctx context.Context, batch *models.ImportBatch, items []models.Question) ([]int64, error)
	GetImport(ctx context.Context, id string) (*models.ImportBatch, error)
	ListReviewQueue(ctx context.Context, limit, offset int) ([]models.Question, error)
	ResolveReview(ctx context.Context, id int64, approve bool, reviewer string) (models.QuestionStatus, error)
}

type Service struct {
	store        questionStore
	checker      *similarity.Checker
	maxQuestions int
}

func NewService(store questionStore, checker *similarity.Checker, maxQuestions int) *Service {
	if maxQuestions <= 0 {
		maxQuestions = 100
	}
	return &Service{store: store, checker: checker, maxQuestions: maxQuestions}
}

// pendingItem is a checked question waiting to be persisted.
type pendingItem struct {
	result   int
	question models.Question
}

// ── Bulk Import ────────────────────────────────────────

// BulkImport validates, checks and persists a batch of new questions. Items
// recommended for rejection are reported but never stored.
func (s *Service) BulkImport(ctx context.Context, req models.BulkImportRequest, actor string) (*models.BulkImportResponse, error) {
	resp, pending, threshold, err := s.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}

	batch := &models.ImportBatch{
		ID:                 uuid.NewString(),
		Status:             models.ImportCompleted,
		CreatedBy:          actor,
		Total:              resp.Total,
		Saved:              resp.Saved,
		Flagged:            resp.Flagged,
		Rejected:           resp.Rejected,
		Invalid:            resp.Invalid,
		Threshold:          threshold,
		SkipDuplicateCheck: req.SkipDuplicateCheck,
	}

	items := make([]models.Question, len(pending))
	for i, p := range pending {
		items[i] = p.question
	}

	ids, err := s.store.SaveImport(ctx, batch, items)
	if err != nil {
		return nil, fmt.Errorf("save import: %w", err)
	}
	for i, p := range pending {
		if i < len(ids) {
			id := ids[i]
			resp.Results[p.result].QuestionID = &id
		}
	}

	resp.ImportID = batch.ID
	log.Printf("Import %s by %s: %d saved, %d flagged, %d rejected, %d invalid",
		batch.ID, actor, resp.Saved, resp.Flagged, resp.Rejected, resp.Invalid)
	return resp, nil
}

// CheckDuplicates runs the same validation and duplicate checks as
// BulkImport without persisting anything.
func (s *Service) CheckDuplicates(ctx context.Context, req models.BulkImportRequest) (*models.BulkImportResponse, error) {
	resp, _, _, err := s.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.DryRun = true
	return resp, nil
}

// GetImport returns ErrNotFound for ids that are not UUIDs without querying
// the store.
func (s *Service) GetImport(ctx context.Context, id string) (*models.ImportBatch, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.store.GetImport(ctx, id)
}

func (s *Service) evaluate(ctx context.Context, req models.BulkImportRequest) (*models.BulkImportResponse, []pendingItem, float64, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, nil, 0, err
	}

	threshold := s.checker.Config().SimilarityThreshold
	if req.SimilarityThreshold != nil && *req.SimilarityThreshold > 0 {
		threshold = *req.SimilarityThreshold
	}

	resp := &models.BulkImportResponse{
		Total:   len(req.Questions),
		Results: make([]models.ImportItemResult, len(req.Questions)),
	}

	var valid []models.Question
	var validIdx []int
	for i, q := range req.Questions {
		q = normalizeQuestion(q)
		resp.Results[i].Index = i
		if errs := validateQuestion(q); len(errs) > 0 {
			resp.Results[i].Status = models.ItemInvalid
			resp.Results[i].Errors = errs
			resp.Invalid++
			continue
		}
		valid = append(valid, q)
		validIdx = append(validIdx, i)
	}

	var checks []models.DuplicateCheckResult
	if req.SkipDuplicateCheck {
		checks = make([]models.DuplicateCheckResult, len(valid))
		for i := range valid {
			checks[i] = models.DuplicateCheckResult{
				Index:            i,
				SimilarQuestions: []models.SimilarityResult{},
				Recommendation:   models.RecommendSave,
				Method:           models.MethodSkipped,
			}
		}
	} else if len(valid) > 0 {
		var err error
		checks, err = s.checker.BatchCheck(ctx, valid, threshold)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("duplicate check: %w", err)
		}
	}

	var pending []pendingItem
	for i, check := range checks {
		idx := validIdx[i]
		q := valid[i]
		check.Index = idx
		c := check
		resp.Results[idx].Check = &c

		switch check.Recommendation {
		case models.RecommendReject:
			resp.Results[idx].Status = models.ItemRejected
			resp.Rejected++
			continue
		case models.RecommendReview:
			q.Status = models.StatusPendingReview
			if top, ok := check.TopMatch(); ok {
				dupOf, sim := top.QuestionID, top.Similarity
				q.DuplicateOf = &dupOf
				q.DuplicateSimilarity = &sim
			}
			resp.Results[idx].Status = models.ItemFlagged
			resp.Flagged++
		default:
			q.Status = models.StatusActive
			resp.Results[idx].Status = models.ItemSaved
			resp.Saved++
		}
		pending = append(pending, pendingItem{result: idx, question: q})
	}

	return resp, pending, threshold, nil
}

func (s *Service) validateRequest(req models.BulkImportRequest) error {
	var errs []string
	if len(req.Questions) == 0 {
		errs = append(errs, "at least one question is required")
	}
	if len(req.Questions) > s.maxQuestions {
		errs = append(errs, fmt.Sprintf("at most %d questions per request", s.maxQuestions))
	}
	if t := req.SimilarityThreshold; t != nil && (*t < 0 || *t > 1) {
		errs = append(errs, "similarity_threshold must be between 0 and 1")
	}
	if len(errs) > 0 {
		return &similarity.ValidationError{Errors: errs}
	}
	return nil
}

func normalizeQuestion(q models.Question) models.Question {
	q.Stem = strings.TrimSpace(q.Stem)
	q.Explanation = strings.TrimSpace(q.Explanation)
	q.Category = strings.TrimSpace(q.Category)
	q.ID = 0
	q.Status = ""
	q.DuplicateOf = nil
	q.DuplicateSimilarity = nil
	q.ImportID = nil
	return q
}

// validateQuestion checks a single item's structure. Options are optional;
// when present there must be at least two, all non-empty, one marked correct.
func validateQuestion(q models.Question) []string {
	var errs []string
	if q.Stem == "" {
		errs = append(errs, "Question stem is required")
	}
	if !q.HasOptions() {
		return errs
	}

	if len(q.Options) < 2 {
		errs = append(errs, "at least 2 options are required")
	}
	hasCorrect := false
	for i, o := range q.Options {
		if strings.TrimSpace(o.Text) == "" {
			errs = append(errs, fmt.Sprintf("option %d text is required", i+1))
		}
		if o.IsCorrect {
			hasCorrect = true
		}
	}
	if !hasCorrect {
		errs = append(errs, "at least one option must be marked correct")
	}
	return errs
}

// ── Review Queue ───────────────────────────────────────

func (s *Service) ListReviewQueue(ctx context.Context, limit, offset int) (*models.ReviewQueueResponse, error) {
	if limit <= 0 {
		limit = defaultReviewLimit
	}
	if limit > maxReviewLimit {
		limit = maxReviewLimit
	}

	questions, err := s.store.ListReviewQueue(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []models.Question{}
	}
	return &models.ReviewQueueResponse{Questions: questions, Limit: limit, Offset: offset}, nil
}

func (s *Service) ResolveReview(ctx context.Context, id int64, approve bool, reviewer string) (models.QuestionStatus, error) {
	return s.store.ResolveReview(ctx, id, approve, reviewer)
}
