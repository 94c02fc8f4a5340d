package questions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/interview-prep/backend/internal/models"
)

var ErrNotFound = errors.New("question not found")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const questionColumns = `id, stem, explanation, category, fields, topics, status,
	duplicate_of, duplicate_similarity, import_id, created_at`

// ── Candidate Pool ─────────────────────────────────────

// FetchCandidates returns live questions matching any category or sharing any
// field with filter, newest first. An empty filter matches everything.
func (s *Store) FetchCandidates(ctx context.Context, filter models.CandidateFilter, limit int) ([]models.Question, error) {
	query, args := buildCandidateQuery(filter, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	defer rows.Close()

	questions, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachOptions(ctx, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func buildCandidateQuery(filter models.CandidateFilter, limit int) (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	sb.WriteString("SELECT ")
	sb.WriteString(questionColumns)
	sb.WriteString(" FROM questions WHERE status IN ('active', 'pending_review')")

	var conds []string
	if len(filter.Categories) > 0 {
		args = append(args, pq.Array(filter.Categories))
		conds = append(conds, fmt.Sprintf("category = ANY($%d)", len(args)))
	}
	if len(filter.Fields) > 0 {
		args = append(args, pq.Array(filter.Fields))
		conds = append(conds, fmt.Sprintf("fields && $%d", len(args)))
	}
	if len(conds) > 0 {
		sb.WriteString(" AND (")
		sb.WriteString(strings.Join(conds, " OR "))
		sb.WriteString(")")
	}

	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	if limit > 0 {
		args = append(args, limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	return sb.String(), args
}

// ── Import ─────────────────────────────────────────────

// SaveImport records the import batch and persists every question in one
// transaction. The returned ids are index-aligned with items.
func (s *Store) SaveImport(ctx context.Context, batch *models.ImportBatch, items []models.Question) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO import_batches
		 (id, status, created_by, total, saved, flagged, rejected, invalid,
		  similarity_threshold, skip_duplicate_check, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		 RETURNING created_at, completed_at`,
		batch.ID, batch.Status, nullString(batch.CreatedBy), batch.Total,
		batch.Saved, batch.Flagged, batch.Rejected, batch.Invalid,
		batch.Threshold, batch.SkipDuplicateCheck,
	).Scan(&batch.CreatedAt, &batch.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("insert import batch: %w", err)
	}

	ids := make([]int64, 0, len(items))
	for _, q := range items {
		var questionID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO questions
			 (stem, explanation, category, fields, topics, status,
			  duplicate_of, duplicate_similarity, import_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id`,
			q.Stem, q.Explanation, q.Category, pq.Array(nonNil(q.Fields)), pq.Array(nonNil(q.Topics)),
			q.Status, q.DuplicateOf, q.DuplicateSimilarity, batch.ID,
		).Scan(&questionID)
		if err != nil {
			return nil, fmt.Errorf("insert question: %w", err)
		}

		for pos, o := range q.Options {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO question_options (question_id, position, text, is_correct)
				 VALUES ($1, $2, $3, $4)`,
				questionID, pos, o.Text, o.IsCorrect,
			)
			if err != nil {
				return nil, fmt.Errorf("insert option: %w", err)
			}
		}

		ids = append(ids, questionID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return ids, nil
}

func (s *Store) GetImport(ctx context.Context, id string) (*models.ImportBatch, error) {
	var b models.ImportBatch
	var createdBy sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, created_by, total, saved, flagged, rejected, invalid,
		        similarity_threshold, skip_duplicate_check, created_at, completed_at
		 FROM import_batches WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Status, &createdBy, &b.Total, &b.Saved, &b.Flagged, &b.Rejected, &b.Invalid,
		&b.Threshold, &b.SkipDuplicateCheck, &b.CreatedAt, &b.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get import: %w", err)
	}
	b.CreatedBy = createdBy.String
	return &b, nil
}

// ── Review Queue ───────────────────────────────────────

func (s *Store) ListReviewQueue(ctx context.Context, limit, offset int) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+`
		 FROM questions WHERE status = $1
		 ORDER BY created_at, id
		 LIMIT $2 OFFSET $3`,
		models.StatusPendingReview, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list review queue: %w", err)
	}
	defer rows.Close()

	questions, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachOptions(ctx, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// ResolveReview moves a pending question to active (approve) or rejected.
func (s *Store) ResolveReview(ctx context.Context, id int64, approve bool, reviewer string) (models.QuestionStatus, error) {
	status := models.StatusRejected
	if approve {
		status = models.StatusActive
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE questions SET status = $1, reviewed_at = NOW(), reviewed_by = $2
		 WHERE id = $3 AND status = $4`,
		status, nullString(reviewer), id, models.StatusPendingReview,
	)
	if err != nil {
		return "", fmt.Errorf("resolve review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("resolve review: %w", err)
	}
	if n == 0 {
		return "", ErrNotFound
	}
	return status, nil
}

// ── Helpers ────────────────────────────────────────────

func scanQuestions(rows *sql.Rows) ([]models.Question, error) {
	var questions []models.Question
	for rows.Next() {
		var q models.Question
		var duplicateOf sql.NullInt64
		var duplicateSim sql.NullFloat64
		var importID sql.NullString

		if err := rows.Scan(
			&q.ID, &q.Stem, &q.Explanation, &q.Category,
			pq.Array(&q.Fields), pq.Array(&q.Topics), &q.Status,
			&duplicateOf, &duplicateSim, &importID, &q.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}

		if duplicateOf.Valid {
			q.DuplicateOf = &duplicateOf.Int64
		}
		if duplicateSim.Valid {
			q.DuplicateSimilarity = &duplicateSim.Float64
		}
		if importID.Valid {
			q.ImportID = &importID.String
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// attachOptions loads options for every question in one query.
func (s *Store) attachOptions(ctx context.Context, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	ids := make([]int64, len(questions))
	index := make(map[int64]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
		index[q.ID] = i
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, text, is_correct
		 FROM question_options WHERE question_id = ANY($1)
		 ORDER BY question_id, position`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("get options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var questionID int64
		var o models.Option
		if err := rows.Scan(&questionID, &o.Text, &o.IsCorrect); err != nil {
			return fmt.Errorf("scan option: %w", err)
		}
		if i, ok := index[questionID]; ok {
			questions[i].Options = append(questions[i].Options, o)
		}
	}
	return rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
