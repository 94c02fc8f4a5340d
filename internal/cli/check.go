package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/interview-prep/backend/internal/completion"
	"github.com/interview-prep/backend/internal/database"
	"github.com/interview-prep/backend/internal/models"
	"github.com/interview-prep/backend/internal/questions"
	"github.com/interview-prep/backend/internal/similarity"
)

func newCheckCmd() *cobra.Command {
	var (
		file      string
		poolFile  string
		threshold float64
		asJSON    bool
		failOn    string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a file of questions for duplicates",
		Long: `Check every question in --file against the existing question bank.

The pool comes from the database unless --pool names a YAML or JSON file of
existing questions. Nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			level, err := parseFailLevel(failOn)
			if err != nil {
				return err
			}
			if err := checkThreshold(threshold); err != nil {
				return err
			}

			cfg, err := loadValidConfig()
			if err != nil {
				return err
			}

			candidates, err := readQuestionsFile(file)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				return fmt.Errorf("no questions in %s", file)
			}

			client, model, err := completion.NewFromConfig(cfg.Completion)
			if err != nil {
				return fmt.Errorf("failed to create completion client: %w", err)
			}
			client, closeCache := completion.WithCache(ctx, client, cfg.Redis, model)
			defer closeCache()

			var results []models.DuplicateCheckResult
			if poolFile != "" {
				pool, err := readQuestionsFile(poolFile)
				if err != nil {
					return err
				}
				checker := similarity.NewChecker(cfg.Similarity, client, nil)
				results, err = checker.CheckAgainstPool(ctx, candidates, assignPoolIDs(pool), threshold)
				if err != nil {
					return fmt.Errorf("check failed: %w", err)
				}
			} else {
				db, err := database.Connect(cfg.Database)
				if err != nil {
					return err
				}
				defer db.Close()

				checker := similarity.NewChecker(cfg.Similarity, client, questions.NewStore(db))
				results, err = checker.BatchCheck(ctx, candidates, threshold)
				if err != nil {
					return fmt.Errorf("check failed: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				printResults(out, candidates, results)
			}

			if n := countAtOrAbove(results, level); n > 0 {
				return fmt.Errorf("%d question(s) recommended %s or stricter", n, failOn)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "questions to check (YAML or JSON)")
	cmd.Flags().StringVar(&poolFile, "pool", "", "existing questions to compare against instead of the database")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "duplicate threshold in [0,1]; 0 uses the configured default")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().StringVar(&failOn, "fail-on", "none", "exit non-zero when any result is at least: review, reject, none")
	cmd.MarkFlagRequired("file")

	return cmd
}

// questionFile accepts either a bare list or {questions: [...]}. JSON files
// parse through the YAML decoder.
type questionFile struct {
	Questions []models.Question `yaml:"questions"`
}

func readQuestionsFile(path string) ([]models.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	doc := root.Content[0]
	if doc.Kind == yaml.SequenceNode {
		var list []models.Question
		if err := doc.Decode(&list); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return list, nil
	}

	var wrapped questionFile
	if err := doc.Decode(&wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return wrapped.Questions, nil
}

// assignPoolIDs numbers file-pool questions that carry no id.
func assignPoolIDs(pool []models.Question) []models.Question {
	var next int64
	for _, q := range pool {
		if q.ID > next {
			next = q.ID
		}
	}
	for i := range pool {
		if pool[i].ID == 0 {
			next++
			pool[i].ID = next
		}
	}
	return pool
}

// checkThreshold accepts 0 (use the configured default) or any value in (0,1].
func checkThreshold(t float64) error {
	if t < 0 || t > 1 {
		return fmt.Errorf("invalid --threshold %v (must be between 0 and 1)", t)
	}
	return nil
}

var recommendationRank = map[models.Recommendation]int{
	models.RecommendSave:   0,
	models.RecommendReview: 1,
	models.RecommendReject: 2,
}

func parseFailLevel(s string) (int, error) {
	switch s {
	case "", "none":
		return -1, nil
	case string(models.RecommendReview), string(models.RecommendReject):
		return recommendationRank[models.Recommendation(s)], nil
	default:
		return 0, fmt.Errorf("invalid --fail-on %q (want review, reject or none)", s)
	}
}

func countAtOrAbove(results []models.DuplicateCheckResult, level int) int {
	if level < 0 {
		return 0
	}
	n := 0
	for _, r := range results {
		if recommendationRank[r.Recommendation] >= level {
			n++
		}
	}
	return n
}

func printResults(w io.Writer, candidates []models.Question, results []models.DuplicateCheckResult) {
	counts := make(map[models.Recommendation]int)
	for i, r := range results {
		counts[r.Recommendation]++
		fmt.Fprintf(w, "%d. %s\n", i+1, truncate(candidates[i].Stem, 80))
		fmt.Fprintf(w, "   Recommendation: %s | Method: %s | Confidence: %.0f%%\n",
			strings.ToUpper(string(r.Recommendation)), r.Method, r.Confidence*100)
		if r.Error != "" {
			fmt.Fprintf(w, "   Error: %s\n", r.Error)
		}
		for _, s := range r.SimilarQuestions {
			fmt.Fprintf(w, "   - #%d %.1f%% %s\n", s.QuestionID, s.Similarity*100, truncate(s.Stem, 70))
			if s.Reason != "" {
				fmt.Fprintf(w, "     %s\n", s.Reason)
			}
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Checked %d: %d save, %d review, %d reject\n", len(results),
		counts[models.RecommendSave], counts[models.RecommendReview], counts[models.RecommendReject])
}

func truncate(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max-3]) + "..."
}
