package questions

import (
	"strings"
	"testing"

	"github.com/interview-prep/backend/internal/models"
)

func TestBuildCandidateQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    models.CandidateFilter
		limit     int
		contains  []string
		excludes  []string
		wantArgs  int
		limitSlot string
	}{
		{
			name:      "no filter",
			limit:     200,
			excludes:  []string{"ANY(", "&&"},
			wantArgs:  1,
			limitSlot: "LIMIT $1",
		},
		{
			name:      "categories only",
			filter:    models.CandidateFilter{Categories: []string{"golang"}},
			limit:     200,
			contains:  []string{"AND (category = ANY($1))"},
			wantArgs:  2,
			limitSlot: "LIMIT $2",
		},
		{
			name:      "categories or fields",
			filter:    models.CandidateFilter{Categories: []string{"golang"}, Fields: []string{"backend"}},
			limit:     50,
			contains:  []string{"category = ANY($1) OR fields && $2"},
			wantArgs:  3,
			limitSlot: "LIMIT $3",
		},
		{
			name:     "fields without limit",
			filter:   models.CandidateFilter{Fields: []string{"backend"}},
			contains: []string{"fields && $1"},
			excludes: []string{"LIMIT"},
			wantArgs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildCandidateQuery(tt.filter, tt.limit)

			if !strings.Contains(query, "status IN ('active', 'pending_review')") {
				t.Error("query must restrict to live statuses")
			}
			if !strings.Contains(query, "ORDER BY created_at DESC, id DESC") {
				t.Error("query must order newest first")
			}
			for _, c := range tt.contains {
				if !strings.Contains(query, c) {
					t.Errorf("query missing %q: %s", c, query)
				}
			}
			for _, e := range tt.excludes {
				if strings.Contains(query, e) {
					t.Errorf("query should not contain %q: %s", e, query)
				}
			}
			if len(args) != tt.wantArgs {
				t.Errorf("got %d args, want %d", len(args), tt.wantArgs)
			}
			if tt.limitSlot != "" {
				if !strings.HasSuffix(query, tt.limitSlot) {
					t.Errorf("query should end with %q: %s", tt.limitSlot, query)
				}
				if args[len(args)-1] != tt.limit {
					t.Errorf("last arg = %v, want %d", args[len(args)-1], tt.limit)
				}
			}
		})
	}
}
