package stats

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/globequiz/internal/model"
	"github.com/verte-zerg/globequiz/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "globequiz.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		res := model.Result{
			SessionID:  fmt.Sprintf("s-%d", i),
			Category:   model.CategoryCapitals,
			Score:      i,
			Total:      2,
			Percentage: i * 50,
			Tier:       model.TierGood,
			Records: []model.AnswerRecord{
				{Position: 0, SubjectCode: "FR", Correct: i > 0},
				{Position: 1, SubjectCode: "JP", Correct: i > 1},
			},
			StartedAt: start,
			EndedAt:   start.Add(30 * time.Second),
		}
		id, err := st.InsertSession(ctx, res)
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, id)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Last: 2, CurveWindow: 20})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].SessionID != ids[1] || report.Sessions[1].SessionID != ids[2] {
		t.Fatalf("unexpected session ids: %+v", report.Sessions)
	}
	if len(report.Categories) != 1 || report.Categories[0].Sessions != 2 || report.Categories[0].Correct != 3 {
		t.Fatalf("unexpected categories: %+v", report.Categories)
	}
	missed := SelectMissed(report.Missed, 0)
	if _, ok := missed["JP"]; !ok || len(missed) != 1 {
		t.Fatalf("expected only JP missed in the last two sessions, got %v", missed)
	}
}
