package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/globequiz/internal/model"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{10, 20, 30, 40}, 2)
	want := []float64{10, 15, 25, 35}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %.1f, got %.1f", i, want[i], got[i])
		}
	}
}

func TestSparklineFlat(t *testing.T) {
	if got := Sparkline([]float64{5, 5, 5}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
	if got := Sparkline([]float64{0, 100}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
}

func TestResampleShrinks(t *testing.T) {
	got := Resample([]float64{1, 2, 3, 4, 5, 6}, 3)
	if len(got) != 3 || got[0] != 1 || got[1] != 3 || got[2] != 5 {
		t.Fatalf("unexpected resample %v", got)
	}
}

func TestRankMissed(t *testing.T) {
	aggs := []model.CountryAggregate{
		{Code: "FR", Correct: 3, Incorrect: 1},
		{Code: "JP", Correct: 0, Incorrect: 2},
		{Code: "KE", Correct: 1, Incorrect: 2},
		{Code: "BR", Correct: 5, Incorrect: 0},
	}
	ranked := RankMissed(aggs)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 missed countries, got %d", len(ranked))
	}
	if ranked[0].Code != "JP" || ranked[1].Code != "KE" || ranked[2].Code != "FR" {
		t.Fatalf("unexpected order: %+v", ranked)
	}
	top := SelectMissed(aggs, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 selected, got %v", top)
	}
	if _, ok := top["FR"]; ok {
		t.Fatalf("FR should not be in the top two")
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	sessions := []model.SessionAggregate{
		{Score: 5, Total: 5, Percentage: 100, Tier: "excellent", DurationMs: 60000},
		{Score: 2, Total: 5, Percentage: 40, Tier: "keep_learning", DurationMs: 30000},
	}
	if err := RenderSummary(&buf, sessions); err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Quizzes: 2", "Avg score: 70.0%", "Best score: 100%", "7/10 (70%)", "45s", "Excellent! 1", "Keep Learning! 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No quizzes found.") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestHistoryRowsNewestFirst(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	sessions := []model.SessionAggregate{
		{Category: model.CategoryCapitals, Score: 1, Total: 5, Percentage: 20, EndedAt: now.Add(-48 * time.Hour)},
		{Category: model.CategoryFlags, Score: 5, Total: 5, Percentage: 100, EndedAt: now.Add(-2 * time.Hour)},
	}
	rows := HistoryRows(sessions, now, 1)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0][0] != "2 hours ago" || rows[0][1] != "Flags" || rows[0][3] != "Excellent!" {
		t.Fatalf("unexpected row %v", rows[0])
	}
}

func TestRenderMissedTableUsesNames(t *testing.T) {
	var buf bytes.Buffer
	aggs := []model.CountryAggregate{{Code: "JP", Incorrect: 2, TimedOut: 1}}
	if err := RenderMissedTable(&buf, aggs, map[string]string{"JP": "Japan"}, 5); err != nil {
		t.Fatalf("RenderMissedTable failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Japan (JP)") {
		t.Fatalf("expected country name in output:\n%s", buf.String())
	}
}
