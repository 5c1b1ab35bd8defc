// Package stats contains quiz statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/verte-zerg/globequiz/internal/model"
	"github.com/verte-zerg/globequiz/internal/quiz"
)

const (
	sparkChars          = " .:-=+*#%@"
	terminalWidthBackup = 80
	minSparkWidth       = 10
)

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Resample stretches or squeezes values to the given width by nearest sample.
func Resample(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 || len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	step := float64(len(values)) / float64(width)
	for i := range out {
		out[i] = values[int(float64(i)*step)]
	}
	return out
}

// TerminalWidth returns the width of stdout, falling back to 80 columns.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// RenderSummary prints a summary for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No quizzes found.")
		return err
	}
	var totalPct, correct, questions int
	var totalMs int64
	best := 0
	tiers := map[string]int{}
	for _, s := range sessions {
		totalPct += s.Percentage
		correct += s.Score
		questions += s.Total
		totalMs += s.DurationMs
		if s.Percentage > best {
			best = s.Percentage
		}
		tiers[s.Tier]++
	}
	count := len(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Quizzes: %d", count),
		fmt.Sprintf("Avg score: %.1f%%", float64(totalPct)/float64(count)),
		fmt.Sprintf("Best score: %d%%", best),
		fmt.Sprintf("Answered correctly: %d/%d (%d%%)", correct, questions, quiz.Percentage(correct, questions)),
		fmt.Sprintf("Avg quiz time: %s", (time.Duration(totalMs/int64(count)) * time.Millisecond).Round(time.Second)),
		fmt.Sprintf("Tiers: %s", formatTiers(tiers)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrend prints a sparkline of the moving-average score.
func RenderTrend(w io.Writer, sessions []model.SessionAggregate, window, width int) error {
	if len(sessions) == 0 {
		return nil
	}
	values := make([]float64, len(sessions))
	for i, s := range sessions {
		values[i] = float64(s.Percentage)
	}
	values = MovingAverage(values, window)
	if width <= 0 {
		width = TerminalWidth()
	}
	values = Resample(values, max(width-2, minSparkWidth))
	lo, hi := minMax(values)
	lines := []string{
		fmt.Sprintf("Score trend (window %d)", window),
		fmt.Sprintf("min=%.1f%% max=%.1f%%", lo, hi),
		"[" + Sparkline(values) + "]",
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCategoryTable prints per-category aggregates.
func RenderCategoryTable(w io.Writer, aggs []model.CategoryAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No category stats found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Categories"); err != nil {
		return err
	}
	headers, rows := CategoryRows(aggs)
	return WriteTable(w, headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})
}

// CategoryRows formats per-category aggregates as table cells.
func CategoryRows(aggs []model.CategoryAggregate) ([]string, [][]string) {
	headers := []string{"Category", "Quizzes", "Correct", "Accuracy", "Best"}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, []string{
			agg.Category.Title(),
			fmt.Sprintf("%d", agg.Sessions),
			fmt.Sprintf("%d/%d", agg.Correct, agg.Questions),
			fmt.Sprintf("%d%%", quiz.Percentage(agg.Correct, agg.Questions)),
			fmt.Sprintf("%d%%", agg.Best),
		})
	}
	return headers, rows
}

// RenderHistory prints the most recent sessions, newest first.
func RenderHistory(w io.Writer, sessions []model.SessionAggregate, now time.Time, limit int) error {
	if len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Recent quizzes"); err != nil {
		return err
	}
	return WriteTable(w, []string{"When", "Category", "Score", "Tier"}, HistoryRows(sessions, now, limit), map[int]bool{2: true})
}

// HistoryRows formats the newest sessions as table cells.
func HistoryRows(sessions []model.SessionAggregate, now time.Time, limit int) [][]string {
	if limit <= 0 || limit > len(sessions) {
		limit = len(sessions)
	}
	rows := make([][]string, 0, limit)
	for i := len(sessions) - 1; i >= len(sessions)-limit; i-- {
		s := sessions[i]
		rows = append(rows, []string{
			humanize.RelTime(s.EndedAt, now, "ago", "from now"),
			s.Category.Title(),
			fmt.Sprintf("%d/%d (%d%%)", s.Score, s.Total, s.Percentage),
			quiz.TierFor(s.Percentage).Label(),
		})
	}
	return rows
}

// WriteTable prints an aligned table followed by a blank line.
func WriteTable(w io.Writer, headers []string, rows [][]string, rightAlign map[int]bool) error {
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func formatTiers(tiers map[string]int) string {
	order := []model.Tier{model.TierExcellent, model.TierGreat, model.TierGood, model.TierKeepLearning}
	parts := make([]string, 0, len(order))
	for _, t := range order {
		if n := tiers[t.Key()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", t.Label(), n))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
