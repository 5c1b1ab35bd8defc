package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/verte-zerg/globequiz/internal/model"
)

// RankMissed orders countries by most incorrect answers, then lowest accuracy, then code.
// Countries never answered wrong are dropped.
func RankMissed(aggs []model.CountryAggregate) []model.CountryAggregate {
	ranked := make([]model.CountryAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Incorrect > 0 {
			ranked = append(ranked, agg)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Incorrect != ranked[j].Incorrect {
			return ranked[i].Incorrect > ranked[j].Incorrect
		}
		ai, aj := accuracy(ranked[i]), accuracy(ranked[j])
		if ai != aj {
			return ai < aj
		}
		return ranked[i].Code < ranked[j].Code
	})
	return ranked
}

// SelectMissed returns the codes of the top most-missed countries.
func SelectMissed(aggs []model.CountryAggregate, top int) map[string]struct{} {
	missed := map[string]struct{}{}
	ranked := RankMissed(aggs)
	if top <= 0 || top > len(ranked) {
		top = len(ranked)
	}
	for _, agg := range ranked[:top] {
		missed[agg.Code] = struct{}{}
	}
	return missed
}

// RenderMissedTable prints the most-missed countries. names maps codes to display names.
func RenderMissedTable(w io.Writer, aggs []model.CountryAggregate, names map[string]string, top int) error {
	rows := MissedRows(aggs, names, top)
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No missed countries.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Most missed countries"); err != nil {
		return err
	}
	return WriteTable(w, []string{"Country", "Missed", "Timed out", "Accuracy"}, rows, map[int]bool{1: true, 2: true, 3: true})
}

// MissedRows formats the top missed countries as table cells.
func MissedRows(aggs []model.CountryAggregate, names map[string]string, top int) [][]string {
	ranked := RankMissed(aggs)
	if top > 0 && top < len(ranked) {
		ranked = ranked[:top]
	}
	rows := make([][]string, 0, len(ranked))
	for _, agg := range ranked {
		label := agg.Code
		if name, ok := names[agg.Code]; ok && name != "" {
			label = fmt.Sprintf("%s (%s)", name, agg.Code)
		}
		rows = append(rows, []string{
			label,
			fmt.Sprintf("%d", agg.Incorrect),
			fmt.Sprintf("%d", agg.TimedOut),
			fmt.Sprintf("%.0f%%", accuracy(agg)*100),
		})
	}
	return rows
}

func accuracy(agg model.CountryAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}
