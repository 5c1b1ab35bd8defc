package quiz

import (
	"fmt"
	"math"

	"github.com/verte-zerg/globequiz/internal/model"
)

// Tier thresholds in percent, evaluated highest first.
const (
	ExcellentThreshold = 90
	GreatThreshold     = 70
	GoodThreshold      = 50
)

// Percentage rounds score/total to a whole percent. An empty quiz scores 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// TierFor maps a percentage to its performance tier.
func TierFor(percentage int) model.Tier {
	switch {
	case percentage >= ExcellentThreshold:
		return model.TierExcellent
	case percentage >= GreatThreshold:
		return model.TierGreat
	case percentage >= GoodThreshold:
		return model.TierGood
	default:
		return model.TierKeepLearning
	}
}

// ShareText formats the result for sharing.
func ShareText(r model.Result) string {
	return fmt.Sprintf("I scored %d/%d (%d%%) on the Country Explorer Quiz!", r.Score, r.Total, r.Percentage)
}
