package generator

import "github.com/verte-zerg/globequiz/internal/model"

// Focus generates questions biased toward recently missed countries.
// An empty Missed set falls back to uniform draws.
type Focus struct {
	Gen    *Generator
	Missed map[string]struct{}
	Factor float64
}

// Generate implements the question source used by quiz sessions.
func (f *Focus) Generate(category model.Category, pool []model.Country, count int) []model.Question {
	return f.Gen.GenerateWeighted(category, pool, count, f.Missed, f.Factor)
}
