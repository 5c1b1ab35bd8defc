// Package generator builds randomized multiple-choice country questions.
package generator

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/verte-zerg/globequiz/internal/model"
)

const (
	// DefaultCount is the number of questions in a quiz.
	DefaultCount = 5
	// OptionCount is the number of options per question.
	OptionCount = 4
	// MaxAttempts bounds the retries spent avoiding a repeated subject country.
	MaxAttempts = 50
)

// Generator produces randomized quiz questions.
type Generator struct {
	rnd     *rand.Rand
	printer *message.Printer
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{
		rnd:     rand.New(rand.NewSource(seed)),
		printer: message.NewPrinter(language.English),
	}
}

type drawFunc func(pool []model.Country) []model.Country

// Generate builds count questions for the category, drawing countries uniformly.
func (g *Generator) Generate(category model.Category, pool []model.Country, count int) []model.Question {
	return g.generate(category, pool, count, g.drawUniform)
}

// GenerateWeighted biases the subject country toward the missed set by the given factor.
func (g *Generator) GenerateWeighted(category model.Category, pool []model.Country, count int, missed map[string]struct{}, factor float64) []model.Question {
	if len(missed) == 0 || factor <= 0 {
		return g.Generate(category, pool, count)
	}
	weights := make([]float64, len(pool))
	total := 0.0
	for i, c := range pool {
		w := 1.0
		if _, ok := missed[c.Code]; ok {
			w += factor
		}
		weights[i] = w
		total += w
	}
	return g.generate(category, pool, count, func(pool []model.Country) []model.Country {
		return g.drawWeighted(pool, weights, total)
	})
}

func (g *Generator) generate(category model.Category, pool []model.Country, count int, draw drawFunc) []model.Question {
	if count <= 0 {
		count = DefaultCount
	}
	if len(pool) < OptionCount {
		return nil
	}
	used := make(map[string]struct{}, count)
	result := make([]model.Question, 0, count)
	for slot := 0; slot < count; slot++ {
		var question model.Question
		built := false
		for attempt := 0; attempt < MaxAttempts; attempt++ {
			q, ok := g.single(category, draw(pool))
			if !ok {
				continue
			}
			question, built = q, true
			if _, dup := used[q.SubjectCode]; !dup {
				break
			}
		}
		if !built {
			continue
		}
		used[question.SubjectCode] = struct{}{}
		result = append(result, question)
	}
	return result
}

func (g *Generator) single(category model.Category, drawn []model.Country) (model.Question, bool) {
	if len(drawn) < OptionCount {
		return model.Question{}, false
	}
	subject := drawn[0]
	var q model.Question
	switch category {
	case model.CategoryCapitals:
		options := make([]string, len(drawn))
		for i, c := range drawn {
			options[i] = c.CapitalName
		}
		g.shuffle(options)
		q = model.Question{
			Prompt:       fmt.Sprintf("What is the capital of %s?", subject.CommonName),
			Options:      options,
			CorrectIndex: indexOf(options, subject.CapitalName),
			Explanation:  fmt.Sprintf("The capital of %s is %s.", subject.CommonName, subject.CapitalName),
		}
	case model.CategoryFlags:
		options := names(drawn)
		g.shuffle(options)
		q = model.Question{
			Prompt:       "Which country does this flag belong to?",
			Options:      options,
			CorrectIndex: indexOf(options, subject.CommonName),
			Explanation:  fmt.Sprintf("This is the flag of %s.", subject.CommonName),
			FlagImageRef: subject.FlagImageRef,
			FlagEmoji:    subject.FlagEmoji,
		}
	case model.CategoryGeography:
		others := make([]string, 0, len(model.Regions)-1)
		for _, r := range model.Regions {
			if r != subject.Region {
				others = append(others, string(r))
			}
		}
		g.shuffle(others)
		options := append([]string{string(subject.Region)}, others[:OptionCount-1]...)
		g.shuffle(options)
		q = model.Question{
			Prompt:       fmt.Sprintf("Which region does %s belong to?", subject.CommonName),
			Options:      options,
			CorrectIndex: indexOf(options, string(subject.Region)),
			Explanation:  fmt.Sprintf("%s is located in %s.", subject.CommonName, subject.Region),
		}
	case model.CategoryPopulation:
		ranked := make([]model.Country, len(drawn))
		copy(ranked, drawn)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Population > ranked[j].Population
		})
		largest := ranked[0]
		options := names(drawn)
		g.shuffle(options)
		q = model.Question{
			Prompt:       "Which of these countries has the largest population?",
			Options:      options,
			CorrectIndex: indexOf(options, largest.CommonName),
			Explanation: fmt.Sprintf("%s has the largest population with %s people.",
				largest.CommonName, g.printer.Sprintf("%d", largest.Population)),
		}
	default:
		return model.Question{}, false
	}
	q.SubjectCode = subject.Code
	if q.CorrectIndex < 0 || !distinct(q.Options) {
		return model.Question{}, false
	}
	return q, true
}

func (g *Generator) drawUniform(pool []model.Country) []model.Country {
	shuffled := make([]model.Country, len(pool))
	copy(shuffled, pool)
	g.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:OptionCount]
}

func (g *Generator) drawWeighted(pool []model.Country, weights []float64, total float64) []model.Country {
	r := g.rnd.Float64() * total
	acc := 0.0
	idx := len(pool) - 1
	for j, w := range weights {
		acc += w
		if r <= acc {
			idx = j
			break
		}
	}
	rest := make([]model.Country, 0, len(pool)-1)
	rest = append(rest, pool[:idx]...)
	rest = append(rest, pool[idx+1:]...)
	g.rnd.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
	drawn := make([]model.Country, 0, OptionCount)
	drawn = append(drawn, pool[idx])
	return append(drawn, rest[:OptionCount-1]...)
}

func (g *Generator) shuffle(values []string) {
	for i := len(values) - 1; i > 0; i-- {
		j := g.rnd.Intn(i + 1)
		values[i], values[j] = values[j], values[i]
	}
}

func names(list []model.Country) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.CommonName
	}
	return out
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}

func distinct(values []string) bool {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return false
		}
		seen[v] = struct{}{}
	}
	return true
}
