package generator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/verte-zerg/globequiz/internal/model"
)

func testPool() []model.Country {
	return []model.Country{
		{CommonName: "France", CapitalName: "Paris", FlagImageRef: "https://flagcdn.com/w320/fr.png", Population: 67391582, Region: model.RegionEurope, Code: "FR"},
		{CommonName: "Japan", CapitalName: "Tokyo", FlagImageRef: "https://flagcdn.com/w320/jp.png", Population: 125836021, Region: model.RegionAsia, Code: "JP"},
		{CommonName: "Kenya", CapitalName: "Nairobi", FlagImageRef: "https://flagcdn.com/w320/ke.png", Population: 53771300, Region: model.RegionAfrica, Code: "KE"},
		{CommonName: "Brazil", CapitalName: "Brasília", FlagImageRef: "https://flagcdn.com/w320/br.png", Population: 212559409, Region: model.RegionAmericas, Code: "BR"},
		{CommonName: "Fiji", CapitalName: "Suva", FlagImageRef: "https://flagcdn.com/w320/fj.png", Population: 896444, Region: model.RegionOceania, Code: "FJ"},
		{CommonName: "Peru", CapitalName: "Lima", FlagImageRef: "https://flagcdn.com/w320/pe.png", Population: 32971846, Region: model.RegionAmericas, Code: "PE"},
		{CommonName: "Norway", CapitalName: "Oslo", FlagImageRef: "https://flagcdn.com/w320/no.png", Population: 5379475, Region: model.RegionEurope, Code: "NO"},
		{CommonName: "Vietnam", CapitalName: "Hanoi", FlagImageRef: "https://flagcdn.com/w320/vn.png", Population: 97338583, Region: model.RegionAsia, Code: "VN"},
	}
}

func byCode(pool []model.Country) map[string]model.Country {
	out := make(map[string]model.Country, len(pool))
	for _, c := range pool {
		out[c.Code] = c
	}
	return out
}

func byName(pool []model.Country) map[string]model.Country {
	out := make(map[string]model.Country, len(pool))
	for _, c := range pool {
		out[c.CommonName] = c
	}
	return out
}

func TestGenerateShapeAndCorrectness(t *testing.T) {
	pool := testPool()
	codes := byCode(pool)
	named := byName(pool)
	gen := NewWithSeed(7)

	for _, category := range model.Categories {
		questions := gen.Generate(category, pool, DefaultCount)
		if len(questions) != DefaultCount {
			t.Fatalf("%s: expected %d questions, got %d", category, DefaultCount, len(questions))
		}
		seen := map[string]bool{}
		for i, q := range questions {
			if len(q.Options) != OptionCount {
				t.Fatalf("%s[%d]: expected %d options, got %d", category, i, OptionCount, len(q.Options))
			}
			if !distinct(q.Options) {
				t.Fatalf("%s[%d]: duplicate options %v", category, i, q.Options)
			}
			if q.CorrectIndex < 0 || q.CorrectIndex >= OptionCount {
				t.Fatalf("%s[%d]: invalid correct index %d", category, i, q.CorrectIndex)
			}
			if seen[q.SubjectCode] {
				t.Fatalf("%s: subject %s repeated", category, q.SubjectCode)
			}
			seen[q.SubjectCode] = true

			subject := codes[q.SubjectCode]
			correct := q.CorrectOption()
			switch category {
			case model.CategoryCapitals:
				if correct != subject.CapitalName {
					t.Fatalf("capitals: expected %q, got %q", subject.CapitalName, correct)
				}
				if !strings.Contains(q.Prompt, subject.CommonName) {
					t.Fatalf("capitals: prompt %q does not name subject", q.Prompt)
				}
			case model.CategoryFlags:
				if correct != subject.CommonName || q.FlagImageRef != subject.FlagImageRef {
					t.Fatalf("flags: unexpected question %+v for %+v", q, subject)
				}
			case model.CategoryGeography:
				if correct != string(subject.Region) {
					t.Fatalf("geography: expected %q, got %q", subject.Region, correct)
				}
				for _, opt := range q.Options {
					if _, ok := model.ParseRegion(opt); !ok {
						t.Fatalf("geography: option %q is not a region", opt)
					}
				}
			case model.CategoryPopulation:
				for _, opt := range q.Options {
					if named[opt].Population > named[correct].Population {
						t.Fatalf("population: %q outranks chosen %q", opt, correct)
					}
				}
				if q.FlagImageRef != "" {
					t.Fatalf("population: unexpected flag reference")
				}
			}
		}
	}
}

func TestGeneratePopulationExample(t *testing.T) {
	pool := []model.Country{
		{CommonName: "A", CapitalName: "a", Population: 10, Region: model.RegionAsia, Code: "AA"},
		{CommonName: "B", CapitalName: "b", Population: 50, Region: model.RegionAsia, Code: "BB"},
		{CommonName: "C", CapitalName: "c", Population: 5, Region: model.RegionAsia, Code: "CC"},
		{CommonName: "D", CapitalName: "d", Population: 20, Region: model.RegionAsia, Code: "DD"},
	}
	for seed := int64(0); seed < 20; seed++ {
		questions := NewWithSeed(seed).Generate(model.CategoryPopulation, pool, 1)
		if len(questions) != 1 {
			t.Fatalf("seed %d: expected 1 question, got %d", seed, len(questions))
		}
		if got := questions[0].CorrectOption(); got != "B" {
			t.Fatalf("seed %d: expected B, got %q", seed, got)
		}
		if !strings.Contains(questions[0].Explanation, "B has the largest population with 50 people") {
			t.Fatalf("seed %d: unexpected explanation %q", seed, questions[0].Explanation)
		}
	}
}

func TestPopulationExplanationGroupsDigits(t *testing.T) {
	pool := testPool()[:4]
	questions := NewWithSeed(3).Generate(model.CategoryPopulation, pool, 1)
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if !strings.Contains(questions[0].Explanation, "212,559,409") {
		t.Fatalf("expected grouped population in %q", questions[0].Explanation)
	}
}

func TestPopulationTieKeepsFirstDrawn(t *testing.T) {
	gen := NewWithSeed(1)
	drawn := []model.Country{
		{CommonName: "First", Population: 100, Code: "AA"},
		{CommonName: "Second", Population: 100, Code: "BB"},
		{CommonName: "Third", Population: 1, Code: "CC"},
		{CommonName: "Fourth", Population: 2, Code: "DD"},
	}
	q, ok := gen.single(model.CategoryPopulation, drawn)
	if !ok {
		t.Fatalf("expected question to build")
	}
	if q.CorrectOption() != "First" {
		t.Fatalf("expected tie to resolve to first drawn, got %q", q.CorrectOption())
	}
}

func TestGenerateSmallPoolSkipsSlots(t *testing.T) {
	questions := NewWithSeed(1).Generate(model.CategoryCapitals, testPool()[:3], DefaultCount)
	if len(questions) != 0 {
		t.Fatalf("expected no questions from a pool of 3, got %d", len(questions))
	}
}

func TestGenerateAcceptsDuplicatesAfterAttempts(t *testing.T) {
	pool := testPool()[:4]
	questions := NewWithSeed(11).Generate(model.CategoryCapitals, pool, DefaultCount)
	if len(questions) != DefaultCount {
		t.Fatalf("expected %d questions, got %d", DefaultCount, len(questions))
	}
	subjects := map[string]int{}
	for _, q := range questions {
		subjects[q.SubjectCode]++
	}
	if len(subjects) != len(pool) {
		t.Fatalf("expected every country used once before repeating, got %v", subjects)
	}
}

func TestGenerateSkipsDuplicateOptions(t *testing.T) {
	pool := []model.Country{
		{CommonName: "A", CapitalName: "Same", Code: "AA"},
		{CommonName: "B", CapitalName: "Same", Code: "BB"},
		{CommonName: "C", CapitalName: "c", Code: "CC"},
		{CommonName: "D", CapitalName: "d", Code: "DD"},
	}
	questions := NewWithSeed(5).Generate(model.CategoryCapitals, pool, 2)
	if len(questions) != 0 {
		t.Fatalf("expected capitals with shared names to be rejected, got %d", len(questions))
	}
}

func TestGenerateUnknownCategory(t *testing.T) {
	if got := NewWithSeed(1).Generate(model.Category("music"), testPool(), 3); len(got) != 0 {
		t.Fatalf("expected no questions for unknown category, got %d", len(got))
	}
}

func TestGenerateDiffersAcrossRuns(t *testing.T) {
	gen := NewWithSeed(42)
	signature := func(qs []model.Question) string {
		var b strings.Builder
		for _, q := range qs {
			fmt.Fprintf(&b, "%s:%v|", q.SubjectCode, q.Options)
		}
		return b.String()
	}
	first := gen.Generate(model.CategoryFlags, testPool(), DefaultCount)
	second := gen.Generate(model.CategoryFlags, testPool(), DefaultCount)
	if len(first) != len(second) {
		t.Fatalf("expected identical shape, got %d and %d", len(first), len(second))
	}
	if signature(first) == signature(second) {
		t.Fatalf("expected different shuffles across runs")
	}
}

func TestGenerateWeightedPrefersMissed(t *testing.T) {
	pool := testPool()
	missed := map[string]struct{}{"FJ": {}}
	gen := NewWithSeed(9)
	hits := 0
	const rounds = 200
	for i := 0; i < rounds; i++ {
		qs := gen.GenerateWeighted(model.CategoryCapitals, pool, 1, missed, 20)
		if len(qs) == 1 && qs[0].SubjectCode == "FJ" {
			hits++
		}
	}
	if hits < rounds/2 {
		t.Fatalf("expected missed country to dominate subjects, got %d/%d", hits, rounds)
	}
}
