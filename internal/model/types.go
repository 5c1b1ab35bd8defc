// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownCategory is returned when a category name cannot be parsed.
var ErrUnknownCategory = errors.New("unknown category")

// Region is one of the five continental regions used by the quiz.
type Region string

// Supported regions.
const (
	RegionAfrica   Region = "Africa"
	RegionAmericas Region = "Americas"
	RegionAsia     Region = "Asia"
	RegionEurope   Region = "Europe"
	RegionOceania  Region = "Oceania"
)

// Regions lists every supported region in a fixed order.
var Regions = []Region{RegionAfrica, RegionAmericas, RegionAsia, RegionEurope, RegionOceania}

// ParseRegion matches a dataset region label against the supported set.
func ParseRegion(label string) (Region, bool) {
	for _, r := range Regions {
		if strings.EqualFold(string(r), strings.TrimSpace(label)) {
			return r, true
		}
	}
	return "", false
}

// Country is a read-only record from the country dataset.
type Country struct {
	CommonName   string `validate:"required"`
	CapitalName  string `validate:"required"`
	FlagImageRef string `validate:"required,url"`
	FlagEmoji    string
	Population   int64  `validate:"gt=0"`
	Region       Region `validate:"oneof=Africa Americas Asia Europe Oceania"`
	Code         string `validate:"required,len=2,alpha"`
}

// Category selects how questions are built.
type Category string

// Supported categories.
const (
	CategoryCapitals   Category = "capitals"
	CategoryFlags      Category = "flags"
	CategoryGeography  Category = "geography"
	CategoryPopulation Category = "population"
)

// Categories lists every category in menu order.
var Categories = []Category{CategoryCapitals, CategoryFlags, CategoryGeography, CategoryPopulation}

// ParseCategory parses a lower-case category name.
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range Categories {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownCategory, name)
}

// Title returns the display name of the category.
func (c Category) Title() string {
	switch c {
	case CategoryCapitals:
		return "Capitals"
	case CategoryFlags:
		return "Flags"
	case CategoryGeography:
		return "Geography"
	case CategoryPopulation:
		return "Population"
	default:
		return string(c)
	}
}

// Question is a single multiple-choice question.
type Question struct {
	Prompt       string
	Options      []string
	CorrectIndex int
	SubjectCode  string
	Explanation  string
	FlagImageRef string
	FlagEmoji    string
}

// CorrectOption returns the text of the correct option.
func (q Question) CorrectOption() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// NoSelection marks an answer recorded on timeout.
const NoSelection = -1

// AnswerRecord captures how one question was answered.
type AnswerRecord struct {
	Position    int
	SubjectCode string
	Prompt      string
	Selected    int
	Correct     bool
	TimedOut    bool
	Elapsed     time.Duration
}

// Tier is a qualitative performance band.
type Tier int

// Performance tiers, lowest first.
const (
	TierKeepLearning Tier = iota
	TierGood
	TierGreat
	TierExcellent
)

// Label returns the headline shown for the tier.
func (t Tier) Label() string {
	switch t {
	case TierExcellent:
		return "Excellent!"
	case TierGreat:
		return "Great Job!"
	case TierGood:
		return "Good Effort!"
	default:
		return "Keep Learning!"
	}
}

// Emoji returns the tier badge.
func (t Tier) Emoji() string {
	switch t {
	case TierExcellent:
		return "🏆"
	case TierGreat:
		return "⭐"
	case TierGood:
		return "👍"
	default:
		return "📚"
	}
}

// Message returns the encouragement line for the tier.
func (t Tier) Message() string {
	switch t {
	case TierExcellent:
		return "Outstanding! You're a true geography expert!"
	case TierGreat:
		return "Impressive knowledge! You know your way around the world."
	case TierGood:
		return "Not bad! There's always room to learn more about our world."
	default:
		return "Keep exploring! Every expert was once a beginner."
	}
}

// Key is the stable storage name of the tier.
func (t Tier) Key() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierGreat:
		return "great"
	case TierGood:
		return "good"
	default:
		return "keep_learning"
	}
}

// Result summarizes a completed quiz session.
type Result struct {
	SessionID  string
	Category   Category
	Score      int
	Total      int
	Percentage int
	Tier       Tier
	Answers    []bool
	Records    []AnswerRecord
	StartedAt  time.Time
	EndedAt    time.Time
}

// Config defines quiz settings.
type Config struct {
	Category      Category
	Questions     int
	TimerSeconds  int
	SourceURL     string
	CountriesFile string
	FocusMissed   bool
	MissedTop     int
	MissedFactor  float64
	MissedWindow  int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Category    Category
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID  int64
	UUID       string
	Category   Category
	EndedAt    time.Time
	Score      int
	Total      int
	Percentage int
	Tier       string
	DurationMs int64
}

// CategoryAggregate aggregates results across sessions of one category.
type CategoryAggregate struct {
	Category  Category
	Sessions  int
	Correct   int
	Questions int
	Best      int
}

// CountryAggregate aggregates answers about one subject country.
type CountryAggregate struct {
	Code      string
	Correct   int
	Incorrect int
	TimedOut  int
}
