package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/globequiz/internal/config"
	"github.com/verte-zerg/globequiz/internal/countries"
	"github.com/verte-zerg/globequiz/internal/logger"
	"github.com/verte-zerg/globequiz/internal/model"
)

const testDataset = `[
  {"name":{"common":"Kenya"},"capital":["Nairobi"],"flags":{"png":"https://flagcdn.com/w320/ke.png"},"flag":"🇰🇪","population":53771300,"region":"Africa","cca2":"KE"},
  {"name":{"common":"Brazil"},"capital":["Brasília"],"flags":{"png":"https://flagcdn.com/w320/br.png"},"flag":"🇧🇷","population":212559409,"region":"Americas","cca2":"BR"},
  {"name":{"common":"Austria"},"capital":["Vienna"],"flags":{"png":"https://flagcdn.com/w320/at.png"},"flag":"🇦🇹","population":8917205,"region":"Europe","cca2":"AT"}
]`

func writeDataset(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "countries.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template must parse: %v", err)
	}
	if cfg.Quiz.Questions != nil || cfg.Log.Level != nil {
		t.Fatalf("template values must be commented out: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := model.Config{Questions: 5, TimerSeconds: 30, SourceURL: countries.DefaultSourceURL}
	if err := validateConfig(valid); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	cases := []model.Config{
		{Questions: 0, TimerSeconds: 30, SourceURL: "x"},
		{Questions: 5, TimerSeconds: 0, SourceURL: "x"},
		{Questions: 5, TimerSeconds: 30},
		{Questions: 5, TimerSeconds: 30, SourceURL: "x", MissedFactor: -1},
		{Questions: 5, TimerSeconds: 30, SourceURL: "x", MissedWindow: -1},
	}
	for i, cfg := range cases {
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestBuildStatsConfig(t *testing.T) {
	cfg, err := buildStatsConfig("Geography", "2026-01-15", 10, 5)
	if err != nil {
		t.Fatalf("buildStatsConfig failed: %v", err)
	}
	if cfg.Category != model.CategoryGeography || cfg.Last != 10 || cfg.CurveWindow != 5 || cfg.Since == nil {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if _, err := buildStatsConfig("oceans", "", 0, 5); !errors.Is(err, model.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := buildStatsConfig("", "15/01/2026", 0, 5); err == nil {
		t.Fatalf("expected invalid date error")
	}
	if _, err := buildStatsConfig("", "", 0, 0); err == nil {
		t.Fatalf("expected invalid window error")
	}
}

func TestLoadCountriesFromFile(t *testing.T) {
	pool, err := loadCountries(context.Background(), writeDataset(t, testDataset), "", logger.Nop())
	if err != nil {
		t.Fatalf("loadCountries failed: %v", err)
	}
	if pool.Len() != 3 {
		t.Fatalf("expected 3 countries, got %d", pool.Len())
	}
}

func TestLoadCountriesEmptyDataset(t *testing.T) {
	_, err := loadCountries(context.Background(), writeDataset(t, `[]`), "", logger.Nop())
	if !errors.Is(err, countries.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestCountryRows(t *testing.T) {
	pool, err := loadCountries(context.Background(), writeDataset(t, testDataset), "", logger.Nop())
	if err != nil {
		t.Fatalf("loadCountries failed: %v", err)
	}
	byName := countryRows(pool, "", "name")
	if len(byName) != 3 || byName[0][1] != "Austria" {
		t.Fatalf("unexpected name order: %v", byName)
	}
	byPop := countryRows(pool, "", "population")
	if byPop[0][0] != "BR" || byPop[0][4] != "212,559,409" {
		t.Fatalf("unexpected population order: %v", byPop)
	}
	africa := countryRows(pool, model.RegionAfrica, "name")
	if len(africa) != 1 || africa[0][2] != "Nairobi" {
		t.Fatalf("unexpected region filter: %v", africa)
	}
}
