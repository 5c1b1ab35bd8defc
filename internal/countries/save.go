package countries

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/verte-zerg/globequiz/internal/model"
)

// Save writes the countries in the REST Countries format so LoadFile can read them back.
// The file is replaced atomically.
func Save(path string, list []model.Country) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dataset dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "countries-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp dataset: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	raw := make([]apiCountry, len(list))
	for i, c := range list {
		raw[i] = toAPI(c)
	}
	enc := json.NewEncoder(tmpFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close dataset: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

func toAPI(c model.Country) apiCountry {
	var out apiCountry
	out.Name.Common = c.CommonName
	out.Capital = []string{c.CapitalName}
	out.Flags.PNG = c.FlagImageRef
	out.Flag = c.FlagEmoji
	out.Population = c.Population
	out.Region = string(c.Region)
	out.CCA2 = c.Code
	return out
}
