// Package countries loads the country dataset used to build quiz questions.
package countries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/globequiz/internal/model"
)

// DefaultSourceURL is the REST Countries endpoint restricted to the fields the quiz needs.
const DefaultSourceURL = "https://restcountries.com/v3.1/all?fields=name,capital,flag,flags,population,region,cca2"

const fetchTimeout = 30 * time.Second

// ErrEmptyDataset is returned when no usable country survives filtering.
var ErrEmptyDataset = errors.New("country dataset is empty")

// DecodeStats reports how many records were read and why some were dropped.
type DecodeStats struct {
	Read       int
	Incomplete int
	Invalid    int
	Duplicate  int
	Kept       int
}

type apiCountry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	Capital []string `json:"capital"`
	Flags   struct {
		PNG string `json:"png"`
	} `json:"flags"`
	Flag       string `json:"flag"`
	Population int64  `json:"population"`
	Region     string `json:"region"`
	CCA2       string `json:"cca2"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Fetch downloads the dataset once. There is no retry; callers treat failure as terminal.
func Fetch(ctx context.Context, url string) ([]model.Country, DecodeStats, error) {
	if url == "" {
		url = DefaultSourceURL
	}
	resp, err := httpRequest(ctx, url)
	if err != nil {
		return nil, DecodeStats{}, fmt.Errorf("failed to fetch countries: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, DecodeStats{}, fmt.Errorf("unexpected countries status: %s", resp.Status)
	}
	return Decode(resp.Body)
}

// LoadFile reads a dataset saved in the REST Countries JSON format.
func LoadFile(path string) ([]model.Country, DecodeStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, DecodeStats{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only dataset.
			_ = cerr
		}
	}()
	return Decode(file)
}

// Decode parses and filters a REST Countries JSON array.
func Decode(r io.Reader) ([]model.Country, DecodeStats, error) {
	var raw []apiCountry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, DecodeStats{}, fmt.Errorf("failed to decode countries: %w", err)
	}
	stats := DecodeStats{Read: len(raw)}
	seen := make(map[string]struct{}, len(raw))
	out := make([]model.Country, 0, len(raw))
	for _, item := range raw {
		country, ok := normalize(item)
		if !ok {
			stats.Incomplete++
			continue
		}
		if err := validate.Struct(country); err != nil {
			stats.Invalid++
			continue
		}
		if _, dup := seen[country.Code]; dup {
			stats.Duplicate++
			continue
		}
		seen[country.Code] = struct{}{}
		out = append(out, country)
	}
	stats.Kept = len(out)
	if len(out) == 0 {
		return nil, stats, ErrEmptyDataset
	}
	return out, stats, nil
}

func normalize(item apiCountry) (model.Country, bool) {
	name := strings.TrimSpace(item.Name.Common)
	if name == "" || len(item.Capital) == 0 {
		return model.Country{}, false
	}
	capital := strings.TrimSpace(item.Capital[0])
	if capital == "" || item.Flags.PNG == "" || item.Population == 0 {
		return model.Country{}, false
	}
	region, ok := model.ParseRegion(item.Region)
	if !ok {
		return model.Country{}, false
	}
	return model.Country{
		CommonName:   name,
		CapitalName:  capital,
		FlagImageRef: item.Flags.PNG,
		FlagEmoji:    item.Flag,
		Population:   item.Population,
		Region:       region,
		Code:         strings.ToUpper(strings.TrimSpace(item.CCA2)),
	}, true
}

func httpRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	client := &http.Client{Timeout: fetchTimeout}
	return client.Do(req)
}
