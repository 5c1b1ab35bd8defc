package countries

import (
	"sort"

	"github.com/verte-zerg/globequiz/internal/model"
)

// Pool holds the loaded dataset for the lifetime of the process. It is never mutated.
type Pool struct {
	all    []model.Country
	byCode map[string]int
}

// NewPool copies the countries into a read-only pool.
func NewPool(list []model.Country) *Pool {
	all := make([]model.Country, len(list))
	copy(all, list)
	byCode := make(map[string]int, len(all))
	for i, c := range all {
		byCode[c.Code] = i
	}
	return &Pool{all: all, byCode: byCode}
}

// All returns a copy of the pooled countries.
func (p *Pool) All() []model.Country {
	out := make([]model.Country, len(p.all))
	copy(out, p.all)
	return out
}

// Len returns the number of countries in the pool.
func (p *Pool) Len() int {
	return len(p.all)
}

// ByCode looks up a country by its two-letter code.
func (p *Pool) ByCode(code string) (model.Country, bool) {
	i, ok := p.byCode[code]
	if !ok {
		return model.Country{}, false
	}
	return p.all[i], true
}

// Sorted returns the countries ordered by common name.
func (p *Pool) Sorted() []model.Country {
	out := p.All()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CommonName < out[j].CommonName
	})
	return out
}
