package stats

import (
	"context"

	"github.com/verte-zerg/globequiz/internal/model"
	"github.com/verte-zerg/globequiz/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions   []model.SessionAggregate
	Categories []model.CategoryAggregate
	Missed     []model.CountryAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	categories, err := st.ListCategoryAggregates(ctx, sessionIDs(sessions))
	if err != nil {
		return Report{}, err
	}
	window := cfg.CurveWindow
	if cfg.Last > 0 {
		window = min(window, cfg.Last)
	}
	missed, err := st.GetMissedCountries(ctx, window, cfg.Category)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Sessions:   sessions,
		Categories: categories,
		Missed:     missed,
	}, nil
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}
