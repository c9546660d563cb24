package service

import (
	"context"
	"fmt"
	"math"
	"reflect"

	"go.uber.org/zap"

	"realtychat/internal/model"
	"realtychat/internal/utils"
)

// Budget multiplier of the raise_budget strategy
const budgetRaise = 1.25

// step derives the query of one strategy from the exact query. ok is false
// when the strategy does not apply.
type step struct {
	mode  model.RelaxMode
	query func(ctx context.Context, exact model.ListingQuery) (q model.ListingQuery, preface string, ok bool, err error)
}

// Relaxer retries an empty search with progressively looser predicates
type Relaxer struct {
	store   ListingStore
	builder *QueryBuilder
	logger  *zap.Logger
	steps   []step
}

// NewRelaxer creates a relaxer over store
func NewRelaxer(store ListingStore, builder *QueryBuilder, logger *zap.Logger) *Relaxer {
	r := &Relaxer{store: store, builder: builder, logger: logger}
	r.steps = []step{
		{model.ModeExact, exactStep},
		{model.ModeDropBeds, dropBedsStep},
		{model.ModeRaiseBudget, raiseBudgetStep},
		{model.ModeFallbackCityType, cityTypeStep},
		{model.ModeAltCity, r.altCityStep},
	}
	return r
}

// Relax runs the strategies in order and returns the first non-empty result.
// Both city and type must be set. A strategy whose query equals one already
// tried is skipped. A store failure stops the walk with a degraded outcome.
func (r *Relaxer) Relax(ctx context.Context, s model.Slots) model.SearchOutcome {
	exact, err := r.builder.Build(s)
	if err != nil || exact.City == nil || exact.Type == nil {
		return model.SearchOutcome{Listings: []model.Listing{}, Mode: model.ModeNone, Query: exact}
	}

	var tried []model.ListingQuery
	for _, st := range r.steps {
		q, preface, ok, err := st.query(ctx, exact)
		if err != nil {
			return r.degraded(exact, st.mode, err)
		}
		if !ok || seen(tried, q) {
			continue
		}
		tried = append(tried, q)

		rows, err := r.store.SearchListings(ctx, q)
		if err != nil {
			return r.degraded(exact, st.mode, err)
		}
		if len(rows) > 0 {
			return model.SearchOutcome{Listings: rows, Mode: st.mode, Preface: preface, Query: q}
		}
	}
	return model.SearchOutcome{Listings: []model.Listing{}, Mode: model.ModeNone, Query: exact}
}

func (r *Relaxer) degraded(q model.ListingQuery, mode model.RelaxMode, err error) model.SearchOutcome {
	r.logger.Error("Listings store failed during relaxation",
		zap.String("mode", string(mode)),
		zap.Error(err),
	)
	return model.SearchOutcome{Listings: []model.Listing{}, Mode: model.ModeNone, Query: q, Degraded: true}
}

func seen(tried []model.ListingQuery, q model.ListingQuery) bool {
	for _, t := range tried {
		if reflect.DeepEqual(t, q) {
			return true
		}
	}
	return false
}

func exactStep(_ context.Context, exact model.ListingQuery) (model.ListingQuery, string, bool, error) {
	return exact, "", true, nil
}

func dropBedsStep(_ context.Context, exact model.ListingQuery) (model.ListingQuery, string, bool, error) {
	if exact.MinBeds == nil {
		return exact, "", false, nil
	}
	q := exact
	q.MinBeds = nil
	preface := fmt.Sprintf("No %d+ bedroom %s in %s. Here are similar options with any bedroom count.",
		*exact.MinBeds, typePlural(*exact.Type), *exact.City)
	return q, preface, true, nil
}

func raiseBudgetStep(_ context.Context, exact model.ListingQuery) (model.ListingQuery, string, bool, error) {
	if exact.PriceMax == nil {
		return exact, "", false, nil
	}
	q := exact
	q.MinBeds = nil
	raised := int64(math.Round(float64(*exact.PriceMax) * budgetRaise))
	q.PriceMax = &raised
	preface := fmt.Sprintf("Nothing under %s. Here are options up to %s.",
		utils.FormatLKR(*exact.PriceMax), utils.FormatLKR(raised))
	return q, preface, true, nil
}

func cityTypeStep(_ context.Context, exact model.ListingQuery) (model.ListingQuery, string, bool, error) {
	q := model.ListingQuery{City: exact.City, Type: exact.Type, Limit: exact.Limit}
	preface := fmt.Sprintf("No exact matches for all your filters. Here are other %s in %s.",
		typePlural(*exact.Type), *exact.City)
	return q, preface, true, nil
}

func (r *Relaxer) altCityStep(ctx context.Context, exact model.ListingQuery) (model.ListingQuery, string, bool, error) {
	alt, err := r.store.AlternativeCity(ctx, *exact.City, *exact.Type)
	if err != nil {
		return exact, "", false, fmt.Errorf("alternative city lookup: %w", err)
	}
	if alt == "" {
		return exact, "", false, nil
	}
	q := model.ListingQuery{City: &alt, Type: exact.Type, Limit: exact.Limit}
	preface := fmt.Sprintf("No %s in %s right now. Here are some in %s.",
		typePlural(*exact.Type), *exact.City, alt)
	return q, preface, true, nil
}
