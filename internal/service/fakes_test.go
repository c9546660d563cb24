package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"realtychat/internal/model"
	"realtychat/internal/utils"
)

// fakeListings filters an in-memory listing table the way the SQL store does
type fakeListings struct {
	mu      sync.Mutex
	rows    []model.Listing
	queries []model.ListingQuery
	err     error

	CheapestFunc func(q model.PriceHintQuery) (*model.PriceHint, error)
}

func listing(id int64, city string, typ model.PropertyType, price int64, beds int, featured bool) model.Listing {
	code := fmt.Sprintf("%s-%d", strings.ToUpper(city[:2]), id)
	baths := 2
	return model.Listing{
		ID:           id,
		ListingCode:  &code,
		Title:        utils.TitleCase(string(typ)) + " in " + city,
		City:         model.StringPtr(city),
		PropertyType: string(typ),
		Purpose:      string(model.TenureSale),
		Status:       "available",
		PriceLKR:     model.Int64Ptr(price),
		Bedrooms:     model.IntPtr(beds),
		Bathrooms:    &baths,
		Featured:     featured,
	}
}

func (f *fakeListings) match(l model.Listing, q model.ListingQuery) bool {
	if l.Status != "available" {
		return false
	}
	if q.City != nil {
		inCity := l.City != nil && *l.City == *q.City
		inDistrict := l.District != nil && *l.District == *q.City
		if !inCity && !inDistrict {
			return false
		}
	}
	if q.Type != nil && l.PropertyType != string(*q.Type) {
		return false
	}
	if q.Tenure != nil && l.Purpose != string(*q.Tenure) {
		return false
	}
	if q.MinBeds != nil && (l.Bedrooms == nil || *l.Bedrooms < *q.MinBeds) {
		return false
	}
	price := func() (int64, bool) {
		if l.PriceLKR == nil {
			return 0, false
		}
		return *l.PriceLKR, true
	}
	if q.Price != nil {
		if p, ok := price(); !ok || p != *q.Price {
			return false
		}
	}
	if q.PriceMin != nil {
		if p, ok := price(); !ok || p < *q.PriceMin {
			return false
		}
	}
	if q.PriceMax != nil {
		if p, ok := price(); !ok || p > *q.PriceMax {
			return false
		}
	}
	return true
}

func (f *fakeListings) SearchListings(_ context.Context, q model.ListingQuery) ([]model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Listing{}
	for _, l := range f.rows {
		if f.match(l, q) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Featured != out[j].Featured {
			return out[i].Featured
		}
		return *out[i].PriceLKR < *out[j].PriceLKR
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeListings) CheapestMatch(_ context.Context, q model.PriceHintQuery) (*model.PriceHint, error) {
	if f.CheapestFunc != nil {
		return f.CheapestFunc(q)
	}
	if f.err != nil {
		return nil, f.err
	}
	var hint *model.PriceHint
	for _, l := range f.rows {
		if !f.match(l, model.ListingQuery{City: &q.City, Type: &q.Type, Tenure: q.Tenure, MinBeds: q.MinBeds}) || l.PriceLKR == nil {
			continue
		}
		if hint == nil {
			hint = &model.PriceHint{MinPrice: *l.PriceLKR}
		}
		if *l.PriceLKR < hint.MinPrice {
			hint.MinPrice = *l.PriceLKR
		}
		hint.Count++
	}
	return hint, nil
}

func (f *fakeListings) AlternativeCity(_ context.Context, exclude string, typ model.PropertyType) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	counts := map[string]int{}
	for _, l := range f.rows {
		if l.Status != "available" || l.PropertyType != string(typ) {
			continue
		}
		place := l.Location()
		if place == "" || strings.EqualFold(place, exclude) {
			continue
		}
		counts[place]++
	}
	best, bestN := "", 0
	for place, n := range counts {
		if n > bestN || (n == bestN && place < best) {
			best, bestN = place, n
		}
	}
	return best, nil
}

func (f *fakeListings) Queries() []model.ListingQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ListingQuery(nil), f.queries...)
}

type fakeAreas struct {
	ResolveFunc func(area string) (string, error)
}

func (f *fakeAreas) ResolveArea(_ context.Context, area string) (string, error) {
	if f.ResolveFunc != nil {
		return f.ResolveFunc(area)
	}
	return area, nil
}

type fakeInvestments struct {
	items []model.Investment
	err   error
}

func (f *fakeInvestments) OpenInvestments(_ context.Context, limit int) ([]model.Investment, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.items) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

type fakeTurns struct {
	mu   sync.Mutex
	logs []model.TurnLog
	err  error
}

func (f *fakeTurns) LogTurn(_ context.Context, t model.TurnLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, t)
	return f.err
}

type fakeGenerator struct {
	GenerateFunc func(history []model.Message, blob string) (string, error)
	calls        int
}

func (f *fakeGenerator) Generate(_ context.Context, history []model.Message, blob string) (string, error) {
	f.calls++
	return f.GenerateFunc(history, blob)
}

type fakeCatalog struct {
	listings map[int64]model.Listing
	similar  []model.Listing
	feedback []string
	err      error
}

func (f *fakeCatalog) GetListingByID(_ context.Context, id int64) (*model.Listing, error) {
	if f.err != nil {
		return nil, f.err
	}
	l, ok := f.listings[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (f *fakeCatalog) SimilarListings(_ context.Context, _ int64, limit int) ([]model.Listing, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.similar) > limit {
		return f.similar[:limit], nil
	}
	return f.similar, nil
}

func (f *fakeCatalog) BatchUpdateEmbeddings(_ context.Context, items []model.EmbeddingItem) (int, []string) {
	return len(items), nil
}

func (f *fakeCatalog) LogFeedback(_ context.Context, sessionID string, listingID int64, action string) error {
	if f.err != nil {
		return f.err
	}
	f.feedback = append(f.feedback, action)
	return nil
}
