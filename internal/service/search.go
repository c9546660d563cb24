package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"realtychat/internal/metrics"
	"realtychat/internal/model"
	"realtychat/internal/utils"
)

// ErrCatalogUnavailable is returned by the catalog operations when no
// catalog is configured
var ErrCatalogUnavailable = errors.New("listing catalog not configured")

// SearchService handles search business logic
type SearchService struct {
	store   ListingStore
	catalog ListingCatalog
	builder *QueryBuilder
	relaxer *Relaxer
	logger  *zap.Logger
}

// NewSearchService creates a new search service. catalog may be nil when
// only chat search is needed.
func NewSearchService(store ListingStore, catalog ListingCatalog, pageSize int, logger *zap.Logger) *SearchService {
	builder := NewQueryBuilder(pageSize)
	return &SearchService{
		store:   store,
		catalog: catalog,
		builder: builder,
		relaxer: NewRelaxer(store, builder, logger),
		logger:  logger,
	}
}

// Search runs the listings query for s. It returns *InsufficientFiltersError
// when neither city nor type is set. Store failures are logged and reported
// through SearchOutcome.Degraded, never as an error.
func (s *SearchService) Search(ctx context.Context, slots model.Slots) (model.SearchOutcome, error) {
	q, err := s.builder.Build(slots)
	if err != nil {
		return model.SearchOutcome{Listings: []model.Listing{}, Mode: model.ModeNone}, err
	}

	var out model.SearchOutcome
	if slots.City != nil && slots.Type != nil {
		out = s.relaxer.Relax(ctx, slots)
	} else {
		out = s.partialSearch(ctx, slots, q)
	}

	metrics.SearchesTotal.WithLabelValues(string(out.Mode)).Inc()
	if out.Degraded {
		metrics.StoreErrors.WithLabelValues("listings").Inc()
	}
	return out, nil
}

// partialSearch runs the exact query and, when empty, a browse over the one
// slot that is present
func (s *SearchService) partialSearch(ctx context.Context, slots model.Slots, q model.ListingQuery) model.SearchOutcome {
	rows, err := s.store.SearchListings(ctx, q)
	if err != nil {
		return s.degraded(q, err)
	}
	if len(rows) > 0 {
		return model.SearchOutcome{Listings: rows, Mode: model.ModeExact, Query: q}
	}

	browse := model.ListingQuery{City: slots.City, Type: slots.Type, Limit: q.Limit}
	if reflect.DeepEqual(browse, q) {
		return model.SearchOutcome{Listings: []model.Listing{}, Mode: model.ModeNone, Query: q}
	}
	rows, err = s.store.SearchListings(ctx, browse)
	if err != nil {
		return s.degraded(browse, err)
	}
	if len(rows) == 0 {
		return model.SearchOutcome{Listings: []model.Listing{}, Mode: model.ModeNone, Query: q}
	}
	return model.SearchOutcome{Listings: rows, Mode: model.ModeMissingSlot, Preface: missingSlotPreface(slots), Query: browse}
}

func missingSlotPreface(slots model.Slots) string {
	if slots.City != nil {
		return fmt.Sprintf("Here is what's available in %s. Tell me a property type to narrow it down.", *slots.City)
	}
	return fmt.Sprintf("Here are %s across all cities. Tell me a city to narrow it down.", typePlural(*slots.Type))
}

func (s *SearchService) degraded(q model.ListingQuery, err error) model.SearchOutcome {
	s.logger.Error("Listings store failed", zap.Error(err))
	return model.SearchOutcome{Listings: []model.Listing{}, Mode: model.ModeNone, Query: q, Degraded: true}
}

// NoMatchHint explains an exhausted search: the cheapest price for the city
// and type when one exists, otherwise an alternative city
func (s *SearchService) NoMatchHint(ctx context.Context, slots model.Slots) string {
	if slots.City == nil || slots.Type == nil {
		return ReplyNoMatches
	}
	city, typ := *slots.City, *slots.Type

	hint, err := s.store.CheapestMatch(ctx, model.PriceHintQuery{City: city, Type: typ, Tenure: slots.Tenure})
	if err != nil {
		s.logger.Warn("Cheapest match lookup failed", zap.Error(err))
		metrics.StoreErrors.WithLabelValues("listings").Inc()
	}
	if err == nil && hint != nil && hint.Count > 0 {
		return fmt.Sprintf("No matches with those filters. The lowest %s in %s is around %s.",
			typeLabel(typ), city, utils.FormatLKR(hint.MinPrice))
	}

	alt, err := s.store.AlternativeCity(ctx, city, typ)
	if err != nil {
		s.logger.Warn("Alternative city lookup failed", zap.Error(err))
		metrics.StoreErrors.WithLabelValues("listings").Inc()
		return ReplyNoMatches
	}
	if alt != "" {
		return fmt.Sprintf("No matches with those filters. Try %s, which has %s listed.", alt, typePlural(typ))
	}
	return ReplyNoMatches
}

// GetListing retrieves a single listing by ID
func (s *SearchService) GetListing(ctx context.Context, listingID int64) (*model.Listing, error) {
	if s.catalog == nil {
		return nil, ErrCatalogUnavailable
	}
	return s.catalog.GetListingByID(ctx, listingID)
}

// SimilarListings returns cards for the listings closest to listingID
func (s *SearchService) SimilarListings(ctx context.Context, listingID int64, limit int) ([]model.ListingCard, error) {
	if s.catalog == nil {
		return nil, ErrCatalogUnavailable
	}
	rows, err := s.catalog.SimilarListings(ctx, listingID, limit)
	if err != nil {
		return nil, err
	}
	return BuildCards(rows, model.ModeExact, limit), nil
}

// UpdateEmbeddings updates embeddings for multiple listings
func (s *SearchService) UpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	if s.catalog == nil {
		return 0, []string{ErrCatalogUnavailable.Error()}
	}
	return s.catalog.BatchUpdateEmbeddings(ctx, items)
}

// LogFeedback logs user feedback/action
func (s *SearchService) LogFeedback(ctx context.Context, sessionID string, listingID int64, action string) error {
	if s.catalog == nil {
		return ErrCatalogUnavailable
	}
	return s.catalog.LogFeedback(ctx, sessionID, listingID, action)
}
