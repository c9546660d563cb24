package service

import (
	"context"

	"realtychat/internal/model"
)

// ListingStore is the listings lookup the search pipeline runs against
type ListingStore interface {
	SearchListings(ctx context.Context, q model.ListingQuery) ([]model.Listing, error)
	// CheapestMatch returns nil when no priced listing matches
	CheapestMatch(ctx context.Context, q model.PriceHintQuery) (*model.PriceHint, error)
	// AlternativeCity returns "" when no other city has listings of the type
	AlternativeCity(ctx context.Context, excludeCity string, typ model.PropertyType) (string, error)
}

// AreaResolver maps free-text area names to display cities
type AreaResolver interface {
	ResolveArea(ctx context.Context, area string) (string, error)
}

// InvestmentStore lists open investment plans
type InvestmentStore interface {
	OpenInvestments(ctx context.Context, limit int) ([]model.Investment, error)
}

// TurnLogger records every chat turn
type TurnLogger interface {
	LogTurn(ctx context.Context, t model.TurnLog) error
}

// ListingCatalog serves listing detail, similarity and card feedback
type ListingCatalog interface {
	GetListingByID(ctx context.Context, listingID int64) (*model.Listing, error)
	SimilarListings(ctx context.Context, listingID int64, limit int) ([]model.Listing, error)
	BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string)
	LogFeedback(ctx context.Context, sessionID string, listingID int64, action string) error
}

// TextGenerator produces a free-text reply from the conversation so far.
// contextBlob carries known filters and may be empty.
type TextGenerator interface {
	Generate(ctx context.Context, history []model.Message, contextBlob string) (string, error)
}
