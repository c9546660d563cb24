package service

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtychat/internal/model"
)

func TestQueryBuilder_InsufficientFilters(t *testing.T) {
	b := NewQueryBuilder(20)

	// other slots never make up for a missing city and type
	for _, s := range []model.Slots{
		{},
		{Beds: model.IntPtr(3)},
		{PriceMax: model.Int64Ptr(80_000_000), Tenure: model.TenurePtr(model.TenureRent)},
	} {
		_, err := b.Build(s)
		var insufficient *InsufficientFiltersError
		require.True(t, errors.As(err, &insufficient), "%+v", s)
		assert.Equal(t, []string{MissingCity, MissingType}, insufficient.Missing)
		assert.EqualError(t, err, "insufficient filters: need city or property type")
	}
}

func TestQueryBuilder_Build(t *testing.T) {
	b := NewQueryBuilder(0)

	got, err := b.Build(model.Slots{
		City:     model.StringPtr("Galle"),
		Type:     model.TypePtr(model.TypeApartment),
		Beds:     model.IntPtr(3),
		PriceMax: model.Int64Ptr(80_000_000),
	})
	require.NoError(t, err)

	want := model.ListingQuery{
		City:     model.StringPtr("Galle"),
		Type:     model.TypePtr(model.TypeApartment),
		MinBeds:  model.IntPtr(3),
		PriceMax: model.Int64Ptr(80_000_000),
		Limit:    20,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}

	_, err = b.Build(model.Slots{Type: model.TypePtr(model.TypeLand)})
	assert.NoError(t, err)
}

func TestBuildCards(t *testing.T) {
	rows := make([]model.Listing, 0, 8)
	for i := int64(1); i <= 8; i++ {
		rows = append(rows, listing(i, "Galle", model.TypeHouse, i*1_000_000, 3, i == 2))
	}

	cards := BuildCards(rows, model.ModeExact, 6)
	require.Len(t, cards, 6)
	assert.Equal(t, "", cards[0].Badge)
	assert.Equal(t, BadgeFeatured, cards[1].Badge)
	assert.Equal(t, "3 BR · 2 Bath · Galle", cards[0].Subtitle)
	assert.Equal(t, "GA-1", cards[0].Code)
	assert.Equal(t, int64(1_000_000), *cards[0].Price)
	assert.Equal(t, "house", cards[0].Type)

	land := model.Listing{ID: 9, Title: "Plot", PropertyType: "land", District: model.StringPtr("Kaduwela")}
	assert.Equal(t, "- BR · - Bath · Kaduwela", BuildCards([]model.Listing{land}, model.ModeExact, 6)[0].Subtitle)

	bare := model.Listing{ID: 10, Title: "Plot", PropertyType: "land"}
	assert.Equal(t, "- BR · - Bath", BuildCards([]model.Listing{bare}, model.ModeExact, 6)[0].Subtitle)
}

func TestBadgeFor(t *testing.T) {
	tests := []struct {
		mode     model.RelaxMode
		featured bool
		want     string
	}{
		{model.ModeExact, false, ""},
		{model.ModeExact, true, BadgeFeatured},
		{model.ModeDropBeds, false, BadgeSimilar},
		{model.ModeRaiseBudget, false, BadgeSimilar},
		{model.ModeRaiseBudget, true, BadgeFeatured},
		{model.ModeFallbackCityType, false, BadgeNearby},
		{model.ModeAltCity, false, BadgeNearby},
		{model.ModeAltCity, true, BadgeFeatured},
		{model.ModeMissingSlot, false, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, badgeFor(tt.mode, tt.featured), "%s featured=%v", tt.mode, tt.featured)
	}
}
