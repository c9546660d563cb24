package service

import (
	"fmt"
	"strings"

	"realtychat/internal/model"
)

// Card badges
const (
	BadgeFeatured = "Featured"
	BadgeSimilar  = "Similar"
	BadgeNearby   = "Nearby"
)

// badgeFor returns the badge of a listing found by mode. A featured listing
// always keeps the featured badge.
func badgeFor(mode model.RelaxMode, featured bool) string {
	if featured {
		return BadgeFeatured
	}
	switch mode {
	case model.ModeDropBeds, model.ModeRaiseBudget:
		return BadgeSimilar
	case model.ModeFallbackCityType, model.ModeAltCity:
		return BadgeNearby
	}
	return ""
}

// BuildCards converts at most limit listings to cards badged for mode
func BuildCards(listings []model.Listing, mode model.RelaxMode, limit int) []model.ListingCard {
	if limit > 0 && len(listings) > limit {
		listings = listings[:limit]
	}
	cards := make([]model.ListingCard, 0, len(listings))
	for _, l := range listings {
		cards = append(cards, toCard(l, badgeFor(mode, l.Featured)))
	}
	return cards
}

func toCard(l model.Listing, badge string) model.ListingCard {
	card := model.ListingCard{
		ID:       l.ID,
		Title:    l.Title,
		Subtitle: subtitle(l),
		Price:    l.PriceLKR,
		Type:     l.PropertyType,
		Badge:    badge,
	}
	if l.ListingCode != nil {
		card.Code = *l.ListingCode
	}
	return card
}

// subtitle renders "3 BR · 2 Bath · Galle", with "-" for unknown counts
func subtitle(l model.Listing) string {
	beds, baths := "-", "-"
	if l.Bedrooms != nil && *l.Bedrooms > 0 {
		beds = fmt.Sprint(*l.Bedrooms)
	}
	if l.Bathrooms != nil && *l.Bathrooms > 0 {
		baths = fmt.Sprint(*l.Bathrooms)
	}
	s := fmt.Sprintf("%s BR · %s Bath · %s", beds, baths, l.Location())
	return strings.TrimRight(s, " ·")
}
