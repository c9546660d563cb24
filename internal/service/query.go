package service

import (
	"fmt"
	"strings"

	"realtychat/internal/model"
)

// Slot classes named when a query cannot run
const (
	MissingCity = "city"
	MissingType = "property type"
)

// InsufficientFiltersError is returned when neither city nor type is known
type InsufficientFiltersError struct {
	Missing []string
}

func (e *InsufficientFiltersError) Error() string {
	return fmt.Sprintf("insufficient filters: need %s", strings.Join(e.Missing, " or "))
}

// QueryBuilder turns slots into a listings query
type QueryBuilder struct {
	pageSize int
}

// NewQueryBuilder creates a builder capping every query at pageSize rows
func NewQueryBuilder(pageSize int) *QueryBuilder {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &QueryBuilder{pageSize: pageSize}
}

// Build refuses an unfiltered scan: at least one of city or type must be set
func (b *QueryBuilder) Build(s model.Slots) (model.ListingQuery, error) {
	if s.City == nil && s.Type == nil {
		return model.ListingQuery{}, &InsufficientFiltersError{Missing: []string{MissingCity, MissingType}}
	}
	return model.ListingQuery{
		City:     s.City,
		Type:     s.Type,
		Tenure:   s.Tenure,
		MinBeds:  s.Beds,
		Price:    s.Price,
		PriceMin: s.PriceMin,
		PriceMax: s.PriceMax,
		Limit:    b.pageSize,
	}, nil
}
