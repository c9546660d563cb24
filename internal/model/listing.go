package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
)

// Listing represents a property row in the listings store
type Listing struct {
	ID           int64            `json:"id" db:"property_id"`
	ListingCode  *string          `json:"listing_code,omitempty" db:"listing_code"`
	Title        string           `json:"title" db:"title"`
	Description  *string          `json:"description,omitempty" db:"description"`
	City         *string          `json:"city,omitempty" db:"city"`
	District     *string          `json:"district,omitempty" db:"district"`
	PropertyType string           `json:"property_type" db:"property_type"`
	Purpose      string           `json:"purpose" db:"purpose"`
	Status       string           `json:"status" db:"status"`
	PriceLKR     *int64           `json:"price_lkr,omitempty" db:"price_lkr"`
	Bedrooms     *int             `json:"bedrooms,omitempty" db:"bedrooms"`
	Bathrooms    *int             `json:"bathrooms,omitempty" db:"bathrooms"`
	AreaSqm      *float64         `json:"area_sqm,omitempty" db:"area_sqm"`
	LandPerch    *float64         `json:"land_perch,omitempty" db:"land_perch"`
	Featured     bool             `json:"featured" db:"featured"`
	Embedding    *pgvector.Vector `json:"-" db:"embedding"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// Location returns the city, falling back to the district
func (l Listing) Location() string {
	if l.City != nil && *l.City != "" {
		return *l.City
	}
	if l.District != nil {
		return *l.District
	}
	return ""
}

// ListingCard is the display form of a listing in a chat reply
type ListingCard struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Price    *int64 `json:"price,omitempty"`
	Type     string `json:"type"`
	Badge    string `json:"badge,omitempty"`
	Code     string `json:"code,omitempty"`
}

// Investment is an open investment plan
type Investment struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Summary       *string   `json:"summary,omitempty" db:"summary"`
	MinInvestLKR  *int64    `json:"min_invest_lkr,omitempty" db:"min_invest_lkr"`
	ExpectedYield *float64  `json:"expected_yield,omitempty" db:"expected_yield"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Value implements driver.Valuer so slots can be written to a jsonb column
func (s Slots) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (s *Slots) Scan(value interface{}) error {
	if value == nil {
		*s = Slots{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported slots column type %T", value)
	}
}
