package model

import "strings"

// PropertyType is the canonical property category
type PropertyType string

const (
	TypeApartment  PropertyType = "apartment"
	TypeHouse      PropertyType = "house"
	TypeTownhouse  PropertyType = "townhouse"
	TypeLand       PropertyType = "land"
	TypeCommercial PropertyType = "commercial"
)

// PropertyTypes lists the canonical types in declaration order
var PropertyTypes = []PropertyType{TypeApartment, TypeHouse, TypeTownhouse, TypeLand, TypeCommercial}

// Valid reports whether t is one of the canonical types
func (t PropertyType) Valid() bool {
	for _, p := range PropertyTypes {
		if p == t {
			return true
		}
	}
	return false
}

// Tenure is rent or sale
type Tenure string

const (
	TenureRent Tenure = "rent"
	TenureSale Tenure = "sale"
)

// Slots is the structured search criteria of a turn or a session.
// A nil field means the slot is absent.
type Slots struct {
	City     *string       `json:"city,omitempty"`
	Type     *PropertyType `json:"type,omitempty"`
	Beds     *int          `json:"beds,omitempty"`
	Tenure   *Tenure       `json:"tenure,omitempty"`
	PriceMin *int64        `json:"price_min,omitempty"`
	PriceMax *int64        `json:"price_max,omitempty"`
	Price    *int64        `json:"price,omitempty"`
}

// IsEmpty reports whether no slot is set
func (s Slots) IsEmpty() bool {
	return s.City == nil && s.Type == nil && s.Beds == nil && s.Tenure == nil &&
		s.PriceMin == nil && s.PriceMax == nil && s.Price == nil
}

// HasBudget reports whether any price slot is set
func (s Slots) HasBudget() bool {
	return s.PriceMin != nil || s.PriceMax != nil || s.Price != nil
}

// Keys returns the names of the slots that are set, in a fixed order
func (s Slots) Keys() []string {
	keys := []string{}
	if s.City != nil {
		keys = append(keys, "city")
	}
	if s.Type != nil {
		keys = append(keys, "type")
	}
	if s.Beds != nil {
		keys = append(keys, "beds")
	}
	if s.Tenure != nil {
		keys = append(keys, "tenure")
	}
	if s.PriceMin != nil {
		keys = append(keys, "price_min")
	}
	if s.PriceMax != nil {
		keys = append(keys, "price_max")
	}
	if s.Price != nil {
		keys = append(keys, "price")
	}
	return keys
}

// Clone returns a deep copy so callers can mutate pointers freely
func (s Slots) Clone() Slots {
	var out Slots
	if s.City != nil {
		v := *s.City
		out.City = &v
	}
	if s.Type != nil {
		v := *s.Type
		out.Type = &v
	}
	if s.Beds != nil {
		v := *s.Beds
		out.Beds = &v
	}
	if s.Tenure != nil {
		v := *s.Tenure
		out.Tenure = &v
	}
	if s.PriceMin != nil {
		v := *s.PriceMin
		out.PriceMin = &v
	}
	if s.PriceMax != nil {
		v := *s.PriceMax
		out.PriceMax = &v
	}
	if s.Price != nil {
		v := *s.Price
		out.Price = &v
	}
	return out
}

// Merge overlays incoming on current, last stated value wins per slot.
//
// Stating a different city without a type drops the previous type along with
// beds and every price bound. Stating a type alone keeps the city.
func Merge(current, incoming Slots) Slots {
	out := current.Clone()
	in := incoming.Clone()

	if in.City != nil && in.Type == nil && out.Type != nil && cityChanged(out.City, *in.City) {
		out.Type = nil
		out.Beds = nil
		out.Price = nil
		out.PriceMin = nil
		out.PriceMax = nil
	}

	if in.City != nil {
		out.City = in.City
	}
	if in.Type != nil {
		out.Type = in.Type
	}
	if in.Beds != nil {
		out.Beds = in.Beds
	}
	if in.Tenure != nil {
		out.Tenure = in.Tenure
	}
	if in.PriceMin != nil {
		out.PriceMin = in.PriceMin
	}
	if in.PriceMax != nil {
		out.PriceMax = in.PriceMax
	}
	if in.Price != nil {
		out.Price = in.Price
	}
	return out
}

// A city only changes when one was already set and the new one differs
// case-insensitively. Filling an empty city keeps the other filters.
func cityChanged(prev *string, next string) bool {
	if prev == nil {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(*prev), strings.TrimSpace(next))
}

// Helpers for building optional slot values

func StringPtr(v string) *string { return &v }

func IntPtr(v int) *int { return &v }

func Int64Ptr(v int64) *int64 { return &v }

func TypePtr(v PropertyType) *PropertyType { return &v }

func TenurePtr(v Tenure) *Tenure { return &v }
