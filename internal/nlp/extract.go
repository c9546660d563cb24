package nlp

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"realtychat/internal/model"
	"realtychat/internal/utils"
)

var (
	numberedDistrictRe = regexp.MustCompile(`\b(?:colombo|cmb|col)[\s\-]*0?(\d{1,2})\b`)
	inSpanRe           = regexp.MustCompile(`\bin\s+`)
	nearSpanRe         = regexp.MustCompile(`\b(?:to|near|around)\s+`)
	bedsRe             = regexp.MustCompile(`\b(\d{1,2})\s*-?\s*(?:br\b|bed)`)
	digitCommaRe       = regexp.MustCompile(`(\d),(\d)`)

	// amount with an optional million marker
	amount = `(\d+(?:\.\d+)?)(?:\s*(million|mn|m)\b)?`

	rangeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:-|to)\s*` + amount)
	underRe = regexp.MustCompile(`\b(?:under|below|max(?:imum)?|less than|up to|upto|within)\s+(?:(?:lkr|rs\.?)\s*)?` + amount)
	overRe  = regexp.MustCompile(`\b(?:over|above|min(?:imum)?|more than|at least)\s+(?:(?:lkr|rs\.?)\s*)?` + amount)
	bareRe  = regexp.MustCompile(`\b` + amount)
)

// Span boundaries for the free-text area heuristics
var spanStopWords = map[string]bool{
	"under": true, "below": true, "over": true, "near": true, "around": true,
	"with": true, "for": true, "and": true, "in": true, "at": true, "to": true,
	"within": true, "max": true, "min": true, "between": true, "budget": true,
	"up": true, "less": true, "more": true, "please": true, "that": true, "which": true,
}

// Leading words that mean the span is not a place
var spanRejectWords = map[string]bool{
	"the": true, "a": true, "an": true, "my": true, "your": true, "this": true, "that": true,
	"any": true, "all": true, "some": true, "property": true, "properties": true,
	"listings": true, "buying": true, "renting": true, "investing": true, "investment": true,
}

var rentTokens = map[string]bool{"rent": true, "rental": true, "rentals": true, "renting": true, "lease": true, "leasing": true}
var saleTokens = map[string]bool{"buy": true, "buying": true, "sale": true, "sell": true, "selling": true, "purchase": true}

// Words after a number that make it a measure rather than money
var nonMoneyUnits = []string{"br", "bed", "bath", "sqft", "sq", "perch", "acre", "floor", "stor", "km"}

type place struct {
	surface string
	city    string
}

type typeAlias struct {
	typ   model.PropertyType
	alias string
	re    *regexp.Regexp
}

// Extractor runs all slot extractors over an utterance
type Extractor struct {
	places []place
	types  []typeAlias
}

// NewExtractor compiles the gazetteer and type synonym table of v
func NewExtractor(v *Vocabulary) *Extractor {
	e := &Extractor{}
	for _, c := range v.Cities {
		e.places = append(e.places, place{surface: Normalize(c), city: utils.TitleCase(c)})
	}
	for alias, c := range v.AreaAliases {
		e.places = append(e.places, place{surface: Normalize(alias), city: utils.TitleCase(c)})
	}
	// longest first; ties by surface so map iteration order never leaks out
	sort.SliceStable(e.places, func(i, j int) bool {
		if len(e.places[i].surface) != len(e.places[j].surface) {
			return len(e.places[i].surface) > len(e.places[j].surface)
		}
		return e.places[i].surface < e.places[j].surface
	})

	for _, t := range v.Types {
		for _, a := range t.Aliases {
			a = Normalize(a)
			e.types = append(e.types, typeAlias{
				typ:   t.Type,
				alias: a,
				re:    regexp.MustCompile(`\b` + regexp.QuoteMeta(a) + `(?:es|s)?\b`),
			})
		}
	}
	return e
}

// Extract unions every extractor's result into one slot set
func (e *Extractor) Extract(text string) model.Slots {
	norm := Normalize(text)

	var s model.Slots
	if city, ok := e.City(norm); ok {
		s.City = &city
	}
	if t, ok := e.Type(norm); ok {
		s.Type = &t
	}
	if b, ok := Beds(norm); ok {
		s.Beds = &b
	}
	if t, ok := DetectTenure(norm); ok {
		s.Tenure = &t
	}
	s.PriceMin, s.PriceMax = Budget(norm)
	return s
}

// City returns the canonical title-cased city named in text.
// Gazetteer entries and numbered district forms compete on match length;
// only when neither matches is the span after "in" used.
func (e *Extractor) City(text string) (string, bool) {
	norm := Normalize(text)

	best, bestLen := "", 0
	for _, p := range e.places {
		if len(p.surface) <= bestLen {
			break
		}
		if utils.ContainsWord(norm, p.surface) {
			best, bestLen = p.city, len(p.surface)
			break
		}
	}
	for _, m := range numberedDistrictRe.FindAllStringSubmatch(norm, -1) {
		n, _ := strconv.Atoi(m[1])
		if n >= 1 && n <= 15 && len(m[0]) > bestLen {
			best, bestLen = fmt.Sprintf("Colombo %d", n), len(m[0])
		}
	}
	if best != "" {
		return best, true
	}

	if span, ok := e.spanAfter(inSpanRe, norm); ok {
		return utils.TitleCase(span), true
	}
	return "", false
}

// NearArea returns the area named after "to", "near" or "around", as in
// "nearest apartments to Borella". The result is not canonicalized.
func (e *Extractor) NearArea(text string) (string, bool) {
	norm := Normalize(text)
	if city, ok := e.gazetteer(norm); ok {
		return city, true
	}
	if span, ok := e.spanAfter(nearSpanRe, norm); ok {
		return utils.TitleCase(span), true
	}
	return "", false
}

// spanAfter returns the first acceptable span following a match of marker.
// A span never extends past a digit.
func (e *Extractor) spanAfter(marker *regexp.Regexp, norm string) (string, bool) {
	for _, loc := range marker.FindAllStringIndex(norm, -1) {
		rest := norm[loc[1]:]
		if i := strings.IndexFunc(rest, func(r rune) bool { return r >= '0' && r <= '9' }); i >= 0 {
			rest = rest[:i]
		}
		if span, ok := e.cleanSpan(rest); ok {
			return span, true
		}
	}
	return "", false
}

func (e *Extractor) gazetteer(norm string) (string, bool) {
	for _, p := range e.places {
		if utils.ContainsWord(norm, p.surface) {
			return p.city, true
		}
	}
	return "", false
}

// cleanSpan cuts raw at the first boundary word or punctuation and validates it
func (e *Extractor) cleanSpan(raw string) (string, bool) {
	if i := strings.IndexAny(raw, ",.?!;:"); i >= 0 {
		raw = raw[:i]
	}
	words := strings.Fields(raw)
	kept := []string{}
	for _, w := range words {
		if spanStopWords[w] {
			break
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 || spanRejectWords[kept[0]] {
		return "", false
	}
	span := strings.Join(kept, " ")
	if len(span) < 2 || len(span) > 30 {
		return "", false
	}
	if _, isType := e.Type(span); isType {
		return "", false
	}
	return span, true
}

// Type returns the canonical property type named in text. The longest alias
// wins so "town house" resolves to townhouse, not house.
func (e *Extractor) Type(text string) (model.PropertyType, bool) {
	norm := Normalize(text)
	var best *typeAlias
	for i := range e.types {
		t := &e.types[i]
		if (best == nil || len(t.alias) > len(best.alias)) && t.re.MatchString(norm) {
			best = t
		}
	}
	if best == nil {
		return "", false
	}
	return best.typ, true
}

// Beds returns the bedroom count written before "br" or "bed..."
func Beds(text string) (int, bool) {
	m := bedsRe.FindStringSubmatch(Normalize(text))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// DetectTenure reports rent or sale by keyword. When both appear, rent wins.
func DetectTenure(text string) (model.Tenure, bool) {
	rent, sale := false, false
	for _, tok := range tokens(Normalize(text)) {
		rent = rent || rentTokens[tok]
		sale = sale || saleTokens[tok]
	}
	switch {
	case rent:
		return model.TenureRent, true
	case sale:
		return model.TenureSale, true
	}
	return "", false
}

// Budget extracts price bounds. Patterns are tried in a fixed priority and the
// first stage with a usable match decides: range, upper bound, lower bound,
// then a bare number read as an upper bound.
func Budget(text string) (min, max *int64) {
	s := Normalize(text)
	for digitCommaRe.MatchString(s) {
		s = digitCommaRe.ReplaceAllString(s, "$1$2")
	}

	for _, m := range rangeRe.FindAllStringSubmatchIndex(s, -1) {
		if nonMoney(s, m[0], m[1]) {
			continue
		}
		// a single trailing marker applies to both ends
		million := m[6] >= 0
		lo, okLo := parseAmount(s[m[2]:m[3]], million)
		hi, okHi := parseAmount(s[m[4]:m[5]], million)
		if !okLo || !okHi {
			continue
		}
		return &lo, &hi
	}
	if v, ok := firstAmount(underRe, s, false); ok {
		return nil, &v
	}
	if v, ok := firstAmount(overRe, s, false); ok {
		return &v, nil
	}
	if v, ok := firstAmount(bareRe, s, true); ok {
		return nil, &v
	}
	return nil, nil
}

func firstAmount(re *regexp.Regexp, s string, bare bool) (int64, bool) {
	for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
		num := s[m[2]:m[3]]
		million := m[4] >= 0
		if nonMoney(s, m[2], m[1]) {
			continue
		}
		// a bare number needs two integer digits, marker or not
		if bare && len(strings.SplitN(num, ".", 2)[0]) < 2 {
			continue
		}
		if v, ok := parseAmount(num, million); ok {
			return v, true
		}
	}
	return 0, false
}

// nonMoney reports whether the number at s[start:end] belongs to a district
// name or is followed by a measurement unit
func nonMoney(s string, start, end int) bool {
	before := strings.Fields(s[:start])
	if n := len(before); n > 0 {
		switch strings.Trim(before[n-1], "-") {
		case "colombo", "cmb", "col", "no", "#":
			return true
		}
	}
	after := strings.TrimLeft(s[end:], " -")
	for _, u := range nonMoneyUnits {
		if strings.HasPrefix(after, u) {
			return true
		}
	}
	return false
}

// parseAmount converts a decimal string to whole units, flooring any fraction.
// Digits are handled as text so 1.15m is exactly 1150000. Amounts that do not
// fit in an int64 are rejected.
func parseAmount(num string, million bool) (int64, bool) {
	intPart, frac, _ := strings.Cut(num, ".")
	v, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, false
	}
	if !million {
		return v, true
	}
	if v > math.MaxInt64/1_000_000 {
		return 0, false
	}
	v *= 1_000_000
	if len(frac) > 6 {
		frac = frac[:6]
	}
	if frac != "" {
		f, _ := strconv.ParseInt(frac+strings.Repeat("0", 6-len(frac)), 10, 64)
		if f > math.MaxInt64-v {
			return 0, false
		}
		v += f
	}
	return v, true
}
