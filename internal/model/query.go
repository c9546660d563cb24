package model

// ListingQuery is a conjunction of optional predicates against the listings store.
// Only available listings are ever returned.
type ListingQuery struct {
	City     *string       `json:"city,omitempty"` // matches city or district
	Type     *PropertyType `json:"type,omitempty"`
	Tenure   *Tenure       `json:"tenure,omitempty"`
	MinBeds  *int          `json:"min_beds,omitempty"`
	Price    *int64        `json:"price,omitempty"`
	PriceMin *int64        `json:"price_min,omitempty"`
	PriceMax *int64        `json:"price_max,omitempty"`
	Limit    int           `json:"limit"`
}

// RelaxMode tags which strategy produced a result set
type RelaxMode string

const (
	ModeExact            RelaxMode = "exact"
	ModeDropBeds         RelaxMode = "drop_beds"
	ModeRaiseBudget      RelaxMode = "raise_budget"
	ModeFallbackCityType RelaxMode = "fallback_city_type"
	ModeAltCity          RelaxMode = "alt_city"
	ModeMissingSlot      RelaxMode = "missing_slot"
	ModeNone             RelaxMode = "none"
)

// SearchOutcome is the result of a search turn, possibly relaxed
type SearchOutcome struct {
	Listings []Listing    `json:"listings"`
	Mode     RelaxMode    `json:"mode"`
	Preface  string       `json:"preface,omitempty"`
	Query    ListingQuery `json:"query"`
	// Degraded is set when the store failed and the empty result is not authoritative
	Degraded bool `json:"degraded,omitempty"`
}

// PriceHintQuery selects the listings a cheapest-price hint is computed over
type PriceHintQuery struct {
	City    string
	Type    PropertyType
	Tenure  *Tenure
	MinBeds *int
}

// PriceHint is the cheapest matching price and how many listings matched
type PriceHint struct {
	MinPrice int64 `db:"min_price"`
	Count    int   `db:"cnt"`
}

// ReplyType discriminates the reply payload
type ReplyType string

const (
	ReplyText        ReplyType = "text"
	ReplyCards       ReplyType = "cards"
	ReplyClarify     ReplyType = "clarify"
	ReplyInvestments ReplyType = "investments"
)

// Reply is the payload returned to the user for one turn
type Reply struct {
	Type        ReplyType     `json:"type"`
	Content     string        `json:"content,omitempty"`
	Preface     string        `json:"preface,omitempty"`
	Mode        RelaxMode     `json:"mode,omitempty"`
	Items       []ListingCard `json:"items,omitempty"`
	Investments []Investment  `json:"investments,omitempty"`
	Missing     []string      `json:"missing,omitempty"`
}

// TurnResult is everything a turn produces
type TurnResult struct {
	SessionID string        `json:"session_id"`
	Intent    IntentResult  `json:"intent"`
	Slots     Slots         `json:"slots"`
	Reply     Reply         `json:"reply"`
	Session   *SessionState `json:"session"`
}

// ChatRequest is the body of POST /api/v1/chat
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// EmbeddingDims is the width of a listing embedding
const EmbeddingDims = 1536

// EmbeddingBatchRequest represents a batch embedding update request
type EmbeddingBatchRequest struct {
	Embeddings []EmbeddingItem `json:"embeddings" binding:"required"`
}

// EmbeddingItem represents a single embedding update
type EmbeddingItem struct {
	ListingID int64     `json:"listing_id" binding:"required"`
	Embedding []float32 `json:"embedding" binding:"required"`
}

// EmbeddingBatchResponse represents the response for batch embedding update
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// FeedbackRequest represents a user action on a card
type FeedbackRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	ListingID int64  `json:"listing_id" binding:"required"`
	Action    string `json:"action" binding:"required"` // click, contact, view_details
}

// FeedbackResponse represents the response for feedback submission
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
