package model

// Intent names produced by the classifier
const (
	IntentReset         = "reset_session"
	IntentGreet         = "greet"
	IntentAskCategories = "ask_categories"
	IntentCapabilities  = "capabilities"
	IntentBotIdentity   = "bot_identity"
	IntentBotCreator    = "bot_creator"
	IntentThanks        = "thanks"
	IntentInvestment    = "investment_advice"
	IntentNearest       = "nearest_query"
	IntentContactAgent  = "contact_agent"
	IntentAskCoverage   = "ask_coverage"
	IntentSetBudget     = "set_budget"
	IntentSetLocation   = "set_location"
	IntentSetType       = "set_type"
	IntentRentOrBuy     = "rent_or_buy"
	IntentBrowse        = "browse_listings"
	IntentFallback      = "fallback"
)

// IntentResult represents the classified purpose of a turn
type IntentResult struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// ParseResult is the output of parsing one utterance
type ParseResult struct {
	Normalized string       `json:"normalized"`
	Intent     IntentResult `json:"intent"`
	Slots      Slots        `json:"slots"`
}
