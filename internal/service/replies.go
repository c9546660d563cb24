package service

import (
	"fmt"
	"strings"

	"realtychat/internal/model"
)

// Canned replies
const (
	ReplyEmptyMessage = "Tell me city, property type, and budget to start."
	ReplyReset        = "Cleared. Tell me a city, property type, and budget to start."
	ReplyGreet        = "Hi! I can help you find apartments, houses, townhouses, land and commercial spaces. Try “3BR apartments in Galle under 80M”."
	ReplyCategories   = "We support apartments, houses, townhouses, land, and commercial (rent and sale). " +
		"Search by city (Colombo, Galle, Kandy), budget, bedrooms, and features. " +
		"Example: “3BR apartments in Galle under 80M”."
	ReplyCapabilities = "I search listings by city, property type, bedrooms, budget and rent or sale. " +
		"If nothing matches exactly I will show the closest options. I can also list open investment plans."
	ReplyBotIdentity   = "I'm a property search assistant. Tell me what you're looking for and I'll find listings."
	ReplyBotCreator    = "I was built by the listings team to help you search properties by chat."
	ReplyThanks        = "You're welcome! Anything else you'd like to search?"
	ReplyCoverage      = "We cover Colombo (1 to 15), Dehiwala, Mount Lavinia, Nugegoda, Rajagiriya, Battaramulla, Kandy, Galle, Matara, Negombo and more."
	ReplyContactAgent  = "An agent can call you back. Open a listing and tap contact, or tell me which listing you're interested in."
	ReplyFallback      = "I can filter by city (Colombo, Galle, Kandy), type (apartment/house), and budget. Try: “3BR apartments in Galle under 80M”. What should I search?"
	ReplyNoInvestments = "No open investment plans right now."
	ReplyDegraded      = "Sorry, I can't reach the listings right now. Please try again in a moment."
	ReplyNoMatches     = "No matches with those filters. Try adjusting the budget or type."
	ReplyNearestNoArea = "Tell me the area or city (e.g., ‘nearest apartments to Borella’)."
	ReplyNearestNone   = "I didn't find listings near that area. Try a different area."
)

// faqReplies answers the conversational intents
var faqReplies = map[string]string{
	model.IntentGreet:         ReplyGreet,
	model.IntentAskCategories: ReplyCategories,
	model.IntentCapabilities:  ReplyCapabilities,
	model.IntentBotIdentity:   ReplyBotIdentity,
	model.IntentBotCreator:    ReplyBotCreator,
	model.IntentThanks:        ReplyThanks,
	model.IntentAskCoverage:   ReplyCoverage,
	model.IntentContactAgent:  ReplyContactAgent,
}

var typeLabels = map[model.PropertyType][2]string{
	model.TypeApartment:  {"apartment", "apartments"},
	model.TypeHouse:      {"house", "houses"},
	model.TypeTownhouse:  {"townhouse", "townhouses"},
	model.TypeLand:       {"land plot", "land plots"},
	model.TypeCommercial: {"commercial property", "commercial properties"},
}

func typeLabel(t model.PropertyType) string {
	if l, ok := typeLabels[t]; ok {
		return l[0]
	}
	return string(t)
}

func typePlural(t model.PropertyType) string {
	if l, ok := typeLabels[t]; ok {
		return l[1]
	}
	return string(t) + "s"
}

// clarifyReply asks for the slot classes a search needs
func clarifyReply(intent string, missing []string) model.Reply {
	need := strings.Join(missing, " or ")
	content := fmt.Sprintf("To search, tell me your %s (e.g., ‘apartments in Galle under 80M’).", need)
	switch intent {
	case model.IntentSetBudget, model.IntentRentOrBuy:
		content = fmt.Sprintf("Got it. To refine, tell me your %s.", need)
	}
	return model.Reply{Type: model.ReplyClarify, Content: content, Missing: missing}
}

func textReply(content string) model.Reply {
	return model.Reply{Type: model.ReplyText, Content: content}
}

// contextBlob summarises the known filters for the text generator
func contextBlob(s model.Slots) string {
	var parts []string
	if s.City != nil {
		parts = append(parts, "city="+*s.City)
	}
	if s.Type != nil {
		parts = append(parts, "type="+string(*s.Type))
	}
	if s.Beds != nil {
		parts = append(parts, fmt.Sprintf("beds>=%d", *s.Beds))
	}
	if s.Tenure != nil {
		parts = append(parts, "tenure="+string(*s.Tenure))
	}
	if s.PriceMin != nil {
		parts = append(parts, fmt.Sprintf("price_min=%d", *s.PriceMin))
	}
	if s.PriceMax != nil {
		parts = append(parts, fmt.Sprintf("price_max=%d", *s.PriceMax))
	}
	if s.Price != nil {
		parts = append(parts, fmt.Sprintf("price=%d", *s.Price))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Known filters: " + strings.Join(parts, ", ")
}

// historyEntry is the assistant side of a turn as kept in the session window
func historyEntry(r model.Reply) string {
	switch r.Type {
	case model.ReplyCards:
		s := fmt.Sprintf("[showed %d listings]", len(r.Items))
		if r.Preface != "" {
			s = r.Preface + " " + s
		}
		return s
	case model.ReplyInvestments:
		return fmt.Sprintf("[showed %d investment plans]", len(r.Investments))
	}
	return r.Content
}
