package nlp

import (
	"math"
	"regexp"
	"strings"

	"realtychat/internal/model"
	"realtychat/internal/utils"
)

// A single weight-3 phrase is full confidence
const confidenceScale = 3.0

// Confidence reported for intents chosen by the slot heuristics
const heuristicConfidence = 0.5

// Phrases this short only match whole words, so "hi" never fires inside "this"
const shortPhraseLen = 3

var (
	resetRe      = regexp.MustCompile(`\b(reset|start over|clear|new search)\b`)
	actionVerbs  = []string{"show", "find", "list", "search"}
	listingWords = []string{"show", "find", "list", "search", "looking for", "available", "listings", "properties", "property"}
)

// Classifier scores the intent table against an utterance
type Classifier struct {
	intents   []IntentPhrases
	extractor *Extractor
}

// NewClassifier builds a classifier over v. The extractor supplies the type
// aliases used as generic listing keywords.
func NewClassifier(v *Vocabulary, e *Extractor) *Classifier {
	return &Classifier{intents: v.Intents, extractor: e}
}

// Classify returns the intent of an utterance. An explicit reset phrase wins
// outright. Otherwise the best scoring row wins, ties going to the row
// declared first. When no phrase matches, slot heuristics pick the intent, so
// every input resolves to exactly one intent.
func (c *Classifier) Classify(text string, slots model.Slots) model.IntentResult {
	norm := Normalize(text)

	if conf, ok := c.reset(norm); ok {
		return model.IntentResult{Name: model.IntentReset, Confidence: conf}
	}

	bestName, bestScore := "", 0.0
	for _, row := range c.intents {
		if row.Name == model.IntentReset {
			continue
		}
		score := 0.0
		for _, p := range row.Phrases {
			if phraseMatches(norm, p.Text) {
				score += p.Weight
			}
		}
		if score > bestScore {
			bestName, bestScore = row.Name, score
		}
	}
	if bestScore > 0 {
		return model.IntentResult{Name: bestName, Confidence: math.Min(1, bestScore/confidenceScale)}
	}

	name := c.heuristic(norm, slots)
	conf := heuristicConfidence
	if name == model.IntentFallback {
		conf = 0
	}
	return model.IntentResult{Name: name, Confidence: conf}
}

// reset scores the reset row on whole words. The built-in reset pattern still
// applies when the loaded table has no reset row.
func (c *Classifier) reset(norm string) (float64, bool) {
	score := 0.0
	for _, row := range c.intents {
		if row.Name != model.IntentReset {
			continue
		}
		for _, p := range row.Phrases {
			if utils.ContainsWord(norm, p.Text) {
				score += p.Weight
			}
		}
	}
	if score > 0 {
		return math.Min(1, score/confidenceScale), true
	}
	if resetRe.MatchString(norm) {
		return 1, true
	}
	return 0, false
}

// phraseMatches is a substring test, except that short phrases must stand
// as whole words
func phraseMatches(norm, phrase string) bool {
	if phrase == "" {
		return false
	}
	if len(phrase) <= shortPhraseLen {
		return utils.ContainsWord(norm, phrase)
	}
	return strings.Contains(norm, phrase)
}

func (c *Classifier) heuristic(norm string, s model.Slots) string {
	hasCity, hasType := s.City != nil, s.Type != nil
	switch {
	case utils.ContainsWord(norm, "near") || utils.ContainsWord(norm, "nearest"):
		return model.IntentNearest
	case s.HasBudget() && !hasCity && !hasType:
		return model.IntentSetBudget
	case hasCity && !hasType && containsAny(norm, actionVerbs):
		return model.IntentSetLocation
	case hasType && !hasCity && (containsAny(norm, actionVerbs) || utils.ContainsWord(norm, "in")):
		return model.IntentSetType
	case s.Tenure != nil && !hasCity && !hasType:
		return model.IntentRentOrBuy
	case containsAny(norm, listingWords) || c.mentionsType(norm):
		return model.IntentBrowse
	}
	return model.IntentFallback
}

func (c *Classifier) mentionsType(norm string) bool {
	if c.extractor == nil {
		return false
	}
	_, ok := c.extractor.Type(norm)
	return ok
}

func containsAny(norm string, words []string) bool {
	for _, w := range words {
		if utils.ContainsWord(norm, w) {
			return true
		}
	}
	return false
}
