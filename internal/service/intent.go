package service

import (
	"realtychat/internal/model"
	"realtychat/internal/nlp"
)

// IntentParser turns an utterance into an intent and the slots it states
type IntentParser struct {
	extractor  *nlp.Extractor
	classifier *nlp.Classifier
}

// NewIntentParser creates a new intent parser over vocabulary v
func NewIntentParser(v *nlp.Vocabulary) *IntentParser {
	e := nlp.NewExtractor(v)
	return &IntentParser{
		extractor:  e,
		classifier: nlp.NewClassifier(v, e),
	}
}

// Parse extracts slots and classifies the utterance. It never fails:
// unrecognised input yields empty slots and the fallback intent.
func (p *IntentParser) Parse(text string) model.ParseResult {
	norm := nlp.Normalize(text)
	slots := p.extractor.Extract(norm)
	return model.ParseResult{
		Normalized: norm,
		Intent:     p.classifier.Classify(norm, slots),
		Slots:      slots,
	}
}

// NearArea returns the area of a "nearest ... to X" utterance
func (p *IntentParser) NearArea(text string) (string, bool) {
	return p.extractor.NearArea(text)
}
