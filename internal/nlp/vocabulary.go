package nlp

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"realtychat/internal/model"
)

// Phrase is a weighted keyword of an intent
type Phrase struct {
	Text   string  `yaml:"text"`
	Weight float64 `yaml:"weight"`
}

// IntentPhrases is one row of the intent table. Row order is the tie-break order.
type IntentPhrases struct {
	Name    string   `yaml:"name"`
	Phrases []Phrase `yaml:"phrases"`
}

// TypeAliases maps a canonical type to its surface forms
type TypeAliases struct {
	Type    model.PropertyType `yaml:"type"`
	Aliases []string           `yaml:"aliases"`
}

// Vocabulary is the closed domain vocabulary the extractors and classifier run on
type Vocabulary struct {
	Cities      []string          `yaml:"cities"`
	AreaAliases map[string]string `yaml:"area_aliases"`
	Types       []TypeAliases     `yaml:"types"`
	Intents     []IntentPhrases   `yaml:"intents"`
}

var defaultCities = []string{
	"Colombo", "Galle", "Kandy", "Mount Lavinia", "Dehiwala", "Nugegoda", "Rajagiriya",
	"Malabe", "Negombo", "Matara", "Battaramulla", "Kotte", "Moratuwa", "Wattala",
	"Panadura", "Kelaniya", "Kurunegala", "Jaffna", "Kadawatha", "Maharagama",
}

var defaultAreaAliases = map[string]string{
	"colombo five":     "Colombo 5",
	"havelock town":    "Colombo 5",
	"cinnamon gardens": "Colombo 7",
	"colombo fort":     "Colombo 1",
	"kollupitiya":      "Colombo 3",
	"bambalapitiya":    "Colombo 4",
	"wellawatte":       "Colombo 6",
	"mt lavinia":       "Mount Lavinia",
	"mt. lavinia":      "Mount Lavinia",
	"galle fort":       "Galle",
}

var defaultTypes = []TypeAliases{
	{Type: model.TypeApartment, Aliases: []string{"apt", "apartment", "condo", "flat"}},
	{Type: model.TypeHouse, Aliases: []string{"house", "home", "villa"}},
	{Type: model.TypeTownhouse, Aliases: []string{"townhouse", "town house"}},
	{Type: model.TypeLand, Aliases: []string{"land", "plot"}},
	{Type: model.TypeCommercial, Aliases: []string{"commercial", "building", "office", "shop"}},
}

var defaultIntents = []IntentPhrases{
	{Name: model.IntentReset, Phrases: []Phrase{
		{"reset", 3}, {"start over", 3}, {"new search", 3}, {"clear", 2},
	}},
	{Name: model.IntentGreet, Phrases: []Phrase{
		{"hi", 1}, {"hello", 1}, {"hey", 1}, {"good morning", 2}, {"good evening", 2}, {"ayubowan", 2},
	}},
	{Name: model.IntentAskCategories, Phrases: []Phrase{
		{"categories", 3}, {"what types", 3}, {"property types", 3}, {"what kind of properties", 3},
	}},
	{Name: model.IntentCapabilities, Phrases: []Phrase{
		{"what can you do", 3}, {"how can you help", 3}, {"help me", 1}, {"help", 1},
	}},
	{Name: model.IntentBotIdentity, Phrases: []Phrase{
		{"who are you", 3}, {"what are you", 3}, {"are you a bot", 3}, {"how are you", 2},
	}},
	{Name: model.IntentBotCreator, Phrases: []Phrase{
		{"who made you", 3}, {"who built you", 3}, {"who created you", 3},
	}},
	{Name: model.IntentThanks, Phrases: []Phrase{
		{"thanks", 2}, {"thank you", 3}, {"thx", 2}, {"cheers", 1},
	}},
	{Name: model.IntentInvestment, Phrases: []Phrase{
		{"invest", 2}, {"investment", 3}, {"investments", 3}, {"roi", 2}, {"rental yield", 3},
	}},
	{Name: model.IntentNearest, Phrases: []Phrase{
		{"nearest", 3}, {"closest", 3}, {"near me", 2},
	}},
	{Name: model.IntentContactAgent, Phrases: []Phrase{
		{"contact agent", 3}, {"talk to an agent", 3}, {"call me", 2}, {"agent", 1},
	}},
	{Name: model.IntentAskCoverage, Phrases: []Phrase{
		{"which cities", 3}, {"what areas", 3}, {"where do you have", 3}, {"locations do you cover", 3},
	}},
}

// DefaultVocabulary returns a fresh copy of the built-in vocabulary
func DefaultVocabulary() *Vocabulary {
	v := &Vocabulary{
		Cities:      append([]string(nil), defaultCities...),
		AreaAliases: make(map[string]string, len(defaultAreaAliases)+60),
		Types:       make([]TypeAliases, 0, len(defaultTypes)),
		Intents:     make([]IntentPhrases, 0, len(defaultIntents)),
	}
	for k, c := range defaultAreaAliases {
		v.AreaAliases[k] = c
	}
	for n := 1; n <= 15; n++ {
		city := fmt.Sprintf("Colombo %d", n)
		v.Cities = append(v.Cities, city)
		for _, alias := range numberedAliases(n) {
			v.AreaAliases[alias] = city
		}
	}
	for _, t := range defaultTypes {
		v.Types = append(v.Types, TypeAliases{Type: t.Type, Aliases: append([]string(nil), t.Aliases...)})
	}
	for _, in := range defaultIntents {
		v.Intents = append(v.Intents, IntentPhrases{Name: in.Name, Phrases: append([]Phrase(nil), in.Phrases...)})
	}
	return v
}

func numberedAliases(n int) []string {
	aliases := []string{
		fmt.Sprintf("cmb %d", n),
		fmt.Sprintf("cmb%d", n),
		fmt.Sprintf("col %d", n),
	}
	if n < 10 {
		aliases = append(aliases,
			fmt.Sprintf("colombo 0%d", n),
			fmt.Sprintf("cmb 0%d", n),
			fmt.Sprintf("cmb0%d", n),
		)
	}
	return aliases
}

// LoadVocabulary reads a YAML file and layers it over the default vocabulary.
// An empty path returns the defaults.
func LoadVocabulary(path string) (*Vocabulary, error) {
	v := DefaultVocabulary()
	if path == "" {
		return v, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}
	var extra Vocabulary
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}
	if err := v.Extend(&extra); err != nil {
		return nil, err
	}
	return v, nil
}

// Extend adds the entries of other. Intent phrases join an existing row by name,
// unknown intents are appended after the built-in rows.
func (v *Vocabulary) Extend(other *Vocabulary) error {
	for _, c := range other.Cities {
		if c = strings.TrimSpace(c); c != "" && !containsFold(v.Cities, c) {
			v.Cities = append(v.Cities, c)
		}
	}
	for alias, city := range other.AreaAliases {
		v.AreaAliases[Normalize(alias)] = city
	}

	for _, t := range other.Types {
		if !t.Type.Valid() {
			return fmt.Errorf("unknown property type %q in vocabulary", t.Type)
		}
		i := v.typeIndex(t.Type)
		for _, a := range t.Aliases {
			a = Normalize(a)
			if a != "" && !containsFold(v.Types[i].Aliases, a) {
				v.Types[i].Aliases = append(v.Types[i].Aliases, a)
			}
		}
	}

	for _, in := range other.Intents {
		if in.Name == "" {
			return fmt.Errorf("intent without a name in vocabulary")
		}
		idx := -1
		for i := range v.Intents {
			if v.Intents[i].Name == in.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			v.Intents = append(v.Intents, IntentPhrases{Name: in.Name})
			idx = len(v.Intents) - 1
		}
		for _, p := range in.Phrases {
			if p.Weight <= 0 {
				p.Weight = 1
			}
			p.Text = Normalize(p.Text)
			v.Intents[idx].Phrases = append(v.Intents[idx].Phrases, p)
		}
	}
	return nil
}

func (v *Vocabulary) typeIndex(t model.PropertyType) int {
	for i := range v.Types {
		if v.Types[i].Type == t {
			return i
		}
	}
	v.Types = append(v.Types, TypeAliases{Type: t})
	return len(v.Types) - 1
}

func containsFold(list []string, s string) bool {
	for _, x := range list {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}
