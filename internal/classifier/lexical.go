package classifier

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexical is the keyword-based Classifier implementation. It is stateless
// apart from its lexicons and safe for concurrent use.
type Lexical struct {
	lex Lexicons
}

func NewLexical(lex Lexicons) *Lexical {
	return &Lexical{lex: lex}
}

// intentSaturationHits is the number of distinct lexicon hits at which the
// intent score reaches 1.0.
const intentSaturationHits = 3

func (c *Lexical) SafetyFlags(text string) []Flag {
	lower := strings.ToLower(text)
	var flags []Flag
	if containsAny(lower, c.lex.Emergency) {
		flags = append(flags, FlagMedicalEmergency)
	}
	if containsAny(lower, c.lex.InjuryRisk) {
		flags = append(flags, FlagInjuryRisk)
	}
	if containsAny(lower, c.lex.MedicalAdvice) {
		flags = append(flags, FlagMedicalAdvice)
	}
	return flags
}

func (c *Lexical) Intent(text string, domain Domain) float64 {
	var keywords []string
	switch domain {
	case DomainTraining:
		keywords = c.lex.Training
	case DomainNutrition:
		keywords = c.lex.Nutrition
	case DomainPsychology:
		keywords = c.lex.Psychology
	default:
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	score := float64(hits) / intentSaturationHits
	if score > 1 {
		score = 1
	}
	return score
}

func (c *Lexical) DisorderSigns(text string) bool {
	return containsAny(strings.ToLower(text), c.lex.DisorderSigns)
}

// Confirmation matches the affirmative lexicon at the start of the message
// (exact word or word prefix) and the connect stems anywhere. The broad
// connect-stem match is deliberate: "да, подключи" and "подключи тренера"
// both count, at the cost of the occasional false positive.
func (c *Lexical) Confirmation(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if containsAny(lower, c.lex.ConnectStems) {
		return true
	}
	for _, kw := range c.lex.Affirmative {
		if matchesLeadingWord(lower, kw) {
			return true
		}
	}
	return false
}

func (c *Lexical) Rejection(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, kw := range c.lex.Negative {
		if matchesLeadingWord(lower, kw) {
			return true
		}
	}
	return false
}

// SymptomMarker matches the raw symptom lexicon plus everything the
// emergency and injury sets cover, so a text that raises a medical flag
// always carries a symptom marker as well.
func (c *Lexical) SymptomMarker(text string) bool {
	lower := strings.ToLower(text)
	return containsAny(lower, c.lex.Symptoms) ||
		containsAny(lower, c.lex.Emergency) ||
		containsAny(lower, c.lex.InjuryRisk)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// matchesLeadingWord reports whether text equals keyword or starts with it
// followed by a non-letter, so "да" matches "да, давай" but not "дайте".
func matchesLeadingWord(text, keyword string) bool {
	if text == keyword {
		return true
	}
	if !strings.HasPrefix(text, keyword) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[len(keyword):])
	return !unicode.IsLetter(r)
}
