// Package tokenizer extracts candidate symptom tokens from free text without a model.
package tokenizer

import (
	"context"
	"strings"
	"unicode"

	"github.com/giygas/symptoms-api/interfaces"
)

var _ interfaces.SymptomExtractor = Lexical{}

// maxNGram is the longest phrase emitted, enough for symptoms like "shortness of breath"
const maxNGram = 3

var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "after": {}, "all": {}, "am": {}, "an": {}, "and": {}, "any": {},
	"are": {}, "as": {}, "at": {}, "be": {}, "been": {}, "but": {}, "by": {}, "can": {},
	"could": {}, "do": {}, "does": {}, "doing": {}, "feel": {}, "feeling": {}, "feels": {},
	"for": {}, "from": {}, "got": {}, "had": {}, "has": {}, "have": {}, "having": {},
	"he": {}, "her": {}, "him": {}, "his": {}, "i": {}, "i'm": {}, "i've": {}, "im": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "just": {}, "like": {}, "lot": {}, "me": {},
	"my": {}, "now": {}, "on": {}, "or": {}, "really": {}, "she": {}, "since": {}, "so": {},
	"some": {}, "suffering": {}, "that": {}, "the": {}, "their": {}, "them": {}, "there": {},
	"they": {}, "this": {}, "to": {}, "very": {}, "was": {}, "we": {}, "what": {}, "when": {},
	"with": {}, "you": {}, "your": {},
}

// Lexical splits text into words, drops stop words and emits every 1 to 3 word
// phrase of adjacent kept words, de-duplicated in first-seen order.
type Lexical struct{}

// ExtractSymptoms implements interfaces.SymptomExtractor. It never fails.
func (Lexical) ExtractSymptoms(_ context.Context, text string) ([]string, error) {
	return Tokens(text), nil
}

// Tokens is ExtractSymptoms without the interface plumbing
func Tokens(text string) []string {
	words := Words(text)

	seen := make(map[string]struct{}, len(words)*maxNGram)
	tokens := make([]string, 0, len(words)*maxNGram)
	for n := 1; n <= maxNGram; n++ {
		for i := 0; i+n <= len(words); i++ {
			phrase := strings.Join(words[i:i+n], " ")
			if _, dup := seen[phrase]; dup {
				continue
			}
			seen[phrase] = struct{}{}
			tokens = append(tokens, phrase)
		}
	}
	return tokens
}

// Words lower-cases text, splits it on anything but letters, digits and
// apostrophes, and removes stop words
func Words(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f == "" {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		words = append(words, f)
	}
	return words
}
