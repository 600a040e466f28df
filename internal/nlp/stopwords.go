package nlp

import (
	_ "embed"
	"strings"
)

//go:embed stopwords_en.txt
var englishStopWords string

// EnglishStopWords returns a fresh set of lower-case English stop words.
func EnglishStopWords() map[string]struct{} {
	words := strings.Fields(englishStopWords)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
		// UAX #29 keeps typographic apostrophes inside words.
		if strings.Contains(w, "'") {
			set[strings.ReplaceAll(w, "'", "’")] = struct{}{}
		}
	}
	return set
}
