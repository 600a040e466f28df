package nlp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/rivo/uniseg"
)

// EnglishSegmenter segments English text. Sentence boundaries come from a
// Punkt model trained on English; words follow Unicode UAX #29 boundaries.
type EnglishSegmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
	stopWords map[string]struct{}
}

// NewEnglishSegmenter loads the English sentence model and stop-word list.
// The result holds no mutable state and can be shared between goroutines.
func NewEnglishSegmenter() (*EnglishSegmenter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load english sentence model: %w", err)
	}
	return &EnglishSegmenter{
		tokenizer: tokenizer,
		stopWords: EnglishStopWords(),
	}, nil
}

// Segment implements Segmenter.
func (s *EnglishSegmenter) Segment(text string) (*Document, error) {
	doc := &Document{Text: text}
	if strings.TrimSpace(text) == "" {
		return doc, nil
	}

	cursor := 0
	for _, raw := range s.tokenizer.Tokenize(text) {
		trimmed := strings.TrimSpace(raw.Text)
		if trimmed == "" {
			continue
		}

		// Sentences are slices of the source; locate each one after the
		// previous so offsets stay monotonic.
		offset := strings.Index(text[cursor:], trimmed)
		if offset < 0 {
			return nil, fmt.Errorf("sentence %d not found in source text", len(doc.Sentences))
		}
		start := cursor + offset
		end := start + len(trimmed)
		cursor = end

		first := len(doc.Tokens)
		doc.Tokens = s.appendWords(doc.Tokens, trimmed, start)
		doc.Sentences = append(doc.Sentences, Sentence{
			Index:      len(doc.Sentences),
			Start:      start,
			End:        end,
			Text:       trimmed,
			FirstToken: first,
			LastToken:  len(doc.Tokens),
		})
	}

	return doc, nil
}

func (s *EnglishSegmenter) appendWords(tokens []Token, text string, base int) []Token {
	state := -1
	offset := 0
	rest := text
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		if strings.TrimSpace(word) != "" {
			tokens = append(tokens, Token{
				Text:    word,
				Start:   base + offset,
				IsStop:  s.isStopWord(word),
				IsPunct: IsPunctuation(word),
			})
		}
		offset += len(word)
	}
	return tokens
}

func (s *EnglishSegmenter) isStopWord(word string) bool {
	_, ok := s.stopWords[strings.ToLower(word)]
	return ok
}

// IsPunctuation reports whether every rune of word is Unicode punctuation.
func IsPunctuation(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsPunct(r) {
			return false
		}
	}
	return true
}
