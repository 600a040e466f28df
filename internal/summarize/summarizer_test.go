package summarize

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxbrief/internal/nlp"
	"github.com/teemow/inboxbrief/internal/toolerr"
)

var testStopWords = map[string]bool{
	"the": true, "on": true, "at": true, "a": true, "is": true, "and": true,
}

// fakeSegment splits sentences after '.', '!' or '?' and words on spaces,
// with trailing punctuation as separate tokens.
func fakeSegment(text string) (*nlp.Document, error) {
	doc := &nlp.Document{Text: text}
	start := -1
	for i := 0; i <= len(text); i++ {
		atEnd := i == len(text)
		if !atEnd && start < 0 && text[i] != ' ' && text[i] != '\n' {
			start = i
		}
		if start < 0 {
			continue
		}
		if atEnd || strings.ContainsRune(".!?", rune(text[i])) {
			end := i
			if !atEnd {
				end++
			}
			addSentence(doc, text[start:end], start)
			start = -1
		}
	}
	return doc, nil
}

func addSentence(doc *nlp.Document, sentence string, offset int) {
	first := len(doc.Tokens)
	for _, field := range strings.Fields(sentence) {
		word := strings.TrimRight(field, ".,!?")
		if word != "" {
			doc.Tokens = append(doc.Tokens, nlp.Token{
				Text:   word,
				IsStop: testStopWords[strings.ToLower(word)],
			})
		}
		for _, r := range field[len(word):] {
			doc.Tokens = append(doc.Tokens, nlp.Token{Text: string(r), IsPunct: true})
		}
	}
	doc.Sentences = append(doc.Sentences, nlp.Sentence{
		Index:      len(doc.Sentences),
		Start:      offset,
		End:        offset + len(sentence),
		Text:       sentence,
		FirstToken: first,
		LastToken:  len(doc.Tokens),
	})
}

func newTestSummarizer() *Summarizer {
	return New(nlp.SegmenterFunc(fakeSegment))
}

const catText = "The cat sat. The cat sat on the mat. Dogs bark loudly at night."

func TestSummarize_PicksMostSalientSentence(t *testing.T) {
	s := newTestSummarizer()

	summary, err := s.Summarize(catText, 1)
	require.NoError(t, err)
	assert.Equal(t, "The cat sat on the mat.", summary)
}

func TestSummarize_KeepsSourceOrder(t *testing.T) {
	s := newTestSummarizer()

	summary, err := s.Summarize(catText, 2)
	require.NoError(t, err)
	// Ties at 2.0 resolve to the earlier sentence.
	assert.Equal(t, "The cat sat. The cat sat on the mat.", summary)
}

func TestSummarize_KLargerThanSentences(t *testing.T) {
	s := newTestSummarizer()

	summary, err := s.Summarize(catText, 10)
	require.NoError(t, err)
	assert.Equal(t, catText, summary)
}

func TestSelect(t *testing.T) {
	s := newTestSummarizer()

	sentences, err := s.Select(catText, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"The cat sat.", "The cat sat on the mat."}, sentences)

	_, err = s.Select(catText, 0)
	assert.True(t, errors.Is(err, toolerr.ErrInvalidArgument))
}

func TestSummarize_SentencesAreVerbatim(t *testing.T) {
	s := newTestSummarizer()
	text := "Alpha beta gamma.   Beta gamma delta!\nGamma epsilon? Zeta eta theta."

	for k := 1; k <= 4; k++ {
		selected, doc, err := s.Rank(text, k)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(selected), k)

		summary, err := s.Summarize(text, k)
		require.NoError(t, err)
		for _, sc := range selected {
			sentence := doc.Sentences[sc.Index].Text
			assert.Contains(t, text, sentence)
			assert.Contains(t, summary, strings.TrimSpace(sentence))
		}
		assert.Equal(t, strings.TrimSpace(summary), summary)
	}
}

func TestSummarize_SkipsSentencesWithoutKeywords(t *testing.T) {
	s := newTestSummarizer()

	summary, err := s.Summarize("The cat. On the. A cat.", 3)
	require.NoError(t, err)
	assert.Equal(t, "The cat. A cat.", summary)
}

func TestSummarize_EmptyInput(t *testing.T) {
	s := newTestSummarizer()

	for _, text := range []string{"", "   \n", "The. On the! At a?", "..."} {
		_, err := s.Summarize(text, 1)
		require.Error(t, err, "text %q", text)
		assert.True(t, errors.Is(err, toolerr.ErrEmptyInput), "text %q: %v", text, err)
	}
}

func TestSummarize_InvalidCount(t *testing.T) {
	s := newTestSummarizer()

	for _, k := range []int{0, -1} {
		_, err := s.Summarize(catText, k)
		require.Error(t, err)
		assert.Equal(t, toolerr.KindInvalidArgument, toolerr.KindOf(err))
	}
}

func TestSummarize_SegmenterFailure(t *testing.T) {
	s := New(nlp.SegmenterFunc(func(string) (*nlp.Document, error) {
		return nil, errors.New("model unavailable")
	}))

	_, err := s.Summarize(catText, 1)
	require.Error(t, err)
	assert.Equal(t, toolerr.KindInternal, toolerr.KindOf(err))
}

func TestRank_TiesByPosition(t *testing.T) {
	s := newTestSummarizer()

	ranked, _, err := s.Rank("Red blue. Green yellow. Red blue.", 3)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, []int{0, 2, 1}, []int{ranked[0].Index, ranked[1].Index, ranked[2].Index})
}

func TestKeywordFrequencies_Normalized(t *testing.T) {
	doc, err := fakeSegment(catText)
	require.NoError(t, err)

	freqs, err := KeywordFrequencies(doc)
	require.NoError(t, err)

	maxFreq := 0.0
	for word, f := range freqs {
		assert.Greater(t, f, 0.0, word)
		assert.LessOrEqual(t, f, 1.0, word)
		if f > maxFreq {
			maxFreq = f
		}
	}
	assert.Equal(t, 1.0, maxFreq)
	assert.Equal(t, 1.0, freqs["cat"])
	assert.Equal(t, 0.5, freqs["mat"])
	assert.NotContains(t, freqs, "The")
	assert.NotContains(t, freqs, ".")
}

func TestKeywordFrequencies_CaseSensitive(t *testing.T) {
	doc, err := fakeSegment("Mail mail mail.")
	require.NoError(t, err)

	freqs, err := KeywordFrequencies(doc)
	require.NoError(t, err)
	assert.Equal(t, 0.5, freqs["Mail"])
	assert.Equal(t, 1.0, freqs["mail"])
}

func TestScoreSentences(t *testing.T) {
	doc, err := fakeSegment(catText)
	require.NoError(t, err)
	freqs, err := KeywordFrequencies(doc)
	require.NoError(t, err)

	scores := ScoreSentences(doc, freqs)
	require.Len(t, scores, 3)
	assert.Equal(t, SentenceScore{Index: 0, Score: 2.0}, scores[0])
	assert.Equal(t, SentenceScore{Index: 1, Score: 2.5}, scores[1])
	assert.Equal(t, SentenceScore{Index: 2, Score: 2.0}, scores[2])
}

func TestExplain(t *testing.T) {
	s := newTestSummarizer()
	ranked, doc, err := s.Rank(catText, 2)
	require.NoError(t, err)

	out := Explain(doc, ranked)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1. [1] 2.500 The cat sat on the mat.", lines[0])
	assert.Equal(t, "2. [0] 2.000 The cat sat.", lines[1])
}

func TestSummarize_EnglishSegmenter(t *testing.T) {
	seg, err := nlp.NewEnglishSegmenter()
	require.NoError(t, err)
	s := New(seg)

	text := "Deployments failed twice overnight! The deployment pipeline needs attention. Lunch is at noon?"
	summary, err := s.Summarize(text, 1)
	require.NoError(t, err)
	assert.Contains(t, text, summary)
	assert.NotEmpty(t, summary)
}
