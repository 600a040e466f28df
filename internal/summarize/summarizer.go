package summarize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teemow/inboxbrief/internal/nlp"
	"github.com/teemow/inboxbrief/internal/toolerr"
)

// SentenceScore is the salience of one sentence, keyed by its position in
// the document.
type SentenceScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Summarizer selects the most salient sentences of a text.
// It is safe for concurrent use when its Segmenter is.
type Summarizer struct {
	seg nlp.Segmenter
}

// New returns a Summarizer that segments text with seg.
func New(seg nlp.Segmenter) *Summarizer {
	return &Summarizer{seg: seg}
}

// Summarize returns up to k sentences of text, chosen by aggregate keyword
// frequency and emitted in their original order, joined by single spaces.
func (s *Summarizer) Summarize(text string, k int) (string, error) {
	sentences, err := s.Select(text, k)
	if err != nil {
		return "", err
	}
	return strings.Join(sentences, " "), nil
}

// Select is Summarize without the final join: the chosen sentences,
// trimmed and in source order.
func (s *Summarizer) Select(text string, k int) ([]string, error) {
	selected, doc, err := s.Rank(text, k)
	if err != nil {
		return nil, err
	}

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Index < selected[j].Index
	})

	parts := make([]string, 0, len(selected))
	for _, sc := range selected {
		parts = append(parts, strings.TrimSpace(doc.Sentences[sc.Index].Text))
	}
	return parts, nil
}

// Rank returns the top min(k, scored) sentences of text in rank order,
// together with the segmented document the indices refer to.
func (s *Summarizer) Rank(text string, k int) ([]SentenceScore, *nlp.Document, error) {
	if k <= 0 {
		return nil, nil, toolerr.Newf(toolerr.KindInvalidArgument, "sentence count must be positive, got %d", k)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil, toolerr.New(toolerr.KindEmptyInput, "text is empty")
	}

	doc, err := s.seg.Segment(text)
	if err != nil {
		return nil, nil, toolerr.Wrap(toolerr.KindInternal, "failed to segment text", err)
	}

	freqs, err := KeywordFrequencies(doc)
	if err != nil {
		return nil, nil, err
	}

	ranked := ScoreSentences(doc, freqs)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Index < ranked[j].Index
	})

	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked, doc, nil
}

// KeywordFrequencies counts every keyword token of doc and normalizes the
// counts by the highest one, so the most frequent keyword scores 1.
// Keywords are compared by exact surface text.
func KeywordFrequencies(doc *nlp.Document) (map[string]float64, error) {
	counts := make(map[string]int)
	maxCount := 0
	for _, tok := range doc.Tokens {
		if !tok.IsKeyword() {
			continue
		}
		counts[tok.Text]++
		if counts[tok.Text] > maxCount {
			maxCount = counts[tok.Text]
		}
	}
	if maxCount == 0 {
		return nil, toolerr.New(toolerr.KindEmptyInput, "text contains no keywords")
	}

	freqs := make(map[string]float64, len(counts))
	for word, n := range counts {
		freqs[word] = float64(n) / float64(maxCount)
	}
	return freqs, nil
}

// ScoreSentences sums the normalized frequencies of each sentence's keyword
// tokens. Sentences without keywords are omitted. The result is in document
// order.
func ScoreSentences(doc *nlp.Document, freqs map[string]float64) []SentenceScore {
	scores := make([]SentenceScore, 0, len(doc.Sentences))
	for _, sent := range doc.Sentences {
		var (
			score float64
			hits  int
		)
		for _, tok := range doc.SentenceTokens(sent) {
			if f, ok := freqs[tok.Text]; ok && tok.IsKeyword() {
				score += f
				hits++
			}
		}
		if hits > 0 {
			scores = append(scores, SentenceScore{Index: sent.Index, Score: score})
		}
	}
	return scores
}

// Explain formats ranked scores as one line per sentence.
func Explain(doc *nlp.Document, ranked []SentenceScore) string {
	var b strings.Builder
	for i, sc := range ranked {
		fmt.Fprintf(&b, "%d. [%d] %.3f %s\n", i+1, sc.Index, sc.Score, strings.TrimSpace(doc.Sentences[sc.Index].Text))
	}
	return b.String()
}
