package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentenceTokens_OutOfRange(t *testing.T) {
	doc := &Document{Tokens: []Token{{Text: "a"}, {Text: "b"}}}

	assert.Nil(t, doc.SentenceTokens(Sentence{FirstToken: 1, LastToken: 1}))
	assert.Nil(t, doc.SentenceTokens(Sentence{FirstToken: 0, LastToken: 3}))
	assert.Len(t, doc.SentenceTokens(Sentence{FirstToken: 0, LastToken: 2}), 2)
}

func TestSegmenterFunc(t *testing.T) {
	called := false
	var seg Segmenter = SegmenterFunc(func(text string) (*Document, error) {
		called = true
		return &Document{Text: text}, nil
	})

	doc, err := seg.Segment("x")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "x", doc.Text)
}
