package nlp

// Token is a single word or punctuation mark of a Document.
type Token struct {
	Text    string // Surface text, exactly as it appears in the source
	Start   int    // Byte offset of the token in the source text
	IsStop  bool   // Token is a stop word
	IsPunct bool   // Token consists only of punctuation
}

// IsKeyword reports whether the token contributes to keyword salience.
func (t Token) IsKeyword() bool {
	return !t.IsStop && !t.IsPunct
}

// Sentence is a contiguous span of the source text.
// Index is the stable position of the sentence in document order.
type Sentence struct {
	Index      int
	Start      int    // Byte offset of the first character
	End        int    // Byte offset one past the last character
	Text       string // Source text of the sentence, whitespace trimmed
	FirstToken int    // Index of the sentence's first token in Document.Tokens
	LastToken  int    // One past the index of the sentence's last token
}

// Document is the segmentation of a text into tokens and sentences.
type Document struct {
	Text      string
	Tokens    []Token
	Sentences []Sentence
}

// SentenceTokens returns the tokens belonging to s.
func (d *Document) SentenceTokens(s Sentence) []Token {
	if s.FirstToken < 0 || s.LastToken > len(d.Tokens) || s.FirstToken >= s.LastToken {
		return nil
	}
	return d.Tokens[s.FirstToken:s.LastToken]
}

// Segmenter splits text into annotated tokens and sentences.
//
// Implementations must be safe for concurrent use.
type Segmenter interface {
	Segment(text string) (*Document, error)
}

// SegmenterFunc adapts a plain function to the Segmenter interface.
type SegmenterFunc func(text string) (*Document, error)

// Segment calls f(text).
func (f SegmenterFunc) Segment(text string) (*Document, error) {
	return f(text)
}
