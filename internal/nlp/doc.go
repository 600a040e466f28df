// Package nlp provides the text segmentation engine used by the summarizer.
//
// A Segmenter turns text into a Document: an ordered token stream, where each
// token carries stop-word and punctuation flags, and an ordered sentence
// stream, where each sentence knows its byte span and its token range.
//
// The engine is an explicit dependency. Construct it once at startup and pass
// it to the components that need it:
//
//	seg, err := nlp.NewEnglishSegmenter()
//	if err != nil {
//	    return err
//	}
//	summarizer := summarize.New(seg)
package nlp
