// Package summarize implements frequency-based extractive summarization.
//
// Keywords are tokens that are neither stop words nor punctuation. Each
// keyword's count is normalized by the most frequent keyword's count and a
// sentence scores the sum of its keywords' normalized frequencies. The top
// scoring sentences are returned verbatim, in the order they appear in the
// source.
package summarize
