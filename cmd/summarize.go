package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxbrief/internal/nlp"
	"github.com/teemow/inboxbrief/internal/summarize"
)

func newSummarizeCmd() *cobra.Command {
	var (
		sentences int
		explain   bool
	)

	cmd := &cobra.Command{
		Use:   "summarize [file|-]",
		Short: "Summarize a text file or standard input",
		Long: `Print an extractive summary of a text: the sentences with the highest
aggregate keyword frequency, in their original order.

Reads standard input when no file is given or the file is "-".
With --explain, the selected sentences are listed with their index and
score in rank order instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("sentences") {
				sentences = appConfig.Summarizer.DefaultSentences
			}
			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return runSummarize(cmd.OutOrStdout(), text, sentences, explain)
		},
	}

	cmd.Flags().IntVarP(&sentences, "sentences", "n", 3, "Maximum number of sentences in the summary")
	cmd.Flags().BoolVar(&explain, "explain", false, "Show sentence indices and scores")

	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(b), nil
}

func runSummarize(out io.Writer, text string, sentences int, explain bool) error {
	seg, err := nlp.NewEnglishSegmenter()
	if err != nil {
		return fmt.Errorf("failed to load sentence segmenter: %w", err)
	}
	s := summarize.New(seg)

	if explain {
		ranked, doc, err := s.Rank(text, sentences)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, summarize.Explain(doc, ranked))
		return err
	}

	summary, err := s.Summarize(text, sentences)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, summary)
	return err
}
