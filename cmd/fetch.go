package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxbrief/internal/config"
	"github.com/teemow/inboxbrief/internal/mailbody"
	"github.com/teemow/inboxbrief/internal/mailbox"
	"github.com/teemow/inboxbrief/internal/nlp"
	"github.com/teemow/inboxbrief/internal/summarize"
)

// SecretEnvVar holds the mailbox app password for the fetch command.
const SecretEnvVar = config.EnvPrefix + "SECRET"

type fetchOptions struct {
	identity  string
	count     int
	mbox      string
	summarize int
}

func newFetchCmd() *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Print the plain-text bodies of the newest messages",
		Long: `Fetch the newest messages of a mailbox and print their plain-text bodies,
oldest first. Messages without a plain-text body are skipped.

The mailbox password is read from the ` + SecretEnvVar + ` environment variable.
With --mbox, messages are read from a local mbox file instead and no
credentials are needed.`,
		Example: `  ` + SecretEnvVar + `=app-password inboxbrief fetch --identity me@gmail.com --count 5
  inboxbrief fetch --mbox archive.mbox --count 3 --summarize 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runFetch(ctx, cmd.OutOrStdout(), appConfig, opts, os.Getenv(SecretEnvVar))
		},
	}

	cmd.Flags().StringVar(&opts.identity, "identity", "", "Mailbox email address")
	cmd.Flags().IntVar(&opts.count, "count", 1, "Number of most recent messages to fetch")
	cmd.Flags().StringVar(&opts.mbox, "mbox", "", "Read messages from a local mbox file instead of IMAP")
	cmd.Flags().IntVar(&opts.summarize, "summarize", 0, "Print a summary of at most this many sentences instead of each full body")

	return cmd
}

func runFetch(ctx context.Context, out io.Writer, cfg config.Config, opts fetchOptions, secret string) error {
	if opts.summarize < 0 {
		return fmt.Errorf("--summarize must not be negative, got %d", opts.summarize)
	}

	var bodies []string
	switch {
	case opts.mbox != "":
		if opts.count < 1 {
			return fmt.Errorf("--count must be at least 1, got %d", opts.count)
		}
		source := &mailbox.MboxSource{Path: opts.mbox}
		raws, err := source.FetchLatest(ctx, mailbox.Credentials{}, opts.count)
		if err != nil {
			return err
		}
		batch, err := mailbody.ExtractBatchReport(raws)
		if err != nil {
			return err
		}
		bodies = batch.Bodies
	case opts.identity == "":
		return errors.New("--identity or --mbox is required")
	default:
		svc := newInboxService(cfg, nil)
		res, err := svc.LastEmailTexts(ctx, opts.identity, secret, opts.count)
		if err != nil {
			return err
		}
		bodies = res.Bodies
	}

	var summarizer *summarize.Summarizer
	if opts.summarize > 0 {
		seg, err := nlp.NewEnglishSegmenter()
		if err != nil {
			return fmt.Errorf("failed to load sentence segmenter: %w", err)
		}
		summarizer = summarize.New(seg)
	}

	return printBodies(out, bodies, summarizer, opts.summarize)
}

func printBodies(out io.Writer, bodies []string, summarizer *summarize.Summarizer, k int) error {
	for i, body := range bodies {
		if _, err := fmt.Fprintf(out, "--- message %d ---\n", i+1); err != nil {
			return err
		}
		text := body
		if summarizer != nil {
			summary, err := summarizer.Summarize(body, k)
			if err != nil {
				// A message with nothing to summarize should not hide the rest.
				summary = fmt.Sprintf("(no summary: %v)", err)
			}
			text = summary
		}
		if _, err := fmt.Fprintln(out, text); err != nil {
			return err
		}
	}
	return nil
}
