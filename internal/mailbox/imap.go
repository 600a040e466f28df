package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/teemow/inboxbrief/internal/logging"
	"github.com/teemow/inboxbrief/internal/toolerr"
)

const (
	DefaultDialTimeout    = 15 * time.Second
	DefaultMaxRetries     = 2
	DefaultInitialBackoff = 500 * time.Millisecond
)

// IMAPOptions configures an IMAPFetcher.
type IMAPOptions struct {
	Providers          Providers
	DialTimeout        time.Duration
	MaxRetries         uint // Additional attempts after the first
	InitialBackoff     time.Duration
	InsecureSkipVerify bool
	Logger             logging.Logger
}

// IMAPFetcher reads the latest messages of a mailbox over IMAPS.
// Sessions are read-only and fetch with BODY.PEEK, so no flags change.
type IMAPFetcher struct {
	opts   IMAPOptions
	logger logging.Logger
	dial   func(ctx context.Context, p Provider) (net.Conn, error)
}

// NewIMAPFetcher creates a fetcher, filling unset options with defaults.
func NewIMAPFetcher(opts IMAPOptions) *IMAPFetcher {
	if opts.Providers == nil {
		opts.Providers = NewProviders(DefaultProviders())
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}
	f := &IMAPFetcher{
		opts:   opts,
		logger: logging.OrDefault(opts.Logger),
	}
	f.dial = f.dialTLS
	return f
}

// FetchLatest implements Fetcher. Transport failures are retried with
// exponential backoff; rejected logins and server refusals are not.
func (f *IMAPFetcher) FetchLatest(ctx context.Context, creds Credentials, count int) ([][]byte, error) {
	if count <= 0 {
		return nil, toolerr.Newf(toolerr.KindInvalidArgument, "count must be at least 1, got %d", count)
	}
	prov, err := f.opts.Providers.Lookup(creds.Identity)
	if err != nil {
		return nil, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.opts.InitialBackoff

	attempt := 0
	op := func() ([][]byte, error) {
		attempt++
		msgs, err := f.fetchOnce(ctx, prov, creds, count)
		if err == nil {
			return msgs, nil
		}
		var perm *backoff.PermanentError
		if errors.As(err, &perm) || !toolerr.Retryable(err) {
			return nil, backoff.Permanent(err)
		}
		f.logger.Warn("mailbox fetch attempt failed",
			logging.Operation("mailbox.fetch"),
			slog.Int("attempt", attempt),
			logging.Err(err))
		return nil, err
	}

	msgs, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(f.opts.MaxRetries+1))
	if err != nil {
		if toolerr.KindOf(err) == toolerr.KindInternal {
			err = toolerr.Wrap(toolerr.KindTransport, "mailbox fetch interrupted", err)
		}
		return nil, err
	}
	return msgs, nil
}

func (f *IMAPFetcher) fetchOnce(ctx context.Context, prov Provider, creds Credentials, count int) ([][]byte, error) {
	conn, err := f.dial(ctx, prov)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.KindTransport, fmt.Sprintf("failed to connect to %s", prov.Address()), err)
	}

	client := imapclient.New(conn, &imapclient.Options{})
	stopClose := context.AfterFunc(ctx, func() {
		_ = client.Close()
	})
	defer func() {
		stopClose()
		_ = client.Close()
	}()

	if err := client.Login(creds.Identity, creds.Secret).Wait(); err != nil {
		if isServerRefusal(err) {
			return nil, toolerr.Wrap(toolerr.KindAuth, "login rejected", err)
		}
		return nil, toolerr.Wrap(toolerr.KindTransport, "login failed", err)
	}

	sel, err := client.Select(prov.Mailbox, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		if isServerRefusal(err) {
			return nil, backoff.Permanent(toolerr.Wrap(toolerr.KindTransport, fmt.Sprintf("cannot open mailbox %s", prov.Mailbox), err))
		}
		return nil, toolerr.Wrap(toolerr.KindTransport, fmt.Sprintf("select %s failed", prov.Mailbox), err)
	}

	from, to, ok := latestRange(sel.NumMessages, count)
	if !ok {
		f.logout(client)
		return [][]byte{}, nil
	}

	msgs, err := fetchRange(client, from, to)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, backoff.Permanent(toolerr.Wrap(toolerr.KindTransport, "mailbox fetch cancelled", ctxErr))
		}
		return nil, err
	}

	f.logout(client)
	f.logger.Debug("fetched messages",
		logging.Operation("mailbox.fetch"),
		logging.Mailbox(prov.Mailbox),
		logging.Count(len(msgs)))
	return msgs, nil
}

// fetchRange returns the full bodies of messages from..to in sequence order.
func fetchRange(client *imapclient.Client, from, to uint32) ([][]byte, error) {
	var seqSet imap.SeqSet
	seqSet.AddRange(from, to)

	fetchCmd := client.Fetch(seqSet, &imap.FetchOptions{
		BodySection: []*imap.FetchItemBodySection{{Peek: true}},
	})

	slots := make([][]byte, to-from+1)
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		for {
			item := msg.Next()
			if item == nil {
				break
			}
			body, ok := item.(imapclient.FetchItemDataBodySection)
			if !ok || body.Literal == nil {
				continue
			}
			raw, err := io.ReadAll(body.Literal)
			if err != nil {
				_ = fetchCmd.Close()
				return nil, toolerr.Wrap(toolerr.KindTransport, fmt.Sprintf("failed to read message %d", msg.SeqNum), err)
			}
			if msg.SeqNum >= from && msg.SeqNum <= to {
				slots[msg.SeqNum-from] = raw
			}
		}
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, toolerr.Wrap(toolerr.KindTransport, "fetch failed", err)
	}

	msgs := make([][]byte, 0, len(slots))
	for _, raw := range slots {
		if raw != nil {
			msgs = append(msgs, raw)
		}
	}
	return msgs, nil
}

func (f *IMAPFetcher) logout(client *imapclient.Client) {
	if err := client.Logout().Wait(); err != nil {
		f.logger.Debug("imap logout failed", logging.Err(err))
	}
}

func (f *IMAPFetcher) dialTLS(ctx context.Context, p Provider) (net.Conn, error) {
	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: f.opts.DialTimeout},
		Config: &tls.Config{
			ServerName:         p.Host,
			InsecureSkipVerify: f.opts.InsecureSkipVerify, //nolint:gosec // opt-in for test servers
			MinVersion:         tls.VersionTLS12,
		},
	}
	return d.DialContext(ctx, "tcp", p.Address())
}

// isServerRefusal reports whether err is a tagged NO or BAD response.
func isServerRefusal(err error) bool {
	var imapErr *imap.Error
	return errors.As(err, &imapErr)
}
