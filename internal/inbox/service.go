package inbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/inboxbrief/internal/instrumentation"
	"github.com/teemow/inboxbrief/internal/logging"
	"github.com/teemow/inboxbrief/internal/mailbody"
	"github.com/teemow/inboxbrief/internal/mailbox"
	"github.com/teemow/inboxbrief/internal/toolerr"
)

// DefaultMaxCount caps how many messages a single request may fetch.
const DefaultMaxCount = 50

// Result is the outcome of LastEmailTexts.
type Result struct {
	Bodies    []string `json:"bodies"`
	Requested int      `json:"requested"`
	Fetched   int      `json:"-"`
	Skipped   int      `json:"skipped"`
}

// Options configures a Service.
type Options struct {
	Fetcher        mailbox.Fetcher
	Providers      mailbox.Providers
	AllowedDomains []string
	MaxCount       int
	Metrics        *instrumentation.Metrics
	Logger         *slog.Logger
}

// Service retrieves the plain-text bodies of the newest messages in a mailbox.
type Service struct {
	fetcher        mailbox.Fetcher
	providers      mailbox.Providers
	allowedDomains []string
	maxCount       int
	metrics        *instrumentation.Metrics
	logger         *slog.Logger
}

// NewService creates a Service. Fetcher is required.
func NewService(opts Options) *Service {
	if opts.Providers == nil {
		opts.Providers = mailbox.NewProviders(mailbox.DefaultProviders())
	}
	if opts.MaxCount <= 0 {
		opts.MaxCount = DefaultMaxCount
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		fetcher:        opts.Fetcher,
		providers:      opts.Providers,
		allowedDomains: opts.AllowedDomains,
		maxCount:       opts.MaxCount,
		metrics:        opts.Metrics,
		logger:         logging.WithOperation(opts.Logger, instrumentation.OperationFetch),
	}
}

// MaxCount returns the per-request message cap.
func (s *Service) MaxCount() int {
	return s.maxCount
}

// LastEmailTexts fetches the newest count messages for identity and returns
// their plain-text bodies, oldest first. Messages without a usable body are
// counted in Skipped rather than returned.
//
// The identity is validated before any network work is done.
func (s *Service) LastEmailTexts(ctx context.Context, identity, secret string, count int) (Result, error) {
	if err := mailbox.ValidateIdentity(identity, s.allowedDomains); err != nil {
		return Result{}, err
	}
	if secret == "" {
		return Result{}, toolerr.New(toolerr.KindInvalidArgument, "secret is required")
	}
	if count < 1 || count > s.maxCount {
		return Result{}, toolerr.Newf(toolerr.KindInvalidArgument,
			"count must be between 1 and %d, got %d", s.maxCount, count)
	}
	prov, err := s.providers.Lookup(identity)
	if err != nil {
		return Result{}, err
	}

	ctx, span := instrumentation.StartMailboxSpan(ctx, prov.Domain, instrumentation.OperationFetch,
		prov.Mailbox, logging.AnonymizeEmail(identity))
	defer span.End()

	logger := s.logger.With(logging.UserHash(identity), logging.Mailbox(prov.Mailbox))

	start := time.Now()
	raws, err := s.fetcher.FetchLatest(ctx, mailbox.Credentials{Identity: identity, Secret: secret}, count)
	s.record(ctx, prov.Domain, instrumentation.OperationFetch, err, time.Since(start))
	if err != nil {
		kind := string(toolerr.KindOf(err))
		instrumentation.FailSpan(span, kind, err)
		logger.Warn("mailbox fetch failed", logging.Kind(kind), logging.Err(err))
		return Result{}, err
	}

	start = time.Now()
	batch, err := mailbody.ExtractBatchReport(raws)
	s.record(ctx, prov.Domain, instrumentation.OperationExtract, err, time.Since(start))
	if err != nil {
		kind := string(toolerr.KindOf(err))
		instrumentation.FailSpan(span, kind, err)
		logger.Warn("body extraction failed", logging.Kind(kind), logging.Err(err))
		return Result{}, err
	}
	s.metrics.RecordBodiesExtracted(ctx, len(batch.Bodies), batch.Skipped)

	instrumentation.SetSpanCounts(span, count, len(batch.Bodies))
	instrumentation.SucceedSpan(span)
	logger.Debug("fetched message bodies",
		logging.Count(len(batch.Bodies)),
		slog.Int("fetched", len(raws)),
		slog.Int("skipped", batch.Skipped))

	return Result{
		Bodies:    batch.Bodies,
		Requested: count,
		Fetched:   len(raws),
		Skipped:   batch.Skipped,
	}, nil
}

func (s *Service) record(ctx context.Context, provider, operation string, err error, d time.Duration) {
	status, kind := logging.StatusSuccess, ""
	if err != nil {
		status, kind = logging.StatusError, string(toolerr.KindOf(err))
	}
	s.metrics.RecordMailboxOperation(ctx, provider, operation, status, kind, d)
}
