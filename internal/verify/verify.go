package verify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/FranksOps/sift/internal/fingerprint"
	"github.com/FranksOps/sift/internal/metrics"
	"github.com/FranksOps/sift/pkg/httpclient"
	"github.com/FranksOps/sift/pkg/ratelimit"
	"github.com/FranksOps/sift/pkg/useragent"
	"golang.org/x/sync/errgroup"
)

// Outcome classifies one re-check.
type Outcome string

const (
	// OutcomeOK means the URL now loads.
	OutcomeOK Outcome = "ok"
	// OutcomeFailing means the URL still answers with an error status.
	OutcomeFailing Outcome = "failing"
	// OutcomeSoft means a success status carried an error page body.
	OutcomeSoft Outcome = "soft-failure"
	// OutcomeUnreachable means the request itself failed.
	OutcomeUnreachable Outcome = "unreachable"
)

// Result is the re-check verdict for one URL.
type Result struct {
	URL        string
	StatusCode int
	Outcome    Outcome
	Detail     string
	Duration   time.Duration
}

// bodySniffLimit bounds how much of a response is read for soft-failure
// sniffing. Error shells are small; real assets can be huge.
const bodySniffLimit = 512 << 10

// Config parameterizes a Checker.
type Config struct {
	Concurrency       int
	Timeout           time.Duration
	RequestsPerSecond float64
	Jitter            float64
	Fingerprint       fingerprint.Profile
	UserAgents        []string

	Logger *slog.Logger
}

// Checker re-fetches triaged URLs to see which still fail.
type Checker struct {
	cfg       Config
	client    *httpclient.Client
	uas       *useragent.Pool
	limiter   *ratelimit.Limiter
	detectors []SoftDetector
	logger    *slog.Logger
}

// New creates a Checker. Close must be called when done.
func New(cfg Config) (*Checker, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	transport, err := cfg.Fingerprint.Transport()
	if err != nil {
		return nil, fmt.Errorf("setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: 5,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &Checker{
		cfg:       cfg,
		client:    client,
		uas:       useragent.NewPool(cfg.UserAgents),
		limiter:   ratelimit.New(cfg.RequestsPerSecond, cfg.Jitter),
		detectors: DefaultSoftDetectors(),
		logger:    cfg.Logger,
	}, nil
}

// Close releases the checker's rate limiter.
func (c *Checker) Close() {
	c.limiter.Stop()
}

// Check re-fetches every URL with bounded concurrency and returns one
// Result per URL, in input order. It stops early only when the context is
// canceled; individual fetch failures are recorded, not propagated.
func (c *Checker) Check(ctx context.Context, urls []string) ([]Result, error) {
	results := make([]Result, len(urls))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for i, u := range urls {
		g.Go(func() error {
			if err := c.limiter.Wait(gCtx); err != nil {
				return err
			}
			results[i] = c.checkOne(gCtx, u)
			metrics.VerifyChecks.WithLabelValues(string(results[i].Outcome)).Inc()
			c.logger.Debug("verified", "url", u, "outcome", results[i].Outcome, "status", results[i].StatusCode)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Checker) checkOne(ctx context.Context, targetURL string) Result {
	start := time.Now()
	result := Result{URL: targetURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		result.Outcome = OutcomeUnreachable
		result.Detail = err.Error()
		result.Duration = time.Since(start)
		return result
	}
	req.Header.Set("User-Agent", c.uas.Next())
	req.Header.Set("Accept", "*/*")

	resp, err := c.client.Do(req.Context(), req)
	if err != nil {
		result.Outcome = OutcomeUnreachable
		result.Detail = err.Error()
		result.Duration = time.Since(start)
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, bodySniffLimit))
	if err != nil {
		body = nil // sniffing is best-effort
	}

	result.StatusCode = resp.StatusCode
	result.Duration = time.Since(start)

	switch {
	case resp.StatusCode >= 400:
		result.Outcome = OutcomeFailing
		result.Detail = resp.Status
	case isHTML(resp.Header.Get("Content-Type")):
		if detected, reason := sniffSoftFailure(body, c.detectors); detected {
			result.Outcome = OutcomeSoft
			result.Detail = reason
		} else {
			result.Outcome = OutcomeOK
		}
	default:
		result.Outcome = OutcomeOK
	}
	return result
}

func isHTML(contentType string) bool {
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml+xml")
}
