package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/utils"
)

const (
	DefaultTimeout       = 15 * time.Second
	DefaultUserAgent     = "AI-Discoverability-Checker/1.0"
	DefaultMaxBodyBytes  = 5 << 20
	DefaultRecordTimeout = 10 * time.Second
)

// ErrInvalidURL is returned by ValidateURL for input that cannot be probed.
var ErrInvalidURL = eris.New("invalid url")

// Recorder persists probe results. Implementations must be safe for
// concurrent use; errors are logged by the prober and otherwise ignored.
type Recorder interface {
	Record(ctx context.Context, r domain.ProbeResult) error
}

// Options configures a Prober. Zero values fall back to defaults.
type Options struct {
	Timeout       time.Duration
	UserAgent     string
	MaxBodyBytes  int64
	Thresholds    domain.Thresholds
	SkipSEO       bool
	RecordTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.Thresholds == (domain.Thresholds{}) {
		o.Thresholds = domain.DefaultThresholds()
	}
	if o.RecordTimeout <= 0 {
		o.RecordTimeout = DefaultRecordTimeout
	}
	return o
}

// Prober performs single-GET reachability probes.
type Prober struct {
	client   *http.Client
	opts     Options
	recorder Recorder
	log      logger.Logger
	now      func() time.Time

	mu       sync.Mutex // guards draining and inflight.Add
	draining bool
	inflight sync.WaitGroup
}

// New builds a Prober. recorder may be nil.
func New(opts Options, recorder Recorder, log logger.Logger) *Prober {
	opts = opts.withDefaults()
	return &Prober{
		client:   newClient(opts.Timeout),
		opts:     opts,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

func newClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			MaxIdleConnsPerHost:   2,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// Options returns the effective options.
func (p *Prober) Options() Options { return p.opts }

// ValidateURL reports whether raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	if raw == "" {
		return eris.Wrap(ErrInvalidURL, "url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return eris.Wrapf(ErrInvalidURL, "parse %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return eris.Wrapf(ErrInvalidURL, "unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return eris.Wrapf(ErrInvalidURL, "%q has no host", raw)
	}
	return nil
}

// Probe issues one GET against rawURL and classifies the outcome.
// It never returns an error: every failure is encoded in the result.
// The recorder, if any, is invoked asynchronously after the result is built.
// A fetch cut short by ctx is returned but not recorded: it says nothing
// about the site.
func (p *Prober) Probe(ctx context.Context, rawURL string) domain.ProbeResult {
	result, err := p.fetch(ctx, rawURL)
	if err != nil && ctx.Err() != nil {
		p.log.Debug("probe interrupted, not recorded",
			logger.String("url", rawURL),
			logger.Error(ctx.Err()))
		return result
	}
	p.record(result)
	return result
}

// fetch returns the transport or read error alongside the failed result so
// Probe can tell an interrupted fetch from a site answering badly.
func (p *Prober) fetch(ctx context.Context, rawURL string) (domain.ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return domain.FailedProbe(rawURL, err, p.now()), err
	}
	req.Header.Set("User-Agent", p.opts.UserAgent)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return domain.FailedProbe(rawURL, err, p.now()), err
	}
	elapsed := time.Since(start)
	defer utils.Close(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.opts.MaxBodyBytes))
	if err != nil {
		err = fmt.Errorf("read body: %w", err)
		return domain.FailedProbe(rawURL, err, p.now()), err
	}
	html := string(body)

	verdict := p.opts.Thresholds.Classify(resp.StatusCode, html)
	result := domain.ProbeResult{
		URL:          rawURL,
		Status:       verdict.Status,
		ContentFound: verdict.ContentFound,
		ResponseTime: elapsed.Milliseconds(),
		Timestamp:    p.now(),
		AIReadable:   verdict.AIReadable,
		HTMLLength:   len(html),
		StatusCode:   resp.StatusCode,
	}
	if verdict.Status != domain.StatusLive {
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	if !p.opts.SkipSEO {
		seo := domain.ScoreMarkup(html)
		result.SEO = &seo
	}
	return result, nil
}

func (p *Prober) record(r domain.ProbeResult) {
	if p.recorder == nil {
		return
	}
	p.mu.Lock()
	if p.draining {
		p.mu.Unlock()
		p.log.Warn("prober draining, result not recorded", logger.String("url", r.URL))
		return
	}
	p.inflight.Add(1)
	p.mu.Unlock()
	go func() {
		defer p.inflight.Done()
		defer func() {
			if rec := recover(); rec != nil {
				p.log.Error("recorder panicked",
					logger.String("url", r.URL),
					logger.String("panic", fmt.Sprint(rec)))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), p.opts.RecordTimeout)
		defer cancel()

		if err := p.recorder.Record(ctx, r); err != nil {
			p.log.Warn("failed to record probe result",
				logger.String("url", r.URL),
				logger.Error(err))
		}
	}()
}

// Wait blocks until the recorder writes started so far have finished.
func (p *Prober) Wait() {
	p.inflight.Wait()
}

// Close stops recording new results and waits for pending writes, after
// which the sink can be closed. Probing keeps working.
func (p *Prober) Close() {
	p.mu.Lock()
	p.draining = true
	p.mu.Unlock()
	p.inflight.Wait()
}
