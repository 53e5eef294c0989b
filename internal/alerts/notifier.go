// Package alerts posts fleet regressions and domain registration problems
// to a Slack-compatible incoming webhook.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/sitepulse/internal/domain"
	"github.com/MrSnakeDoc/sitepulse/internal/logger"
	"github.com/MrSnakeDoc/sitepulse/internal/utils"
	"github.com/MrSnakeDoc/sitepulse/internal/version"
)

const (
	// DefaultCooldown is the minimum delay before the same alert is sent again
	DefaultCooldown = 24 * time.Hour
	defaultTimeout  = 10 * time.Second
)

// Roster returns the current list of monitored sites
type Roster interface {
	Sites() []domain.Site
}

// Notifier implements scheduler.RunObserver
type Notifier struct {
	url      string
	client   *http.Client
	roster   Roster
	logger   logger.Logger
	cooldown time.Duration
	now      func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time
}

// NewNotifier creates a notifier posting to webhookURL. An empty URL disables delivery.
func NewNotifier(webhookURL string, roster Roster, log logger.Logger) *Notifier {
	return &Notifier{
		url:      webhookURL,
		client:   &http.Client{Timeout: defaultTimeout},
		roster:   roster,
		logger:   log,
		cooldown: DefaultCooldown,
		now:      time.Now,
		sent:     make(map[string]time.Time),
	}
}

// Enabled reports whether a webhook URL is configured
func (n *Notifier) Enabled() bool {
	return n.url != ""
}

// AfterRun compares the run with the previous observations and posts what changed for the worse.
func (n *Notifier) AfterRun(ctx context.Context, before map[string]domain.Observation, report domain.FleetReport) {
	if !n.Enabled() {
		return
	}

	lines := n.regressions(before, report)

	after := make(map[string]domain.Observation, len(report.Results))
	for k, v := range before {
		after[k] = v
	}
	for _, r := range report.Results {
		after[r.URL] = after[r.URL].Merge(domain.ObservationFromProbe(r.ProbeResult))
	}
	views := domain.Join(n.roster.Sites(), after)
	lines = append(lines, n.domainLines(domain.EvaluateDomains(views, n.now()))...)

	if len(lines) == 0 {
		return
	}

	text := "*sitepulse*\n" + strings.Join(lines, "\n")
	if err := n.post(ctx, text); err != nil {
		n.logger.Error("alert delivery failed", logger.Error(err), logger.Int("alerts", len(lines)))
		return
	}
	n.logger.Info("alerts delivered", logger.Int("alerts", len(lines)))
}

func (n *Notifier) regressions(before map[string]domain.Observation, report domain.FleetReport) []string {
	var lines []string
	for _, r := range report.Results {
		key := "regression:" + r.URL
		prev, ok := before[r.URL]

		if r.Status != domain.StatusError {
			// back up, a later failure is news again
			n.forget(key)
			continue
		}
		if !ok || prev.Status != domain.StatusLive {
			continue
		}
		if !n.shouldSend(key) {
			continue
		}
		reason := r.Error
		if reason == "" {
			reason = "unreachable"
		}
		lines = append(lines, fmt.Sprintf("[CRITICAL] %s (%s) went down: %s", r.Name, r.URL, reason))
	}
	return lines
}

func (n *Notifier) domainLines(alerts domain.DomainAlerts) []string {
	var lines []string
	for _, a := range alerts.Critical {
		if !n.shouldSend("domain:" + a.URL) {
			continue
		}
		msg := fmt.Sprintf("[CRITICAL] %s (%s): %s", a.Name, a.Domain, a.Reason)
		if a.DaysLeft != nil {
			msg += fmt.Sprintf(" (%d days left)", *a.DaysLeft)
		}
		lines = append(lines, msg)
	}
	return lines
}

func (n *Notifier) shouldSend(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if last, ok := n.sent[key]; ok && now.Sub(last) < n.cooldown {
		return false
	}
	n.sent[key] = now
	return true
}

func (n *Notifier) forget(key string) {
	n.mu.Lock()
	delete(n.sent, key)
	n.mu.Unlock()
}

func (n *Notifier) post(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgentSuffix())

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
