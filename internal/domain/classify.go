package domain

import (
	"strings"
	"time"
)

const (
	DefaultContentMinBytes = 5000
	DefaultShellMinBytes   = 50000
	DefaultShellMarker     = `id="__next"`
)

// Thresholds tune the AI-readability heuristic. The heuristic works on raw
// bytes only: a page counts as having content when it is larger than
// ContentMinBytes and is not a client-rendered shell, or when it is a shell
// but still larger than ShellMinBytes (pre-rendered hybrid pages).
type Thresholds struct {
	ContentMinBytes int
	ShellMinBytes   int
	ShellMarker     string
}

// DefaultThresholds returns the stock heuristic.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ContentMinBytes: DefaultContentMinBytes,
		ShellMinBytes:   DefaultShellMinBytes,
		ShellMarker:     DefaultShellMarker,
	}
}

// Verdict is the reachability classification of one HTTP response.
type Verdict struct {
	Status       Status
	ContentFound bool
	AIReadable   bool
}

// Classify turns a received response into a verdict. Only 2xx is live.
func (t Thresholds) Classify(statusCode int, body string) Verdict {
	status := StatusError
	if statusCode >= 200 && statusCode <= 299 {
		status = StatusLive
	}

	content := t.HasContent(body)
	return Verdict{
		Status:       status,
		ContentFound: content,
		AIReadable:   content && status == StatusLive,
	}
}

// HasContent applies the two-threshold rule to a response body.
func (t Thresholds) HasContent(body string) bool {
	size := len(body)
	shell := t.ShellMarker != "" && strings.Contains(body, t.ShellMarker)
	if shell {
		return size > t.ShellMinBytes
	}
	return size > t.ContentMinBytes
}

// FailedProbe is the result of a probe whose request never completed
// (DNS, connect, timeout, malformed response). The error text is kept verbatim.
func FailedProbe(url string, err error, at time.Time) ProbeResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ProbeResult{
		URL:          url,
		Status:       StatusError,
		ContentFound: false,
		ResponseTime: 0,
		Timestamp:    at,
		Error:        msg,
		AIReadable:   false,
	}
}
