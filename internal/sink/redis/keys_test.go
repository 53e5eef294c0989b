package redis

import (
	"testing"
	"time"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"site", SiteKey("abc"), "sitepulse:site:abc"},
		{"checks", ChecksKey("abc"), "sitepulse:checks:abc"},
		{"builds", BuildsKey("abc"), "sitepulse:builds:abc"},
		{"all", AllSitesKey(), "sitepulse:sites:all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestScoreIsMillis(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := score(at); got != float64(at.UnixMilli()) {
		t.Errorf("score() = %v", got)
	}
}
