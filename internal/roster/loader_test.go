package roster

import (
	"os"
	"path/filepath"
	"testing"
)

const validRoster = `---
sites:
  - name: Christopher J Bradley
    url: https://christopherjbradley.com
    ecosystem: hub
    priority: HIGH
    status: deploying
    framework: Astro
    next_action: Fix DNS typo, verify
    domain:
      registered: true
      registrar: Name.com
      expiration_date: 2026-11-02
      auto_renew: true
  - name: The Citizens Compass
    url: https://thecitizenscompass.com
    ecosystem: art-of-citizenship
    priority: LOW
    status: live
    ai_readable: true
`

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sites.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	loader := NewLoader(writeRoster(t, validRoster))
	sites, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(sites) != 2 {
		t.Fatalf("Load() returned %d sites, want 2", len(sites))
	}
	if sites[0].Name != "Christopher J Bradley" || sites[1].Name != "The Citizens Compass" {
		t.Errorf("Load() did not preserve file order: %q, %q", sites[0].Name, sites[1].Name)
	}
	if sites[0].Domain == nil || sites[0].Domain.ExpirationDate == nil {
		t.Fatal("Load() lost domain info")
	}
	if got := sites[0].Domain.ExpirationDate.Format("2006-01-02"); got != "2026-11-02" {
		t.Errorf("ExpirationDate = %s", got)
	}
	if !sites[1].InitialAIReadable {
		t.Error("ai_readable placeholder not mapped")
	}
}

func TestLoaderLoadExpandsEnv(t *testing.T) {
	t.Setenv("SITEPULSE_TEST_HOST", "staging.example.com")
	loader := NewLoader(writeRoster(t, `
sites:
  - name: Staging
    url: https://${SITEPULSE_TEST_HOST}
`))
	sites, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if sites[0].URL != "https://staging.example.com" {
		t.Errorf("URL = %q", sites[0].URL)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	loader := NewLoader("/nonexistent/path/sites.yaml")
	if _, err := loader.Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestLoaderLoadInvalidYAML(t *testing.T) {
	loader := NewLoader(writeRoster(t, "sites: [unclosed"))
	if _, err := loader.Load(); err == nil {
		t.Error("Load() with invalid yaml should return error")
	}
}
