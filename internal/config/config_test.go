package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Fetcher.PageLimit != 12 {
		t.Errorf("default page limit = %d, want 12", cfg.Fetcher.PageLimit)
	}
	if !cfg.RateLimit.Enabled {
		t.Errorf("rate limiting should default to enabled")
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
fetcher:
  page_limit: 24
alerts:
  exclude_first_floor: true
queries:
  - name: primary
    check_in: "2026-09-29"
    check_out: "2027-03-28"
    primary: true
  - name: minus-3d
    check_in: "2026-09-26"
    check_out: "2027-03-28"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Fetcher.PageLimit != 24 {
		t.Errorf("page limit = %d, want 24", cfg.Fetcher.PageLimit)
	}
	if !cfg.Alerts.ExcludeFirstFloor {
		t.Errorf("exclude_first_floor not applied")
	}

	primary, err := cfg.PrimaryQuery()
	if err != nil {
		t.Fatalf("PrimaryQuery: %v", err)
	}
	if primary.Name != "primary" {
		t.Errorf("primary query = %q, want %q", primary.Name, "primary")
	}
	checkIn, err := primary.CheckInDate()
	if err != nil {
		t.Fatalf("CheckInDate: %v", err)
	}
	if got := checkIn.Format("2006-01-02"); got != "2026-09-29" {
		t.Errorf("check-in = %s, want 2026-09-29", got)
	}
}

func TestPrimaryQueryMissing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Queries = []QueryConfig{{Name: "only-secondary", CheckIn: "2026-09-26", CheckOut: "2027-03-28"}}

	_, err := cfg.PrimaryQuery()
	if !errors.Is(err, ErrNoPrimaryQuery) {
		t.Fatalf("err = %v, want ErrNoPrimaryQuery", err)
	}
}

func TestPrimaryQueryDuplicate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Queries = []QueryConfig{
		{Name: "a", Primary: true},
		{Name: "b", Primary: true},
	}

	if _, err := cfg.PrimaryQuery(); err == nil {
		t.Fatalf("two primary queries must be rejected")
	}
}
