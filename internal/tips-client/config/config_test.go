package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tipsctl.yaml")
	data := []byte("base_url: https://tips.example.com/\ntoken: abc\nlive:\n  reconnect: 10s\n  pools: [approved]\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Token != "abc" || cfg.Live.Reconnect != 10*time.Second || len(cfg.Live.Pools) != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("unset fields keep defaults, got timeout %v", cfg.Timeout)
	}
	if got := cfg.WSURL(); got != "wss://tips.example.com/mobile/ws" {
		t.Errorf("unexpected ws url %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFileMissingIsDefault(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != Default().BaseURL {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TIPS_API_URL", "http://api:9000")
	t.Setenv("TIPS_TOKEN", "tok")
	t.Setenv("TIPS_TIMEOUT", "nope")

	cfg := Default()
	cfg.ApplyEnv()
	if cfg.BaseURL != "http://api:9000" || cfg.Token != "tok" {
		t.Fatalf("unexpected %+v", cfg)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("invalid timeout must be ignored, got %v", cfg.Timeout)
	}
	if cfg.WSURL() != "ws://api:9000/mobile/ws" {
		t.Errorf("unexpected ws url %q", cfg.WSURL())
	}
}

func TestValidate(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.BaseURL = "localhost:8080" },
		func(c *Config) { c.Timeout = 0 },
		func(c *Config) { c.Live.Pools = []string{"vip"} },
	}
	for i, mutate := range bad {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
