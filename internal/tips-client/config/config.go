package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config do tipsctl (arquivo YAML + sobrescritas por ambiente)
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
	Verbose bool          `yaml:"verbose"`

	Live LiveConfig `yaml:"live"`
}

type LiveConfig struct {
	URL       string        `yaml:"url"` // vazio = derivado de base_url
	Pools     []string      `yaml:"pools"`
	Reconnect time.Duration `yaml:"reconnect"`
}

func Default() Config {
	return Config{
		BaseURL: "http://localhost:8080",
		Timeout: 10 * time.Second,
		Live: LiveConfig{
			Pools:     []string{"approved", "training"},
			Reconnect: 3 * time.Second,
		},
	}
}

// LoadFile lê o YAML por cima dos defaults; arquivo ausente não é erro
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) ApplyEnv() {
	if v := os.Getenv("TIPS_API_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("TIPS_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("TIPS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	if v := os.Getenv("TIPS_WS_URL"); v != "" {
		c.Live.URL = v
	}
}

func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Live.Reconnect <= 0 {
		return errors.New("live.reconnect must be positive")
	}
	for _, p := range c.Live.Pools {
		if p != "approved" && p != "training" {
			return fmt.Errorf("live.pools: unknown pool %q", p)
		}
	}
	return nil
}

// WSURL devolve o endereço de /mobile/ws
func (c Config) WSURL() string {
	if c.Live.URL != "" {
		return c.Live.URL
	}
	base := strings.TrimRight(c.BaseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/mobile/ws"
}
