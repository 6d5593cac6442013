// blog/config.go
package blog

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is the full environment surface. Every field can be overridden with
// a BLOG_-prefixed variable, e.g. BLOG_DATABASE_URL or BLOG_CACHE_TTL.
type Config struct {
	DatabaseURL string        `koanf:"database_url"`
	Addr        string        `koanf:"addr"`
	PageSize    int           `koanf:"page_size"`
	CacheTTL    time.Duration `koanf:"cache_ttl"`
	MediaRoot   string        `koanf:"media_root"`
	LogLevel    string        `koanf:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Addr:      ":8080",
		PageSize:  DefaultPageSize,
		CacheTTL:  20 * time.Second,
		MediaRoot: "media",
		LogLevel:  "info",
	}
}

// LoadConfig layers BLOG_* environment variables over the defaults.
func LoadConfig() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	err := k.Load(env.Provider("BLOG_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "BLOG_"))
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = DefaultPageSize
	}
	return cfg, nil
}
