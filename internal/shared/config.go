package shared

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type HTTPConfig struct {
	Addr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr    string        `env:"METRICS_ADDR"` // empty: /metrics only on the API listener
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"45s"`
}

type DBConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3"` // mysql | sqlite3
	// e.g. root:root@tcp(localhost:3306)/rentcomps?parseTime=true&charset=utf8mb4,utf8&loc=UTC
	DSN    string `env:"DB_DSN" envDefault:"file:rentcomps.db?_busy_timeout=5000"`
}

type RedisConfig struct {
	Addr      string        `env:"REDIS_ADDR"` // empty disables caching
	Password  string        `env:"REDIS_PASSWORD"`
	DB        int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"15m"`
	BundleTTL time.Duration `env:"BUNDLE_TTL" envDefault:"30m"`
}

type SourcesConfig struct {
	Timeout        time.Duration `env:"SOURCE_TIMEOUT" envDefault:"12s"`
	RPS            int           `env:"SOURCE_RPS" envDefault:"4"`
	Parallel       int           `env:"SOURCE_PARALLEL" envDefault:"4"`
	UserAgent      string        `env:"SOURCE_USER_AGENT" envDefault:"Mozilla/5.0 (compatible; rentcomps/1.0)"`
	PortalsEnabled bool          `env:"PORTALS_ENABLED" envDefault:"true"`
	RentCastKey    string        `env:"RENTCAST_API_KEY"`
	RentCastBase   string        `env:"RENTCAST_BASE_URL" envDefault:"https://api.rentcast.io/v1"`
	NumbeoEnabled  bool          `env:"NUMBEO_ENABLED" envDefault:"true"`
	NumbeoBase     string        `env:"NUMBEO_BASE_URL" envDefault:"https://www.numbeo.com"`
	MinUsefulComps int           `env:"MIN_USEFUL_COMPS" envDefault:"5"`
}

type NarrativeConfig struct {
	BaseURL          string        `env:"NARRATIVE_BASE_URL" envDefault:"https://api.anthropic.com"`
	APIKey           string        `env:"NARRATIVE_API_KEY"` // empty: deterministic narrative only
	Model            string        `env:"NARRATIVE_MODEL" envDefault:"claude-3-5-haiku-latest"`
	MaxTokens        int           `env:"NARRATIVE_MAX_TOKENS" envDefault:"1024"`
	Timeout          time.Duration `env:"NARRATIVE_TIMEOUT" envDefault:"30s"`
	BreakerThreshold int           `env:"NARRATIVE_BREAKER_THRESHOLD" envDefault:"3"`
	BreakerCooldown  time.Duration `env:"NARRATIVE_BREAKER_COOLDOWN" envDefault:"60s"`
}

type GeocoderConfig struct {
	Enabled   bool   `env:"GEOCODER_ENABLED" envDefault:"true"`
	BaseURL   string `env:"GEOCODER_BASE_URL" envDefault:"https://nominatim.openstreetmap.org"`
	UserAgent string `env:"GEOCODER_USER_AGENT" envDefault:"rentcomps/1.0"`
	RPS       int    `env:"GEOCODER_RPS" envDefault:"1"`
}

type EngineConfig struct {
	DefaultRadiusKm float64 `env:"DEFAULT_RADIUS_KM" envDefault:"3"`
	NeutralKm       float64 `env:"NEUTRAL_DISTANCE_KM" envDefault:"2"`
	PlaceholderDOM  float64 `env:"PLACEHOLDER_DOM" envDefault:"30"`
	PanelSize       int     `env:"SYNTHETIC_PANEL_SIZE" envDefault:"12"`
	Seed            int64   `env:"SYNTHETIC_SEED" envDefault:"0"` // 0 seeds from the clock
}

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"prod"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	HTTP      HTTPConfig
	DB        DBConfig
	Redis     RedisConfig
	Sources   SourcesConfig
	Narrative NarrativeConfig
	Geocoder  GeocoderConfig
	Engine    EngineConfig
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	if c.Sources.RentCastKey == "" {
		log.Warn().Msg("RENTCAST_API_KEY is empty; US comps come from the fallback panel")
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.DB.Driver {
	case "mysql", "sqlite3":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql or sqlite3, got %q", c.DB.Driver)
	}
	if c.Sources.MinUsefulComps < 0 {
		return fmt.Errorf("MIN_USEFUL_COMPS must be >= 0")
	}
	if c.Engine.DefaultRadiusKm <= 0 || c.Engine.DefaultRadiusKm > 50 {
		return fmt.Errorf("DEFAULT_RADIUS_KM must be within (0, 50]")
	}
	if c.Engine.PanelSize <= 0 {
		return fmt.Errorf("SYNTHETIC_PANEL_SIZE must be > 0")
	}
	return nil
}
