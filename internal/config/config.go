package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type Config struct {
	Port          string `default:"8080"`
	AllowedOrigin string `split_words:"true" default:"http://127.0.0.1:3000"`

	// DatabasePath is the sqlite file. DemoMode switches to the seeded
	// in-memory store instead.
	DatabasePath string `split_words:"true" default:"poissonnerie.db"`
	DemoMode     bool   `split_words:"true"`

	RedisAddr     string `split_words:"true"`
	RedisPassword string `split_words:"true"`
	RedisDB       int    `split_words:"true"`

	AuthSecret            string `split_words:"true"`
	AccessTokenTTLMinutes int    `envconfig:"ACCESS_TOKEN_TTL_MINUTES" default:"480"`

	TaxRatePercent        float64 `split_words:"true" default:"20"`
	ReportCacheTTLSeconds int     `envconfig:"REPORT_CACHE_TTL_SECONDS" default:"300"`

	SettingsPath string `split_words:"true" default:"settings.json"`

	AdminUsername string `split_words:"true" default:"admin"`
	AdminPassword string `split_words:"true" default:"admin"`

	LogLevel string `split_words:"true" default:"info"`
}

// Load reads the optional .env file, then the environment. Every knob has a
// default, so a bare invocation starts a working local instance.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse environment")
	}
	if cfg.AccessTokenTTLMinutes < 1 {
		cfg.AccessTokenTTLMinutes = 480
	}
	if cfg.ReportCacheTTLSeconds < 1 {
		cfg.ReportCacheTTLSeconds = 300
	}
	if cfg.TaxRatePercent <= 0 {
		cfg.TaxRatePercent = 20
	}
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}
