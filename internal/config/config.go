package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	FoodFinderURL  string   `mapstructure:"FOOD_FINDER_URL"`
	FoodFinderCity string   `mapstructure:"FOOD_FINDER_CITY"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	AuthSecret     string   `mapstructure:"AUTH_SECRET"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("FOOD_FINDER_URL", "http://127.0.0.1:5001")
	v.SetDefault("FOOD_FINDER_CITY", "braga-norte")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("FOOD_FINDER_URL")
	v.BindEnv("FOOD_FINDER_CITY")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AUTH_SECRET")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. The food-finder
// service URL must always be present because every discovery call is routed
// through it, and production refuses to start without a signing secret for
// bearer tokens.
func (c *Config) Validate() error {
	if c.FoodFinderURL == "" {
		return fmt.Errorf("FOOD_FINDER_URL is required (point it at the running food-finder service, e.g. http://127.0.0.1:5001)")
	}
	if !strings.HasPrefix(c.FoodFinderURL, "http://") && !strings.HasPrefix(c.FoodFinderURL, "https://") {
		return fmt.Errorf("FOOD_FINDER_URL must be an http(s) URL, got %q", c.FoodFinderURL)
	}
	if c.FoodFinderCity == "" {
		return fmt.Errorf("FOOD_FINDER_CITY is required")
	}
	if c.IsProduction() && c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required in production")
	}
	return nil
}
