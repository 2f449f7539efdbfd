package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// MaxForecastDays bounds the forecast horizon a request may ask for.
const MaxForecastDays = 365

type Config struct {
	Env              string        `mapstructure:"ENV"`
	Port             string        `mapstructure:"PORT"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	AutoMigrate      bool          `mapstructure:"AUTO_MIGRATE"`
	AdminKey         string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed      string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	MetricsNamespace string        `mapstructure:"METRICS_NAMESPACE"`

	DependencyTimeout   time.Duration `mapstructure:"DEPENDENCY_TIMEOUT"`
	PricingTimeout      time.Duration `mapstructure:"PRICING_TIMEOUT"`
	SnapshotMaxAge      time.Duration `mapstructure:"SNAPSHOT_MAX_AGE"`
	ForecastDays        int           `mapstructure:"FORECAST_DAYS"`
	ForecastVersion     string        `mapstructure:"FORECAST_VERSION"`
	AdvisoryDedupWindow time.Duration `mapstructure:"ADVISORY_DEDUP_WINDOW"`

	WeatherSource     string        `mapstructure:"WEATHER_SOURCE"`
	WeatherBaseURL    string        `mapstructure:"WEATHER_BASE_URL"`
	WeatherStaleAfter time.Duration `mapstructure:"WEATHER_STALE_AFTER"`
	WeatherCacheTTL   time.Duration `mapstructure:"WEATHER_CACHE_TTL"`
	RedisAddr         string        `mapstructure:"REDIS_ADDR"`

	GeocoderBaseURL   string `mapstructure:"GEOCODER_BASE_URL"`
	GeocoderUserAgent string `mapstructure:"GEOCODER_USER_AGENT"`
	CountryDefault    string `mapstructure:"COUNTRY_DEFAULT"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ADMIN_KEY", "")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("METRICS_NAMESPACE", "hotelops")

	v.SetDefault("DEPENDENCY_TIMEOUT", "3s")
	v.SetDefault("PRICING_TIMEOUT", "10s")
	v.SetDefault("SNAPSHOT_MAX_AGE", "90m")
	v.SetDefault("FORECAST_DAYS", 30)
	v.SetDefault("FORECAST_VERSION", "v1")
	v.SetDefault("ADVISORY_DEDUP_WINDOW", "6h")

	v.SetDefault("WEATHER_SOURCE", "db")
	v.SetDefault("WEATHER_BASE_URL", "https://api.open-meteo.com")
	v.SetDefault("WEATHER_STALE_AFTER", "6h")
	v.SetDefault("WEATHER_CACHE_TTL", "10m")
	v.SetDefault("REDIS_ADDR", "")

	v.SetDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_USER_AGENT", "hotelops-backend")
	v.SetDefault("COUNTRY_DEFAULT", "")
}

func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.DependencyTimeout <= 0 {
		return errors.New("DEPENDENCY_TIMEOUT must be positive")
	}
	if c.PricingTimeout <= 0 {
		return errors.New("PRICING_TIMEOUT must be positive")
	}
	if c.SnapshotMaxAge <= 0 {
		return errors.New("SNAPSHOT_MAX_AGE must be positive")
	}
	if c.AdvisoryDedupWindow <= 0 {
		return errors.New("ADVISORY_DEDUP_WINDOW must be positive")
	}
	if c.ForecastDays <= 0 || c.ForecastDays > MaxForecastDays {
		return errors.New("FORECAST_DAYS must be between 1 and 365")
	}
	switch c.WeatherSource {
	case "db", "open-meteo":
	default:
		return errors.New("WEATHER_SOURCE must be db or open-meteo")
	}
	return nil
}
