package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`

	ORSAPIKey       string        `mapstructure:"ORS_API_KEY"`
	HereAPIKey      string        `mapstructure:"HERE_API_KEY"`
	TomTomAPIKey    string        `mapstructure:"TOMTOM_API_KEY"`
	GoogleAPIKey    string        `mapstructure:"GOOGLE_MAPS_API_KEY"`
	ProviderTimeout time.Duration `mapstructure:"PROVIDER_TIMEOUT"`
	RouteCacheTTL   time.Duration `mapstructure:"ROUTE_CACHE_TTL"`

	ScanWorkers      int           `mapstructure:"SCAN_WORKERS"`
	MaxGapDistanceKm float64       `mapstructure:"MAX_GAP_DISTANCE_KM"`
	TopGaps          int           `mapstructure:"TOP_GAPS"`
	FreeDayHorizon   int           `mapstructure:"FREE_DAY_HORIZON_DAYS"`
	FreeDaysWanted   int           `mapstructure:"FREE_DAYS_WANTED"`
	IgnorePending    bool          `mapstructure:"IGNORE_PENDING"`
	SnapshotTTL      time.Duration `mapstructure:"SNAPSHOT_TTL"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("PROVIDER_TIMEOUT", "10s")
	v.SetDefault("ROUTE_CACHE_TTL", "24h")
	v.SetDefault("SCAN_WORKERS", 8)
	v.SetDefault("MAX_GAP_DISTANCE_KM", 200)
	v.SetDefault("TOP_GAPS", 5)
	v.SetDefault("FREE_DAY_HORIZON_DAYS", 30)
	v.SetDefault("FREE_DAYS_WANTED", 5)
	v.SetDefault("IGNORE_PENDING", false)
	v.SetDefault("SNAPSHOT_TTL", "5m")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
