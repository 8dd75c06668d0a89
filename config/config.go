// File: /config/config.go
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LateSamplePolicy decides what happens to samples ingested after a ride was closed.
type LateSamplePolicy string

const (
	// LateSamplesAccept stores late samples without touching the closed ride.
	LateSamplesAccept LateSamplePolicy = "accept"
	// LateSamplesReject refuses samples for rides that are no longer active.
	LateSamplesReject LateSamplePolicy = "reject"
	// LateSamplesReaggregate stores late samples and recomputes the ride results.
	LateSamplesReaggregate LateSamplePolicy = "reaggregate"
)

type Config struct {
	Port           string
	Environment    string
	DatabaseDriver string
	DatabaseURL    string
	DBLogLevel     string
	JWTSecret      string

	RateLimitPerMinute int
	RateLimitBurst     int

	Telemetry TelemetryConfig

	// Email Configuration
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	FromEmail        string
	FromName         string
	RideReportEmails bool
}

type TelemetryConfig struct {
	MaxBatchSize           int
	LateSamplePolicy       LateSamplePolicy
	ThresholdsFile         string
	StaleRideAfter         time.Duration // zero or negative disables the stale ride sweep
	StaleRideSweepInterval time.Duration
}

func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("DATABASE_DRIVER", "mysql")
	v.SetDefault("DATABASE_URL", "user:password@tcp(localhost:3306)/motocosmos?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("JWT_SECRET", "your-secret-key")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.SetDefault("TELEMETRY_MAX_BATCH_SIZE", 1000)
	v.SetDefault("TELEMETRY_LATE_SAMPLE_POLICY", string(LateSamplesAccept))
	v.SetDefault("TELEMETRY_THRESHOLDS_FILE", "")
	v.SetDefault("STALE_RIDE_AFTER", "6h")
	v.SetDefault("STALE_RIDE_SWEEP_INTERVAL", "15m")

	v.SetDefault("SMTP_HOST", "sandbox.smtp.mailtrap.io")
	v.SetDefault("SMTP_PORT", 2525)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("FROM_EMAIL", "noreply@motocosmos.com")
	v.SetDefault("FROM_NAME", "MotoCosmos")
	v.SetDefault("RIDE_REPORT_EMAILS", false)

	return &Config{
		Port:               v.GetString("PORT"),
		Environment:        v.GetString("ENVIRONMENT"),
		DatabaseDriver:     strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		DBLogLevel:         v.GetString("DB_LOG_LEVEL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),

		Telemetry: TelemetryConfig{
			MaxBatchSize:           v.GetInt("TELEMETRY_MAX_BATCH_SIZE"),
			LateSamplePolicy:       ParseLateSamplePolicy(v.GetString("TELEMETRY_LATE_SAMPLE_POLICY")),
			ThresholdsFile:         v.GetString("TELEMETRY_THRESHOLDS_FILE"),
			StaleRideAfter:         v.GetDuration("STALE_RIDE_AFTER"),
			StaleRideSweepInterval: v.GetDuration("STALE_RIDE_SWEEP_INTERVAL"),
		},

		SMTPHost:         v.GetString("SMTP_HOST"),
		SMTPPort:         v.GetInt("SMTP_PORT"),
		SMTPUsername:     v.GetString("SMTP_USERNAME"),
		SMTPPassword:     v.GetString("SMTP_PASSWORD"),
		FromEmail:        v.GetString("FROM_EMAIL"),
		FromName:         v.GetString("FROM_NAME"),
		RideReportEmails: v.GetBool("RIDE_REPORT_EMAILS"),
	}
}

// ParseLateSamplePolicy maps a configured value onto a known policy, falling back to accept.
func ParseLateSamplePolicy(value string) LateSamplePolicy {
	switch policy := LateSamplePolicy(strings.ToLower(strings.TrimSpace(value))); policy {
	case LateSamplesAccept, LateSamplesReject, LateSamplesReaggregate:
		return policy
	case "":
		return LateSamplesAccept
	default:
		slog.Warn("Unknown late sample policy, using accept", "value", value)
		return LateSamplesAccept
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
