package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Redis      RedisConfig
	Sync       SyncConfig
	Scheduler  SchedulerConfig
	Simulation SimulationConfig
	Telemetry  TelemetryConfig
	Dashboard  DashboardConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

// IsProduction reports whether the app runs in production
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// SyncConfig holds bulk stock sync settings
type SyncConfig struct {
	Concurrency      int      // 0 = one worker per target
	DefaultTargets   []string // marketplaces used when a run names none
	RunLockBackend   string   // memory, redis
	RunLockTTL       time.Duration
	SubscriberBuffer int
	UnitTimeout      time.Duration
}

// SchedulerConfig holds order pull scheduler configuration
type SchedulerConfig struct {
	Enabled           bool
	PullOnStart       bool
	PullInterval      time.Duration
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	MaxHistory        int
}

// SimulationConfig holds the behavior of the simulated marketplace clients
type SimulationConfig struct {
	Enabled      bool
	Seed         uint64
	Latency      time.Duration
	FailureRates map[string]float64 // keyed by marketplace id, missing entries use the defaults
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool          // Whether to enable OpenTelemetry
	CollectorEndpoint string        // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64       // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string        // Service name for traces and metrics
	Insecure          bool          // Use insecure (non-TLS) connection (development only)
	ExportInterval    time.Duration // Metrics export interval
}

// DashboardConfig holds dashboard settings
type DashboardConfig struct {
	LowStockThreshold int
	Timezone          string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MSYNC_ prefix (e.g., MSYNC_SYNC_CONCURRENCY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("MSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	failureRates, err := floatMap(v.GetStringMap("simulation.failure_rates"))
	if err != nil {
		return nil, fmt.Errorf("simulation.failure_rates: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Sync: SyncConfig{
			Concurrency:      v.GetInt("sync.concurrency"),
			DefaultTargets:   v.GetStringSlice("sync.default_targets"),
			RunLockBackend:   v.GetString("sync.run_lock_backend"),
			RunLockTTL:       v.GetDuration("sync.run_lock_ttl"),
			SubscriberBuffer: v.GetInt("sync.subscriber_buffer"),
			UnitTimeout:      v.GetDuration("sync.unit_timeout"),
		},
		Scheduler: SchedulerConfig{
			Enabled:           v.GetBool("scheduler.enabled"),
			PullOnStart:       v.GetBool("scheduler.pull_on_start"),
			PullInterval:      v.GetDuration("scheduler.pull_interval"),
			MaxConcurrentJobs: v.GetInt("scheduler.max_concurrent_jobs"),
			JobTimeout:        v.GetDuration("scheduler.job_timeout"),
			RetryAttempts:     v.GetInt("scheduler.retry_attempts"),
			RetryDelay:        v.GetDuration("scheduler.retry_delay"),
			MaxHistory:        v.GetInt("scheduler.max_history"),
		},
		Simulation: SimulationConfig{
			Enabled:      !v.IsSet("simulation.enabled") || v.GetBool("simulation.enabled"),
			Seed:         v.GetUint64("simulation.seed"),
			Latency:      v.GetDuration("simulation.latency"),
			FailureRates: failureRates,
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
		},
		Dashboard: DashboardConfig{
			LowStockThreshold: v.GetInt("dashboard.low_stock_threshold"),
			Timezone:          v.GetString("dashboard.timezone"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func floatMap(raw map[string]any) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for k, val := range raw {
		f, err := cast.ToFloat64E(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[strings.ToLower(k)] = f
	}
	return out, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "marketsync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// Event streams stay open, so there is no write timeout by default
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	// An empty origin list allows no cross-origin requests.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Sync.RunLockBackend == "" {
		cfg.Sync.RunLockBackend = "memory"
	}
	if cfg.Sync.RunLockTTL == 0 {
		cfg.Sync.RunLockTTL = 30 * time.Minute
	}
	if cfg.Sync.SubscriberBuffer == 0 {
		cfg.Sync.SubscriberBuffer = 16
	}
	if cfg.Sync.UnitTimeout == 0 {
		cfg.Sync.UnitTimeout = 30 * time.Second
	}
	if cfg.Scheduler.PullInterval == 0 {
		cfg.Scheduler.PullInterval = 5 * time.Minute
	}
	if cfg.Scheduler.MaxConcurrentJobs == 0 {
		cfg.Scheduler.MaxConcurrentJobs = 3
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 2 * time.Minute
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 3
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = 10 * time.Second
	}
	if cfg.Scheduler.MaxHistory == 0 {
		cfg.Scheduler.MaxHistory = 100
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}
	if cfg.Dashboard.LowStockThreshold == 0 {
		cfg.Dashboard.LowStockThreshold = 5
	}
	if cfg.Dashboard.Timezone == "" {
		cfg.Dashboard.Timezone = "UTC"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Sync.RunLockBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("sync.run_lock_backend must be memory or redis, got %q", c.Sync.RunLockBackend)
	}
	if c.Sync.Concurrency < 0 {
		return fmt.Errorf("sync.concurrency cannot be negative")
	}
	if c.Scheduler.MaxConcurrentJobs < 0 {
		return fmt.Errorf("scheduler.max_concurrent_jobs cannot be negative")
	}
	if c.Simulation.Latency < 0 {
		return fmt.Errorf("simulation.latency cannot be negative")
	}
	for id, rate := range c.Simulation.FailureRates {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("simulation.failure_rates.%s must be between 0.0 and 1.0, got %f", id, rate)
		}
	}
	if c.Dashboard.LowStockThreshold < 0 {
		return fmt.Errorf("dashboard.low_stock_threshold cannot be negative")
	}
	if _, err := time.LoadLocation(c.Dashboard.Timezone); err != nil {
		return fmt.Errorf("dashboard.timezone: %w", err)
	}

	// Production-specific validations
	if c.App.IsProduction() {
		if c.Sync.RunLockBackend == "redis" && (c.Redis.Host == "" || c.Redis.Host == "localhost") {
			return fmt.Errorf("redis.host must point at a shared Redis when sync.run_lock_backend=redis in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// Location returns the dashboard time zone
func (d DashboardConfig) Location() *time.Location {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
