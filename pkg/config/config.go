package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Engine struct {
		Binary      string        `yaml:"binary"`
		PublicHost  string        `yaml:"public_host"`
		BasePort    int           `yaml:"base_port"`
		PortCount   int           `yaml:"port_count"`
		StopTimeout time.Duration `yaml:"stop_timeout"`
	} `yaml:"engine"`

	Broadcast struct {
		SnapshotInterval time.Duration `yaml:"snapshot_interval"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		SendBuffer       int           `yaml:"send_buffer"`
	} `yaml:"broadcast"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		ServiceName string  `yaml:"service_name"`
		JaegerURL   string  `yaml:"jaeger_url"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		MaxConcurrent     int     `yaml:"max_concurrent"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Engine
	if c.Engine.Binary == "" {
		return fmt.Errorf("engine.binary must not be empty")
	}
	if c.Engine.PublicHost == "" {
		return fmt.Errorf("engine.public_host must not be empty")
	}
	if c.Engine.BasePort <= 0 || c.Engine.BasePort > 65535 {
		return fmt.Errorf("engine.base_port must be in (0, 65535], got %d", c.Engine.BasePort)
	}
	if c.Engine.PortCount <= 0 {
		return fmt.Errorf("engine.port_count must be > 0")
	}
	if c.Engine.BasePort+c.Engine.PortCount-1 > 65535 {
		return fmt.Errorf("engine port range [%d, %d] exceeds 65535",
			c.Engine.BasePort, c.Engine.BasePort+c.Engine.PortCount-1)
	}
	if c.Engine.StopTimeout <= 0 {
		return fmt.Errorf("engine.stop_timeout must be > 0")
	}

	// Broadcast
	if c.Broadcast.SnapshotInterval <= 0 {
		return fmt.Errorf("broadcast.snapshot_interval must be > 0")
	}
	if c.Broadcast.WriteTimeout <= 0 {
		return fmt.Errorf("broadcast.write_timeout must be > 0")
	}
	if c.Broadcast.SendBuffer <= 0 {
		return fmt.Errorf("broadcast.send_buffer must be > 0")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be in [0, 1]")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.max_concurrent must be >= 0 when rate limiting is enabled")
		}
	}

	return nil
}

func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Engine.Binary = "ffmpeg"
	cfg.Engine.PublicHost = "localhost"
	cfg.Engine.BasePort = 8554
	cfg.Engine.PortCount = 100
	cfg.Engine.StopTimeout = 10 * time.Second

	cfg.Broadcast.SnapshotInterval = 5 * time.Second
	cfg.Broadcast.WriteTimeout = 10 * time.Second
	cfg.Broadcast.SendBuffer = 16

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.ServiceName = "gridcast"
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 50
	cfg.RateLimiting.Burst = 100
	cfg.RateLimiting.MaxConcurrent = 0

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("GRIDCAST_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if binary := os.Getenv("GRIDCAST_ENGINE_BINARY"); binary != "" {
		c.Engine.Binary = binary
	}
	if host := os.Getenv("GRIDCAST_PUBLIC_HOST"); host != "" {
		c.Engine.PublicHost = host
	}
	if port := os.Getenv("GRIDCAST_BASE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Engine.BasePort = p
		}
	}
	if level := os.Getenv("GRIDCAST_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("GRIDCAST_REDIS_ADDRESS"); addr != "" {
		c.Redis.Enabled = true
		c.Redis.Address = addr
	}
	if pass := os.Getenv("GRIDCAST_REDIS_PASSWORD"); pass != "" {
		c.Redis.Password = pass
	}
}
