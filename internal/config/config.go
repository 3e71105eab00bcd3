package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the correlation engine.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Engine   EngineConfig   `yaml:"engine"`
	Topology TopologyConfig `yaml:"topology"`
	Rules    RulesConfig    `yaml:"rules"`
	Logging  LoggingConfig  `yaml:"logging"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// EngineConfig exposes the correlation tunables.
type EngineConfig struct {
	AlertCapacity   int           `yaml:"alertCapacity"`
	MicroQueueSize  int           `yaml:"microQueueSize"`
	StrategyTimeout time.Duration `yaml:"strategyTimeout"`
	DefaultWindow   time.Duration `yaml:"defaultWindow"`
	TemporalGap     time.Duration `yaml:"temporalGap"`
	MicroLookback   time.Duration `yaml:"microLookback"`
	PatternInterval time.Duration `yaml:"patternInterval"`
	PatternLookback time.Duration `yaml:"patternLookback"`
}

// TopologyConfig configures the upstream service-topology API.
type TopologyConfig struct {
	BaseURL   string        `yaml:"baseURL"`
	GraphPath string        `yaml:"graphPath"`
	Timeout   time.Duration `yaml:"timeout"`
	Refresh   time.Duration `yaml:"refresh"`
}

// RulesConfig controls rule-pack loading for the correlator.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls Valkey-backed caching of topology lookups.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	TopologyTTL  time.Duration `yaml:"topologyTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CORRELATOR_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Engine: EngineConfig{
			AlertCapacity:   10000,
			MicroQueueSize:  1024,
			StrategyTimeout: 5 * time.Second,
			DefaultWindow:   15 * time.Minute,
			TemporalGap:     2 * time.Minute,
			MicroLookback:   5 * time.Minute,
			PatternInterval: 1 * time.Hour,
			PatternLookback: 7 * 24 * time.Hour,
		},
		Topology: TopologyConfig{
			GraphPath: "/api/v1/topology/service-graph",
			Timeout:   5 * time.Second,
			Refresh:   5 * time.Minute,
		},
		Rules:   RulesConfig{Path: "configs/rules/default.yaml"},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			TopologyTTL:  5 * time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CORRELATOR_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("CORRELATOR_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("CORRELATOR_ALERT_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.AlertCapacity = n
		}
	}
	if v := os.Getenv("CORRELATOR_MICRO_QUEUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MicroQueueSize = n
		}
	}
	if v := os.Getenv("CORRELATOR_STRATEGY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Engine.StrategyTimeout = d
		}
	}
	if v := os.Getenv("CORRELATOR_DEFAULT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Engine.DefaultWindow = d
		}
	}
	if v := os.Getenv("CORRELATOR_PATTERN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Engine.PatternInterval = d
		}
	}
	if v := os.Getenv("CORRELATOR_TOPOLOGY_BASE_URL"); v != "" {
		cfg.Topology.BaseURL = v
	}
	if v := os.Getenv("CORRELATOR_TOPOLOGY_GRAPH_PATH"); v != "" {
		cfg.Topology.GraphPath = v
	}
	if v := os.Getenv("CORRELATOR_TOPOLOGY_REFRESH"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Topology.Refresh = d
		}
	}
	if v := os.Getenv("CORRELATOR_RULES_PATH"); v != "" {
		cfg.Rules.Path = v
	}
	if v := os.Getenv("CORRELATOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CORRELATOR_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("CORRELATOR_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("CORRELATOR_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("CORRELATOR_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("CORRELATOR_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("CORRELATOR_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("CORRELATOR_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("CORRELATOR_CACHE_MAX_RETRIES"); v != "" {
		if retry, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxRetries = retry
		}
	}
	if v := os.Getenv("CORRELATOR_CACHE_TOPOLOGY_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TopologyTTL = d
		}
	}
}
