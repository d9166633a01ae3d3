// Package config loads and validates the YAML configuration for a Chord
// node process, following the teacher's config.LoadConfig/ValidateConfig/
// LogConfig shape (see cmd/chordnode/main.go) trimmed to the fields this
// spec's core, transport, logging, and telemetry layers actually consume.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"chordring/internal/logger"
	zapfactory "chordring/internal/logger/zap"
)

// NodeConfig describes this process's listen/advertise address.
type NodeConfig struct {
	Bind string `yaml:"bind"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// BootstrapConfig selects how this node discovers and registers with its
// ring. Mode is "static" (a fixed peer list) or "route53" (AWS Route53
// DNS-backed discovery).
type BootstrapConfig struct {
	Mode    string        `yaml:"mode"`
	Peers   []string      `yaml:"peers"`
	Route53 Route53Config `yaml:"route53"`
}

// Route53Config configures discovery/registration against a Route53
// hosted zone: a single TXT record set whose values are the advertised
// addresses of every registered node.
type Route53Config struct {
	HostedZoneID string        `yaml:"hosted_zone_id"`
	RecordName   string        `yaml:"record_name"`
	TTL          int64         `yaml:"ttl_seconds"`
	Region       string        `yaml:"region"`
	Timeout      time.Duration `yaml:"timeout"`
}

// DHTConfig holds everything the ring core (internal/ring) and this
// process's bootstrap need. The teacher's config also carried Koorde/
// simple-hash/cache fields here; this repo implements Chord only, so
// those are trimmed (see DESIGN.md).
type DHTConfig struct {
	IDBits                   int           `yaml:"id_bits"`
	StabilizeInterval        time.Duration `yaml:"stabilize_interval"`
	FixFingersInterval       time.Duration `yaml:"fix_fingers_interval"`
	CheckPredecessorInterval time.Duration `yaml:"check_predecessor_interval"`
	Bootstrap                BootstrapConfig `yaml:"bootstrap"`
}

// TracingConfig controls whether and where OpenTelemetry spans are
// exported.
type TracingConfig struct {
	Enabled        bool   `yaml:"enabled"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	UseStdout      bool   `yaml:"use_stdout"`
	SampleRatio    float64 `yaml:"sample_ratio"`
}

// TelemetryConfig groups the observability settings.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

// Config is the complete, validated configuration for one chordnode
// process.
type Config struct {
	Node      NodeConfig           `yaml:"node"`
	DHT       DHTConfig            `yaml:"dht"`
	Logger    zapfactory.Config    `yaml:"logger"`
	Telemetry TelemetryConfig      `yaml:"telemetry"`
}

// LoadConfig reads and parses the YAML file at path, then fills in any
// zero-valued field with its default.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Node.Bind == "" {
		c.Node.Bind = "0.0.0.0"
	}
	if c.Node.Port == 0 {
		c.Node.Port = 7946
	}
	if c.DHT.IDBits == 0 {
		c.DHT.IDBits = 64
	}
	if c.DHT.StabilizeInterval == 0 {
		c.DHT.StabilizeInterval = 500 * time.Millisecond
	}
	if c.DHT.FixFingersInterval == 0 {
		c.DHT.FixFingersInterval = 300 * time.Millisecond
	}
	if c.DHT.CheckPredecessorInterval == 0 {
		c.DHT.CheckPredecessorInterval = time.Second
	}
	if c.DHT.Bootstrap.Mode == "" {
		c.DHT.Bootstrap.Mode = "static"
	}
	if c.DHT.Bootstrap.Route53.TTL == 0 {
		c.DHT.Bootstrap.Route53.TTL = 30
	}
	if c.DHT.Bootstrap.Route53.Timeout == 0 {
		c.DHT.Bootstrap.Route53.Timeout = 10 * time.Second
	}
}

// ValidateConfig rejects combinations that would produce a node that
// cannot start.
func (c *Config) ValidateConfig() error {
	if c.Node.Port <= 0 || c.Node.Port > 65535 {
		return fmt.Errorf("config: invalid node.port %d", c.Node.Port)
	}
	// Identifiers are truncated SHA-1 sums, so the space is at most 160 bits.
	if c.DHT.IDBits <= 0 || c.DHT.IDBits > 160 {
		return fmt.Errorf("config: invalid dht.id_bits %d", c.DHT.IDBits)
	}
	switch c.DHT.Bootstrap.Mode {
	case "static":
		// A static bootstrap with zero peers just means "create a new ring".
	case "route53":
		if c.DHT.Bootstrap.Route53.HostedZoneID == "" {
			return fmt.Errorf("config: dht.bootstrap.route53.hosted_zone_id is required when mode is route53")
		}
		if c.DHT.Bootstrap.Route53.RecordName == "" {
			return fmt.Errorf("config: dht.bootstrap.route53.record_name is required when mode is route53")
		}
	default:
		return fmt.Errorf("config: unsupported dht.bootstrap.mode %q", c.DHT.Bootstrap.Mode)
	}
	return nil
}

// LogConfig emits the resolved configuration at info level so an operator
// can see what a node actually started with, without printing secrets
// (there are none at this layer).
func (c *Config) LogConfig(log logger.Logger) {
	log.Info("configuration loaded",
		logger.F("bind", fmt.Sprintf("%s:%d", c.Node.Bind, c.Node.Port)),
		logger.F("host", c.Node.Host),
		logger.F("id_bits", c.DHT.IDBits),
		logger.F("stabilize_interval", c.DHT.StabilizeInterval.String()),
		logger.F("fix_fingers_interval", c.DHT.FixFingersInterval.String()),
		logger.F("check_predecessor_interval", c.DHT.CheckPredecessorInterval.String()),
		logger.F("bootstrap_mode", c.DHT.Bootstrap.Mode),
		logger.F("tracing_enabled", c.Telemetry.Tracing.Enabled),
	)
}
