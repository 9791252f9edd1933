package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the process configuration, loadable from environment
// variables (ORDERDESK_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string   `default:"0.0.0.0:8080" usage:"Probe server listen address"`
	SeedFiles      []string `usage:"Seed files applied at startup, in order (.json or .json.gz)" flag:"seed"`
	WatchSnapshots bool     `default:"true" usage:"Log a summary of every order and product snapshot" flag:"watch-snapshots"`
	Health         HealthConfig
	Graceful       GracefulConfig
}

// HealthConfig controls the liveness and readiness checks.
type HealthConfig struct {
	Interval      time.Duration `default:"10s"   usage:"Interval between health check runs"`
	MaxGoroutines int           `default:"10000" usage:"Goroutine count above which the process is not live"`
	MaxWatchers   int           `default:"1000"  usage:"Snapshot subscriptions per store above which the process is not live"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from the environment, command-line flags
// and YAML config files, then applies platform defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

func loadConfig(args []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ORDERDESK",
		Args:      args,
		Files:     []string{"config.yaml", "/etc/orderdesk/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.Health.Interval <= 0 {
		return nil, errors.Errorf("health interval must be positive, got %s", cfg.Health.Interval)
	}

	return &cfg, nil
}

// applyPlatformDefaults honours the PORT variable set by hosting platforms
// unless an address was configured explicitly.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
