package tsguard

import (
	"errors"
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/tsguard/common/go/logging"
	"github.com/yanet-platform/tsguard/common/go/tcpopt"
	"github.com/yanet-platform/tsguard/tsguard/internal/rewrite"
)

// Config represents the main configuration structure.
type Config struct {
	// Logging configuration.
	Logging logging.Config `yaml:"logging"`
	// Inspect configuration.
	Inspect InspectConfig `yaml:"inspect"`
}

// InspectConfig configures capture inspection.
type InspectConfig struct {
	// Rewrite policy: mode, minimum risk and spoofing settings.
	rewrite.Config `yaml:",inline"`
	// Match is the glob pattern capture files in input directories must
	// match.
	Match string `yaml:"match"`
	// OutputDir is where rewritten captures are written. Required unless
	// the mode is observe.
	OutputDir string `yaml:"output_dir"`
	// Workers is the number of capture files inspected concurrently.
	Workers int `yaml:"workers"`
	// Snaplen is the snapshot length written to output captures.
	Snaplen datasize.ByteSize `yaml:"snaplen"`
	// MaxFileSize is the largest capture accepted, zero for no limit.
	MaxFileSize datasize.ByteSize `yaml:"max_file_size"`
}

// LoadConfig loads configuration from a YAML file at the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with default configuration.
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: logging.DefaultConfig(),
		Inspect: InspectConfig{
			Config: rewrite.Config{
				Mode:    rewrite.ModeObserve,
				MinRisk: tcpopt.RiskLow,
			},
			Match:       "*.pcap*",
			Workers:     4,
			Snaplen:     256 * datasize.KB,
			MaxFileSize: 1 * datasize.GB,
		},
	}
}

// Validate checks the configuration for consistency.
func (m *Config) Validate() error {
	inspect := &m.Inspect

	if _, err := rewrite.ParseMode(string(inspect.Mode)); err != nil {
		return err
	}
	if inspect.MinRisk > tcpopt.RiskCritical {
		return fmt.Errorf("invalid minimum risk %s", inspect.MinRisk)
	}
	if inspect.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", inspect.Workers)
	}
	if inspect.Snaplen == 0 || inspect.Snaplen > datasize.ByteSize(^uint32(0)) {
		return fmt.Errorf("invalid snaplen %s", inspect.Snaplen.HR())
	}
	if inspect.Mode != rewrite.ModeObserve && inspect.OutputDir == "" {
		return errors.New("output_dir is required to rewrite captures")
	}

	return nil
}
