package config

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents roleguard's process configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Kurtosis KurtosisConfig `yaml:"kurtosis"`
	EVMRPC   EVMRPCConfig   `yaml:"evm_rpc"`
	Store    StoreConfig    `yaml:"store"`
	Plugins  PluginsConfig  `yaml:"plugins"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig contains the role-check HTTP API's listen settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig contains general logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// KurtosisConfig contains Kurtosis connection settings, used by
// `roleguard rpc discover` to look up an EVM RPC endpoint in an enclave.
type KurtosisConfig struct {
	EnclaveName string `yaml:"enclave_name"`
}

// EVMRPCConfig contains the EVM JSON-RPC endpoint `roleguard evm diagnose`
// probes when no --rpc-url flag is given. Requirement plugins do not read
// it: each takes its rpc_url from its own secret. It is not auto-discovered.
type EVMRPCConfig struct {
	URL string `yaml:"url"`
}

// StoreConfig points at the embedded KV database backing plugin paths and
// secrets, and the TTL the read-through cache in front of it holds entries
// for.
type StoreConfig struct {
	Path           string        `yaml:"path"`
	SecretCacheTTL time.Duration `yaml:"secret_cache_ttl"`
}

// PluginsConfig names the plugin directory whose manifest.yaml records
// the installed plugin .so files; the directory itself is not scanned.
type PluginsConfig struct {
	Dir string `yaml:"dir"`
}

// MetricsConfig contains Prometheus exposition settings.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8090",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Kurtosis: KurtosisConfig{
			EnclaveName: "",
		},
		EVMRPC: EVMRPCConfig{
			URL: "",
		},
		Store: StoreConfig{
			Path:           "./roleguard.db",
			SecretCacheTTL: 5 * time.Minute,
		},
		Plugins: PluginsConfig{
			Dir: "./plugins",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// DiscoverEVMRPCEndpoint attempts to discover an EVM JSON-RPC endpoint from
// a Kurtosis enclave, for operators who run RPC fixtures inside Kurtosis
// rather than naming a fixed rpc_url in a plugin secret.
func DiscoverEVMRPCEndpoint(enclaveName string) (string, error) {
	if enclaveName == "" {
		return "", fmt.Errorf("enclave name is empty")
	}

	// Try EVM RPC service names in order: dedicated RPC node first, then
	// a generic fallback name.
	serviceNames := []string{
		"el-1-rpc",
		"evm-rpc",
	}

	var lastErr error
	for _, serviceName := range serviceNames {
		cmd := exec.Command("kurtosis", "port", "print", enclaveName, serviceName, "rpc")
		output, err := cmd.Output()
		if err != nil {
			lastErr = err
			continue
		}
		endpoint := strings.TrimSpace(string(output))
		if endpoint == "" {
			continue
		}
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			continue
		}
		return endpoint, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to discover EVM RPC endpoint (tried: %v): %w", serviceNames, lastErr)
	}
	return "", fmt.Errorf("failed to discover EVM RPC endpoint (tried: %v)", serviceNames)
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// If no path provided, look for roleguard.yaml in current directory
	if path == "" {
		path = "roleguard.yaml"
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Return default config if file doesn't exist
		return cfg, nil
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Check if ROLEGUARD_STORE_PATH environment variable is set
	storePathEnvSet := os.Getenv("ROLEGUARD_STORE_PATH") != ""
	storePathEnv := os.Getenv("ROLEGUARD_STORE_PATH")

	// Expand environment variables in the YAML content
	expandedData := []byte(os.ExpandEnv(string(data)))

	// Parse YAML
	if err := yaml.Unmarshal(expandedData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply ROLEGUARD_STORE_PATH env var if set (takes priority over config file)
	if storePathEnvSet {
		cfg.Store.Path = storePathEnv
	}

	return cfg, nil
}

// Save writes configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}

	if c.Plugins.Dir == "" {
		return fmt.Errorf("plugins.dir is required")
	}

	if c.Store.SecretCacheTTL < 0 {
		return fmt.Errorf("store.secret_cache_ttl must not be negative")
	}

	return nil
}
