package tabula

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

const (
	DefManagerURL      = "http://localhost:7070"
	DefTLSVerification = true
)

// Config is the CLI configuration file.
type Config struct {
	Manager ManagerConfig `toml:"manager"`
	Output  OutputConfig  `toml:"output"`
	MQTT    MQTTConfig    `toml:"mqtt"`
}

type ManagerConfig struct {
	URL             string `toml:"url"`
	TLSVerification bool   `toml:"tls_verification"`
}

type OutputConfig struct {
	Pretty bool `toml:"pretty"`
}

type MQTTConfig struct {
	Address  string `toml:"address"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// DefaultConfig is used when no configuration file is present.
func DefaultConfig() Config {
	return Config{
		Manager: ManagerConfig{
			URL:             DefManagerURL,
			TLSVerification: DefTLSVerification,
		},
		Output: OutputConfig{Pretty: true},
	}
}

// LoadConfig reads path over the defaults. Keys absent from the file keep
// their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
