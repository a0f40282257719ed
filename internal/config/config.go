package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads the YAML config at path, expands credential references and
// applies defaults and validation.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	expandCredentials(&cfg)
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandCredentials resolves ${ENV_NAME} references in API keys so the
// adapters receive plain credentials and never read ambient process state
// themselves.
func expandCredentials(cfg *Config) {
	for i := range cfg.AI.Models {
		key := strings.TrimSpace(cfg.AI.Models[i].APIKey)
		if strings.HasPrefix(key, "${") && strings.HasSuffix(key, "}") {
			key = os.Getenv(strings.TrimSuffix(strings.TrimPrefix(key, "${"), "}"))
		}
		cfg.AI.Models[i].APIKey = key
	}
}
