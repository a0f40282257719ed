package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"quorum/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// policySchema validates the raw policy file before it is decoded, so a
// half-edited file can never replace a working policy.
const policySchema = `{
  "type": "object",
  "properties": {
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["strength", "min_confidence"],
        "properties": {
          "strength": {"enum": ["STRONG_BUY", "BUY", "SELL", "STRONG_SELL"]},
          "direction": {"enum": ["LONG", "SHORT"]},
          "min_sentiment": {"type": "number", "minimum": 0, "maximum": 100},
          "max_sentiment": {"type": "number", "minimum": 0, "maximum": 100},
          "min_confidence": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "long_stop_percent": {"type": "number", "exclusiveMinimum": 0, "maximum": 0.5},
    "long_target_percent": {"type": "number", "exclusiveMinimum": 0, "maximum": 0.5},
    "short_stop_percent": {"type": "number", "exclusiveMinimum": 0, "maximum": 0.5},
    "short_target_percent": {"type": "number", "exclusiveMinimum": 0, "maximum": 0.5},
    "trailing_percent": {"type": "number", "exclusiveMinimum": 0, "maximum": 0.5},
    "risk_per_trade": {"type": "number", "exclusiveMinimum": 0, "maximum": 0.5}
  }
}`

var compiledSchema = jsonschema.MustCompileString("policy.json", policySchema)

// Registry serves the active risk policy and hot-reloads it when the
// backing file changes. With no path it serves the built-in defaults.
type Registry struct {
	mu     sync.RWMutex
	active *Risk
}

// NewRegistry loads the policy file at path (empty path means defaults
// only) and watches it for changes.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{active: Default()}
	path = strings.TrimSpace(path)
	if path == "" {
		return r, nil
	}
	if err := seedPolicyFile(path); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read risk policy failed: %w", err)
	}
	if err := r.reload(v); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(fsnotify.Event) {
		if err := r.reload(v); err != nil {
			logger.Errorf("risk policy reload rejected, keeping previous: %v", err)
		}
	})
	v.WatchConfig()
	return r, nil
}

// seedPolicyFile writes the default policy to path when the file does not
// exist yet, so operators always have a concrete file to edit.
func seedPolicyFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("seed risk policy failed: %w", err)
	}
	logger.Infof("risk policy seeded with defaults at %s", path)
	return nil
}

// Active returns the current policy.
func (r *Registry) Active() *Risk {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *Registry) reload(v *viper.Viper) error {
	raw := v.AllSettings()
	if err := compiledSchema.Validate(raw); err != nil {
		return fmt.Errorf("risk policy schema: %w", err)
	}
	next := Default()
	if err := v.Unmarshal(next, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return fmt.Errorf("risk policy decode: %w", err)
	}
	if len(next.Rules) == 0 {
		next.Rules = Default().Rules
	}
	r.mu.Lock()
	r.active = next
	r.mu.Unlock()
	logger.Infof("risk policy loaded: %d rules, trailing=%.2f%%", len(next.Rules), next.TrailingPercent*100)
	return nil
}
