// Package config loads bot.yaml. Every key is optional; values not present in
// the file keep their defaults.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed bot.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("bot.schema.json", schemaJSON)

type Config struct {
	WSPath     string  `yaml:"ws_path" json:"ws_path"`
	ComeRadius float64 `yaml:"come_radius" json:"come_radius"`

	Guard  Guard  `yaml:"guard" json:"guard"`
	Follow Follow `yaml:"follow" json:"follow"`

	HostileTypes       []string `yaml:"hostile_types" json:"hostile_types"`
	ActionTimeoutTicks int      `yaml:"action_timeout_ticks" json:"action_timeout_ticks"`
	ReconnectDelayMS   int      `yaml:"reconnect_delay_ms" json:"reconnect_delay_ms"`

	AutoEat AutoEat `yaml:"autoeat" json:"autoeat"`
	Journal Journal `yaml:"journal" json:"journal"`
}

type Guard struct {
	Radius        float64 `yaml:"radius" json:"radius"`
	HostileRadius float64 `yaml:"hostile_radius" json:"hostile_radius"`
}

type Follow struct {
	Radius float64 `yaml:"radius" json:"radius"`
}

type AutoEat struct {
	Enabled         bool     `yaml:"enabled" json:"enabled"`
	HungerThreshold int      `yaml:"hunger_threshold" json:"hunger_threshold"`
	Foods           []string `yaml:"foods" json:"foods"`
}

type Journal struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

func Defaults() Config {
	return Config{
		WSPath:     "/v1/ws",
		ComeRadius: 1,
		Guard: Guard{
			Radius:        1,
			HostileRadius: 16,
		},
		Follow:             Follow{Radius: 1},
		HostileTypes:       []string{"MOB"},
		ActionTimeoutTicks: 20,
		AutoEat: AutoEat{
			Enabled:         true,
			HungerThreshold: 14,
			Foods:           []string{"BREAD", "COOKED_MEAT", "BERRIES"},
		},
		Journal: Journal{Enabled: true},
	}
}

func (c Config) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMS) * time.Millisecond
}

// Load reads path over the defaults. A missing file is returned as an error
// wrapping fs.ErrNotExist together with the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := validate(raw); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Defaults(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// validate checks the document against the embedded JSON schema. YAML is
// converted to its JSON data model first.
func validate(raw []byte) error {
	if strings.TrimSpace(string(raw)) == "" {
		return nil
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert to json: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
