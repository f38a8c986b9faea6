package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"thunderwatch/internal/decision"
	"thunderwatch/internal/levelsave"
)

// DefaultPath is where the host looks for its config when -config is unset.
const DefaultPath = "config.yaml"

//go:embed config.schema.json
var schemaJSON string

const schemaURL = "config.schema.json"

type Config struct {
	InstancePath          string `yaml:"instance_path"`
	ResetHotkey           string `yaml:"reset_hotkey"`
	MinStartTick          uint64 `yaml:"min_start_tick"`
	MaxStartTick          uint64 `yaml:"max_start_tick"`
	MinCycleDurationTicks uint64 `yaml:"min_cycle_duration_ticks"`
	DebugMode             bool   `yaml:"debug_mode"`

	DisarmAfterReset bool   `yaml:"disarm_after_reset"`
	SaveFile         string `yaml:"save_file"`
	JournalDir       string `yaml:"journal_dir"`
	IndexDB          string `yaml:"index_db"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Load reads, schema-checks, and validates the YAML config at path.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse is Load without the file read.
func Parse(b []byte) (Config, error) {
	var cfg Config

	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return cfg, fmt.Errorf("config.yaml: %w", err)
	}
	if doc == nil {
		return cfg, fmt.Errorf("config.yaml: empty document")
	}
	if err := validateSchema(doc); err != nil {
		return cfg, fmt.Errorf("config.yaml: %w", err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config.yaml: %w", err)
	}
	return cfg, nil
}

// validateSchema round-trips the YAML tree through JSON so the validator
// sees plain JSON values.
func validateSchema(doc any) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}

func (c *Config) Normalize() {
	c.InstancePath = strings.TrimSpace(c.InstancePath)
	c.SaveFile = strings.TrimSpace(c.SaveFile)
	if c.SaveFile == "" {
		c.SaveFile = levelsave.FileName
	}
	c.JournalDir = strings.TrimSpace(c.JournalDir)
	c.IndexDB = strings.TrimSpace(c.IndexDB)
}

func (c Config) Validate() error {
	if c.InstancePath == "" {
		return fmt.Errorf("instance_path is required")
	}
	if utf8.RuneCountInString(c.ResetHotkey) != 1 {
		return fmt.Errorf("reset_hotkey must be a single character, got %q", c.ResetHotkey)
	}
	if c.MinStartTick > c.MaxStartTick {
		return fmt.Errorf("min_start_tick (%d) > max_start_tick (%d)", c.MinStartTick, c.MaxStartTick)
	}
	info, err := os.Stat(c.InstancePath)
	if err != nil {
		return fmt.Errorf("instance_path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("instance_path %s is not a directory", c.InstancePath)
	}
	return nil
}

// Hotkey returns reset_hotkey as a rune.
func (c Config) Hotkey() rune {
	r, _ := utf8.DecodeRuneInString(c.ResetHotkey)
	return r
}

func (c Config) Thresholds() decision.Thresholds {
	return decision.Thresholds{
		MinStartTick:          c.MinStartTick,
		MaxStartTick:          c.MaxStartTick,
		MinCycleDurationTicks: c.MinCycleDurationTicks,
	}
}
