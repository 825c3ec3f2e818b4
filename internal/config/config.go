// Package config loads project configuration: the committed
// grimpack.toml next to the module manifest, plus GRIMPACK_*
// environment overrides for runtime settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cdmessin/grim-hollow-pack/internal/document"
)

// ProjectFile is the name of the committed project config file.
const ProjectFile = "grimpack.toml"

// Duration decodes TOML duration strings such as "400ms" or "2s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for toml decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler for toml encoding.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the grimpack.toml project file. Every key is optional;
// absent keys keep the defaults from Default.
type Config struct {
	// Manifest is the module manifest path, relative to the project root.
	Manifest string `toml:"manifest"`

	Packs     PacksConfig     `toml:"packs"`
	Normalize NormalizeConfig `toml:"normalize"`
	Watch     WatchConfig     `toml:"watch"`
	Serve     ServeConfig     `toml:"serve"`
}

// PacksConfig locates the pack stores and their YAML sources.
type PacksConfig struct {
	// Dir is the pack root holding the compiled stores.
	Dir string `toml:"dir"`

	// Source is the YAML source root, one subdirectory per pack.
	Source string `toml:"source"`

	// Driver forces a store format for every pack. Empty lets each
	// pack's path shape decide, which selects sqlite for new packs and
	// jsonl for legacy .db files.
	Driver string `toml:"driver"`
}

// NormalizeConfig tunes the document normalizer.
type NormalizeConfig struct {
	// Ownership is the access level kept on the default ownership entry.
	Ownership int `toml:"ownership"`

	// LastModifiedBy replaces the sentinel actor id.
	LastModifiedBy string `toml:"last_modified_by"`

	// KeepProvenance preserves compendium source markers on top-level
	// documents.
	KeepProvenance bool `toml:"keep_provenance"`
}

// WatchConfig tunes the watch daemon.
type WatchConfig struct {
	// Debounce is how long a pack's changes must settle before it is
	// recompiled.
	Debounce Duration `toml:"debounce"`

	// Ignore holds doublestar patterns for paths the watcher skips.
	Ignore []string `toml:"ignore"`
}

// ServeConfig tunes the reload server.
type ServeConfig struct {
	// Addr is the listen address for the reload server.
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no grimpack.toml exists.
func Default() *Config {
	return &Config{
		Manifest: "module.json",
		Packs: PacksConfig{
			Dir:    "packs",
			Source: filepath.Join("packs", "_source"),
			Driver: "",
		},
		Normalize: NormalizeConfig{
			Ownership:      0,
			LastModifiedBy: document.DefaultLastModifiedBy,
			KeepProvenance: false,
		},
		Watch: WatchConfig{
			Debounce: Duration{400 * time.Millisecond},
			Ignore:   []string{"**/.git/**", "**/~*", "**/*.swp"},
		},
		Serve: ServeConfig{
			Addr: "localhost:8080",
		},
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Manifest == "" {
		return fmt.Errorf("manifest path is required")
	}
	if c.Packs.Source == "" {
		return fmt.Errorf("packs.source is required")
	}
	if c.Normalize.Ownership < 0 || c.Normalize.Ownership > 3 {
		return fmt.Errorf("normalize.ownership must be between 0 and 3, got %d", c.Normalize.Ownership)
	}
	if c.Watch.Debounce.Duration < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// NormalizeOptions converts the normalize section into the options the
// document normalizer takes.
func (c *Config) NormalizeOptions() document.Options {
	return document.Options{
		Ownership:      c.Normalize.Ownership,
		KeepProvenance: c.Normalize.KeepProvenance,
		LastModifiedBy: c.Normalize.LastModifiedBy,
	}
}

// Load reads the project file at path, applying defaults for absent
// keys. A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	// Unknown keys are typos until proven otherwise.
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Find walks from dir upward looking for grimpack.toml and returns the
// directory containing it. Empty means no project file exists above dir.
func Find(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ProjectFile)); err == nil && !info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Save writes the config to path in TOML form, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
