// Package config loads tool configuration from flowfmt.toml, discovered by
// walking up from the working directory the way project manifests usually
// are. Missing file means defaults; a present file overrides field by field.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestName is the configuration file flowfmt looks for.
const ManifestName = "flowfmt.toml"

// Config is the full tool configuration.
type Config struct {
	Format FormatConfig `toml:"format"`
	Engine EngineConfig `toml:"engine"`
	Files  FilesConfig  `toml:"files"`
	Cache  CacheConfig  `toml:"cache"`
}

// FormatConfig controls layout.
type FormatConfig struct {
	LineLength  int `toml:"line_length"`
	IndentWidth int `toml:"indent_width"`
}

// EngineConfig selects the external host-language formatter. An empty
// Command disables delegation: host code passes through untouched.
type EngineConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	// LineLengthFlag is appended with the budget; empty keeps the default
	// "--line-length".
	LineLengthFlag string `toml:"line_length_flag"`
}

// FilesConfig controls which files a directory walk picks up.
type FilesConfig struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// CacheConfig controls the formatted-file result cache.
type CacheConfig struct {
	Disable bool   `toml:"disable"`
	Dir     string `toml:"dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Format: FormatConfig{
			LineLength:  88,
			IndentWidth: 4,
		},
		Engine: EngineConfig{
			LineLengthFlag: "--line-length",
		},
		Files: FilesConfig{
			Include: []string{"*.flow", "Flowfile"},
		},
	}
}

// Load reads path and overlays it on the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	var file Config
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return cfg, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	if meta.IsDefined("format", "line_length") {
		cfg.Format.LineLength = file.Format.LineLength
	}
	if meta.IsDefined("format", "indent_width") {
		cfg.Format.IndentWidth = file.Format.IndentWidth
	}
	if meta.IsDefined("engine", "command") {
		cfg.Engine.Command = file.Engine.Command
	}
	if meta.IsDefined("engine", "args") {
		cfg.Engine.Args = file.Engine.Args
	}
	if meta.IsDefined("engine", "line_length_flag") {
		cfg.Engine.LineLengthFlag = file.Engine.LineLengthFlag
	}
	if meta.IsDefined("files", "include") {
		cfg.Files.Include = file.Files.Include
	}
	if meta.IsDefined("files", "exclude") {
		cfg.Files.Exclude = file.Files.Exclude
	}
	if meta.IsDefined("cache", "disable") {
		cfg.Cache.Disable = file.Cache.Disable
	}
	if meta.IsDefined("cache", "dir") {
		cfg.Cache.Dir = file.Cache.Dir
	}

	if err := cfg.validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Format.LineLength < 1 {
		return fmt.Errorf("format.line_length must be positive, got %d", c.Format.LineLength)
	}
	if c.Format.IndentWidth < 1 {
		return fmt.Errorf("format.indent_width must be positive, got %d", c.Format.IndentWidth)
	}
	return nil
}

// Find walks up from startDir to locate the nearest flowfmt.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest manifest above startDir, or the defaults when
// there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Default(), err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Matches reports whether a file name is picked up by the include patterns
// and not rejected by the exclude patterns. Patterns match the base name.
func (f FilesConfig) Matches(name string) bool {
	base := filepath.Base(name)
	included := false
	for _, pat := range f.Include {
		if ok, _ := filepath.Match(pat, base); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pat := range f.Exclude {
		if ok, _ := filepath.Match(pat, base); ok {
			return false
		}
	}
	return true
}
