package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/theimaginaryfoundation/pdt/api"
	"github.com/theimaginaryfoundation/pdt/snapshot"
	"github.com/theimaginaryfoundation/pdt/snapshot/archive"
)

const (
	envConfig = "PDT_CONFIG"
	envAddr   = "PDT_ADDR"
)

// FileConfig is the optional config file. Keys left out keep their defaults.
type FileConfig struct {
	Tuning snapshot.Tuning `toml:"tuning" yaml:"tuning"`
	Serve  ServeFileConfig `toml:"serve" yaml:"serve"`
}

type ServeFileConfig struct {
	Addr        string `toml:"addr" yaml:"addr"`
	MaxUploadMB int    `toml:"max_upload_mb" yaml:"max_upload_mb"`
}

func defaultFileConfig() FileConfig {
	return FileConfig{Tuning: snapshot.DefaultTuning()}
}

// loadFileConfig reads a TOML or YAML file chosen by extension. An empty path returns the
// defaults.
func loadFileConfig(path string) (FileConfig, error) {
	cfg := defaultFileConfig()
	if path == "" {
		return cfg, nil
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return FileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		b, err := os.ReadFile(path)
		if err != nil {
			return FileConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return FileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return FileConfig{}, fmt.Errorf("config %s: unsupported extension %q (want .toml, .yaml or .yml)", path, ext)
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return FileConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

type BuildConfig struct {
	InPath       string
	OutPath      string
	SynopsisPath string
	SQLitePath   string
	Overwrite    bool
}

func defaultBuildConfig() BuildConfig {
	return BuildConfig{OutPath: archive.DefaultFileName}
}

func (c BuildConfig) Validate() error {
	if c.InPath == "" {
		return errors.New("missing --in")
	}
	if c.OutPath == "" {
		return errors.New("missing --out")
	}
	if c.SQLitePath != "" && filepath.Clean(c.SQLitePath) == filepath.Clean(c.OutPath) {
		return errors.New("--sqlite must differ from --out")
	}
	return nil
}

type InspectConfig struct {
	InPath    string
	OutPath   string
	Evidence  int
	Pretty    bool
	Overwrite bool
}

func defaultInspectConfig() InspectConfig {
	return InspectConfig{}
}

func (c InspectConfig) Validate() error {
	if c.InPath == "" {
		return errors.New("missing --in")
	}
	if c.Evidence < 0 {
		return errors.New("--evidence must be >= 0")
	}
	return nil
}

type CardConfig struct {
	InPath       string
	Name         string
	Role         string
	Location     string
	Tagline      string
	SynopsisPath string
}

func defaultCardConfig() CardConfig {
	return CardConfig{}
}

func (c CardConfig) Validate() error {
	if c.InPath == "" {
		return errors.New("missing --in")
	}
	return nil
}

type SearchConfig struct {
	DBPath string
	Limit  int
}

func defaultSearchConfig() SearchConfig {
	return SearchConfig{Limit: 20}
}

func (c SearchConfig) Validate() error {
	if c.DBPath == "" {
		return errors.New("missing --db")
	}
	if c.Limit <= 0 {
		return errors.New("--limit must be > 0")
	}
	return nil
}

type ServeConfig struct {
	Addr        string
	MaxUploadMB int
}

func defaultServeConfig() ServeConfig {
	return ServeConfig{
		Addr:        api.DefaultAddr,
		MaxUploadMB: api.DefaultMaxUploadBytes >> 20,
	}
}

func (c ServeConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("missing --addr")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("--max-upload-mb must be > 0")
	}
	return nil
}

// resolve fills values the user did not set on the command line from the environment,
// then the config file.
func (c ServeConfig) resolve(file ServeFileConfig, addrSet, maxSet bool) ServeConfig {
	if !addrSet {
		if v := os.Getenv(envAddr); v != "" {
			c.Addr = v
		} else if file.Addr != "" {
			c.Addr = file.Addr
		}
	}
	if !maxSet && file.MaxUploadMB > 0 {
		c.MaxUploadMB = file.MaxUploadMB
	}
	return c
}
