package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileSystem reads configuration files.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

type osFS struct{}

func (osFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// DefaultFS returns the operating system file system.
func DefaultFS() FileSystem { return osFS{} }

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path yields defaults plus environment.
func Load(path string) (*Config, error) {
	return LoadFS(DefaultFS(), path, os.LookupEnv)
}

// LoadFS is Load with an explicit file system and environment lookup.
func LoadFS(fs FileSystem, path string, lookup LookupFunc) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := fs.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := Decode(path, data, cfg); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses data into cfg. The format is chosen by the extension of
// path. Settings missing from data keep their current value.
func Decode(path string, data []byte, cfg *Config) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}
