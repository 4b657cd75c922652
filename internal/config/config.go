package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment variable the tool reads.
const EnvPrefix = "PATCHCHECK_"

// FileNames are the project files looked up in the root, in order.
var FileNames = []string{".patchcheck.yml", ".patchcheck.yaml"}

// Config holds every setting of a run, whatever layer it came from.
type Config struct {
	// Root is the directory patch paths are resolved against.
	Root   string `yaml:"root,omitempty"`
	Format string `yaml:"format,omitempty"`
	Strict bool   `yaml:"strict,omitempty"`

	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`

	// Rev checks against a committed revision instead of the working tree.
	Rev           string `yaml:"rev,omitempty"`
	Nvim          bool   `yaml:"nvim,omitempty"`
	GitZeroRanges bool   `yaml:"gitZeroRanges,omitempty"`

	JSON          bool `yaml:"json,omitempty"`
	Watch         bool `yaml:"watch,omitempty"`
	Clipboard     bool `yaml:"clipboard,omitempty"`
	NoColor       bool `yaml:"noColor,omitempty"`
	Quiet         bool `yaml:"quiet,omitempty"`
	Verbose       bool `yaml:"verbose,omitempty"`
	OutputDiffFix bool `yaml:"outputDiffFix,omitempty"`

	// Patches are the patch sources named on the command line.
	Patches []string `yaml:"-"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{Root: ".", Format: "auto"}
}

// LoadFile merges the first project file found in dir into cfg and returns
// its path. No project file is not an error.
func LoadFile(cfg *Config, dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}

// LookupFunc has the shape of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// EnvLookup returns the process environment backed by the .env file in dir.
// Process variables win over the file.
func EnvLookup(dir string) (LookupFunc, error) {
	dotenv, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
		dotenv = map[string]string{}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

// LoadEnv merges the PATCHCHECK_* variables visible through lookup into cfg.
func LoadEnv(cfg *Config, lookup LookupFunc) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = splitList(v)
		}
	}
	boolean := func(name string, dst *bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s%s=%q: want true or false", EnvPrefix, name, v))
			return
		}
		*dst = b
	}

	str("ROOT", &cfg.Root)
	str("FORMAT", &cfg.Format)
	boolean("STRICT", &cfg.Strict)
	list("INCLUDE", &cfg.Include)
	list("EXCLUDE", &cfg.Exclude)
	str("REV", &cfg.Rev)
	boolean("NVIM", &cfg.Nvim)
	boolean("GIT_ZERO_RANGES", &cfg.GitZeroRanges)
	boolean("JSON", &cfg.JSON)
	boolean("NO_COLOR", &cfg.NoColor)
	boolean("QUIET", &cfg.Quiet)
	boolean("VERBOSE", &cfg.Verbose)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
