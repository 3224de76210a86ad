// Package config handles dirimport project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/dirimport/internal/naming"
	"github.com/agentic-research/dirimport/internal/resolve"
	"github.com/agentic-research/dirimport/internal/walk"
)

// FileName is the project configuration file looked up by Discover.
const FileName = "dirimport.yaml"

// PackageKey is the package.json key consulted when no FileName exists.
const PackageKey = "dirimport"

var packageKeyPath = jp.MustParseString("$." + PackageKey)

// Config is the per-project configuration applied to every directory
// import found in that project.
type Config struct {
	// Extensions is the allow-list of matched file extensions.
	Extensions []string `yaml:"extensions"`

	// Case is the property-name strategy: "camel" or "snake".
	Case string `yaml:"case"`

	// ResolveExtensions are probed when deciding whether an import
	// already resolves as an ordinary module.
	ResolveExtensions []string `yaml:"resolveExtensions"`

	// Exclude holds doublestar patterns of directory-relative paths to skip.
	Exclude []string `yaml:"exclude,omitempty"`

	// MaxDepth bounds recursive walks.
	MaxDepth int `yaml:"maxDepth"`

	// Sources selects the modules the build command transforms.
	Sources []string `yaml:"sources"`

	LogLevel string `yaml:"logLevel,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Extensions:        []string{".js"},
		Case:              string(naming.CaseCamel),
		ResolveExtensions: append([]string(nil), resolve.DefaultExtensions...),
		MaxDepth:          walk.DefaultMaxDepth,
		Sources:           []string{"**/*.{js,jsx,mjs,ts,tsx}"},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadPackageJSON reads the "dirimport" key of a package.json over the
// defaults. ok is false when the key is absent.
func LoadPackageJSON(path string) (cfg *Config, ok bool, err error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return nil, false, err
	}
	doc, err := oj.Parse(raw)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", path, err)
	}
	section := packageKeyPath.First(doc)
	if section == nil {
		return nil, false, nil
	}
	// JSON is valid YAML, so the section decodes through the yaml tags.
	cfg = Default()
	if err := yaml.Unmarshal([]byte(oj.JSON(section)), cfg); err != nil {
		return nil, false, fmt.Errorf("parse %s %q section: %w", path, PackageKey, err)
	}
	return cfg, true, nil
}

// Discover finds the configuration for a project root: dirimport.yaml
// first, then package.json, then defaults. It returns the file used, or
// "" for defaults.
func Discover(root string) (*Config, string, error) {
	p := filepath.Join(root, FileName)
	if _, err := os.Stat(p); err == nil {
		cfg, err := Load(p)
		return cfg, p, err
	}

	p = filepath.Join(root, "package.json")
	if _, err := os.Stat(p); err == nil {
		cfg, ok, err := LoadPackageJSON(p)
		if err != nil {
			return nil, "", err
		}
		if ok {
			return cfg, p, nil
		}
	}
	return Default(), "", nil
}

// Save writes the Config as YAML.
func (c *Config) Save(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(c)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Extensions) == 0 {
		errs = append(errs, errors.New("extensions must not be empty"))
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("extension %q must start with a dot", ext))
		}
	}
	for _, ext := range c.ResolveExtensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("resolve extension %q must start with a dot", ext))
		}
	}
	if _, err := naming.ParseCase(c.Case); err != nil {
		errs = append(errs, err)
	}
	if c.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("maxDepth must be positive, got %d", c.MaxDepth))
	}
	for _, p := range append(append([]string(nil), c.Exclude...), c.Sources...) {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid pattern %q", p))
		}
	}
	return errors.Join(errs...)
}

// CaseStrategy returns the parsed Case, defaulting to camel.
func (c *Config) CaseStrategy() naming.Case {
	cs, err := naming.ParseCase(c.Case)
	if err != nil {
		return naming.CaseCamel
	}
	return cs
}
