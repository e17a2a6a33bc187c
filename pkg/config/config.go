// Package config loads the optional .rstls.hcl / .rstls.yaml project file.
package config

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/walteh/rstls/pkg/parser"
)

// FileNames are probed in order; the first one present wins.
var FileNames = []string{".rstls.hcl", ".rstls.yaml", ".rstls.yml"}

var (
	DefaultSourceDirs = []string{"."}
	DefaultInclude    = []string{"**/*.rst", "**/*.txt", "**/*.yaml"}
	DefaultExclude    = []string{"**/node_modules/**", "**/build/**", "**/.git/**"}
)

const DefaultLogLevel = "info"

// 📝 Project configuration
type Config struct {
	// directories, relative to the workspace root, that are scanned for documents
	SourceDirs []string `json:"source_dirs,omitempty" yaml:"source_dirs,omitempty" hcl:"source_dirs,optional"`
	// doublestar globs matched against paths relative to a source dir
	Include []string `json:"include,omitempty" yaml:"include,omitempty" hcl:"include,optional"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,optional"`
	// directives whose bodies are never parsed as markup
	LiteralDirectives []string `json:"literal_directives,omitempty" yaml:"literal_directives,omitempty" hcl:"literal_directives,optional"`
	CacheSize         int      `json:"cache_size,omitempty" yaml:"cache_size,omitempty" hcl:"cache_size,optional"`
	LogLevel          string   `json:"log_level,omitempty" yaml:"log_level,omitempty" hcl:"log_level,optional"`
}

// Default returns a config with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.SourceDirs == nil {
		cfg.SourceDirs = clone(DefaultSourceDirs)
	}
	if cfg.Include == nil {
		cfg.Include = clone(DefaultInclude)
	}
	if cfg.Exclude == nil {
		cfg.Exclude = clone(DefaultExclude)
	}
	if cfg.LiteralDirectives == nil {
		cfg.LiteralDirectives = clone(parser.DefaultLiteralDirectives)
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = parser.DefaultCacheSize
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}

// Load reads the first config file found in dir. A directory without one
// yields the defaults. The result is validated.
func Load(fs afero.Fs, dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		ok, err := afero.Exists(fs, path)
		if err != nil {
			return nil, errors.Errorf("checking for %s: %w", path, err)
		}
		if !ok {
			continue
		}
		return LoadFile(fs, path)
	}
	return Default(), nil
}

// LoadFile decodes path as YAML or HCL depending on its extension.
func LoadFile(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	cfg, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte) (*Config, error) {
	var cfg Config
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
		return &cfg, nil
	}

	file, diags := hclparse.NewParser().ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}
	diags = gohcl.DecodeBody(file.Body, ctx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &cfg, nil
}

// Override returns a copy of cfg with the fields present in opts replaced.
// opts is the raw initializationOptions value sent by an LSP client.
func (cfg *Config) Override(opts any) (*Config, error) {
	out := *cfg
	if opts == nil {
		return &out, nil
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return nil, errors.Errorf("encoding initialization options: %w", err)
	}
	var patch Config
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&patch); err != nil {
		return nil, errors.Errorf("decoding initialization options: %w", err)
	}

	if patch.SourceDirs != nil {
		out.SourceDirs = patch.SourceDirs
	}
	if patch.Include != nil {
		out.Include = patch.Include
	}
	if patch.Exclude != nil {
		out.Exclude = patch.Exclude
	}
	if patch.LiteralDirectives != nil {
		out.LiteralDirectives = patch.LiteralDirectives
	}
	if patch.CacheSize != 0 {
		out.CacheSize = patch.CacheSize
	}
	if patch.LogLevel != "" {
		out.LogLevel = patch.LogLevel
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate reports every problem in cfg at once.
func (cfg *Config) Validate() error {
	var err error
	if len(cfg.SourceDirs) == 0 {
		err = multierr.Append(err, errors.New("source_dirs must not be empty"))
	}
	for _, dir := range cfg.SourceDirs {
		if filepath.IsAbs(dir) {
			err = multierr.Append(err, errors.Errorf("source dir %q must be relative to the workspace root", dir))
		}
	}
	for _, pattern := range append(clone(cfg.Include), cfg.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			err = multierr.Append(err, errors.Errorf("invalid glob %q", pattern))
		}
	}
	if cfg.CacheSize < 0 {
		err = multierr.Append(err, errors.Errorf("cache_size must be positive, got %d", cfg.CacheSize))
	}
	if _, lerr := zerolog.ParseLevel(cfg.LogLevel); lerr != nil {
		err = multierr.Append(err, errors.Errorf("log_level: %w", lerr))
	}
	if err != nil {
		return errors.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level is the parsed log level. Invalid levels fall back to info.
func (cfg *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// ParserOptions maps the config onto the parser.
func (cfg *Config) ParserOptions() parser.Options {
	return parser.Options{
		LiteralDirectives: cfg.LiteralDirectives,
		CacheSize:         cfg.CacheSize,
	}
}

func clone(in []string) []string {
	return append([]string(nil), in...)
}
