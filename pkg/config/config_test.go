package config_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/rstls/pkg/config"
	"github.com/walteh/rstls/pkg/parser"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		content     string
		expectError string
		validate    func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "no_file_gives_defaults",
			validate: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.DefaultSourceDirs, cfg.SourceDirs)
				assert.Equal(t, config.DefaultInclude, cfg.Include)
				assert.Equal(t, parser.DefaultLiteralDirectives, cfg.LiteralDirectives)
				assert.Equal(t, parser.DefaultCacheSize, cfg.CacheSize)
				assert.Equal(t, zerolog.InfoLevel, cfg.Level())
			},
		},
		{
			name: "hcl",
			file: ".rstls.hcl",
			content: `
source_dirs = ["source"]
exclude     = ["**/drafts/**"]
cache_size  = 16
log_level   = "debug"
`,
			validate: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, []string{"source"}, cfg.SourceDirs)
				assert.Equal(t, []string{"**/drafts/**"}, cfg.Exclude)
				assert.Equal(t, config.DefaultInclude, cfg.Include)
				assert.Equal(t, 16, cfg.CacheSize)
				assert.Equal(t, zerolog.DebugLevel, cfg.Level())
			},
		},
		{
			name: "yaml",
			file: ".rstls.yaml",
			content: `
source_dirs: [source, extra]
literal_directives: [code-block]
`,
			validate: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, []string{"source", "extra"}, cfg.SourceDirs)
				assert.Equal(t, []string{"code-block"}, cfg.LiteralDirectives)
				assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
			},
		},
		{
			name:        "yaml_unknown_field",
			file:        ".rstls.yaml",
			content:     "source_dir: [source]\n",
			expectError: "parsing YAML",
		},
		{
			name:        "hcl_syntax_error",
			file:        ".rstls.hcl",
			content:     "source_dirs = [\n",
			expectError: "parsing HCL",
		},
		{
			name:        "hcl_unknown_attribute",
			file:        ".rstls.hcl",
			content:     "sources = [\"a\"]\n",
			expectError: "decoding HCL",
		},
		{
			name:        "invalid_values",
			file:        ".rstls.yaml",
			content:     "cache_size: -1\nlog_level: loud\n",
			expectError: "invalid config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.file != "" {
				require.NoError(t, afero.WriteFile(fs, "/ws/"+tt.file, []byte(tt.content), 0o644))
			}

			cfg, err := config.Load(fs, "/ws")
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadPrefersHCL(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/ws/.rstls.hcl", []byte(`source_dirs = ["hcl"]`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/ws/.rstls.yaml", []byte("source_dirs: [yaml]\n"), 0o644))

	cfg, err := config.Load(fs, "/ws")
	require.NoError(t, err)
	assert.Equal(t, []string{"hcl"}, cfg.SourceDirs)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := config.Default()
	cfg.SourceDirs = []string{"/abs"}
	cfg.Include = []string{"[a"}
	cfg.CacheSize = -3
	cfg.LogLevel = "nope"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "/abs")
	assert.Contains(t, msg, "[a")
	assert.Contains(t, msg, "cache_size")
	assert.Contains(t, msg, "log_level")
}

func TestOverride(t *testing.T) {
	base := config.Default()

	t.Run("nil_keeps_config", func(t *testing.T) {
		cfg, err := base.Override(nil)
		require.NoError(t, err)
		assert.Equal(t, base, cfg)
	})

	t.Run("fields_present_replace", func(t *testing.T) {
		cfg, err := base.Override(map[string]any{
			"source_dirs": []any{"docs"},
			"cache_size":  float64(8),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"docs"}, cfg.SourceDirs)
		assert.Equal(t, 8, cfg.CacheSize)
		assert.Equal(t, base.Include, cfg.Include)
		assert.Equal(t, config.DefaultSourceDirs, base.SourceDirs)
	})

	t.Run("unknown_field", func(t *testing.T) {
		_, err := base.Override(map[string]any{"colour": "red"})
		require.Error(t, err)
	})

	t.Run("invalid_value", func(t *testing.T) {
		_, err := base.Override(map[string]any{"log_level": "loud"})
		require.Error(t, err)
	})
}

func TestParserOptions(t *testing.T) {
	cfg := config.Default()
	cfg.CacheSize = 4
	opts := cfg.ParserOptions()
	assert.Equal(t, 4, opts.CacheSize)
	assert.Equal(t, cfg.LiteralDirectives, opts.LiteralDirectives)
}
