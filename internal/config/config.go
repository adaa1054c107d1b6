// Package config loads the optional .mapfile-lint.toml project file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/checks"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/extent"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/format"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/parser"
)

// FileName is the config file looked up in the project directory.
const FileName = ".mapfile-lint.toml"

// EnvPath names an alternative config file.
const EnvPath = "MAPFILE_LINT_CONFIG"

type BalanceConfig struct {
	HeuristicOpeners            bool `toml:"heuristic_openers"`
	AllowInlineEndWithoutOpener bool `toml:"allow_inline_end_without_opener"`
	AllowMultilineQuotes        bool `toml:"allow_multiline_quotes"`
}

type CheckConfig struct {
	SoftSuppressionLines int  `toml:"soft_suppression_lines"`
	MaxSuggestions       int  `toml:"max_suggestions"`
	AllowMultilineQuotes bool `toml:"allow_multiline_quotes"`
}

type ExtentConfig struct {
	AddMissing   bool   `toml:"add_missing"`
	UpdateMap    bool   `toml:"update_map"`
	UpdateLayers bool   `toml:"update_layers"`
	CRS          string `toml:"crs"` // reference of a viewport given without one
}

type Config struct {
	IndentWidth  int           `toml:"indent_width"`
	ExtraOpeners []string      `toml:"extra_openers"`
	Balance      BalanceConfig `toml:"balance"`
	Check        CheckConfig   `toml:"check"`
	Extent       ExtentConfig  `toml:"extent"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		IndentWidth: format.DefaultIndentWidth,
		Balance: BalanceConfig{
			HeuristicOpeners: true,
		},
		Check: CheckConfig{
			SoftSuppressionLines: 25,
			MaxSuggestions:       3,
		},
		Extent: ExtentConfig{
			AddMissing:   true,
			UpdateMap:    true,
			UpdateLayers: true,
			CRS:          extent.DefaultCRS,
		},
	}
}

// Load reads the file named by MAPFILE_LINT_CONFIG, or FileName in dir.
// A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	if path := os.Getenv(EnvPath); path != "" {
		return LoadFile(path)
	}
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile reads one config file. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return &cfg, nil
}

// Openers returns the default block keywords plus extra_openers.
func (c *Config) Openers() parser.OpenerSet {
	return parser.NewOpenerSet(c.ExtraOpeners...)
}

func (c *Config) FormatOptions() format.Options {
	opts := format.DefaultOptions()
	opts.IndentWidth = c.IndentWidth
	opts.Openers = c.Openers()
	return opts
}

func (c *Config) BalanceConfig() checks.BalanceConfig {
	return checks.BalanceConfig{
		ExtraOpeners:                c.ExtraOpeners,
		HeuristicOpeners:            c.Balance.HeuristicOpeners,
		AllowInlineEndWithoutOpener: c.Balance.AllowInlineEndWithoutOpener,
		AllowMultilineQuotes:        c.Balance.AllowMultilineQuotes,
	}
}

func (c *Config) SyntaxConfig() checks.SyntaxConfig {
	return checks.SyntaxConfig{
		SoftSuppressionLines: c.Check.SoftSuppressionLines,
		MaxSuggestions:       c.Check.MaxSuggestions,
		ExtraOpeners:         c.ExtraOpeners,
		AllowMultilineQuotes: c.Check.AllowMultilineQuotes,
	}
}

func (c *Config) ExtentOptions() extent.Options {
	opts := extent.DefaultOptions()
	opts.AddMissing = c.Extent.AddMissing
	opts.UpdateMap = c.Extent.UpdateMap
	opts.UpdateLayers = c.Extent.UpdateLayers
	opts.IndentWidth = c.IndentWidth
	opts.Openers = c.Openers()
	return opts
}
