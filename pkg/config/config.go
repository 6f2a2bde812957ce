// Package config loads viewer settings from a TOML file.
//
// Settings come from three layers, later ones winning: built-in defaults,
// the TOML file, and command-line flags applied by the caller.
//
//	# ~/.config/revgraph/config.toml
//	delimiter       = "\b"
//	run_style       = "default"
//	highlight_color = "#8ecae6"
//	log_file        = "/tmp/revgraph.log"
//	http_addr       = "127.0.0.1:7878"
//	redis_addr      = "localhost:6379"
//	redis_channel   = "revgraph:intents"
package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/revgraph/pkg/canvas"
	"github.com/matzehuels/revgraph/pkg/errors"
	"github.com/matzehuels/revgraph/pkg/protocol"
	"github.com/matzehuels/revgraph/pkg/selection"
)

const (
	// appName names the configuration directory.
	appName = "revgraph"

	// fileName is the configuration file inside the directory.
	fileName = "config.toml"

	// DefaultMaxLineBytes bounds one input line. DOT sources of large flows
	// with many snapshots stay well below it.
	DefaultMaxLineBytes = 16 << 20
)

// Config holds the viewer settings.
type Config struct {
	// Delimiter separates input fields.
	Delimiter string `toml:"delimiter"`
	// RunStyle is the execution style of runs chosen from the context menu.
	RunStyle string `toml:"run_style"`
	// HighlightColor fills selected nodes in rendered SVG.
	HighlightColor string `toml:"highlight_color"`
	// LogFile receives logs when set.
	LogFile string `toml:"log_file"`
	// HTTPAddr enables the preview server when set.
	HTTPAddr string `toml:"http_addr"`
	// RedisAddr enables mirroring of emitted intents when set.
	RedisAddr    string `toml:"redis_addr"`
	RedisChannel string `toml:"redis_channel"`
	// MaxLineBytes bounds a single input line.
	MaxLineBytes int `toml:"max_line_bytes"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Delimiter:      protocol.DefaultDelimiter,
		RunStyle:       selection.DefaultRunStyle,
		HighlightColor: canvas.DefaultHighlightColor,
		RedisChannel:   protocol.DefaultRedisChannel,
		MaxLineBytes:   DefaultMaxLineBytes,
	}
}

// DefaultPath returns the configuration file path using the XDG standard
// (~/.config/revgraph/config.toml).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.Validate()
}

// Validate checks settings that would break the protocol.
func (c Config) Validate() error {
	if err := errors.ValidateDelimiter(c.Delimiter); err != nil {
		return err
	}
	if err := errors.ValidateID(c.RunStyle); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "run_style")
	}
	if c.MaxLineBytes < 1024 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_line_bytes must be at least 1024, got %d", c.MaxLineBytes)
	}
	return nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
