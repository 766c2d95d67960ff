package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
)

// ServerConfig holds the configuration for the widget server.
type ServerConfig struct {
	Addr            string `json:"addr"`
	LogLevel        string `json:"log_level"`
	TemplateDir     string `json:"template_dir"`
	GlobalsFile     string `json:"globals_file"`
	LocaleDir       string `json:"locale_dir"`
	Watch           bool   `json:"watch"`
	DefaultTitle    string `json:"default_title"`
	MaxLoopDepth    int    `json:"max_loop_depth"`
	Systemctl       string `json:"systemctl"`
	QueryTimeoutSec int    `json:"query_timeout_sec"`
}

// Config is the top-level configuration file.
type Config struct {
	Server *ServerConfig `json:"server_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:            ":8080",
		LogLevel:        "info",
		TemplateDir:     "./templates",
		LocaleDir:       "./locales",
		Watch:           false,
		DefaultTitle:    "Systemd Services",
		MaxLoopDepth:    64,
		Systemctl:       "systemctl",
		QueryTimeoutSec: 5,
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := &Config{Server: DefaultServerConfig()}

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, errors.Wrap(err, "marshal default config")
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The server still runs on defaults.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, errors.Wrap(err, "read config file")
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}
	if config.Server == nil {
		config.Server = DefaultServerConfig()
	}
	return config, nil
}

// flags are the command line overrides of the config file.
type flags struct {
	port      int
	config    string
	templates string
	locales   string
	watch     bool
	set       map[string]bool
}

func parseFlags(args []string) (*flags, error) {
	var f = &flags{set: make(map[string]bool)}
	var fs = flag.NewFlagSet("glance", flag.ContinueOnError)
	fs.IntVar(&f.port, "port", 8080, "port on which to listen")
	fs.IntVar(&f.port, "p", 8080, "shorthand for -port")
	fs.StringVar(&f.config, "config", "glance.json", "path of the JSON config file")
	fs.StringVar(&f.templates, "templates", "", "directory of *.html templates")
	fs.StringVar(&f.locales, "locales", "", "directory of <locale>.po catalogs")
	fs.BoolVar(&f.watch, "watch", false, "reload templates when they change")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// apply overrides cfg with the flags given on the command line.
func (f *flags) apply(cfg *ServerConfig) {
	if f.set["port"] || f.set["p"] {
		cfg.Addr = fmt.Sprintf(":%d", f.port)
	}
	if f.set["templates"] {
		cfg.TemplateDir = f.templates
	}
	if f.set["locales"] {
		cfg.LocaleDir = f.locales
	}
	if f.set["watch"] {
		cfg.Watch = f.watch
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
