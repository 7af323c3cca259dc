package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dhcgn/maillog/filter"
	"github.com/dhcgn/maillog/logreader"
)

var ErrNoiseFileEmpty = errors.New("noise file lists no prefixes or patterns")

// Config captures all command-line options required to decode a maillog.
type Config struct {
	Inputs        []string
	Noise         []string
	NoisePatterns []string
	NoiseFile     string
	Workers       int
	KeepGoing     bool
	ExportPath    string
	Progress      bool
	LogLevel      string
	LogDir        string
}

// NoiseFile is the YAML document accepted by --noise-file:
//
//	noise:
//	  - amavis
//	noise_patterns:
//	  - 'postfix-[a-z]+/anvil'
type NoiseFile struct {
	Noise         []string `yaml:"noise"`
	NoisePatterns []string `yaml:"noise_patterns"`
}

// RegisterPersistentFlags attaches the flags shared by every subcommand.
func RegisterPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringArray("noise", filter.DefaultPrefixes, "Service or process name prefix whose lines are skipped (repeatable)")
	flags.StringArray("noise-pattern", nil, "Regex matched at the start of the service tag or process name; matching lines are skipped")
	flags.String("noise-file", "", "YAML file with additional noise prefixes and patterns")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for log files (logs go to stderr only when empty)")
}

// RegisterFlags attaches the counting driver's flags to the provided command.
func RegisterFlags(cmd *cobra.Command) {
	RegisterPersistentFlags(cmd)

	flags := cmd.Flags()
	flags.Int("workers", 1, "Number of concurrent decode workers")
	flags.Bool("keep-going", false, "Count undecodable lines instead of stopping at the first one")
	flags.String("export", "", "Write decoded records as JSON lines to this file (.gz compresses)")
	flags.Bool("progress", false, "Show a progress bar (file inputs only)")
}

// LoadConfig converts the parsed Cobra flags into a Config struct with validation.
func LoadConfig(cmd *cobra.Command, args []string) (Config, error) {
	flags := cmd.Flags()

	noise, err := flags.GetStringArray("noise")
	if err != nil {
		return Config{}, err
	}
	noisePatterns, err := flags.GetStringArray("noise-pattern")
	if err != nil {
		return Config{}, err
	}
	noiseFile, err := flags.GetString("noise-file")
	if err != nil {
		return Config{}, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, err
	}
	logDir, err := flags.GetString("log-dir")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Inputs:        inputs(args),
		Noise:         noise,
		NoisePatterns: noisePatterns,
		NoiseFile:     strings.TrimSpace(noiseFile),
		Workers:       1,
		LogLevel:      normalizeLevel(logLevel),
	}
	if logDir != "" {
		cfg.LogDir = filepath.Clean(logDir)
	}

	// Driver flags are absent on subcommands that only share the noise setup.
	if flags.Lookup("workers") != nil {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return Config{}, err
		}
		if cfg.KeepGoing, err = flags.GetBool("keep-going"); err != nil {
			return Config{}, err
		}
		if cfg.ExportPath, err = flags.GetString("export"); err != nil {
			return Config{}, err
		}
		if cfg.Progress, err = flags.GetBool("progress"); err != nil {
			return Config{}, err
		}
	}

	if cfg.NoiseFile != "" {
		nf, err := LoadNoiseFile(cfg.NoiseFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Noise = append(cfg.Noise, nf.Noise...)
		cfg.NoisePatterns = append(cfg.NoisePatterns, nf.NoisePatterns...)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// FilterOptions returns the noise configuration for filter.New.
func (c Config) FilterOptions() filter.Options {
	return filter.Options{Prefixes: c.Noise, Patterns: c.NoisePatterns}
}

// ReadsStdin reports whether standard input is one of the inputs.
func (c Config) ReadsStdin() bool {
	for _, in := range c.Inputs {
		if in == logreader.StdinPath {
			return true
		}
	}
	return false
}

// LoadNoiseFile reads and decodes a YAML noise file.
func LoadNoiseFile(path string) (NoiseFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NoiseFile{}, fmt.Errorf("read noise file: %w", err)
	}
	var nf NoiseFile
	if err := yaml.Unmarshal(data, &nf); err != nil {
		return NoiseFile{}, fmt.Errorf("parse noise file %s: %w", path, err)
	}
	if len(nf.Noise) == 0 && len(nf.NoisePatterns) == 0 {
		return NoiseFile{}, fmt.Errorf("%s: %w", path, ErrNoiseFileEmpty)
	}
	return nf, nil
}

func validateConfig(cfg Config) error {
	if cfg.Workers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}
	if cfg.Progress && cfg.ReadsStdin() {
		return fmt.Errorf("--progress needs file inputs, not standard input")
	}
	if cfg.ExportPath != "" && cfg.ExportPath == logreader.StdinPath {
		return fmt.Errorf("--export needs a file path")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}

func inputs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return []string{logreader.StdinPath}
	}
	return out
}

func normalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	return level
}
