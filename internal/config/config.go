// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"censor-scan/internal/engine"
	"censor-scan/internal/logging"
	"censor-scan/internal/platform"
)

// Config represents the application configuration
type Config struct {
	CensoredWords       List          `yaml:"censoredWords"`
	AnalyseFolder       string        `yaml:"analyseFolder"`
	ReportsFolder       string        `yaml:"reportsFolder"`
	ExcludeFoldersWords List          `yaml:"excludeFoldersWords"`
	Autostart           bool          `yaml:"autostart"`
	Hidden              bool          `yaml:"hidden"`
	MaxWorkers          int           `yaml:"maxWorkers"`
	TickInterval        time.Duration `yaml:"tickInterval"`
	Mask                string        `yaml:"mask"`
	ExcelReport         bool          `yaml:"excelReport"`
	ReportFormats       List          `yaml:"reportFormats"`
	NoColor             bool          `yaml:"noColor"`

	Logging logging.Config `yaml:"logging"`

	// Path is the file the configuration was read from, empty for defaults
	Path string `yaml:"-"`
}

// List is a comma-separated value. In YAML it may also be written as a
// sequence.
type List []string

// UnmarshalYAML accepts "a, b" as well as [a, b]
func (l *List) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = SplitList(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = SplitList(strings.Join(items, ","))
		return nil
	default:
		return fmt.Errorf("line %d: expected a comma-separated string or a list", node.Line)
	}
}

// SplitList splits on commas, trims each item and drops empty ones
func SplitList(s string) List {
	var out List
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		TickInterval: engine.DefaultTickInterval,
		Mask:         "*******",
		Logging:      logging.DefaultConfig(),
	}
}

// LoadConfig reads the YAML file at configPath over the defaults. An empty
// path returns the defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	if configPath == "" {
		return config, nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	config.Path = cleanPath

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// FindConfigFile returns the first settings file found: appsettings.yaml,
// appsettings.yml or censor-scan.yaml in the working directory, then
// config.yaml in the platform config directory. It returns "" if none exists.
func FindConfigFile() string {
	for _, name := range []string{"appsettings.yaml", "appsettings.yml", "censor-scan.yaml"} {
		if fileExists(name) {
			return name
		}
	}

	standardConfig := filepath.Join(platform.GetPlatform().GetConfigDir(), "config.yaml")
	if fileExists(standardConfig) {
		return standardConfig
	}
	return ""
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ValidateConfig checks the values the engine does not validate itself
func ValidateConfig(config *Config) error {
	var errs []error
	if config.MaxWorkers < 0 {
		errs = append(errs, fmt.Errorf("maxWorkers must not be negative, got %d", config.MaxWorkers))
	}
	if config.TickInterval < 0 {
		errs = append(errs, fmt.Errorf("tickInterval must not be negative, got %s", config.TickInterval))
	}
	if !logging.ValidLevel(config.Logging.Level) {
		errs = append(errs, fmt.Errorf("invalid logging level %q", config.Logging.Level))
	}
	if !logging.ValidFormat(config.Logging.Format) {
		errs = append(errs, fmt.Errorf("invalid logging format %q", config.Logging.Format))
	}
	return errors.Join(errs...)
}

// Settings converts the configuration into engine settings
func (c *Config) Settings() engine.Settings {
	excludes := make([]string, 0, len(c.ExcludeFoldersWords))
	for _, ex := range c.ExcludeFoldersWords {
		excludes = append(excludes, strings.ToLower(ex))
	}

	formats := append([]string(nil), c.ReportFormats...)
	if c.ExcelReport {
		formats = append(formats, "xlsx")
	}

	return engine.Settings{
		CensoredWords:  append([]string(nil), c.CensoredWords...),
		AnalyseFolder:  c.AnalyseFolder,
		ReportsFolder:  c.ReportsFolder,
		ExcludeFolders: excludes,
		Autostart:      c.Autostart,
		Hidden:         c.Hidden,
		MaxWorkers:     c.MaxWorkers,
		TickInterval:   c.TickInterval,
		Mask:           c.Mask,
		ReportFormats:  formats,
	}
}

// Options are command-line switches that are not configuration values
type Options struct {
	ConfigPath  string
	ShowVersion bool
}

// DefineFlags registers every configuration key as a flag
func DefineFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to the settings file")
	flags.Bool("version", false, "Print version information and exit")

	flags.String("censoredWords", "", "Comma-separated list of banned terms")
	flags.String("analyseFolder", "", "Folder to scan (default: every ready volume)")
	flags.String("reportsFolder", "", "Folder receiving one report bundle per run")
	flags.String("excludeFoldersWords", "", "Comma-separated, case-insensitive folder path fragments to skip")
	flags.Bool("autostart", false, "Start scanning immediately")
	flags.Bool("hidden", false, "Run without the console UI and exit when the scan completes")
	flags.Int("maxWorkers", 0, "Maximum concurrent scan tasks (default: 4 per CPU)")
	flags.Duration("tickInterval", engine.DefaultTickInterval, "Scheduler period")
	flags.String("mask", "*******", "Replacement for every banned term")
	flags.Bool("excelReport", false, "Also write report.xlsx")
	flags.StringSlice("reportFormats", nil, "Additional report formats (xlsx, yaml, text)")
	flags.Bool("noColor", false, "Disable colored output")

	flags.String("logLevel", "", "Log level (debug, info, warn, error)")
	flags.String("logFormat", "", "Log format (text, json)")
	flags.String("logFile", "", "Write logs to this file, rotated by size")
}

// ApplyFlags overrides config with every flag set on the command line
func ApplyFlags(config *Config, flags *pflag.FlagSet) {
	if flags.Changed("censoredWords") {
		v, _ := flags.GetString("censoredWords")
		config.CensoredWords = SplitList(v)
	}
	if flags.Changed("analyseFolder") {
		config.AnalyseFolder, _ = flags.GetString("analyseFolder")
	}
	if flags.Changed("reportsFolder") {
		config.ReportsFolder, _ = flags.GetString("reportsFolder")
	}
	if flags.Changed("excludeFoldersWords") {
		v, _ := flags.GetString("excludeFoldersWords")
		config.ExcludeFoldersWords = SplitList(v)
	}
	if flags.Changed("autostart") {
		config.Autostart, _ = flags.GetBool("autostart")
	}
	if flags.Changed("hidden") {
		config.Hidden, _ = flags.GetBool("hidden")
	}
	if flags.Changed("maxWorkers") {
		config.MaxWorkers, _ = flags.GetInt("maxWorkers")
	}
	if flags.Changed("tickInterval") {
		config.TickInterval, _ = flags.GetDuration("tickInterval")
	}
	if flags.Changed("mask") {
		config.Mask, _ = flags.GetString("mask")
	}
	if flags.Changed("excelReport") {
		config.ExcelReport, _ = flags.GetBool("excelReport")
	}
	if flags.Changed("reportFormats") {
		v, _ := flags.GetStringSlice("reportFormats")
		config.ReportFormats = SplitList(strings.Join(v, ","))
	}
	if flags.Changed("noColor") {
		config.NoColor, _ = flags.GetBool("noColor")
	}
	if flags.Changed("logLevel") {
		config.Logging.Level, _ = flags.GetString("logLevel")
	}
	if flags.Changed("logFormat") {
		config.Logging.Format, _ = flags.GetString("logFormat")
	}
	if flags.Changed("logFile") {
		config.Logging.FilePath, _ = flags.GetString("logFile")
	}
}

// Load parses args, reads the settings file named by --config or found by
// FindConfigFile, and applies the flags on top. pflag.ErrHelp is returned
// for --help.
func Load(name string, args []string) (*Config, Options, error) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	DefineFlags(flags)
	if err := flags.Parse(args); err != nil {
		return nil, Options{}, err
	}

	var opts Options
	opts.ShowVersion, _ = flags.GetBool("version")
	opts.ConfigPath, _ = flags.GetString("config")
	if opts.ConfigPath == "" {
		opts.ConfigPath = FindConfigFile()
	}

	config, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, opts, err
	}
	ApplyFlags(config, flags)

	if err := ValidateConfig(config); err != nil {
		return nil, opts, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, opts, nil
}
