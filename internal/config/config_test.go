// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "appsettings.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoadConfig_NoFile(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TickInterval != 2*time.Millisecond {
		t.Errorf("expected default tick interval, got %s", cfg.TickInterval)
	}
	if cfg.Mask != "*******" {
		t.Errorf("expected default mask, got %q", cfg.Mask)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Logging.Level)
	}
}

func TestLoadConfig_NonexistentFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configPath := writeConfig(t, `
censoredWords: "secret, password ,,token"
analyseFolder: /data
reportsFolder: /reports
excludeFoldersWords:
  - Windows
  - node_modules
autostart: true
tickInterval: 5ms
excelReport: true
logging:
  level: debug
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := (List{"secret", "password", "token"}); !reflect.DeepEqual(cfg.CensoredWords, want) {
		t.Errorf("expected words %v, got %v", want, cfg.CensoredWords)
	}
	if want := (List{"Windows", "node_modules"}); !reflect.DeepEqual(cfg.ExcludeFoldersWords, want) {
		t.Errorf("expected excludes %v, got %v", want, cfg.ExcludeFoldersWords)
	}
	if !cfg.Autostart || cfg.Hidden {
		t.Errorf("expected autostart only, got autostart=%v hidden=%v", cfg.Autostart, cfg.Hidden)
	}
	if cfg.TickInterval != 5*time.Millisecond {
		t.Errorf("expected 5ms, got %s", cfg.TickInterval)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("expected debug/text logging, got %s", cfg.Logging)
	}
	if cfg.Path != configPath {
		t.Errorf("expected path %q, got %q", configPath, cfg.Path)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "censoredWords: [unterminated\n")
	if _, err := LoadConfig(configPath); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	configPath := writeConfig(t, "maxWorkers: -1\nlogging:\n  format: xml\n")
	if _, err := LoadConfig(configPath); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestSettings(t *testing.T) {
	cfg := Default()
	cfg.CensoredWords = List{"secret"}
	cfg.ExcludeFoldersWords = List{"Windows", "CACHE"}
	cfg.ReportFormats = List{"yaml"}
	cfg.ExcelReport = true
	cfg.Hidden = true

	s := cfg.Settings()
	if !reflect.DeepEqual(s.ExcludeFolders, []string{"windows", "cache"}) {
		t.Errorf("expected lower-cased excludes, got %v", s.ExcludeFolders)
	}
	if !reflect.DeepEqual(s.ReportFormats, []string{"yaml", "xlsx"}) {
		t.Errorf("unexpected formats %v", s.ReportFormats)
	}
	if !s.Hidden || s.Mask != "*******" {
		t.Errorf("unexpected settings %+v", s)
	}
}

func TestApplyFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cfg := Default()
	cfg.ReportsFolder = "/from-file"
	cfg.CensoredWords = List{"file-word"}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	DefineFlags(flags)
	if err := flags.Parse([]string{"--censoredWords", "a,b", "--hidden", "--maxWorkers=3", "--logLevel", "warn"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	ApplyFlags(cfg, flags)

	if !reflect.DeepEqual(cfg.CensoredWords, List{"a", "b"}) {
		t.Errorf("expected flag words, got %v", cfg.CensoredWords)
	}
	if cfg.ReportsFolder != "/from-file" {
		t.Errorf("reports folder overridden by unset flag: %q", cfg.ReportsFolder)
	}
	if !cfg.Hidden || cfg.MaxWorkers != 3 || cfg.Logging.Level != "warn" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.TickInterval != 2*time.Millisecond {
		t.Errorf("tick interval overridden by unset flag: %s", cfg.TickInterval)
	}
}

func TestLoad_ConfigFlag(t *testing.T) {
	configPath := writeConfig(t, "censoredWords: secret\nreportsFolder: /r\n")

	cfg, opts, err := Load("censor-scan", []string{"--config", configPath, "--reportsFolder", "/override"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.ConfigPath != configPath || opts.ShowVersion {
		t.Errorf("unexpected options %+v", opts)
	}
	if cfg.ReportsFolder != "/override" {
		t.Errorf("expected flag to win, got %q", cfg.ReportsFolder)
	}
	if !reflect.DeepEqual(cfg.CensoredWords, List{"secret"}) {
		t.Errorf("expected words from file, got %v", cfg.CensoredWords)
	}
}

func TestLoad_Help(t *testing.T) {
	_, _, err := Load("censor-scan", []string{"--help"})
	if !errors.Is(err, pflag.ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
}

func TestFindConfigFile_PlatformDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(t.TempDir())
	t.Setenv("CENSOR_SCAN_CONFIG_DIR", dir)

	if got := FindConfigFile(); got != "" {
		t.Fatalf("expected no config file, got %q", got)
	}

	standard := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(standard, []byte("hidden: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(); got != standard {
		t.Errorf("expected %q, got %q", standard, got)
	}

	if err := os.WriteFile("appsettings.yaml", []byte("hidden: false\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(); got != "appsettings.yaml" {
		t.Errorf("expected working directory file first, got %q", got)
	}
}
