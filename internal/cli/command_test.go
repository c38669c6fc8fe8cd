package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestCreateRootCommand(t *testing.T) {
	viper.Reset()
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	// Test basic command properties
	if cmd.Use != "sheettrans [input.xlsx]" {
		t.Errorf("Expected Use to be 'sheettrans [input.xlsx]', got %s", cmd.Use)
	}

	if !strings.Contains(cmd.Short, "Spreadsheet Translator") {
		t.Errorf("Expected Short description to contain 'Spreadsheet Translator'")
	}

	if cmd.Version == "" {
		t.Error("Expected a version")
	}

	flagNames := []string{
		"config", "output", "batch", "summary", "lang", "list-models", "archive-cache",
		"source", "target", "layout", "source-column", "skip-columns", "sheet",
		"retranslate", "exclude", "provider", "model", "base-url",
		"concurrency", "rate", "burst", "max-attempts", "timeout", "shield",
		"cache", "no-cache",
	}

	for _, name := range flagNames {
		t.Run("flag_"+name, func(t *testing.T) {
			var flag *pflag.Flag
			if name == "config" {
				flag = cmd.PersistentFlags().Lookup(name)
			} else {
				flag = cmd.Flags().Lookup(name)
			}
			if flag == nil {
				t.Errorf("Expected flag %s to exist", name)
			}
		})
	}
}

func TestSetupFlags(t *testing.T) {
	viper.Reset()
	cmd := &cobra.Command{}
	flags := NewFlags()

	setupFlags(cmd, flags)

	cacheFlag := cmd.Flags().Lookup("cache")
	if cacheFlag == nil {
		t.Fatal("cache flag not found")
	}

	home, _ := os.UserHomeDir()
	expectedDefault := filepath.Join(home, ".local", "state", "sheettrans", "cache.db")
	if cacheFlag.DefValue != expectedDefault {
		t.Errorf("Expected default cache to be %s, got %s", expectedDefault, cacheFlag.DefValue)
	}

	layoutFlag := cmd.Flags().Lookup("layout")
	if layoutFlag == nil {
		t.Fatal("layout flag not found")
	}
	if layoutFlag.DefValue != "cells" {
		t.Errorf("Expected default layout to be cells, got %s", layoutFlag.DefValue)
	}

	if err := cmd.Flags().Parse([]string{"-t", "fr", "-t", "de", "-c", "8"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(flags.Targets) != 2 || flags.Targets[0] != "fr" || flags.Targets[1] != "de" {
		t.Errorf("Targets = %v", flags.Targets)
	}
	if flags.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", flags.Concurrency)
	}
}

func TestInitConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfgPath := filepath.Join(t.TempDir(), "test-config.yaml")
	content := `backend:
  provider: gemini
  gemini_key: config-gemini-key
dispatch:
  concurrency: 2
  timeout: 15s
translation:
  targets: [fr, es]
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}

	InitConfig(cfgPath)

	if viper.ConfigFileUsed() != cfgPath {
		t.Errorf("ConfigFileUsed = %q, want %q", viper.ConfigFileUsed(), cfgPath)
	}
	if viper.GetString("backend.provider") != "gemini" {
		t.Errorf("backend.provider = %q", viper.GetString("backend.provider"))
	}

	// Test environment variable prefix
	t.Setenv("SHEETTRANS_TEST_VAR", "test-value")
	if viper.GetString("test_var") != "test-value" {
		t.Error("Environment variable not properly loaded")
	}

	// Nested keys are reachable through the key replacer
	t.Setenv("SHEETTRANS_DISPATCH_RATE", "7.5")
	if viper.GetFloat64("dispatch.rate") != 7.5 {
		t.Errorf("dispatch.rate = %v, want 7.5", viper.GetFloat64("dispatch.rate"))
	}
}

func TestResolveFlags(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfgPath := filepath.Join(t.TempDir(), "sheettrans.yaml")
	content := `backend:
  provider: gemini
dispatch:
  concurrency: 2
  timeout: 15s
translation:
  targets: [fr, es]
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}

	cmd := &cobra.Command{}
	flags := NewFlags()
	setupFlags(cmd, flags)
	InitConfig(cfgPath)

	// Flags given on the command line win over the config file
	if err := cmd.Flags().Parse([]string{"--concurrency", "9"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	ResolveFlags(flags)

	if flags.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", flags.Provider)
	}
	if flags.Concurrency != 9 {
		t.Errorf("Concurrency = %d, want 9", flags.Concurrency)
	}
	if flags.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", flags.Timeout)
	}
	if len(flags.Targets) != 2 || flags.Targets[0] != "fr" {
		t.Errorf("Targets = %v", flags.Targets)
	}
	// Untouched settings keep their flag defaults
	if flags.MaxAttempts != 3 || flags.Layout != "cells" {
		t.Errorf("Defaults lost: attempts=%d layout=%q", flags.MaxAttempts, flags.Layout)
	}
}

func TestGetAPIKey(t *testing.T) {
	tests := []struct {
		name      string
		provider  string
		envVar    string
		envKey    string
		configKey string
		configVal string
		expected  string
	}{
		{"openai from environment", "openai", "OPENAI_API_KEY", "env-key", "backend.openai_key", "config-key", "env-key"},
		{"openai from config", "openai", "OPENAI_API_KEY", "", "backend.openai_key", "config-key", "config-key"},
		{"gemini from environment", "gemini", "GEMINI_API_KEY", "env-key", "backend.gemini_key", "config-key", "env-key"},
		{"gemini from config", "Gemini", "GEMINI_API_KEY", "", "backend.gemini_key", "config-key", "config-key"},
		{"empty when neither set", "openai", "OPENAI_API_KEY", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()

			t.Setenv(tt.envVar, tt.envKey)
			if tt.configKey != "" {
				viper.Set(tt.configKey, tt.configVal)
			}

			if got := GetAPIKey(tt.provider); got != tt.expected {
				t.Errorf("GetAPIKey(%q) = %q, want %q", tt.provider, got, tt.expected)
			}
		})
	}
}

func TestBindFlagsToViper(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cmd := &cobra.Command{}
	flags := NewFlags()
	setupFlags(cmd, flags)

	// Set some flag values
	cmd.Flags().Set("output", "/test/output.xlsx")
	cmd.Flags().Set("provider", "gemini")
	cmd.Flags().Set("max-attempts", "5")

	if viper.GetString("output.path") != "/test/output.xlsx" {
		t.Errorf("Expected output.path to be /test/output.xlsx, got %s", viper.GetString("output.path"))
	}
	if viper.GetString("backend.provider") != "gemini" {
		t.Errorf("Expected backend.provider to be gemini, got %s", viper.GetString("backend.provider"))
	}
	if viper.GetInt("dispatch.max_attempts") != 5 {
		t.Errorf("Expected dispatch.max_attempts to be 5, got %d", viper.GetInt("dispatch.max_attempts"))
	}
}
