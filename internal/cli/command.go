package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/sheettrans/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheettrans [input.xlsx]",
		Short: "Spreadsheet Translator",
		Long: `sheettrans translates the text cells of xlsx workbooks with an LLM backend.

Every distinct text is translated once per target language, placeholders
such as {name}, %s, <b> and URLs are protected, and results are cached so
repeated runs only pay for new text.

Examples:
  sheettrans ui.xlsx -t fr -t de                     # ui_fr.xlsx and ui_de.xlsx
  sheettrans loc.xlsx --layout columns -t all        # fill every language column
  sheettrans --batch workbooks.txt -t es             # translate many workbooks
  sheettrans ui.xlsx -t ja --provider gemini         # use Gemini instead of OpenAI`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.sheettrans.yaml)")

	// Local flags
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Output workbook (default: <input>_<lang>.xlsx, or <input>_translated.xlsx for --layout columns)")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Translate workbooks listed in file (one per line, optional 'input = output')")
	cmd.Flags().StringVar(&flags.SummaryFile, "summary", "", "Summary file, .json or .yaml (default: <input>_summary.json)")
	cmd.Flags().StringVar(&flags.Lang, "lang", flags.Lang, "Language of the printed summary: en, fr, de")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available chat models for the current API key")
	cmd.Flags().BoolVar(&flags.ArchiveCache, "archive-cache", false, "Move the cache file to a timestamped archive and exit")

	// Extraction flags
	cmd.Flags().StringVarP(&flags.SourceLocale, "source", "s", flags.SourceLocale, "Source language (code or English name)")
	cmd.Flags().StringSliceVarP(&flags.Targets, "target", "t", nil, "Target languages (repeatable; 'all' selects every language column with --layout columns)")
	cmd.Flags().StringVar(&flags.Layout, "layout", flags.Layout, "Sheet layout: cells (translate text cells in place) or columns (fill language columns)")
	cmd.Flags().StringVar(&flags.SourceColumn, "source-column", flags.SourceColumn, "Header of the source column (--layout columns)")
	cmd.Flags().StringSliceVar(&flags.SkipColumns, "skip-columns", flags.SkipColumns, "Headers that are never target columns (--layout columns)")
	cmd.Flags().StringSliceVar(&flags.Sheets, "sheet", nil, "Only process the named sheets (repeatable)")
	cmd.Flags().BoolVar(&flags.Retranslate, "retranslate", false, "Overwrite target cells that already contain text (--layout columns)")
	cmd.Flags().StringSliceVar(&flags.Exclude, "exclude", nil, "Extra regular expressions for text that must never be translated")

	// Backend flags
	cmd.Flags().StringVar(&flags.Provider, "provider", flags.Provider, "Translation backend: openai or gemini")
	cmd.Flags().StringVar(&flags.Model, "model", "", "Model name (default: gpt-4o-mini for openai, gemini-2.5-flash for gemini)")
	cmd.Flags().StringVar(&flags.BaseURL, "base-url", "", "Base URL of an OpenAI compatible server (e.g. http://localhost:11434/v1 for Ollama)")

	// Dispatch flags
	cmd.Flags().IntVarP(&flags.Concurrency, "concurrency", "c", flags.Concurrency, "Maximum simultaneous backend requests")
	cmd.Flags().Float64Var(&flags.Rate, "rate", flags.Rate, "Maximum backend requests per second (0 = unlimited)")
	cmd.Flags().IntVar(&flags.Burst, "burst", flags.Burst, "Requests allowed in a burst above the rate")
	cmd.Flags().IntVar(&flags.MaxAttempts, "max-attempts", flags.MaxAttempts, "Attempts per text before giving up on transient errors")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Timeout of a single backend request")
	cmd.Flags().StringSliceVar(&flags.ShieldClasses, "shield", flags.ShieldClasses, "Protected pattern classes in priority order: placeholder, printf, markup, url, number")

	// Cache flags
	cmd.Flags().StringVar(&flags.CachePath, "cache", DefaultCachePath(), "Translation cache: sqlite file, .yaml file or postgres:// URL")
	cmd.Flags().BoolVar(&flags.NoCache, "no-cache", false, "Do not read or write the persistent cache")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

// viperKeys maps flag names to configuration keys
var viperKeys = map[string]string{
	"output":        "output.path",
	"summary":       "report.summary",
	"lang":          "report.lang",
	"source":        "translation.source",
	"target":        "translation.targets",
	"layout":        "translation.layout",
	"source-column": "translation.source_column",
	"skip-columns":  "translation.skip_columns",
	"sheet":         "translation.sheets",
	"retranslate":   "translation.retranslate",
	"exclude":       "translation.exclude",
	"provider":      "backend.provider",
	"model":         "backend.model",
	"base-url":      "backend.base_url",
	"concurrency":   "dispatch.concurrency",
	"rate":          "dispatch.rate",
	"burst":         "dispatch.burst",
	"max-attempts":  "dispatch.max_attempts",
	"timeout":       "dispatch.timeout",
	"shield":        "shield.classes",
	"cache":         "cache.path",
	"no-cache":      "cache.disabled",
}

func bindFlagsToViper(cmd *cobra.Command) {
	for flag, key := range viperKeys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", flag, err)
		}
	}
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	// A .env file is optional; variables may come from the environment
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".sheettrans" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sheettrans")
	}

	// Environment variables, e.g. SHEETTRANS_BACKEND_PROVIDER
	viper.SetEnvPrefix("SHEETTRANS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// ResolveFlags copies the effective settings (flag, environment, config
// file or default, in that order) back into flags
func ResolveFlags(flags *Flags) {
	flags.Output = viper.GetString("output.path")
	flags.SummaryFile = viper.GetString("report.summary")
	flags.Lang = viper.GetString("report.lang")

	flags.SourceLocale = viper.GetString("translation.source")
	flags.Targets = viper.GetStringSlice("translation.targets")
	flags.Layout = viper.GetString("translation.layout")
	flags.SourceColumn = viper.GetString("translation.source_column")
	flags.SkipColumns = viper.GetStringSlice("translation.skip_columns")
	flags.Sheets = viper.GetStringSlice("translation.sheets")
	flags.Retranslate = viper.GetBool("translation.retranslate")
	flags.Exclude = viper.GetStringSlice("translation.exclude")

	flags.Provider = viper.GetString("backend.provider")
	flags.Model = viper.GetString("backend.model")
	flags.BaseURL = viper.GetString("backend.base_url")

	flags.Concurrency = viper.GetInt("dispatch.concurrency")
	flags.Rate = viper.GetFloat64("dispatch.rate")
	flags.Burst = viper.GetInt("dispatch.burst")
	flags.MaxAttempts = viper.GetInt("dispatch.max_attempts")
	flags.Timeout = viper.GetDuration("dispatch.timeout")

	flags.ShieldClasses = viper.GetStringSlice("shield.classes")

	flags.CachePath = viper.GetString("cache.path")
	flags.NoCache = viper.GetBool("cache.disabled")
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("backend.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("backend.gemini_key")
}

// GetAPIKey returns the key for the named provider
func GetAPIKey(provider string) string {
	if strings.EqualFold(provider, "gemini") {
		return GetGeminiKey()
	}
	return GetOpenAIKey()
}
