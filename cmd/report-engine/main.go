// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the report-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/report-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the report-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "report-engine",
	Short: "Chapter-by-chapter business report generation with deduplicated citations",
	Long: `report-engine assembles long-form business analysis reports. Each chapter is
researched through web search APIs and written by an LLM independently, then
chapter-local citations are merged into one globally numbered, deduplicated
bibliography.

Subcommands: generate builds a full report, outline produces or inspects a
chapter outline, search runs an ad-hoc source query, and archive manages
previously generated reports.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional developer convenience; absence is not an error.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./report-engine.yaml or ~/.config/report-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("report-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "report-engine"))
		}
	}

	viper.SetDefault("search.max_results", 10)
	viper.SetDefault("search.rate_limit", 1.0)
	viper.SetDefault("search.max_retries", 4)
	viper.SetDefault("generation.max_tokens", 2000)
	viper.SetDefault("archive.archive_dir", "archive")
	viper.SetDefault("archive.max_results", 20)

	viper.SetEnvPrefix("REPORT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
