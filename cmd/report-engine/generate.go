// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/report-engine/internal/archive"
	"github.com/pdiddy/report-engine/internal/assemble"
	"github.com/pdiddy/report-engine/internal/generate"
	"github.com/pdiddy/report-engine/internal/search"
	"github.com/pdiddy/report-engine/internal/secrets"
	"github.com/pdiddy/report-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate a complete multi-chapter report for a topic",
	Long: `Generate researches and writes a full report chapter by chapter. Each
chapter gets its own web search pass; citations are deduplicated by URL
across chapters into one bibliography. Chapters run strictly in order so
each one can build on a summary of the chapters before it.

Interrupting the run (Ctrl-C) keeps the chapters finished so far.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("outline", "", "path to an outline YAML file (skips outline generation)")
	generateCmd.Flags().Int("search-count", 10, "source candidates fetched per chapter")
	generateCmd.Flags().Int("summary-limit", 200, "carried-forward chapter summary budget in runes")
	generateCmd.Flags().Duration("call-timeout", 2*time.Minute, "timeout per search or generation call")
	generateCmd.Flags().String("output-dir", "output/reports", "directory for assembled reports")
	generateCmd.Flags().String("model", "", "chat model or endpoint identifier")
	generateCmd.Flags().Bool("no-archive", false, "skip saving the finished report to the archive")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	model, _ := cmd.Flags().GetString("model")
	genCfg := generationConfig(model)
	if genCfg.APIKey == "" {
		return fmt.Errorf("no ARK API key: add .secrets/ark-api-key or set ARK_API_KEY")
	}
	genCfg.SearchCount, _ = cmd.Flags().GetInt("search-count")
	genCfg.SummaryLimit, _ = cmd.Flags().GetInt("summary-limit")
	backend := generate.NewArkBackend(genCfg)

	chain, err := searchChain()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chapters, err := resolveOutline(ctx, cmd, backend, topic)
	if err != nil {
		return err
	}

	callTimeout, _ := cmd.Flags().GetDuration("call-timeout")
	doc, err := assemble.AssembleReport(ctx, topic, chapters,
		chain.Search, generate.NewChapterFunc(backend),
		assemble.Options{
			SearchCount:  genCfg.SearchCount,
			SummaryLimit: genCfg.SummaryLimit,
			CallTimeout:  callTimeout,
			Progress: func(line string) {
				fmt.Fprintln(os.Stderr, line)
			},
		})
	if err != nil && doc == "" {
		return err
	}
	if err != nil {
		// Cancelled mid-run: keep the partial document.
		fmt.Fprintf(os.Stderr, "warning: run ended early (%v); writing partial report\n", err)
	}

	document := "# " + topic + " 深度分析报告\n\n" + doc

	outDir, _ := cmd.Flags().GetString("output-dir")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	name := archive.Slug(topic) + "-" + time.Now().Format("20060102-150405") + ".md"
	outPath := filepath.Join(outDir, name)
	if err := os.WriteFile(outPath, []byte(document), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Printf("Report written to %s\n", outPath)

	if noArchive, _ := cmd.Flags().GetBool("no-archive"); !noArchive {
		if err := archiveReport(topic, len(chapters), document); err != nil {
			fmt.Fprintf(os.Stderr, "warning: archiving failed: %v\n", err)
		}
	}
	return nil
}

// resolveOutline loads the outline file when given, otherwise asks the
// backend (falling back to the default outline on any model trouble).
func resolveOutline(ctx context.Context, cmd *cobra.Command, backend generate.Backend, topic string) ([]types.ChapterSpec, error) {
	outlinePath, _ := cmd.Flags().GetString("outline")
	if outlinePath != "" {
		outline, err := generate.LoadOutlineFile(outlinePath)
		if err != nil {
			return nil, err
		}
		return outline.Chapters, nil
	}

	fmt.Fprintln(os.Stderr, "generating outline...")
	return generate.GenerateOutline(ctx, backend, topic)
}

// generationConfig merges a flag override, viper config, secrets, and the
// environment into the model backend settings.
func generationConfig(modelOverride string) types.GenerationConfig {
	var cfg types.GenerationConfig
	cfg.Model = modelOverride
	if cfg.Model == "" {
		cfg.Model = viper.GetString("generation.model")
	}
	if cfg.Model == "" {
		cfg.Model = os.Getenv("ARK_MODEL_ENDPOINT")
	}
	cfg.APIKey = secrets.Resolve(loadedSecrets, viper.GetString("generation.api_key"), "ark-api-key", "ARK_API_KEY")
	cfg.BaseURL = viper.GetString("generation.base_url")
	cfg.MaxTokens = viper.GetInt("generation.max_tokens")
	return cfg
}

// searchChain builds the provider chain from configured API keys: Tavily
// first, Bocha as fallback. At least one key must be present.
func searchChain() (*search.Chain, error) {
	searchCfg := types.SearchConfig{
		MaxResults: viper.GetInt("search.max_results"),
		RateLimit:  viper.GetFloat64("search.rate_limit"),
		MaxRetries: viper.GetInt("search.max_retries"),
	}

	var providers []search.Provider
	if key := secrets.Resolve(loadedSecrets, viper.GetString("search.tavily_api_key"), "tavily-api-key", "TAVILY_API_KEY"); key != "" {
		providers = append(providers, search.NewTavily(key, searchCfg))
	}
	if key := secrets.Resolve(loadedSecrets, viper.GetString("search.bocha_api_key"), "bocha-api-key", "BOCHA_API_KEY"); key != "" {
		providers = append(providers, search.NewBocha(key, searchCfg))
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no search provider configured: add .secrets/tavily-api-key or .secrets/bocha-api-key")
	}
	return search.NewChain(os.Stderr, providers...), nil
}

// archiveReport saves a finished document to the report archive.
func archiveReport(topic string, chapters int, document string) error {
	store, err := archive.NewStore(viper.GetString("archive.archive_dir"), viper.GetInt("archive.max_results"))
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Save(context.Background(), archive.Report{
		Topic:    topic,
		Chapters: chapters,
		RefCount: strings.Count(document, "\n- [Ref-"),
		Document: document,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Archived as %s\n", id)
	return nil
}
