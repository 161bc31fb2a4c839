// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/report-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run an ad-hoc source search",
	Long: `Search queries the configured web search providers (Tavily first, then
Bocha as fallback) and prints the candidate sources a report chapter on this
query would cite.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("count", 10, "maximum number of results")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	count, _ := cmd.Flags().GetInt("count")

	chain, err := searchChain()
	if err != nil {
		return err
	}

	results, err := chain.Search(context.Background(), query, count)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	fmt.Print(formatSearchOutput(query, results))
	return nil
}

// formatSearchOutput renders search results as numbered entries with the
// snippet indented under each title.
func formatSearchOutput(query string, results []types.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n", query)
	fmt.Fprintf(&b, "Results: %d\n\n", len(results))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
		b.WriteString("\n")
	}
	return b.String()
}
