// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/report-engine/internal/generate"
	"github.com/pdiddy/report-engine/pkg/types"
)

var outlineCmd = &cobra.Command{
	Use:   "outline <topic>",
	Short: "Generate a chapter outline for a topic",
	Long: `Outline asks the model for a chapter plan without writing the report.
The result prints as YAML, or saves to a file with --out for later editing
and use with generate --outline.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOutline,
}

func init() {
	outlineCmd.Flags().String("out", "", "write the outline to this YAML file instead of stdout")

	rootCmd.AddCommand(outlineCmd)
}

func runOutline(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	genCfg := generationConfig("")
	if genCfg.APIKey == "" {
		return fmt.Errorf("no ARK API key: add .secrets/ark-api-key or set ARK_API_KEY")
	}
	backend := generate.NewArkBackend(genCfg)

	chapters, err := generate.GenerateOutline(context.Background(), backend, topic)
	if err != nil {
		return err
	}
	outline := &types.Outline{Topic: topic, Chapters: chapters}

	outPath, _ := cmd.Flags().GetString("out")
	if outPath != "" {
		if err := generate.SaveOutlineFile(outPath, outline); err != nil {
			return err
		}
		fmt.Printf("Outline written to %s\n", outPath)
		return nil
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(outline)
}
