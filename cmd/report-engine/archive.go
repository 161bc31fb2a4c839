// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/report-engine/internal/archive"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage archived reports",
	Long: `Archive lists, searches, and displays previously generated reports.
The archive index lives at <archive-dir>/index/reports.db with full-text
search over topics and report bodies.`,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived reports, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer store.Close()

		reports, err := store.List(context.Background())
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Println("No archived reports.")
			return nil
		}
		for _, r := range reports {
			fmt.Printf("%s  %s  (%d chapters, %d refs)\n",
				r.CreatedAt.Format("2006-01-02 15:04"), r.ID, r.Chapters, r.RefCount)
		}
		return nil
	},
}

var archiveSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over archived reports",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer store.Close()

		reports, err := store.Search(context.Background(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, r := range reports {
			fmt.Printf("%s  %s\n", r.ID, r.Topic)
		}
		return nil
	},
}

var archiveShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Print an archived report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := store.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(report.Document)
		return nil
	},
}

func init() {
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveSearchCmd)
	archiveCmd.AddCommand(archiveShowCmd)

	rootCmd.AddCommand(archiveCmd)
}

func openArchive() (*archive.Store, error) {
	return archive.NewStore(viper.GetString("archive.archive_dir"), viper.GetInt("archive.max_results"))
}
