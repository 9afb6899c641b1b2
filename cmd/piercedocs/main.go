// Command piercedocs scrapes recorded-document links from the Pierce County
// records site, either as an HTTP job service or as a one-shot run.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "piercedocs",
	Short: "Pierce County recorded-document link scraper",
	Long:  "piercedocs searches the Pierce County recorded-documents site by document type and saves instrument numbers, parties and image links to CSV or XLSX.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if envFile == "" {
			// A missing default .env is fine.
			_ = godotenv.Load()
			return nil
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default: ./.env when present)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
