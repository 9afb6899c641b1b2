package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/humbal1/pierce-doc-links-scrapper/config"
	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

var (
	scrapeType     string
	scrapeMaxPages int
	scrapeFormat   string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one crawl in the foreground and save the results",
	Example: `  piercedocs scrape --type "TRUSTEE SALE"
  piercedocs scrape --type DEED --max-pages 5 --format xlsx`,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeType, "type", "t", "TRUSTEE SALE", "Document type label to search")
	scrapeCmd.Flags().IntVar(&scrapeMaxPages, "max-pages", 0, "Maximum result pages (default: PIERCE_MAX_PAGES)")
	scrapeCmd.Flags().StringVar(&scrapeFormat, "format", "", "Result format: csv or xlsx (default: PIERCE_RESULTS_FORMAT)")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if scrapeFormat != "" {
		cfg.Results.Format = scrapeFormat
	}
	initLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	report, err := a.crawler.Crawl(ctx, scrapeType, scrapeMaxPages, func(msg string) {
		fmt.Fprintln(out, msg)
	})
	if err != nil && len(report.Records) == 0 {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "crawl stopped early: %v\n", err)
	}

	if !report.DocumentTypeFound {
		return fmt.Errorf("document type not found: %s", scrapeType)
	}

	name, saveErr := a.results.Save(ctx, report.DocumentType, report.Records)
	if saveErr != nil {
		return models.NewCrawlError(models.ErrCodeResultSave, "failed to save results", saveErr)
	}

	fmt.Fprintf(out, "\nTotal records: %d across %d page(s)\n", len(report.Records), report.Pages)
	for i, r := range report.Records {
		if i == 3 {
			fmt.Fprintf(out, "  ... %d more\n", len(report.Records)-i)
			break
		}
		fmt.Fprintf(out, "  %s  %s  %s -> %s\n", r.Instrument, r.RecordedDate, r.Grantor, r.Grantee)
	}
	if name != "" {
		fmt.Fprintf(out, "Saved %s\n", name)
	}
	return err
}
