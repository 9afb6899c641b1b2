package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/humbal1/pierce-doc-links-scrapper/config"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the document types the search form offers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		initLogger(cfg.Log)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		types, err := a.crawler.DocumentTypes(ctx)
		if err != nil {
			return err
		}
		for _, t := range types {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
