package cmd

import (
	"context"
	"fmt"
	"os"

	"billbook/internal/logger"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "billbook",
	Short: "Billbook - invoices and estimates for contractors",
	Long: `Billbook keeps invoices and estimates for construction and interior
contractors. Line items are priced from their measurements (area, volume,
brass, running length or count), totals carry optional GST and advances,
and bills can be exported as PDF, Excel or to a Google Sheet.

The bill being edited is kept as a draft in the local database, so each
command continues where the previous one stopped.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to the bill database (default: BILLBOOK_DB_PATH or billbook.db)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON format")
}
