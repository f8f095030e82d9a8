package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"

	"billbook/internal/export"
	"billbook/internal/logger"
	"billbook/internal/sheets"
	"billbook/pkg/services"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the bill as PDF, Excel or to Google Sheets",
}

var exportPDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Render the bill as a PDF document",
	Example: `  billbook export pdf
  billbook export pdf -o patil-plaster.pdf`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFileExport(cmd, export.NewPDF())
	},
}

var exportExcelCmd = &cobra.Command{
	Use:     "excel",
	Aliases: []string{"xlsx"},
	Short:   "Write the bill to an Excel workbook",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFileExport(cmd, export.NewExcel())
	},
}

var exportSheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Append the bill to a Google Sheet",
	Long: `Append one row per line item and a totals row to a Google Sheet.

Required environment variables:
  GOOGLE_SHEET_URL - URL of the spreadsheet (or --sheet-url)
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Args: cobra.NoArgs,
	RunE: runSheetsExport,
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportPDFCmd, exportExcelCmd, exportSheetsCmd)

	for _, c := range []*cobra.Command{exportPDFCmd, exportExcelCmd} {
		c.Flags().StringP("output", "o", "", "Output file path (default: <bill number><ext>)")
	}
	exportSheetsCmd.Flags().String("sheet-url", "", "Google Sheet URL (default: GOOGLE_SHEET_URL)")
	exportSheetsCmd.Flags().String("worksheet", "", "Worksheet name (default: GOOGLE_SHEET_WORKSHEET or Bills)")
}

// verifyPayload logs and prints any total the rendered document would
// disagree on. It never blocks the export.
func verifyPayload(w io.Writer, p *services.ExportPayload) {
	result := export.NewVerifier().Verify(p)
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}

func runFileExport(cmd *cobra.Command, exporter services.Exporter) error {
	log := logger.WithComponent("export")
	outputPath, _ := cmd.Flags().GetString("output")

	return runSession(cmd, log, false, func(ctx context.Context, a *app) error {
		p := a.sess.Payload()
		verifyPayload(cmd.ErrOrStderr(), p)

		if outputPath == "" {
			outputPath = unsafeFileChars.ReplaceAllString(p.BillNumber, "_") + exporter.Extension()
		}

		file, err := os.Create(outputPath)
		if err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to create output file")
			return fmt.Errorf("failed to create output file: %w", err)
		}

		if err := exporter.Export(ctx, p, file); err != nil {
			_ = file.Close()
			_ = os.Remove(outputPath)
			return fmt.Errorf("failed to export %s: %w", p.BillNumber, err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}

		log.Info().
			Str("bill_number", p.BillNumber).
			Str("output_file", outputPath).
			Msg("Bill exported")

		if a.json {
			return a.printJSON(map[string]string{"bill_number": p.BillNumber, "file": outputPath})
		}
		a.printf("Wrote %s\n", outputPath)
		return nil
	})
}

func runSheetsExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export-sheets")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	worksheet, _ := cmd.Flags().GetString("worksheet")

	return runSession(cmd, log, false, func(ctx context.Context, a *app) error {
		if sheetURL == "" {
			sheetURL = a.cfg.GoogleSheetURL
		}
		if worksheet == "" {
			worksheet = a.cfg.GoogleSheetWorksheet
		}
		if sheetURL == "" {
			return fmt.Errorf("GOOGLE_SHEET_URL environment variable or --sheet-url is required")
		}

		p := a.sess.Payload()
		verifyPayload(cmd.ErrOrStderr(), p)

		sheetsService, err := sheets.NewSheetsService(ctx, sheetURL)
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets service: %w", err)
		}
		if err := sheetsService.WriteBill(ctx, p, worksheet); err != nil {
			return fmt.Errorf("failed to write bill to Google Sheet: %w", err)
		}

		a.printf("Appended %s (%d items) to sheet %q\n", p.BillNumber, len(p.Rows), worksheet)
		return nil
	})
}
