package cmd

import (
	"context"
	"fmt"
	"os"

	"billbook/internal/bill"
	"billbook/internal/calc"
	"billbook/internal/export"
	"billbook/internal/logger"
	"billbook/internal/ocr"
	"billbook/internal/receipt"
	"billbook/internal/session"
	"billbook/internal/units"
	"billbook/internal/voice"
	"billbook/pkg/models"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var itemScanCmd = &cobra.Command{
	Use:   "scan <image|pdf>",
	Short: "Add line items from a photo of a measurement sheet",
	Long: `Recognise a photographed or scanned measurement sheet with Google Cloud
Vision and add one line item per row. Rows are parsed like 'item parse'.
Rows that cannot be parsed are reported and skipped.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  billbook item scan site-notes.jpg
  billbook item scan measurements.pdf --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runItemScan,
}

var expenseScanCmd = &cobra.Command{
	Use:   "scan <pdf|image>",
	Short: "Record an expense from a supplier bill",
	Long: `Read a supplier bill or receipt with Google Document AI and record its
total as a job expense.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_PROJECT_ID - Google Cloud project ID
  DOCUMENT_AI_PROCESSOR_ID - Invoice or expense parser processor ID
  GOOGLE_LOCATION - Processor location (default: us)`,
	Example: `  billbook expense scan cement-bill.pdf --category Material
  billbook expense scan tempo-receipt.jpg --category Transport --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runExpenseScan,
}

type sheetReader interface {
	ocr.SheetReader
	Close() error
}

type receiptProcessor interface {
	receipt.Processor
	Close() error
}

// Constructors for the Google services, replaced in tests.
var (
	newSheetReader = func(ctx context.Context) (sheetReader, error) {
		svc, err := ocr.NewGoogleVisionOCRService(ctx)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}

	newReceiptProcessor = func(ctx context.Context, cfg receipt.DocumentAIConfig) (receiptProcessor, error) {
		p, err := receipt.NewDocumentAIProcessor(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
)

// ScanLineOutput is the result for one row of a scanned sheet
type ScanLineOutput struct {
	Line  string      `json:"line"`
	Item  *ItemOutput `json:"item,omitempty"`
	Error string      `json:"error,omitempty"`
}

// ReceiptOutput is the JSON output of expense scan
type ReceiptOutput struct {
	Supplier string               `json:"supplier,omitempty"`
	Number   string               `json:"number,omitempty"`
	Date     string               `json:"date,omitempty"`
	Total    string               `json:"total"`
	Expense  models.ExpenseRecord `json:"expense"`
	Recorded bool                 `json:"recorded"`
}

func init() {
	itemCmd.AddCommand(itemScanCmd)
	expenseCmd.AddCommand(expenseScanCmd)

	itemScanCmd.Flags().Bool("offline", false, "Parse rows with the built-in parser only")
	itemScanCmd.Flags().Bool("dry-run", false, "Print the parsed rows without adding them")

	expenseScanCmd.Flags().String("category", "Material", "Expense category")
	expenseScanCmd.Flags().Bool("dry-run", false, "Print the extracted bill without recording it")
}

// newItemParser picks ChatGPT when an API key is configured.
func newItemParser(a *app, offline bool) voice.Parser {
	if a.cfg.OpenAIAPIKey != "" && !offline {
		return voice.NewChatGPTParser(a.cfg.OpenAIAPIKey, a.cfg.GetChatGPTConfig())
	}
	return voice.NewHeuristicParser()
}

func runItemScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("item-scan")
	offline, _ := cmd.Flags().GetBool("offline")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	path := args[0]

	return runSession(cmd, log, !dryRun, func(ctx context.Context, a *app) error {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open sheet: %w", err)
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close sheet file")
			}
		}()

		reader, err := newSheetReader(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize OCR service: %w", err)
		}
		defer func() {
			if closeErr := reader.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close OCR service")
			}
		}()

		sheet, err := reader.ReadSheet(ctx, file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		lines := sheet.Lines()
		log.Info().
			Str("file", path).
			Int("pages", sheet.PageCount).
			Int("lines", len(lines)).
			Float32("confidence", sheet.Confidence).
			Msg("Measurement sheet recognised")
		if len(lines) == 0 {
			return fmt.Errorf("%s: %w", path, ocr.ErrNoItemRows)
		}

		results := addScannedLines(ctx, a.sess, newItemParser(a, offline), lines, dryRun, log)
		if a.json {
			return a.printJSON(results)
		}

		verb := "added"
		if dryRun {
			verb = "parsed"
		}
		added := 0
		for _, r := range results {
			if r.Error != "" {
				a.printf("  skipped  %q: %s\n", r.Line, r.Error)
				continue
			}
			added++
			a.printf("  %-7s  %s: %s %s × %s = %s\n", verb, r.Item.Description, export.Qty(r.Item.TotalQty), r.Item.Unit,
				export.Number(r.Item.Rate), export.Money(calc.Decimal(r.Item.Amount)))
		}
		a.printf("%d of %d rows usable\n", added, len(results))
		if dryRun {
			return nil
		}
		return a.printTotalsLine()
	})
}

// addScannedLines parses each row and commits it through the item form, so
// scanned rows are validated and priced like typed ones. With dryRun the
// form is built and discarded.
func addScannedLines(ctx context.Context, s *session.Session, parser voice.Parser, lines []string, dryRun bool, log zerolog.Logger) []ScanLineOutput {
	results := make([]ScanLineOutput, 0, len(lines))
	for _, line := range lines {
		out := ScanLineOutput{Line: line}

		parsed, err := parser.Parse(ctx, line)
		if err != nil {
			out.Error = err.Error()
			results = append(results, out)
			continue
		}

		form := s.BeginItem()
		form.Input = bill.ItemInputFromParsed(parsed)

		var item models.LineItem
		if dryRun {
			item, err = form.Input.Build("")
			s.DiscardItem()
		} else {
			item, err = s.CommitItem()
			if err != nil {
				s.DiscardItem()
			}
		}
		if err != nil {
			log.Debug().Err(err).Str("line", line).Msg("Scanned row rejected")
			out.Error = handleBillError(err, zerolog.Nop()).Error()
			results = append(results, out)
			continue
		}

		out.Item = &ItemOutput{
			LineItem: item,
			Class:    units.ClassOf(item.Unit).String(),
			TotalQty: bill.TotalQuantity(item),
		}
		results = append(results, out)
	}
	return results
}

func runExpenseScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("expense-scan")
	category, _ := cmd.Flags().GetString("category")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	path := args[0]

	return runSession(cmd, log, !dryRun, func(ctx context.Context, a *app) error {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open receipt: %w", err)
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close receipt file")
			}
		}()

		processor, err := newReceiptProcessor(ctx, a.cfg.GetDocumentAIConfig())
		if err != nil {
			return fmt.Errorf("failed to initialize Document AI: %w", err)
		}
		defer func() {
			if closeErr := processor.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close Document AI client")
			}
		}()

		r, err := processor.ProcessReceipt(ctx, file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		out := ReceiptOutput{
			Supplier: r.Supplier,
			Number:   r.Number,
			Total:    calc.Round(r.Total).StringFixed(calc.AmountPlaces),
		}
		if !r.Date.IsZero() {
			out.Date = r.Date.Format("2006-01-02")
		}

		b := a.sess.Bill()
		if dryRun {
			out.Expense = models.ExpenseRecord{
				Category:    category,
				Description: r.Description(),
				Amount:      r.Total.InexactFloat64(),
				Date:        r.Date,
			}
		} else {
			out.Expense, err = b.AddExpense(category, r.Description(), r.Total.InexactFloat64(), r.Date)
			if err != nil {
				return err
			}
			out.Recorded = true
		}

		if a.json {
			return a.printJSON(out)
		}
		a.printf("%s: %s\n", out.Expense.Category, r.Description())
		a.printf("Total %s", export.Money(calc.Round(r.Total)))
		if out.Date != "" {
			a.printf(" dated %s", r.Date.Format("02.01.2006"))
		}
		a.printf("\n")
		if out.Recorded {
			costs := b.Costs()
			a.printf("Total expenses %s, profit %s\n", export.Money(costs.Expenses), export.Money(costs.Profit))
		}
		return nil
	})
}
