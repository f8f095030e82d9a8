package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"billbook/internal/bill"
	"billbook/internal/calc"
	"billbook/internal/logger"
	"billbook/internal/session"
	"billbook/internal/store"
	"billbook/pkg/models"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new [invoice|estimate]",
	Short: "Start a new bill",
	Long: `Discard the current draft and start a blank invoice or estimate. The bill
number continues the sequence of the most recently saved bill of that type.`,
	Example: `  billbook new
  billbook new estimate --client "Mr. Patil"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNew,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the bill being edited",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

var detailsCmd = &cobra.Command{
	Use:   "details",
	Short: "Set bill number, date and disclaimer",
	Example: `  billbook details --date 2024-06-03
  billbook details --number INV-120 --disclaimer "Material by client"`,
	Args: cobra.NoArgs,
	RunE: runDetails,
}

var partyCmd = &cobra.Command{
	Use:   "party",
	Short: "Set client and contractor details",
	Example: `  billbook party --client "Mr. Patil" --client-phone 9876543210
  billbook party --contractor "Shree Constructions" --contractor-gstin 27ABCDE1234F1Z5`,
	Args: cobra.NoArgs,
	RunE: runParty,
}

var gstCmd = &cobra.Command{
	Use:   "gst on|off",
	Short: "Enable or disable GST on the bill",
	Example: `  billbook gst on
  billbook gst on --rate 12
  billbook gst off`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runGST,
}

var typeCmd = &cobra.Command{
	Use:   "type invoice|estimate",
	Short: "Switch the bill between invoice and estimate",
	Long: `Switch the document type of the bill being edited. The bill is renumbered
in the sequence of the new type. A saved bill is detached from its record,
so saving afterwards creates a new record and leaves the original untouched.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"invoice", "estimate"},
	RunE:      runType,
}

var statusCmd = &cobra.Command{
	Use:   "status <status>",
	Short: "Set the payment or approval status",
	Long: `Set the status of the bill. Invoices use pending, paid or partial.
Estimates use draft, pending-approval, in-review, approved or rejected.

Without an argument and with --suggest, the invoice status is derived
from the recorded payments.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the bill to the history",
	Args:  cobra.NoArgs,
	RunE:  runSave,
}

var openCmd = &cobra.Command{
	Use:   "open <id|bill-number>",
	Short: "Open a saved bill for editing",
	Example: `  billbook open INV-007
  billbook open EST-012 --type estimate
  billbook open 3f9c2a1e-...`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the approved estimate into a new invoice",
	Long: `Create and save an invoice from the saved, approved estimate being edited.
The estimate is linked to the invoice and saved again; it stays open.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Drop the draft; the next command starts a new invoice",
	Args:  cobra.NoArgs,
	RunE:  runClose,
}

func init() {
	rootCmd.AddCommand(newCmd, showCmd, detailsCmd, partyCmd, gstCmd, typeCmd,
		statusCmd, saveCmd, openCmd, convertCmd, closeCmd)

	newCmd.Flags().String("client", "", "Client name")

	showCmd.Flags().Bool("costs", false, "Include job expenses and profit")

	detailsCmd.Flags().String("number", "", "Bill number")
	detailsCmd.Flags().String("date", "", "Bill date (YYYY-MM-DD)")
	detailsCmd.Flags().String("disclaimer", "", "Note printed at the end of the bill")

	partyCmd.Flags().String("client", "", "Client name")
	partyCmd.Flags().String("client-phone", "", "Client phone")
	partyCmd.Flags().String("client-email", "", "Client email")
	partyCmd.Flags().String("client-address", "", "Client address")
	partyCmd.Flags().String("client-gstin", "", "Client GSTIN")
	partyCmd.Flags().String("contractor", "", "Contractor name")
	partyCmd.Flags().String("contractor-phone", "", "Contractor phone")
	partyCmd.Flags().String("contractor-email", "", "Contractor email")
	partyCmd.Flags().String("contractor-address", "", "Contractor address")
	partyCmd.Flags().String("contractor-gstin", "", "Contractor GSTIN")

	gstCmd.Flags().String("rate", "", "GST percentage (default: current rate, 18 when unset)")

	statusCmd.Flags().Bool("suggest", false, "Derive the invoice status from the payments")

	openCmd.Flags().String("type", "", "Document type of the bill number (invoice or estimate)")
}

func runNew(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("new")

	docType := models.Invoice
	if len(args) == 1 {
		t, ok := models.ParseDocumentType(args[0])
		if !ok {
			return handleBillError(session.ErrInvalidDocumentType, log)
		}
		docType = t
	}
	client, _ := cmd.Flags().GetString("client")

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		if err := a.sess.Reset(ctx, docType); err != nil {
			return err
		}
		a.sess.Bill().Client.Name = strings.TrimSpace(client)

		log.Info().
			Str("type", string(docType)).
			Str("bill_number", a.sess.Bill().BillNumber).
			Msg("Started new bill")
		return a.outputBill(false)
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("show")
	withCosts, _ := cmd.Flags().GetBool("costs")

	return runSession(cmd, log, false, func(ctx context.Context, a *app) error {
		return a.outputBill(withCosts)
	})
}

func runDetails(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("details")

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		b := a.sess.Bill()
		flags := cmd.Flags()

		if flags.Changed("number") {
			number, _ := flags.GetString("number")
			number = strings.TrimSpace(number)
			if number == "" {
				return fmt.Errorf("bill number must not be empty")
			}
			b.BillNumber = number
		}
		if flags.Changed("date") {
			raw, _ := flags.GetString("date")
			date, err := parseDate(raw)
			if err != nil {
				return err
			}
			if !date.IsZero() {
				b.BillDate = date
			}
		}
		if flags.Changed("disclaimer") {
			b.Disclaimer, _ = flags.GetString("disclaimer")
		}
		return a.outputBill(false)
	})
}

func runParty(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("party")

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		b := a.sess.Bill()
		applyParty(cmd, "client", &b.Client)
		applyParty(cmd, "contractor", &b.Contractor)
		return a.outputBill(false)
	})
}

// applyParty copies the changed --<prefix>, --<prefix>-phone ... flags.
func applyParty(cmd *cobra.Command, prefix string, p *models.Party) {
	fields := map[string]*string{
		prefix:              &p.Name,
		prefix + "-phone":   &p.Phone,
		prefix + "-email":   &p.Email,
		prefix + "-address": &p.Address,
		prefix + "-gstin":   &p.GSTIN,
	}
	for flag, dst := range fields {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			*dst = strings.TrimSpace(v)
		}
	}
}

func runGST(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("gst")

	var enabled bool
	switch strings.ToLower(args[0]) {
	case "on", "yes", "true":
		enabled = true
	case "off", "no", "false":
		enabled = false
	default:
		return fmt.Errorf("invalid GST setting %q (must be 'on' or 'off')", args[0])
	}

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		b := a.sess.Bill()
		rate := b.GSTRate()
		if cmd.Flags().Changed("rate") {
			raw, _ := cmd.Flags().GetString("rate")
			rate = calc.Coerce(raw)
		}
		b.SetGST(enabled, rate)

		log.Info().
			Bool("enabled", enabled).
			Float64("rate", rate).
			Msg("GST updated")
		if a.json {
			return a.outputBill(false)
		}
		return a.printTotalsLine()
	})
}

func runType(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("type")

	t, ok := models.ParseDocumentType(args[0])
	if !ok {
		return handleBillError(session.ErrInvalidDocumentType, log)
	}

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		wasAttached := a.sess.Attached()
		if err := a.sess.SetDocumentType(ctx, t); err != nil {
			return err
		}
		if a.json {
			return a.outputBill(false)
		}
		a.printf("Now editing %s %s\n", strings.ToLower(t.Title()), a.sess.Bill().BillNumber)
		if wasAttached && !a.sess.Attached() {
			a.printf("Saving will create a new record; the original stays unchanged.\n")
		}
		return nil
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("status")
	suggest, _ := cmd.Flags().GetBool("suggest")

	if len(args) == 0 && !suggest {
		return fmt.Errorf("status required (or use --suggest)")
	}

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		b := a.sess.Bill()
		var err error
		if len(args) == 1 {
			err = b.SetStatus(args[0])
		} else {
			err = b.SetPaymentStatus(bill.SuggestPaymentStatus(b.Totals()))
		}
		if err != nil {
			return err
		}
		if a.json {
			return a.outputBill(false)
		}
		a.printf("%s %s is now %s\n", b.DocumentType().Title(), b.BillNumber, b.StatusLabel())
		return nil
	})
}

func runSave(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("save")

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		rec, err := a.sess.Save(ctx)
		if err != nil {
			return err
		}
		if a.json {
			return a.printJSON(savedOutput(*rec))
		}
		a.printf("Saved %s %s (%s)\n", strings.ToLower(rec.DocumentType.Title()), rec.BillNumber, shortID(rec.ID))
		return nil
	})
}

func runOpen(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("open")
	rawType, _ := cmd.Flags().GetString("type")

	var types []models.DocumentType
	if rawType != "" {
		t, ok := models.ParseDocumentType(rawType)
		if !ok {
			return handleBillError(session.ErrInvalidDocumentType, log)
		}
		types = []models.DocumentType{t}
	} else {
		types = []models.DocumentType{models.Invoice, models.Estimate}
	}

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		id, err := findRecordID(ctx, a.store, args[0], types)
		if err != nil {
			return err
		}
		if err := a.sess.Open(ctx, id); err != nil {
			return err
		}
		return a.outputBill(false)
	})
}

// findRecordID resolves a record id or a bill number of one of types.
func findRecordID(ctx context.Context, st *store.Store, ref string, types []models.DocumentType) (string, error) {
	rec, err := st.Load(ctx, ref)
	if err == nil {
		return rec.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	for _, t := range types {
		rec, err := st.FindByNumber(ctx, t, ref)
		if err == nil {
			return rec.ID, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("no saved bill %q: %w", ref, store.ErrNotFound)
}

func runConvert(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("convert")

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		rec, err := a.sess.ConvertToInvoice(ctx)
		if err != nil {
			return err
		}
		if a.json {
			return a.printJSON(savedOutput(*rec))
		}
		a.printf("Created invoice %s from estimate %s\n", rec.BillNumber, a.sess.Bill().BillNumber)
		a.printf("Open it with: billbook open %s\n", rec.BillNumber)
		return nil
	})
}

func runClose(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("close")

	return runSession(cmd, log, false, func(ctx context.Context, a *app) error {
		if err := a.sess.Close(ctx); err != nil {
			return err
		}
		a.printf("Draft closed.\n")
		return nil
	})
}
