package cmd

import (
	"context"

	"billbook/internal/logger"
	"billbook/internal/session"
	"billbook/pkg/models"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"history"},
	Short:   "List saved bills, newest first",
	Example: `  billbook list
  billbook list --type estimate
  billbook list --trash`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var trashCmd = &cobra.Command{
	Use:   "trash <id|bill-number>",
	Short: "Move a saved bill to the trash",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrash,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore a bill from the trash",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

var purgeCmd = &cobra.Command{
	Use:   "purge <id>",
	Short: "Delete a trashed bill permanently",
	Args:  cobra.ExactArgs(1),
	RunE:  runPurge,
}

func init() {
	rootCmd.AddCommand(listCmd, trashCmd, restoreCmd, purgeCmd)

	listCmd.Flags().String("type", "", "Only list invoices or estimates")
	listCmd.Flags().Bool("trash", false, "List trashed bills instead")

	trashCmd.Flags().String("type", "", "Document type of the bill number (invoice or estimate)")
}

func runList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("list")
	rawType, _ := cmd.Flags().GetString("type")
	showTrash, _ := cmd.Flags().GetBool("trash")

	var docType models.DocumentType
	if rawType != "" {
		t, ok := models.ParseDocumentType(rawType)
		if !ok {
			return handleBillError(session.ErrInvalidDocumentType, log)
		}
		docType = t
	}

	return runSession(cmd, log, false, func(ctx context.Context, a *app) error {
		var (
			recs []models.SavedBill
			err  error
		)
		if showTrash {
			recs, err = a.store.ListTrash(ctx)
		} else {
			recs, err = a.sess.History(ctx, docType)
		}
		if err != nil {
			return err
		}
		return a.outputRecords(recs)
	})
}

func runTrash(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("trash")
	rawType, _ := cmd.Flags().GetString("type")

	types := []models.DocumentType{models.Invoice, models.Estimate}
	if rawType != "" {
		t, ok := models.ParseDocumentType(rawType)
		if !ok {
			return handleBillError(session.ErrInvalidDocumentType, log)
		}
		types = []models.DocumentType{t}
	}

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		id, err := findRecordID(ctx, a.store, args[0], types)
		if err != nil {
			return err
		}
		if err := a.store.Trash(ctx, id); err != nil {
			return err
		}

		// The open bill would otherwise resurrect the record on the next save.
		if b := a.sess.Bill(); b.ID == id {
			if err := a.sess.Reset(ctx, b.DocumentType()); err != nil {
				return err
			}
		}

		log.Info().Str("id", id).Msg("Bill moved to trash")
		a.printf("Moved %s to the trash. Restore it with: billbook restore %s\n", args[0], id)
		return nil
	})
}

func runRestore(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("restore")

	return runSession(cmd, log, false, func(ctx context.Context, a *app) error {
		if err := a.store.Restore(ctx, args[0]); err != nil {
			return err
		}
		log.Info().Str("id", args[0]).Msg("Bill restored")
		a.printf("Restored %s\n", args[0])
		return nil
	})
}

func runPurge(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("purge")

	return runSession(cmd, log, false, func(ctx context.Context, a *app) error {
		if err := a.store.Purge(ctx, args[0]); err != nil {
			return err
		}
		log.Info().Str("id", args[0]).Msg("Bill purged")
		a.printf("Deleted %s permanently\n", args[0])
		return nil
	})
}
