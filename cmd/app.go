package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"billbook/internal/bill"
	"billbook/internal/config"
	"billbook/internal/session"
	"billbook/internal/store"
	"billbook/pkg/models"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app is the state one command works on: the configuration, the opened
// database and the resumed editor session.
type app struct {
	cfg   *config.Config
	store *store.Store
	sess  *session.Session
	log   zerolog.Logger
	out   io.Writer
	json  bool
}

// runSession opens the database, resumes the draft and runs fn. When
// persist is set the draft is written back after fn succeeds.
func runSession(cmd *cobra.Command, log zerolog.Logger, persist bool, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := commandContext(cmd.Context(), log)
	defer cancel()

	a, err := openApp(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.store.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close database")
		}
	}()

	if err := fn(ctx, a); err != nil {
		return handleBillError(err, log)
	}
	if !persist {
		return nil
	}
	if err := a.sess.Persist(ctx); err != nil {
		return handleBillError(err, log)
	}
	return nil
}

func openApp(ctx context.Context, cmd *cobra.Command, log zerolog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Error().
			Err(err).
			Str("db", cfg.DBPath).
			Msg("Failed to open database")
		return nil, fmt.Errorf("failed to open bill database %s: %w", cfg.DBPath, err)
	}

	sess, err := session.Resume(ctx, st, cfg.SessionOptions())
	if err != nil {
		_ = st.Close()
		return nil, handleBillError(err, log)
	}

	log.Debug().
		Str("db", cfg.DBPath).
		Str("bill_number", sess.Bill().BillNumber).
		Msg("Session resumed")

	return &app{
		cfg:   cfg,
		store: st,
		sess:  sess,
		log:   log,
		out:   cmd.OutOrStdout(),
		json:  jsonOutput,
	}, nil
}

// commandContext creates a context canceled on interrupt signals
func commandContext(parent context.Context, log zerolog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling command")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleBillError provides user-friendly error messages for editor failures
func handleBillError(err error, log zerolog.Logger) error {
	log.Debug().Err(err).Msg("Command failed")

	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("command was canceled")
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("no saved bill found. Use 'billbook list' to see saved bills")
	case errors.Is(err, bill.ErrItemNotFound):
		return fmt.Errorf("line item not found. Use 'billbook show' to see item numbers")
	case errors.Is(err, bill.ErrPaymentNotFound):
		return fmt.Errorf("payment not found. Use 'billbook show' to see payment numbers")
	case errors.Is(err, bill.ErrExpenseNotFound):
		return fmt.Errorf("expense not found. Use 'billbook show --costs' to see expense numbers")
	case errors.Is(err, bill.ErrMissingDescription):
		return fmt.Errorf("a line item needs a description (--desc)")
	case errors.Is(err, bill.ErrInvalidPayment):
		return fmt.Errorf("payment amount must be a positive number")
	case errors.Is(err, bill.ErrInvalidExpense):
		return fmt.Errorf("expense amount must be a positive number")
	case errors.Is(err, bill.ErrInvalidStatus):
		return fmt.Errorf("invalid status: invoices use %s; estimates use %s",
			joinStatuses(models.PaymentStatuses), joinStatuses(models.EstimateStatuses))
	case errors.Is(err, bill.ErrConversionNotAllowed):
		return fmt.Errorf("only approved estimates can be converted. Run 'billbook status approved' first")
	case errors.Is(err, bill.ErrAlreadyConverted):
		return fmt.Errorf("this estimate has already been converted to an invoice")
	case errors.Is(err, session.ErrNotSaved):
		return fmt.Errorf("save the bill first with 'billbook save'")
	case errors.Is(err, session.ErrInvalidDocumentType):
		return fmt.Errorf("document type must be 'invoice' or 'estimate'")
	default:
		log.Error().Err(err).Msg("Command failed")
		return err
	}
}

func joinStatuses[S ~string](statuses []S) string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = strings.ToLower(string(s))
	}
	return strings.Join(names, ", ")
}

// resolveItem accepts a 1-based row number or a line item id.
func resolveItem(b *bill.Bill, ref string) (string, error) {
	items := b.Items()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(items) {
			return "", bill.NewValidationError("item", ref, bill.ErrItemNotFound)
		}
		return items[n-1].ID, nil
	}
	for _, it := range items {
		if it.ID == ref || strings.HasPrefix(it.ID, ref) {
			return it.ID, nil
		}
	}
	return "", bill.NewValidationError("item", ref, bill.ErrItemNotFound)
}

// resolveRecord picks a payment or expense by 1-based row number or id.
func resolveRecord(ids []string, ref string, notFound error) (string, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(ids) {
			return "", bill.NewValidationError("ref", ref, notFound)
		}
		return ids[n-1], nil
	}
	for _, id := range ids {
		if id == ref || strings.HasPrefix(id, ref) {
			return id, nil
		}
	}
	return "", bill.NewValidationError("ref", ref, notFound)
}

// parseDate accepts YYYY-MM-DD or DD.MM.YYYY. Empty means today.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", "02.01.2006", "02/01/2006"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q. Use YYYY-MM-DD", s)
}

func (a *app) printJSON(v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to marshal output to JSON")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	if _, err := a.out.Write(append(jsonData, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
