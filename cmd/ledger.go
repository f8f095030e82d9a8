package cmd

import (
	"context"
	"strings"

	"billbook/internal/bill"
	"billbook/internal/calc"
	"billbook/internal/export"
	"billbook/internal/logger"
	"billbook/pkg/models"
	"github.com/spf13/cobra"
)

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Record advances and payments received",
}

var payAddCmd = &cobra.Command{
	Use:   "add <amount>",
	Short: "Record a payment against the bill",
	Example: `  billbook pay add 10000 --note "Advance, cash"
  billbook pay add "₹ 5,000" --date 2024-06-10`,
	Args: cobra.ExactArgs(1),
	RunE: runPayAdd,
}

var payRemoveCmd = &cobra.Command{
	Use:     "rm <payment>",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove a payment by row number or id",
	Args:    cobra.ExactArgs(1),
	RunE:    runPayRemove,
}

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Track job expenses (not printed on the bill)",
}

var expenseAddCmd = &cobra.Command{
	Use:   "add <amount>",
	Short: "Record an expense on the job",
	Example: `  billbook expense add 3200 --category Labour --desc "2 masons, 2 days"
  billbook expense add 1800 --category Material --desc "Cement 5 bags"`,
	Args: cobra.ExactArgs(1),
	RunE: runExpenseAdd,
}

var expenseRemoveCmd = &cobra.Command{
	Use:     "rm <expense>",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove an expense by row number or id",
	Args:    cobra.ExactArgs(1),
	RunE:    runExpenseRemove,
}

func init() {
	rootCmd.AddCommand(payCmd, expenseCmd)
	payCmd.AddCommand(payAddCmd, payRemoveCmd)
	expenseCmd.AddCommand(expenseAddCmd, expenseRemoveCmd)

	payAddCmd.Flags().String("date", "", "Payment date (YYYY-MM-DD, default: today)")
	payAddCmd.Flags().String("note", "", "Note, e.g. cash or cheque number")

	expenseAddCmd.Flags().String("category", bill.DefaultExpenseCategory, "Expense category")
	expenseAddCmd.Flags().String("desc", "", "Description")
	expenseAddCmd.Flags().String("date", "", "Expense date (YYYY-MM-DD, default: today)")
}

func runPayAdd(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("pay")
	rawDate, _ := cmd.Flags().GetString("date")
	note, _ := cmd.Flags().GetString("note")

	date, err := parseDate(rawDate)
	if err != nil {
		return err
	}

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		b := a.sess.Bill()
		p, err := b.AddPayment(calc.Coerce(args[0]), date, note)
		if err != nil {
			return err
		}

		log.Info().
			Str("bill_number", b.BillNumber).
			Float64("amount", p.Amount).
			Msg("Payment recorded")

		if a.json {
			return a.outputBill(false)
		}
		a.printf("Recorded payment of %s on %s\n", export.Money(calc.Decimal(p.Amount)), p.Date.Format("02.01.2006"))
		if err := a.printTotalsLine(); err != nil {
			return err
		}
		if suggested := bill.SuggestPaymentStatus(b.Totals()); b.DocumentType() == models.Invoice && suggested != b.PaymentStatus() {
			a.printf("Status is %s; run 'billbook status %s' to update it.\n", b.PaymentStatus(), strings.ToLower(string(suggested)))
		}
		return nil
	})
}

func runPayRemove(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("pay")

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		b := a.sess.Bill()
		payments := b.Payments()
		ids := make([]string, len(payments))
		for i, p := range payments {
			ids[i] = p.ID
		}

		id, err := resolveRecord(ids, args[0], bill.ErrPaymentNotFound)
		if err != nil {
			return err
		}
		if err := b.RemovePayment(id); err != nil {
			return err
		}
		if a.json {
			return a.outputBill(false)
		}
		return a.printTotalsLine()
	})
}

func runExpenseAdd(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("expense")
	category, _ := cmd.Flags().GetString("category")
	desc, _ := cmd.Flags().GetString("desc")
	rawDate, _ := cmd.Flags().GetString("date")

	date, err := parseDate(rawDate)
	if err != nil {
		return err
	}

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		b := a.sess.Bill()
		e, err := b.AddExpense(category, desc, calc.Coerce(args[0]), date)
		if err != nil {
			return err
		}
		if a.json {
			return a.outputBill(true)
		}
		costs := b.Costs()
		a.printf("Recorded %s expense of %s\n", e.Category, export.Money(calc.Decimal(e.Amount)))
		a.printf("Total expenses %s, profit %s\n", export.Money(costs.Expenses), export.Money(costs.Profit))
		return nil
	})
}

func runExpenseRemove(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("expense")

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		b := a.sess.Bill()
		expenses := b.Expenses()
		ids := make([]string, len(expenses))
		for i, e := range expenses {
			ids[i] = e.ID
		}

		id, err := resolveRecord(ids, args[0], bill.ErrExpenseNotFound)
		if err != nil {
			return err
		}
		if err := b.RemoveExpense(id); err != nil {
			return err
		}
		if a.json {
			return a.outputBill(true)
		}
		costs := b.Costs()
		a.printf("Total expenses %s, profit %s\n", export.Money(costs.Expenses), export.Money(costs.Profit))
		return nil
	})
}
