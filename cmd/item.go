package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"billbook/internal/bill"
	"billbook/internal/calc"
	"billbook/internal/export"
	"billbook/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Add, edit, remove and reorder line items",
	Long: `Manage the line items of the bill being edited.

The unit decides how the quantity is computed:
  area units (sq.ft, sq.m)      length × width × qty
  volume units (cu.ft, cu.m)    length × width × height × qty
  brass                         length × width × height × qty / 100
  running units (rft, rmt)      length × qty
  everything else (nos, kg)     qty

Numbers may be typed with currency marks or separators ("₹ 1,200").`,
}

var itemAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a line item",
	Example: `  billbook item add -d "Wall plaster" -l 10 -w 12 -u sq.ft -r 45 --floor "First floor"
  billbook item add -d "River sand" -l 10 -w 12 -H 4 -u brass -r 4000
  billbook item add -d "Door fitting" -q 4 -u nos -r 250`,
	Args: cobra.NoArgs,
	RunE: runItemAdd,
}

var itemEditCmd = &cobra.Command{
	Use:   "edit <item>",
	Short: "Edit a line item by row number or id",
	Long: `Edit a line item. Only the given flags change; the row keeps its
position and its amount is recomputed.`,
	Example: `  billbook item edit 2 -r 4200
  billbook item edit 1 --unit rft`,
	Args: cobra.ExactArgs(1),
	RunE: runItemEdit,
}

var itemRemoveCmd = &cobra.Command{
	Use:     "rm <item>",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove a line item",
	Args:    cobra.ExactArgs(1),
	RunE:    runItemRemove,
}

var itemMoveCmd = &cobra.Command{
	Use:   "move <item> <position>",
	Short: "Move a line item to a 1-based position",
	Args:  cobra.ExactArgs(2),
	RunE:  runItemMove,
}

var itemParseCmd = &cobra.Command{
	Use:   "parse <text>",
	Short: "Add a line item from spoken or free text",
	Long: `Parse a line item from text such as a voice transcript and add it to the
bill. With OPENAI_API_KEY set the text is parsed by ChatGPT, otherwise (or
with --offline, or when ChatGPT fails) by the built-in parser.`,
	Example: `  billbook item parse "plaster first floor 10 by 12 square feet rate 45"
  billbook item parse "sand 10x12x4 brass @ 4000" --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runItemParse,
}

func init() {
	rootCmd.AddCommand(itemCmd)
	itemCmd.AddCommand(itemAddCmd, itemEditCmd, itemRemoveCmd, itemMoveCmd, itemParseCmd)

	for _, c := range []*cobra.Command{itemAddCmd, itemEditCmd} {
		addItemFlags(c.Flags())
	}

	itemParseCmd.Flags().Bool("offline", false, "Use the built-in parser only")
	itemParseCmd.Flags().Bool("dry-run", false, "Print the parsed item without adding it")
}

func addItemFlags(fs *pflag.FlagSet) {
	fs.StringP("desc", "d", "", "Work description")
	fs.StringP("length", "l", "", "Length")
	fs.StringP("width", "w", "", "Width")
	fs.StringP("height", "H", "", "Height or depth")
	fs.StringP("qty", "q", "", "Quantity or repeat count (default 1)")
	fs.StringP("rate", "r", "", "Rate per unit")
	fs.StringP("unit", "u", "", "Unit (default nos)")
	fs.StringP("floor", "f", "", "Floor or location")
	fs.Bool("paid", false, "Mark the row as already paid")
}

// applyItemFlags copies the changed item flags into in.
func applyItemFlags(fs *pflag.FlagSet, in *bill.ItemInput) {
	text := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	number := func(name string, dst *float64) {
		if fs.Changed(name) {
			raw, _ := fs.GetString(name)
			*dst = calc.Coerce(raw)
		}
	}

	text("desc", &in.Description)
	text("unit", &in.Unit)
	text("floor", &in.Floor)
	number("length", &in.Length)
	number("width", &in.Width)
	number("height", &in.Height)
	number("qty", &in.Quantity)
	number("rate", &in.Rate)
	if fs.Changed("paid") {
		in.Paid, _ = fs.GetBool("paid")
	}
}

func runItemAdd(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("item")

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		form := a.sess.BeginItem()
		applyItemFlags(cmd.Flags(), &form.Input)

		item, err := a.sess.CommitItem()
		if err != nil {
			a.sess.DiscardItem()
			return err
		}
		return a.outputItem(item, "Added to")
	})
}

func runItemEdit(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("item")

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		id, err := resolveItem(a.sess.Bill(), args[0])
		if err != nil {
			return err
		}
		form, err := a.sess.EditItem(id)
		if err != nil {
			return err
		}
		applyItemFlags(cmd.Flags(), &form.Input)

		item, err := a.sess.CommitItem()
		if err != nil {
			a.sess.DiscardItem()
			return err
		}
		return a.outputItem(item, "Updated on")
	})
}

func runItemRemove(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("item")

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		b := a.sess.Bill()
		id, err := resolveItem(b, args[0])
		if err != nil {
			return err
		}
		if err := b.RemoveItem(id); err != nil {
			return err
		}
		if a.json {
			return a.outputBill(false)
		}
		return a.printTotalsLine()
	})
}

func runItemMove(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("item")

	position, err := strconv.Atoi(args[1])
	if err != nil || position < 1 {
		return fmt.Errorf("position must be a positive row number, got %q", args[1])
	}

	return runSession(cmd, log, true, func(ctx context.Context, a *app) error {
		b := a.sess.Bill()
		id, err := resolveItem(b, args[0])
		if err != nil {
			return err
		}
		if err := b.MoveItem(id, position-1); err != nil {
			return err
		}
		return a.outputBill(false)
	})
}

func runItemParse(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("item-parse")
	offline, _ := cmd.Flags().GetBool("offline")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	text := strings.Join(args, " ")

	return runSession(cmd, log, !dryRun, func(ctx context.Context, a *app) error {
		parsed, err := newItemParser(a, offline).Parse(ctx, text)
		if err != nil {
			return fmt.Errorf("could not parse item: %w", err)
		}

		log.Info().
			Str("text", text).
			Str("description", parsed.Description).
			Str("unit", parsed.Unit).
			Msg("Parsed item")

		form := a.sess.BeginItem()
		form.Input = bill.ItemInputFromParsed(parsed)
		if dryRun {
			preview := form.Preview()
			a.sess.DiscardItem()
			if a.json {
				return a.printJSON(parsed)
			}
			a.printf("%s: %s %s × %s = %s\n", parsed.Description, export.Qty(preview.Quantity),
				preview.Unit.ID, export.Number(parsed.Rate), export.Money(calc.Decimal(preview.Amount)))
			return nil
		}

		item, err := a.sess.CommitItem()
		if err != nil {
			a.sess.DiscardItem()
			return err
		}
		return a.outputItem(item, "Added to")
	})
}
