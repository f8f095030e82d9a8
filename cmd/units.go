package cmd

import (
	"fmt"
	"strings"

	"billbook/internal/calc"
	"billbook/internal/export"
	"billbook/internal/logger"
	"billbook/internal/units"
	"github.com/spf13/cobra"
)

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List the measurement units and how they are priced",
	Args:  cobra.NoArgs,
	RunE:  runUnits,
}

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Compute quantity and amount without touching the bill",
	Example: `  billbook calc -l 10 -w 12 -u sq.ft -r 45
  billbook calc -l 10 -w 12 -H 4 -u brass -r 4000`,
	Args: cobra.NoArgs,
	RunE: runCalc,
}

// UnitOutput represents one registry unit in JSON output
type UnitOutput struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Class string `json:"class"`
}

// CalcOutput represents the JSON output of the calc command
type CalcOutput struct {
	Unit     string  `json:"unit"`
	Class    string  `json:"class"`
	Quantity float64 `json:"quantity"`
	Amount   float64 `json:"amount"`
}

func init() {
	rootCmd.AddCommand(unitsCmd, calcCmd)

	calcCmd.Flags().StringP("length", "l", "", "Length")
	calcCmd.Flags().StringP("width", "w", "", "Width")
	calcCmd.Flags().StringP("height", "H", "", "Height or depth")
	calcCmd.Flags().StringP("qty", "q", "1", "Quantity or repeat count")
	calcCmd.Flags().StringP("rate", "r", "", "Rate per unit")
	calcCmd.Flags().StringP("unit", "u", "nos", "Unit")
}

func runUnits(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("units")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	all := units.All()
	log.Debug().Int("count", len(all)).Msg("Listing units")

	rows := make([]UnitOutput, 0, len(all))
	for _, u := range all {
		rows = append(rows, UnitOutput{ID: u.ID, Label: u.Label, Class: u.Class.String()})
	}

	if jsonOutput {
		a := &app{out: out, log: log}
		return a.printJSON(rows)
	}

	fmt.Fprintf(out, "%-9s %-20s %s\n", "Unit", "Name", "Class")
	fmt.Fprintln(out, strings.Repeat("-", 46))
	for _, r := range rows {
		fmt.Fprintf(out, "%-9s %-20s %s\n", r.ID, r.Label, r.Class)
	}
	fmt.Fprintln(out, "\nUnknown units are priced by count.")
	return nil
}

func runCalc(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("calc")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	number := func(name string) float64 {
		raw, _ := cmd.Flags().GetString(name)
		return calc.Coerce(raw)
	}
	unit, _ := cmd.Flags().GetString("unit")

	res := calc.Compute(calc.Dimensions{
		Length:   number("length"),
		Width:    number("width"),
		Height:   number("height"),
		Quantity: number("qty"),
		Rate:     number("rate"),
		Unit:     unit,
	})

	log.Debug().
		Str("unit", res.Unit.ID).
		Float64("quantity", res.Quantity).
		Float64("amount", res.Amount).
		Msg("Computed line")

	if jsonOutput {
		a := &app{out: out, log: log}
		return a.printJSON(CalcOutput{
			Unit:     res.Unit.ID,
			Class:    res.Unit.Class.String(),
			Quantity: res.Quantity,
			Amount:   res.Amount,
		})
	}

	fmt.Fprintf(out, "Quantity: %s %s (%s)\n", export.Qty(res.Quantity), res.Unit.ID, res.Unit.Class)
	fmt.Fprintf(out, "Amount:   %s\n", export.Money(calc.Decimal(res.Amount)))
	return nil
}
