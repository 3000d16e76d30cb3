// Package rate implements the rate lookup command
package rate

import (
	"fmt"
	"io"

	"ndjaka/mineral-tax/cmd/root"
	"ndjaka/mineral-tax/internal/currencyutils"
	"ndjaka/mineral-tax/internal/taxrate"

	"github.com/spf13/cobra"
)

var (
	date     string
	activity string
	fuel     string
	list     bool
)

// Cmd represents the rate command
var Cmd = &cobra.Command{
	Use:   "rate",
	Short: "Show the reimbursement rate for a date, activity and fuel type",
	Long: `Show the CHF-per-liter reimbursement rate that applies to a purchase.

Example:
  mineral-tax rate --date 2026-01-15 --activity agriculture_with_direct --fuel diesel
  mineral-tax rate --list`,
	RunE: rateFunc,
}

func init() {
	Cmd.Flags().StringVar(&date, "date", "", "Invoice date (YYYY-MM-DD or DD.MM.YYYY)")
	Cmd.Flags().StringVar(&activity, "activity", "", "Taxas activity of the machine")
	Cmd.Flags().StringVar(&fuel, "fuel", "diesel", "Fuel type (diesel, gasoline, biodiesel)")
	Cmd.Flags().BoolVar(&list, "list", false, "Print the whole rate table as YAML")
}

func rateFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}
	if list {
		return WriteTable(cmd.OutOrStdout(), c.GetRateTable())
	}
	return Run(cmd.OutOrStdout(), c.GetResolver(), date, activity, fuel)
}

// Run resolves one rate and prints it.
func Run(w io.Writer, resolver *taxrate.Resolver, date, activity, fuel string) error {
	if date == "" {
		return fmt.Errorf("--date is required")
	}
	t, err := taxrate.ParseDate(date)
	if err != nil {
		return err
	}

	res := resolver.Resolve(t, activity, fuel)
	rule := "standard rate"
	if !res.Standard {
		rule = res.Sector.String() + " rate"
	}
	_, err = fmt.Fprintf(w, "%s CHF/L (%s, %s, %s)\n",
		currencyutils.FormatRate(res.RatePerLiter), res.Era, res.Fuel, rule)
	return err
}

// WriteTable prints table in the YAML format accepted by --rate-table.
func WriteTable(w io.Writer, table *taxrate.Table) error {
	data, err := taxrate.MarshalTable(table)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
