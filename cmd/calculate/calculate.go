// Package calculate implements the single-purchase reimbursement command
package calculate

import (
	"fmt"
	"io"

	"ndjaka/mineral-tax/cmd/root"
	"ndjaka/mineral-tax/internal/currencyutils"
	"ndjaka/mineral-tax/internal/models"
	"ndjaka/mineral-tax/internal/taxrate"

	"github.com/spf13/cobra"
)

// Options are the inputs of one calculation.
type Options struct {
	Date     string
	Activity string
	Fuel     string
	Volume   string
	Legacy   bool
}

var opts Options

// Cmd represents the calculate command
var Cmd = &cobra.Command{
	Use:   "calculate",
	Short: "Compute the reimbursement for one fuel purchase",
	Long: `Compute the reimbursement for one fuel purchase, rounded to CHF cents.

With --legacy the flat standard-rate estimate is shown instead; date and
activity are then ignored.

Example:
  mineral-tax calculate --date 2026-01-15 --activity agriculture_with_direct --volume 1000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		return Run(cmd.OutOrStdout(), c.GetCalculator(), opts)
	},
}

func init() {
	Cmd.Flags().StringVar(&opts.Date, "date", "", "Invoice date (YYYY-MM-DD or DD.MM.YYYY)")
	Cmd.Flags().StringVar(&opts.Activity, "activity", "", "Taxas activity of the machine")
	Cmd.Flags().StringVar(&opts.Fuel, "fuel", "diesel", "Fuel type (diesel, gasoline, biodiesel)")
	Cmd.Flags().StringVar(&opts.Volume, "volume", "", "Volume in liters")
	Cmd.Flags().BoolVar(&opts.Legacy, "legacy", false, "Use the flat standard-rate estimate")
}

// Run computes and prints one reimbursement.
func Run(w io.Writer, calculator *taxrate.Calculator, o Options) error {
	volume, err := currencyutils.ParseVolume(o.Volume)
	if err != nil {
		return fmt.Errorf("invalid --volume: %w", err)
	}

	if o.Legacy {
		amount := taxrate.LegacyFlatReimbursement(volume)
		_, err = fmt.Fprintf(w, "%s (%s L x %s CHF/L, flat estimate)\n",
			currencyutils.FormatAmount(amount, models.CurrencyCHF),
			currencyutils.FormatVolume(volume),
			currencyutils.FormatRate(taxrate.StandardRate))
		return err
	}

	if o.Date == "" {
		return fmt.Errorf("--date is required unless --legacy is set")
	}
	date, err := taxrate.ParseDate(o.Date)
	if err != nil {
		return err
	}

	res := calculator.Calculate(volume, date, o.Activity, o.Fuel)
	_, err = fmt.Fprintf(w, "%s (%s L x %s CHF/L, %s)\n",
		currencyutils.FormatAmount(res.Amount, models.CurrencyCHF),
		currencyutils.FormatVolume(volume),
		currencyutils.FormatRate(res.RatePerLiter),
		res.Era)
	return err
}
