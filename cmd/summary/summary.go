// Package summary implements the period summary command
package summary

import (
	"bytes"
	"io"
	"strconv"

	"ndjaka/mineral-tax/cmd/common"
	"ndjaka/mineral-tax/cmd/root"
	csvcommon "ndjaka/mineral-tax/internal/common"
	"ndjaka/mineral-tax/internal/container"
	"ndjaka/mineral-tax/internal/currencyutils"
	"ndjaka/mineral-tax/internal/dateutils"

	"github.com/spf13/cobra"
)

// Options are the inputs of a summary.
type Options struct {
	Input    string
	Output   string
	Period   string
	BySector bool
	Validate bool
}

// PeriodRow is one line of the period summary.
type PeriodRow struct {
	Period       string `csv:"Period"`
	Start        string `csv:"Start"`
	End          string `csv:"End"`
	Entries      string `csv:"Entries"`
	VolumeLiters string `csv:"VolumeLiters"`
	AmountCHF    string `csv:"AmountCHF"`
}

// SectorRow is one line of the sector summary.
type SectorRow struct {
	Sector       string `csv:"Sector"`
	Entries      string `csv:"Entries"`
	VolumeLiters string `csv:"VolumeLiters"`
	AmountCHF    string `csv:"AmountCHF"`
}

var (
	period   string
	bySector bool
)

// Cmd represents the summary command
var Cmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize reimbursements by month, quarter, year or sector",
	Long: `Summarize the reimbursements of a fuel-entry CSV file per period, or per
declared activity with --by-sector. The summary is written as CSV.

Example:
  mineral-tax summary -i fuel-2026.csv --period quarter`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		return Run(c, Options{
			Input:    root.SharedFlags.Input,
			Output:   root.SharedFlags.Output,
			Period:   period,
			BySector: bySector,
			Validate: root.SharedFlags.Validate,
		}, cmd.OutOrStdout())
	},
}

func init() {
	Cmd.Flags().StringVarP(&period, "period", "p", "month", "Grouping period: month, quarter or year")
	Cmd.Flags().BoolVar(&bySector, "by-sector", false, "Group by declared activity instead of period")
}

// Run computes and writes the summary.
func Run(c *container.Container, o Options, stdout io.Writer) error {
	logger := c.GetLogger()

	entries, err := common.LoadEntries(c.GetParser(), o.Input, o.Validate, logger)
	if err != nil {
		return err
	}
	rep, err := c.GetReportGenerator().Build(entries)
	if err != nil {
		return err
	}

	delimiter := c.GetConfig().Delimiter()
	var buf bytes.Buffer
	if o.BySector {
		var rows []SectorRow
		for _, t := range rep.Sectors {
			rows = append(rows, SectorRow{
				Sector:       t.Sector,
				Entries:      strconv.Itoa(t.Entries),
				VolumeLiters: currencyutils.FormatVolume(t.Volume),
				AmountCHF:    t.Amount.StringFixed(currencyutils.AmountPlaces),
			})
		}
		err = csvcommon.WriteCSV(&buf, rows, delimiter)
	} else {
		totals, sumErr := c.GetAggregator().Summarize(rep.Lines, o.Period)
		if sumErr != nil {
			return sumErr
		}
		var rows []PeriodRow
		for _, t := range totals {
			rows = append(rows, PeriodRow{
				Period:       t.Label,
				Start:        dateutils.ToISODate(t.Start),
				End:          dateutils.ToISODate(t.End.AddDate(0, 0, -1)),
				Entries:      strconv.Itoa(t.Entries),
				VolumeLiters: currencyutils.FormatVolume(t.Volume),
				AmountCHF:    t.Amount.StringFixed(currencyutils.AmountPlaces),
			})
		}
		err = csvcommon.WriteCSV(&buf, rows, delimiter)
	}
	if err != nil {
		return err
	}

	return common.WriteOutput(buf.Bytes(), o.Output, stdout, logger)
}
