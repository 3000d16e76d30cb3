// Package export implements the claim export command
package export

import (
	"fmt"
	"io"
	"strings"

	"ndjaka/mineral-tax/cmd/common"
	"ndjaka/mineral-tax/cmd/root"
	"ndjaka/mineral-tax/internal/container"
	"ndjaka/mineral-tax/internal/logging"
	"ndjaka/mineral-tax/internal/validation"

	"github.com/spf13/cobra"
)

// Options are the inputs of an export.
type Options struct {
	Input    string
	Output   string
	Format   string
	Validate bool
}

var format string

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export a reimbursement claim from a fuel-entry CSV file",
	Long: `Read a fuel-entry CSV file, compute every entry's reimbursement and write
the claim as CSV, JSON or XML. Without --output the claim goes to stdout.

Example:
  mineral-tax export -i fuel-2026.csv -o claim-2026.csv
  mineral-tax export -i fuel-2026.csv --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		return Run(c, Options{
			Input:    root.SharedFlags.Input,
			Output:   root.SharedFlags.Output,
			Format:   format,
			Validate: root.SharedFlags.Validate,
		}, cmd.OutOrStdout())
	},
}

func init() {
	Cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: csv, json or xml (default from report.format)")
}

// Run builds the claim and writes it.
func Run(c *container.Container, o Options, stdout io.Writer) error {
	logger := c.GetLogger()

	f := strings.ToLower(o.Format)
	if f == "" {
		f = c.GetConfig().Report.Format
	}
	if err := validation.IsValidOutputFormat(f); err != nil {
		return err
	}

	entries, err := common.LoadEntries(c.GetParser(), o.Input, o.Validate, logger)
	if err != nil {
		return err
	}
	c.GetAggregator().DetectDuplicates(entries)

	generator := c.GetReportGenerator()
	rep, err := generator.Build(entries)
	if err != nil {
		return err
	}
	data, err := generator.Generate(rep, f)
	if err != nil {
		return err
	}
	if err := common.WriteOutput(data, o.Output, stdout, logger); err != nil {
		return err
	}

	logger.Info("Export completed",
		logging.F(logging.FieldReportID, rep.ReportID),
		logging.F(logging.FieldCount, len(rep.Lines)),
		logging.F(logging.FieldAmount, fmt.Sprintf("%s CHF", rep.TotalAmount.StringFixed(2))))
	return nil
}
