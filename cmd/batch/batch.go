// Package batch handles batch processing of files
package batch

import (
	"context"
	"fmt"
	"path/filepath"

	"ndjaka/mineral-tax/cmd/common"
	"ndjaka/mineral-tax/cmd/root"
	"ndjaka/mineral-tax/internal/batch"
	"ndjaka/mineral-tax/internal/container"
	"ndjaka/mineral-tax/internal/fileutils"
	"ndjaka/mineral-tax/internal/logging"
	"ndjaka/mineral-tax/internal/validation"

	"github.com/spf13/cobra"
)

// Options are the inputs of a batch run.
type Options struct {
	InputDir  string
	OutputDir string
	Format    string
	Prefix    string
}

var (
	format string
	prefix string
)

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Build one claim from every fuel-entry file in a directory",
	Long: `Parse every *.csv file in the input directory concurrently and write one
consolidated claim to the output directory, named after the period it covers.

Files whose header is not a fuel-entry export are skipped. A file that fails
to parse is reported and left out of the claim.

Example:
  mineral-tax batch -i invoices/ -o claims/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		out, err := Run(cmd.Context(), c, Options{
			InputDir:  root.SharedFlags.Input,
			OutputDir: root.SharedFlags.Output,
			Format:    format,
			Prefix:    prefix,
		})
		if out != "" {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
		}
		return err
	},
}

func init() {
	Cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: csv, json or xml (default from report.format)")
	Cmd.Flags().StringVar(&prefix, "prefix", "reimbursements", "Output file name prefix")
}

// Run processes the directory and returns the path of the written claim.
// The claim is written even when some files failed; the error then reports
// how many.
func Run(ctx context.Context, c *container.Container, o Options) (string, error) {
	logger := c.GetLogger()

	if o.InputDir == "" || o.OutputDir == "" {
		return "", fmt.Errorf("input and output directories must be specified")
	}
	if !fileutils.DirectoryExists(o.InputDir) {
		return "", fmt.Errorf("input directory does not exist: %s", o.InputDir)
	}
	f := o.Format
	if f == "" {
		f = c.GetConfig().Report.Format
	}
	if err := validation.IsValidOutputFormat(f); err != nil {
		return "", err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	results, err := c.GetBatchProcessor().ProcessDirectory(ctx, o.InputDir)
	if err != nil {
		return "", err
	}
	failed := batch.Failed(results)
	for _, r := range failed {
		logger.WithError(r.Err).Error("File left out of the claim",
			logging.F(logging.FieldFile, filepath.Base(r.File)))
	}

	entries := batch.Entries(results)
	if len(entries) == 0 {
		logger.Warn("No fuel entries found in input directory",
			logging.F(logging.FieldInputFile, o.InputDir))
		if len(failed) > 0 {
			return "", fmt.Errorf("%d file(s) failed to parse", len(failed))
		}
		return "", nil
	}
	c.GetAggregator().DetectDuplicates(entries)

	generator := c.GetReportGenerator()
	rep, err := generator.Build(entries)
	if err != nil {
		return "", err
	}
	c.GetAggregator().SortLines(rep.Lines)

	data, err := generator.Generate(rep, f)
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(o.OutputDir, batch.GenerateOutputFilename(o.Prefix, rep.Period, f))
	if err := common.WriteOutput(data, outputPath, nil, logger); err != nil {
		return "", err
	}

	logger.Info("Batch processing completed",
		logging.F(logging.FieldCount, len(results)),
		logging.F(logging.FieldOutputFile, outputPath),
		logging.F(logging.FieldAmount, rep.TotalAmount.StringFixed(2)))

	if len(failed) > 0 {
		return outputPath, fmt.Errorf("%d file(s) failed to parse", len(failed))
	}
	return outputPath, nil
}
