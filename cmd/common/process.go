// Package common contains shared functionality for command handlers
package common

import (
	"fmt"
	"io"

	"ndjaka/mineral-tax/internal/fileutils"
	"ndjaka/mineral-tax/internal/logging"
	"ndjaka/mineral-tax/internal/models"
	"ndjaka/mineral-tax/internal/parser"
	"ndjaka/mineral-tax/internal/validation"
)

// LoadEntries reads fuel entries from inputFile using the given parser,
// optionally checking the header first.
func LoadEntries(p parser.FullParser, inputFile string, validate bool, log logging.Logger) ([]models.FuelEntry, error) {
	if inputFile == "" {
		return nil, fmt.Errorf("input file must be specified with --input")
	}
	if err := validation.IsValidInputFile(inputFile, ".csv", ".txt"); err != nil {
		return nil, err
	}

	p.SetLogger(log)

	if validate {
		log.Info("Validating format...")
		valid, err := p.ValidateFormat(inputFile)
		if err != nil {
			return nil, fmt.Errorf("error validating file: %w", err)
		}
		if !valid {
			return nil, fmt.Errorf("the file is not in a valid format: %s", inputFile)
		}
		log.Info("Validation successful.")
	}

	entries, err := p.ParseFile(inputFile)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteOutput writes data to outputFile, or to stdout when outputFile is empty.
func WriteOutput(data []byte, outputFile string, stdout io.Writer, log logging.Logger) error {
	if outputFile == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := fileutils.WriteFile(outputFile, data, models.PermissionReportFile); err != nil {
		return fmt.Errorf("error writing output: %w", err)
	}
	log.Info("Wrote output file", logging.F(logging.FieldOutputFile, outputFile))
	return nil
}
