// Package fuelentry reads fuel purchases from CSV exports.
//
// The expected header is
//
//	Date,InvoiceNumber,MachineID,Activity,FuelType,VolumeLiters,Supplier
//
// in any column order. Date, FuelType and VolumeLiters are required; the
// other columns may be absent or empty.
package fuelentry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ndjaka/mineral-tax/internal/common"
	"ndjaka/mineral-tax/internal/currencyutils"
	"ndjaka/mineral-tax/internal/dateutils"
	"ndjaka/mineral-tax/internal/logging"
	"ndjaka/mineral-tax/internal/models"
	"ndjaka/mineral-tax/internal/parser"
	"ndjaka/mineral-tax/internal/parsererror"
	"ndjaka/mineral-tax/internal/taxrate"
)

// ParserName identifies this parser in errors and logs.
const ParserName = "fuel-entries"

// ExpectedFormat is reported in InvalidFormatError.
const ExpectedFormat = "fuel-entry CSV (Date, FuelType, VolumeLiters columns)"

var utf8BOM = []byte("\xef\xbb\xbf")

// Columns lists every header the parser understands, in export order.
var Columns = []string{"Date", "InvoiceNumber", "MachineID", "Activity", "FuelType", "VolumeLiters", "Supplier"}

// RequiredColumns must be present in the header.
var RequiredColumns = []string{"Date", "FuelType", "VolumeLiters"}

// CSVRow maps one line of the input file.
type CSVRow struct {
	Date          string `csv:"Date"`
	InvoiceNumber string `csv:"InvoiceNumber"`
	MachineID     string `csv:"MachineID"`
	Activity      string `csv:"Activity"`
	FuelType      string `csv:"FuelType"`
	VolumeLiters  string `csv:"VolumeLiters"`
	Supplier      string `csv:"Supplier"`
}

func (r CSVRow) isEmpty() bool {
	return strings.TrimSpace(r.Date+r.InvoiceNumber+r.MachineID+r.Activity+r.FuelType+r.VolumeLiters+r.Supplier) == ""
}

// Parser converts fuel-entry CSV into models.FuelEntry values.
// In strict mode the first bad row aborts the parse; otherwise bad rows are
// logged and skipped.
type Parser struct {
	parser.BaseParser
	strict bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithStrict makes the first malformed row fail the whole parse.
func WithStrict(strict bool) Option {
	return func(p *Parser) { p.strict = strict }
}

// NewParser creates a fuel-entry parser.
func NewParser(logger logging.Logger, delimiter rune, opts ...Option) *Parser {
	p := &Parser{BaseParser: parser.NewBaseParser(logger, delimiter)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Strict reports whether the parser rejects files with malformed rows.
func (p *Parser) Strict() bool {
	return p.strict
}

// Parse reads fuel entries from r.
func (p *Parser) Parse(r io.Reader) ([]models.FuelEntry, error) {
	return p.parse(r, "")
}

// ParseFile reads fuel entries from filePath after checking its header.
func (p *Parser) ParseFile(filePath string) ([]models.FuelEntry, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening fuel-entry file: %w", err)
	}
	if err := checkHeader(bytes.NewReader(data), p.Delimiter(), filePath); err != nil {
		return nil, err
	}
	entries, err := p.parse(bytes.NewReader(data), filePath)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", filePath, err)
	}
	return entries, nil
}

// ValidateFormat reports whether filePath has the required fuel-entry columns.
func (p *Parser) ValidateFormat(filePath string) (bool, error) {
	return ValidateFormat(filePath, p.Delimiter())
}

func (p *Parser) parse(r io.Reader, source string) ([]models.FuelEntry, error) {
	logger := p.GetLogger()
	if source != "" {
		logger = logger.WithField(logging.FieldFile, source)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading fuel entries: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	rows, err := common.ReadCSV[CSVRow](bytes.NewReader(data), p.Delimiter())
	if err != nil {
		return nil, &parsererror.InvalidFormatError{FilePath: source, ExpectedFormat: ExpectedFormat, Msg: err.Error()}
	}

	entries := make([]models.FuelEntry, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		if row.isEmpty() {
			continue
		}
		entry, err := ConvertRow(row, i+1)
		if err != nil {
			if p.strict {
				return nil, err
			}
			skipped++
			logger.WithError(err).Warn("Skipping malformed fuel entry",
				logging.F(logging.FieldLine, i+1),
				logging.F(logging.FieldInvoice, row.InvoiceNumber))
			continue
		}
		if !taxrate.IsKnownFuelType(entry.FuelType) {
			logger.Warn("Unknown fuel type, diesel rate will apply",
				logging.F(logging.FieldLine, i+1),
				logging.F(logging.FieldFuel, entry.FuelType))
		}
		entries = append(entries, entry)
	}

	logger.Info("Parsed fuel entries",
		logging.F(logging.FieldCount, len(entries)),
		logging.F(logging.FieldSkipped, skipped))
	return entries, nil
}

// ConvertRow turns one CSV row into a FuelEntry. line is the 1-based data row
// used in the returned *parsererror.ParseError.
func ConvertRow(row CSVRow, line int) (models.FuelEntry, error) {
	date, err := taxrate.ParseDate(dateutils.CleanDateString(row.Date))
	if err != nil {
		return models.FuelEntry{}, &parsererror.ParseError{
			Parser: ParserName, Line: line, Field: "Date", Value: row.Date, Err: err,
		}
	}

	volume, err := currencyutils.ParseVolume(row.VolumeLiters)
	if err != nil {
		return models.FuelEntry{}, &parsererror.ParseError{
			Parser: ParserName, Line: line, Field: "VolumeLiters", Value: row.VolumeLiters, Err: err,
		}
	}

	fuel := strings.TrimSpace(row.FuelType)
	if fuel == "" {
		return models.FuelEntry{}, &parsererror.ParseError{
			Parser: ParserName, Line: line, Field: "FuelType", Value: row.FuelType, Err: errors.New("fuel type is empty"),
		}
	}

	return models.FuelEntry{
		Date:          date,
		InvoiceNumber: strings.TrimSpace(row.InvoiceNumber),
		MachineID:     strings.TrimSpace(row.MachineID),
		Activity:      strings.TrimSpace(row.Activity),
		FuelType:      fuel,
		VolumeLiters:  volume,
		Supplier:      strings.TrimSpace(row.Supplier),
	}, nil
}

// ValidateFormat checks that filePath is a CSV file whose header contains
// every required column. A false result comes with a nil error; I/O failures
// are returned as errors.
func ValidateFormat(filePath string, delimiter rune) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, fmt.Errorf("error opening file for validation: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := checkHeader(file, delimiter, filePath); err != nil {
		var formatErr *parsererror.InvalidFormatError
		var validationErr *parsererror.ValidationError
		if errors.As(err, &formatErr) || errors.As(err, &validationErr) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func checkHeader(r io.Reader, delimiter rune, filePath string) error {
	header, err := common.ReadHeader(r, delimiter)
	if err != nil {
		return &parsererror.InvalidFormatError{FilePath: filePath, ExpectedFormat: ExpectedFormat, Msg: err.Error()}
	}

	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &parsererror.ValidationError{
			FilePath: filePath,
			Reason:   "missing required columns: " + strings.Join(missing, ", "),
		}
	}
	return nil
}
