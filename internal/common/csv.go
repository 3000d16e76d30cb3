// Package common provides the CSV plumbing shared by ingest and export.
package common

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// DefaultDelimiter is used when callers pass a zero rune.
const DefaultDelimiter = ','

func delimiterOrDefault(delimiter rune) rune {
	if delimiter == 0 {
		return DefaultDelimiter
	}
	return delimiter
}

// NewReader returns a csv.Reader configured for the given delimiter.
// Each call gets its own reader, so concurrent parses never share state.
func NewReader(in io.Reader, delimiter rune) *csv.Reader {
	r := csv.NewReader(in)
	r.Comma = delimiterOrDefault(delimiter)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	return r
}

// ReadCSV decodes CSV data into a slice of structs using gocsv.
// TCSVRow is the struct type that maps to the CSV columns.
func ReadCSV[TCSVRow any](in io.Reader, delimiter rune) ([]TCSVRow, error) {
	var rows []TCSVRow
	if err := gocsv.UnmarshalCSV(NewReader(in, delimiter), &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV data: %w", err)
	}
	return rows, nil
}

// ReadHeader returns the first record of a CSV stream.
func ReadHeader(in io.Reader, delimiter rune) ([]string, error) {
	header, err := NewReader(in, delimiter).Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV data")
	}
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}
	return header, nil
}

// WriteCSV encodes rows with gocsv using the given delimiter.
func WriteCSV[TCSVRow any](out io.Writer, rows []TCSVRow, delimiter rune) error {
	if rows == nil {
		rows = []TCSVRow{}
	}
	csvWriter := csv.NewWriter(out)
	csvWriter.Comma = delimiterOrDefault(delimiter)

	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
