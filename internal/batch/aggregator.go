// Package batch handles multi-file ingest and period summaries of
// reimbursement lines.
package batch

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ndjaka/mineral-tax/internal/dateutils"
	"ndjaka/mineral-tax/internal/logging"
	"ndjaka/mineral-tax/internal/models"
	"ndjaka/mineral-tax/internal/taxrate"

	"github.com/shopspring/decimal"
)

// DateRange represents a date range for a set of entries.
type DateRange struct {
	Start time.Time `json:"start" xml:"start"`
	End   time.Time `json:"end" xml:"end"`
}

// String returns a string representation of the date range
func (dr DateRange) String() string {
	return fmt.Sprintf("%s_%s", dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"))
}

// IsZero reports whether the range is unset.
func (dr DateRange) IsZero() bool {
	return dr.Start.IsZero() && dr.End.IsZero()
}

// Merge combines this date range with another, returning the overall range
func (dr DateRange) Merge(other DateRange) DateRange {
	if dr.IsZero() {
		return other
	}
	if other.IsZero() {
		return dr
	}

	start := dr.Start
	if other.Start.Before(start) {
		start = other.Start
	}

	end := dr.End
	if other.End.After(end) {
		end = other.End
	}

	return DateRange{Start: start, End: end}
}

// PeriodTotal is the sum of the lines falling in one month, quarter or year.
// DateRange.End is exclusive.
type PeriodTotal struct {
	DateRange
	Label   string          `json:"label" xml:"label"`
	Volume  decimal.Decimal `json:"volume_liters" xml:"volumeLiters"`
	Amount  decimal.Decimal `json:"amount_chf" xml:"amountCHF"`
	Entries int             `json:"entries" xml:"entries"`
}

// SectorTotal is the sum of the lines declared under one activity. Lines that
// fell back to the standard rate without a recognised activity are grouped
// under StandardSectorLabel.
type SectorTotal struct {
	Sector  string          `json:"sector" xml:"sector"`
	Volume  decimal.Decimal `json:"volume_liters" xml:"volumeLiters"`
	Amount  decimal.Decimal `json:"amount_chf" xml:"amountCHF"`
	Entries int             `json:"entries" xml:"entries"`
}

// StandardSectorLabel groups lines without a recognised activity.
const StandardSectorLabel = "standard"

// Aggregator groups reimbursement lines by period and sector.
type Aggregator struct {
	logger logging.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(logger logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Aggregator{logger: logger}
}

// Summarize groups lines into month, quarter or year buckets sorted by start
// date. Buckets are UTC calendar periods, the same clock the reform pivot uses.
func (a *Aggregator) Summarize(lines []models.ReimbursementLine, period string) ([]PeriodTotal, error) {
	buckets := make(map[time.Time]*PeriodTotal)
	for _, line := range lines {
		start, end, err := dateutils.PeriodBounds(line.Entry.Date.UTC(), period)
		if err != nil {
			return nil, err
		}
		total, ok := buckets[start]
		if !ok {
			total = &PeriodTotal{
				DateRange: DateRange{Start: start, End: end},
				Label:     dateutils.PeriodLabel(start, period),
				Volume:    decimal.Zero,
				Amount:    decimal.Zero,
			}
			buckets[start] = total
		}
		total.Volume = total.Volume.Add(line.Entry.VolumeLiters)
		total.Amount = total.Amount.Add(line.Amount)
		total.Entries++
	}

	totals := make([]PeriodTotal, 0, len(buckets))
	for _, total := range buckets {
		totals = append(totals, *total)
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Start.Before(totals[j].Start)
	})

	a.logger.Debug("Summarized reimbursement lines",
		logging.F(logging.FieldCount, len(lines)),
		logging.F("periods", len(totals)))
	return totals, nil
}

// SummarizeBySector groups lines by declared activity, sorted by sector name.
func (a *Aggregator) SummarizeBySector(lines []models.ReimbursementLine) []SectorTotal {
	buckets := make(map[string]*SectorTotal)
	for _, line := range lines {
		key := SectorKey(line)
		total, ok := buckets[key]
		if !ok {
			total = &SectorTotal{Sector: key, Volume: decimal.Zero, Amount: decimal.Zero}
			buckets[key] = total
		}
		total.Volume = total.Volume.Add(line.Entry.VolumeLiters)
		total.Amount = total.Amount.Add(line.Amount)
		total.Entries++
	}

	totals := make([]SectorTotal, 0, len(buckets))
	for _, total := range buckets {
		totals = append(totals, *total)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Sector < totals[j].Sector })
	return totals
}

// SectorKey is the sector a line is totalled under.
func SectorKey(line models.ReimbursementLine) string {
	if s, ok := taxrate.ParseSector(line.Activity); ok {
		return s.String()
	}
	return StandardSectorLabel
}

// SortLines orders lines by date, then invoice number, then volume.
func (a *Aggregator) SortLines(lines []models.ReimbursementLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		ei, ej := lines[i].Entry, lines[j].Entry
		if !ei.Date.Equal(ej.Date) {
			return ei.Date.Before(ej.Date)
		}
		if ei.InvoiceNumber != ej.InvoiceNumber {
			return ei.InvoiceNumber < ej.InvoiceNumber
		}
		return ei.VolumeLiters.LessThan(ej.VolumeLiters)
	})
}

// DetectDuplicates logs entries that look like the same purchase imported
// twice and returns how many were found. Entries are never removed.
func (a *Aggregator) DetectDuplicates(entries []models.FuelEntry) int {
	duplicateCount := 0

	for i := 0; i < len(entries)-1; i++ {
		for j := i + 1; j < len(entries); j++ {
			if arePotentialDuplicates(entries[i], entries[j]) {
				duplicateCount++
				a.logger.Warn("Potential duplicate fuel entry",
					logging.F(logging.FieldDate, dateutils.ToISODate(entries[i].Date.UTC())),
					logging.F(logging.FieldInvoice, entries[i].InvoiceNumber),
					logging.F(logging.FieldMachine, entries[i].MachineID),
					logging.F(logging.FieldVolume, entries[i].VolumeLiters.String()))
				break
			}
		}
	}

	if duplicateCount > 0 {
		a.logger.Warn("Found potential duplicate fuel entries",
			logging.F(logging.FieldCount, duplicateCount))
	}
	return duplicateCount
}

func arePotentialDuplicates(e1, e2 models.FuelEntry) bool {
	if !e1.Date.Equal(e2.Date) {
		return false
	}
	if !e1.VolumeLiters.Equal(e2.VolumeLiters) {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(e1.FuelType), strings.TrimSpace(e2.FuelType)) {
		return false
	}
	if e1.InvoiceNumber != "" || e2.InvoiceNumber != "" {
		return strings.EqualFold(strings.TrimSpace(e1.InvoiceNumber), strings.TrimSpace(e2.InvoiceNumber))
	}
	return strings.EqualFold(strings.TrimSpace(e1.MachineID), strings.TrimSpace(e2.MachineID))
}

// CalculateDateRange returns the earliest and latest entry dates, in UTC.
func CalculateDateRange(entries []models.FuelEntry) DateRange {
	var dr DateRange
	for _, e := range entries {
		d := e.Date.UTC()
		dr = dr.Merge(DateRange{Start: d, End: d})
	}
	return dr
}

// GenerateOutputFilename creates a filename for a consolidated export.
// Format: {prefix}_{start_date}_{end_date}.{ext}
func GenerateOutputFilename(prefix string, dateRange DateRange, ext string) string {
	if prefix == "" {
		prefix = "reimbursements"
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = models.FormatCSV
	}

	if !dateRange.Start.IsZero() && !dateRange.End.IsZero() {
		return fmt.Sprintf("%s_%s.%s", prefix, dateRange.String(), ext)
	}
	return fmt.Sprintf("%s.%s", prefix, ext)
}
