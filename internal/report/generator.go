// Package report turns fuel entries into a reimbursement report and renders
// it as CSV, JSON or XML.
package report

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"time"

	"ndjaka/mineral-tax/internal/batch"
	"ndjaka/mineral-tax/internal/common"
	"ndjaka/mineral-tax/internal/currencyutils"
	"ndjaka/mineral-tax/internal/dateutils"
	"ndjaka/mineral-tax/internal/logging"
	"ndjaka/mineral-tax/internal/models"
	"ndjaka/mineral-tax/internal/store"
	"ndjaka/mineral-tax/internal/taxrate"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Report is the reimbursement claim for a set of fuel entries.
type Report struct {
	XMLName     xml.Name                   `json:"-" xml:"reimbursementReport"`
	ReportID    string                     `json:"report_id" xml:"reportId,attr"`
	GeneratedAt time.Time                  `json:"generated_at" xml:"generatedAt,attr"`
	RateTable   string                     `json:"rate_table" xml:"rateTable,attr"`
	Period      batch.DateRange            `json:"period" xml:"period"`
	Lines       []models.ReimbursementLine `json:"lines" xml:"lines>line"`
	TotalVolume decimal.Decimal            `json:"total_volume_liters" xml:"totalVolumeLiters"`
	TotalAmount decimal.Decimal            `json:"total_amount_chf" xml:"totalAmountCHF"`
	Corrections int                        `json:"corrections" xml:"corrections"`
	EraTotals   []EraTotal                 `json:"era_totals" xml:"eraTotals>era"`
	Sectors     []batch.SectorTotal        `json:"sector_totals" xml:"sectorTotals>sector"`
}

// EraTotal sums the lines dated on one side of the reform pivot.
type EraTotal struct {
	Era     string          `json:"era" xml:"name,attr"`
	Volume  decimal.Decimal `json:"volume_liters" xml:"volumeLiters"`
	Amount  decimal.Decimal `json:"amount_chf" xml:"amountCHF"`
	Entries int             `json:"entries" xml:"entries"`
}

// ExportRow is one line of the CSV export.
type ExportRow struct {
	Date          string `csv:"Date"`
	InvoiceNumber string `csv:"InvoiceNumber"`
	MachineID     string `csv:"MachineID"`
	Activity      string `csv:"Activity"`
	FuelType      string `csv:"FuelType"`
	Era           string `csv:"Era"`
	VolumeLiters  string `csv:"VolumeLiters"`
	RatePerLiter  string `csv:"RatePerLiter"`
	AmountCHF     string `csv:"AmountCHF"`
	StandardRate  bool   `csv:"StandardRate"`
	Supplier      string `csv:"Supplier"`
}

// Generator builds and renders reimbursement reports.
type Generator struct {
	logger     logging.Logger
	calculator *taxrate.Calculator
	machines   store.MachineLookup
	delimiter  rune
	now        func() time.Time
}

// NewGenerator creates a Generator. machines may be nil when every entry
// carries its own activity.
func NewGenerator(logger logging.Logger, calculator *taxrate.Calculator, machines store.MachineLookup) *Generator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if calculator == nil {
		calculator = taxrate.NewCalculator(nil)
	}
	return &Generator{
		logger:     logger,
		calculator: calculator,
		machines:   machines,
		delimiter:  common.DefaultDelimiter,
		now:        time.Now,
	}
}

// SetDelimiter changes the CSV export delimiter.
func (g *Generator) SetDelimiter(delimiter rune) {
	if delimiter != 0 {
		g.delimiter = delimiter
	}
}

// Line resolves the rate for one entry.
func (g *Generator) Line(entry models.FuelEntry) models.ReimbursementLine {
	activity, ok := store.ResolveActivity(entry, g.machines)
	if !ok {
		g.logger.Warn("No activity for fuel entry, standard rate applies",
			logging.F(logging.FieldInvoice, entry.InvoiceNumber),
			logging.F(logging.FieldMachine, entry.MachineID),
			logging.F(logging.FieldDate, dateutils.ToISODate(entry.Date.UTC())))
	}

	res := g.calculator.Calculate(entry.VolumeLiters, entry.Date, activity, entry.FuelType)
	return models.ReimbursementLine{
		Entry:        entry,
		Activity:     activity,
		Fuel:         res.Fuel.String(),
		Era:          res.Era.String(),
		StandardRate: res.Standard,
		RatePerLiter: res.RatePerLiter,
		Amount:       res.Amount,
	}
}

// Build resolves every entry and totals the result. Lines keep input order.
func (g *Generator) Build(entries []models.FuelEntry) (*Report, error) {
	report := &Report{
		ReportID:    uuid.NewString(),
		GeneratedAt: g.now().UTC(),
		RateTable:   g.calculator.Resolver().Table().Version(),
		Period:      batch.CalculateDateRange(entries),
		Lines:       make([]models.ReimbursementLine, 0, len(entries)),
		TotalVolume: decimal.Zero,
		TotalAmount: decimal.Zero,
	}

	eras := map[string]*EraTotal{}
	for _, entry := range entries {
		line := g.Line(entry)
		report.Lines = append(report.Lines, line)
		report.TotalVolume = report.TotalVolume.Add(entry.VolumeLiters)
		report.TotalAmount = report.TotalAmount.Add(line.Amount)
		if entry.IsCorrection() {
			report.Corrections++
			g.logger.Info("Correction entry reduces the claim",
				logging.F(logging.FieldInvoice, entry.InvoiceNumber),
				logging.F(logging.FieldEra, line.Era),
				logging.F(logging.FieldRate, currencyutils.FormatRate(line.RatePerLiter)),
				logging.F(logging.FieldAmount, line.Amount.StringFixed(currencyutils.AmountPlaces)))
		}

		total, ok := eras[line.Era]
		if !ok {
			total = &EraTotal{Era: line.Era, Volume: decimal.Zero, Amount: decimal.Zero}
			eras[line.Era] = total
		}
		total.Volume = total.Volume.Add(entry.VolumeLiters)
		total.Amount = total.Amount.Add(line.Amount)
		total.Entries++
	}

	for _, total := range eras {
		report.EraTotals = append(report.EraTotals, *total)
	}
	// pre_reform sorts before post_reform
	sort.Slice(report.EraTotals, func(i, j int) bool { return report.EraTotals[i].Era > report.EraTotals[j].Era })
	report.Sectors = batch.NewAggregator(g.logger).SummarizeBySector(report.Lines)

	g.logger.Info("Built reimbursement report",
		logging.F(logging.FieldReportID, report.ReportID),
		logging.F(logging.FieldCount, len(report.Lines)),
		logging.F(logging.FieldAmount, report.TotalAmount.StringFixed(currencyutils.AmountPlaces)))
	return report, nil
}

// Generate renders the report in the given format (csv, json or xml).
func (g *Generator) Generate(report *Report, format string) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("no report to generate")
	}
	switch strings.ToLower(format) {
	case models.FormatCSV:
		return g.generateCSVReport(report)
	case models.FormatJSON:
		return g.generateJSONReport(report)
	case models.FormatXML:
		return g.generateXMLReport(report)
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// ExportRows flattens the report lines for CSV output. Dates are written as
// UTC calendar days, the same clock the era is decided on.
func ExportRows(report *Report) []ExportRow {
	rows := make([]ExportRow, 0, len(report.Lines))
	for _, line := range report.Lines {
		rows = append(rows, ExportRow{
			Date:          dateutils.ToSwissFormat(line.Entry.Date.UTC()),
			InvoiceNumber: line.Entry.InvoiceNumber,
			MachineID:     line.Entry.MachineID,
			Activity:      line.Activity,
			FuelType:      line.Fuel,
			Era:           line.Era,
			VolumeLiters:  currencyutils.FormatVolume(line.Entry.VolumeLiters),
			RatePerLiter:  currencyutils.FormatRate(line.RatePerLiter),
			AmountCHF:     line.Amount.StringFixed(currencyutils.AmountPlaces),
			StandardRate:  line.StandardRate,
			Supplier:      line.Entry.Supplier,
		})
	}
	return rows
}

func (g *Generator) generateCSVReport(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := common.WriteCSV(&buf, ExportRows(report), g.delimiter); err != nil {
		g.logger.WithError(err).Error("Failed to write CSV report")
		return nil, fmt.Errorf("failed to write CSV report: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) generateJSONReport(report *Report) ([]byte, error) {
	jsonReport, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return jsonReport, nil
}

func (g *Generator) generateXMLReport(report *Report) ([]byte, error) {
	xmlReport, err := xml.MarshalIndent(report, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal XML report")
		return nil, fmt.Errorf("failed to marshal XML report: %w", err)
	}
	return []byte(xml.Header + string(xmlReport)), nil
}
