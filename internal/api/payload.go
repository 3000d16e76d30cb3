package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ndjaka/mineral-tax/internal/currencyutils"
	"ndjaka/mineral-tax/internal/dateutils"
	"ndjaka/mineral-tax/internal/fuelentry"
	"ndjaka/mineral-tax/internal/models"
	"ndjaka/mineral-tax/internal/report"

	"github.com/go-chi/render"
)

const (
	// MaxEntriesPerRequest caps the size of one reimbursement request.
	MaxEntriesPerRequest = 10000
	// MaxRequestBytes caps the body read for one reimbursement request.
	MaxRequestBytes = 4 << 20
)

// EntryRequest is one fuel purchase in a reimbursement request.
type EntryRequest struct {
	Date          string      `json:"date"`
	InvoiceNumber string      `json:"invoice_number,omitempty"`
	MachineID     string      `json:"machine_id,omitempty"`
	Activity      string      `json:"activity,omitempty"`
	FuelType      string      `json:"fuel_type"`
	VolumeLiters  json.Number `json:"volume_liters"`
	Supplier      string      `json:"supplier,omitempty"`
}

// ReimbursementRequest is the body of POST /v1/reimbursements.
type ReimbursementRequest struct {
	Entries []EntryRequest `json:"entries"`

	entries []models.FuelEntry
}

// Bind satisfies render.Binder. It converts the entries with the same rules
// as the CSV ingest.
func (req *ReimbursementRequest) Bind(r *http.Request) error {
	if len(req.Entries) == 0 {
		return errors.New("entries must not be empty")
	}
	if len(req.Entries) > MaxEntriesPerRequest {
		return fmt.Errorf("too many entries: %d (max %d)", len(req.Entries), MaxEntriesPerRequest)
	}

	req.entries = make([]models.FuelEntry, 0, len(req.Entries))
	for i, e := range req.Entries {
		entry, err := fuelentry.ConvertRow(fuelentry.CSVRow{
			Date:          e.Date,
			InvoiceNumber: e.InvoiceNumber,
			MachineID:     e.MachineID,
			Activity:      e.Activity,
			FuelType:      e.FuelType,
			VolumeLiters:  e.VolumeLiters.String(),
			Supplier:      e.Supplier,
		}, i+1)
		if err != nil {
			return err
		}
		req.entries = append(req.entries, entry)
	}
	return nil
}

// FuelEntries returns the converted entries after Bind.
func (req *ReimbursementRequest) FuelEntries() []models.FuelEntry {
	return req.entries
}

// RateResponse is returned by GET /v1/rate.
type RateResponse struct {
	Date         string `json:"date"`
	Activity     string `json:"activity"`
	FuelType     string `json:"fuel_type"`
	Era          string `json:"era"`
	RatePerLiter string `json:"rate_per_liter"`
	StandardRate bool   `json:"standard_rate"`
	RateTable    string `json:"rate_table"`
}

// Render satisfies render.Renderer.
func (rr *RateResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// LineResponse is one computed line.
type LineResponse struct {
	Date          string `json:"date"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	MachineID     string `json:"machine_id,omitempty"`
	Activity      string `json:"activity"`
	FuelType      string `json:"fuel_type"`
	Era           string `json:"era"`
	VolumeLiters  string `json:"volume_liters"`
	RatePerLiter  string `json:"rate_per_liter"`
	AmountCHF     string `json:"amount_chf"`
	StandardRate  bool   `json:"standard_rate"`
}

// ReimbursementResponse is returned by POST /v1/reimbursements.
type ReimbursementResponse struct {
	ReportID    string         `json:"report_id"`
	RateTable   string         `json:"rate_table"`
	Lines       []LineResponse `json:"lines"`
	TotalVolume string         `json:"total_volume_liters"`
	TotalAmount string         `json:"total_amount_chf"`
	Corrections int            `json:"corrections"`
}

// Render satisfies render.Renderer.
func (rr *ReimbursementResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// NewReimbursementResponse flattens a report, formatting numbers as fixed
// decimal strings.
func NewReimbursementResponse(rep *report.Report) *ReimbursementResponse {
	resp := &ReimbursementResponse{
		ReportID:    rep.ReportID,
		RateTable:   rep.RateTable,
		Lines:       make([]LineResponse, 0, len(rep.Lines)),
		TotalVolume: currencyutils.FormatVolume(rep.TotalVolume),
		TotalAmount: rep.TotalAmount.StringFixed(currencyutils.AmountPlaces),
		Corrections: rep.Corrections,
	}
	for _, line := range rep.Lines {
		resp.Lines = append(resp.Lines, LineResponse{
			Date:          dateutils.ToISODate(line.Entry.Date.UTC()),
			InvoiceNumber: line.Entry.InvoiceNumber,
			MachineID:     line.Entry.MachineID,
			Activity:      line.Activity,
			FuelType:      line.Fuel,
			Era:           line.Era,
			VolumeLiters:  currencyutils.FormatVolume(line.Entry.VolumeLiters),
			RatePerLiter:  currencyutils.FormatRate(line.RatePerLiter),
			AmountCHF:     line.Amount.StringFixed(currencyutils.AmountPlaces),
			StandardRate:  line.StandardRate,
		})
	}
	return resp
}

// ErrResponse renders an error as JSON.
type ErrResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	ErrorText      string `json:"error,omitempty"`
}

// Render satisfies render.Renderer.
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrInvalidRequest is a 400 response.
func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "invalid request",
		ErrorText:      err.Error(),
	}
}

// ErrInternal is a 500 response. The error text is not exposed.
func ErrInternal(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "internal error",
	}
}
