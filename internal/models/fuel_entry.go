// Package models provides the data structures used throughout the application.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FuelEntry is one fuel purchase taken from an invoice or delivery ticket.
type FuelEntry struct {
	Date          time.Time       `json:"date" xml:"date"`
	InvoiceNumber string          `json:"invoice_number,omitempty" xml:"invoiceNumber,omitempty"`
	MachineID     string          `json:"machine_id,omitempty" xml:"machineId,omitempty"`
	Activity      string          `json:"activity,omitempty" xml:"activity,omitempty"`
	FuelType      string          `json:"fuel_type" xml:"fuelType"`
	VolumeLiters  decimal.Decimal `json:"volume_liters" xml:"volumeLiters"`
	Supplier      string          `json:"supplier,omitempty" xml:"supplier,omitempty"`
}

// IsCorrection reports whether the entry is a credit note reversing an earlier purchase.
func (e FuelEntry) IsCorrection() bool {
	return e.VolumeLiters.IsNegative()
}

// ReimbursementLine is a FuelEntry with the rate that applied to it.
type ReimbursementLine struct {
	Entry        FuelEntry       `json:"entry" xml:"entry"`
	Activity     string          `json:"activity" xml:"activity"`
	Fuel         string          `json:"fuel" xml:"fuel"`
	Era          string          `json:"era" xml:"era"`
	StandardRate bool            `json:"standard_rate" xml:"standardRate"`
	RatePerLiter decimal.Decimal `json:"rate_per_liter" xml:"ratePerLiter"`
	Amount       decimal.Decimal `json:"amount_chf" xml:"amountCHF"`
}
