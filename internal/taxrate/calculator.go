package taxrate

import (
	"time"

	"github.com/shopspring/decimal"
)

// Calculator turns fuel volumes into reimbursement amounts.
type Calculator struct {
	resolver *Resolver
}

// NewCalculator returns a Calculator using resolver, or a resolver over
// DefaultTable when nil.
func NewCalculator(resolver *Resolver) *Calculator {
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	return &Calculator{resolver: resolver}
}

// Resolver returns the underlying resolver.
func (c *Calculator) Resolver() *Resolver {
	return c.resolver
}

// CalculateReimbursement returns volume × rate rounded to CHF cents.
// A zero volume yields zero; a negative volume (a correction entry) yields a
// negative amount.
func (c *Calculator) CalculateReimbursement(volume decimal.Decimal, date time.Time, sector, fuel string) decimal.Decimal {
	return c.Calculate(volume, date, sector, fuel).Amount
}

// Calculate is CalculateReimbursement with the resolved rate attached.
func (c *Calculator) Calculate(volume decimal.Decimal, date time.Time, sector, fuel string) Result {
	res := c.resolver.Resolve(date, sector, fuel)
	res.Volume = volume
	res.Amount = RoundCHF(volume.Mul(res.RatePerLiter))
	return res
}

// CalculateFloat is CalculateReimbursement for callers holding float64
// volumes. The arithmetic is still done in decimal.
func (c *Calculator) CalculateFloat(volume float64, date time.Time, sector, fuel string) float64 {
	amount, _ := c.CalculateReimbursement(decimal.NewFromFloat(volume), date, sector, fuel).Float64()
	return amount
}

// RoundCHF rounds to two decimal places, halves away from zero.
func RoundCHF(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// LegacyFlatReimbursement is the date-agnostic estimate shown where sector
// and invoice date are not known yet. It uses StandardRate.
func LegacyFlatReimbursement(volume decimal.Decimal) decimal.Decimal {
	return RoundCHF(volume.Mul(StandardRate))
}
