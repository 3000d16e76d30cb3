package taxrate

import (
	"time"

	"github.com/shopspring/decimal"
)

// Result is a resolved rate, and once computed by a Calculator, the amount.
type Result struct {
	Era          Era
	Sector       Sector // empty when the code was absent or unrecognised
	Fuel         FuelType
	Rule         Rule
	Standard     bool // true when the wildcard rule applied
	RatePerLiter decimal.Decimal
	Volume       decimal.Decimal
	Amount       decimal.Decimal
}

// Resolver looks up rates in a Table.
type Resolver struct {
	table *Table
}

// NewResolver returns a Resolver over table. A nil or empty table is
// replaced by DefaultTable.
func NewResolver(table *Table) *Resolver {
	if table == nil || table.Len() == 0 {
		table = DefaultTable()
	}
	return &Resolver{table: table}
}

// Table returns the table the resolver reads from.
func (r *Resolver) Table() *Table {
	return r.table
}

// ResolveRate returns the CHF-per-liter rate for a purchase at date. It never
// fails: an absent or unknown sector gets the standard rate and an unknown
// fuel type is treated as diesel. date is expected to be a real instant; see
// ParseDate.
func (r *Resolver) ResolveRate(date time.Time, sector, fuel string) decimal.Decimal {
	return r.Resolve(date, sector, fuel).RatePerLiter
}

// Resolve is ResolveRate with the matched rule and classification attached.
func (r *Resolver) Resolve(date time.Time, sector, fuel string) Result {
	s, known := ParseSector(sector)
	f := ParseFuelType(fuel)

	res := Result{
		Era:    EraOf(date),
		Sector: s,
		Fuel:   f,
	}

	if known {
		if rule, ok := r.table.lookup(s, f, date); ok {
			res.Rule = rule
			res.RatePerLiter = rule.Rate
			return res
		}
	}

	rule, ok := r.table.lookup(AnySector, f, date)
	if !ok {
		// NewTable guarantees full standard coverage.
		panic("taxrate: no standard rule covers " + date.UTC().Format(time.RFC3339) + " for " + string(f))
	}
	res.Rule = rule
	res.Standard = true
	res.RatePerLiter = rule.Rate
	return res
}
