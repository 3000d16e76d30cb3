// Package taxrate resolves mineral-oil-tax reimbursement rates and computes
// refund amounts. Everything in this package is pure: a Table is immutable
// once built and Resolver/Calculator hold no state beyond it, so they are
// safe to share between goroutines.
package taxrate

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTableVersion names the built-in rule table.
const DefaultTableVersion = "2026"

// Regulatory rates in CHF per liter.
var (
	// StandardRate applies to every sector without a preferential rule, in
	// both eras. The flat legacy estimate uses it as well.
	StandardRate = decimal.RequireFromString("0.3406")

	AgricultureDieselRate   = decimal.RequireFromString("0.6005")
	AgricultureGasolineRate = decimal.RequireFromString("0.5924")
)

// Rule is one line of the rate table. A zero EffectiveFrom is unbounded in
// the past and a zero EffectiveUntil is open-ended; EffectiveUntil is
// exclusive.
type Rule struct {
	EffectiveFrom  time.Time
	EffectiveUntil time.Time
	Sector         Sector
	Fuel           FuelType
	Rate           decimal.Decimal
}

// Covers reports whether the rule is in force at t.
func (r Rule) Covers(t time.Time) bool {
	if !r.EffectiveFrom.IsZero() && t.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveUntil.IsZero() || t.Before(r.EffectiveUntil)
}

// IsStandard reports whether r is a wildcard rule.
func (r Rule) IsStandard() bool {
	return r.Sector == AnySector
}

// TableError describes why a rule set was rejected.
type TableError struct {
	Version string
	Reason  string
}

func (e *TableError) Error() string {
	return fmt.Sprintf("rate table %q: %s", e.Version, e.Reason)
}

type ruleKey struct {
	sector Sector
	fuel   FuelType
}

// Table is a validated, immutable rate rule set.
type Table struct {
	version string
	rules   []Rule
	index   map[ruleKey][]Rule
}

// NewTable validates rules and builds a Table. Every instant and fuel type
// must be covered by exactly one standard (AnySector) rule, and no two rules
// for the same sector and fuel may overlap.
func NewTable(version string, rules []Rule) (*Table, error) {
	t := &Table{
		version: version,
		rules:   make([]Rule, len(rules)),
		index:   make(map[ruleKey][]Rule),
	}
	copy(t.rules, rules)

	for i, r := range t.rules {
		if err := validateRule(r); err != nil {
			return nil, &TableError{Version: version, Reason: fmt.Sprintf("rule %d: %s", i, err)}
		}
		key := ruleKey{sector: r.Sector, fuel: r.Fuel}
		t.index[key] = append(t.index[key], r)
	}

	for key, group := range t.index {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].EffectiveFrom.Before(group[j].EffectiveFrom)
		})
		if err := checkOverlap(group); err != nil {
			return nil, &TableError{Version: version, Reason: fmt.Sprintf("%s/%s: %s", key.sector, key.fuel, err)}
		}
	}

	for _, fuel := range FuelTypes() {
		group := t.index[ruleKey{sector: AnySector, fuel: fuel}]
		if err := checkCoverage(group); err != nil {
			return nil, &TableError{Version: version, Reason: fmt.Sprintf("standard %s rate: %s", fuel, err)}
		}
	}

	return t, nil
}

// MustNewTable is like NewTable but panics on an invalid rule set.
func MustNewTable(version string, rules []Rule) *Table {
	t, err := NewTable(version, rules)
	if err != nil {
		panic(err)
	}
	return t
}

func validateRule(r Rule) error {
	if _, ok := lookupFuelType(string(r.Fuel)); !ok {
		return fmt.Errorf("unknown fuel type %q", r.Fuel)
	}
	if r.Sector != AnySector && !r.Sector.IsKnown() {
		return fmt.Errorf("unknown sector %q", r.Sector)
	}
	if r.Rate.IsNegative() {
		return fmt.Errorf("negative rate %s", r.Rate)
	}
	if !r.EffectiveFrom.IsZero() && !r.EffectiveUntil.IsZero() && !r.EffectiveUntil.After(r.EffectiveFrom) {
		return fmt.Errorf("effective_until %s is not after effective_from %s",
			r.EffectiveUntil.Format(time.RFC3339), r.EffectiveFrom.Format(time.RFC3339))
	}
	return nil
}

// checkOverlap expects group sorted by EffectiveFrom.
func checkOverlap(group []Rule) error {
	for i := 1; i < len(group); i++ {
		prev, next := group[i-1], group[i]
		if prev.EffectiveUntil.IsZero() || next.EffectiveFrom.Before(prev.EffectiveUntil) {
			return fmt.Errorf("rules starting %s and %s overlap",
				formatBound(prev.EffectiveFrom), formatBound(next.EffectiveFrom))
		}
	}
	return nil
}

// checkCoverage expects a sorted, non-overlapping group.
func checkCoverage(group []Rule) error {
	if len(group) == 0 {
		return fmt.Errorf("missing")
	}
	if !group[0].EffectiveFrom.IsZero() {
		return fmt.Errorf("no rule before %s", formatBound(group[0].EffectiveFrom))
	}
	for i := 1; i < len(group); i++ {
		if !group[i].EffectiveFrom.Equal(group[i-1].EffectiveUntil) {
			return fmt.Errorf("gap between %s and %s",
				formatBound(group[i-1].EffectiveUntil), formatBound(group[i].EffectiveFrom))
		}
	}
	if last := group[len(group)-1]; !last.EffectiveUntil.IsZero() {
		return fmt.Errorf("no rule after %s", formatBound(last.EffectiveUntil))
	}
	return nil
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "unbounded"
	}
	return t.UTC().Format(time.RFC3339)
}

// Version returns the label the table was built with.
func (t *Table) Version() string {
	return t.version
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Rules returns a copy of the rules in their original order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

func (t *Table) lookup(sector Sector, fuel FuelType, at time.Time) (Rule, bool) {
	for _, r := range t.index[ruleKey{sector: sector, fuel: fuel}] {
		if r.Covers(at) {
			return r, true
		}
	}
	return Rule{}, false
}

// DefaultTable builds the built-in table: one flat standard rate before
// ReformPivot, and from the pivot on a preferential rate for agriculture
// with direct payments.
func DefaultTable() *Table {
	return MustNewTable(DefaultTableVersion, defaultRules())
}

func defaultRules() []Rule {
	var rules []Rule
	for _, fuel := range FuelTypes() {
		rules = append(rules,
			Rule{EffectiveUntil: ReformPivot, Sector: AnySector, Fuel: fuel, Rate: StandardRate},
			Rule{EffectiveFrom: ReformPivot, Sector: AnySector, Fuel: fuel, Rate: StandardRate},
		)
	}
	return append(rules,
		Rule{EffectiveFrom: ReformPivot, Sector: AgricultureWithDirect, Fuel: Diesel, Rate: AgricultureDieselRate},
		Rule{EffectiveFrom: ReformPivot, Sector: AgricultureWithDirect, Fuel: Biodiesel, Rate: AgricultureDieselRate},
		Rule{EffectiveFrom: ReformPivot, Sector: AgricultureWithDirect, Fuel: Gasoline, Rate: AgricultureGasolineRate},
	)
}
