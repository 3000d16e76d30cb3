package taxrate

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// tableFile is the YAML layout of a rule table:
//
//	version: "2026"
//	rules:
//	  - effective_from: "2026-01-01T00:00:00Z"
//	    sector: agriculture_with_direct
//	    fuel: diesel
//	    rate: "0.6005"
type tableFile struct {
	Version string      `yaml:"version"`
	Rules   []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	EffectiveFrom  string `yaml:"effective_from,omitempty"`
	EffectiveUntil string `yaml:"effective_until,omitempty"`
	Sector         string `yaml:"sector"`
	Fuel           string `yaml:"fuel"`
	Rate           string `yaml:"rate"`
}

// LoadTableFile reads and validates a YAML rule table from path.
func LoadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening rate table: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := LoadTable(f)
	if err != nil {
		return nil, fmt.Errorf("error loading rate table %s: %w", path, err)
	}
	return t, nil
}

// LoadTable reads and validates a YAML rule table. Unlike the resolver, the
// loader is strict: unknown sectors and fuel types are rejected.
func LoadTable(r io.Reader) (*Table, error) {
	var file tableFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("error parsing rate table: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, &TableError{Version: file.Version, Reason: "no rules"}
	}

	rules := make([]Rule, 0, len(file.Rules))
	for i, entry := range file.Rules {
		rule, err := entry.toRule()
		if err != nil {
			return nil, &TableError{Version: file.Version, Reason: fmt.Sprintf("rule %d: %s", i, err)}
		}
		rules = append(rules, rule)
	}
	return NewTable(file.Version, rules)
}

func (e ruleEntry) toRule() (Rule, error) {
	var rule Rule

	fuel, ok := lookupFuelType(e.Fuel)
	if !ok {
		return rule, fmt.Errorf("unknown fuel type %q", e.Fuel)
	}
	rule.Fuel = fuel

	switch code := strings.TrimSpace(e.Sector); code {
	case "", string(AnySector):
		rule.Sector = AnySector
	default:
		s, known := ParseSector(code)
		if !known {
			return rule, fmt.Errorf("unknown sector %q", code)
		}
		rule.Sector = s
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(e.Rate))
	if err != nil {
		return rule, fmt.Errorf("invalid rate %q: %w", e.Rate, err)
	}
	rule.Rate = rate

	if rule.EffectiveFrom, err = parseBound(e.EffectiveFrom); err != nil {
		return rule, fmt.Errorf("effective_from: %w", err)
	}
	if rule.EffectiveUntil, err = parseBound(e.EffectiveUntil); err != nil {
		return rule, fmt.Errorf("effective_until: %w", err)
	}
	return rule, nil
}

func parseBound(v string) (time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return time.Time{}, nil
	}
	return ParseDate(v)
}

// MarshalTable renders t in the format LoadTable reads.
func MarshalTable(t *Table) ([]byte, error) {
	file := tableFile{Version: t.Version()}
	for _, r := range t.Rules() {
		entry := ruleEntry{
			Sector: string(r.Sector),
			Fuel:   string(r.Fuel),
			Rate:   r.Rate.String(),
		}
		if !r.EffectiveFrom.IsZero() {
			entry.EffectiveFrom = r.EffectiveFrom.UTC().Format(time.RFC3339)
		}
		if !r.EffectiveUntil.IsZero() {
			entry.EffectiveUntil = r.EffectiveUntil.UTC().Format(time.RFC3339)
		}
		file.Rules = append(file.Rules, entry)
	}

	out, err := yaml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("error marshaling rate table: %w", err)
	}
	return out, nil
}
