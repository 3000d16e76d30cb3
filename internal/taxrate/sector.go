package taxrate

import "strings"

// Sector is the Taxas activity classification a machine is declared under.
type Sector string

// AnySector is the wildcard sector of the standard rules.
const AnySector Sector = "*"

// Taxas activity classifications
const (
	AgricultureWithDirect    Sector = "agriculture_with_direct"
	AgricultureWithoutDirect Sector = "agriculture_without_direct"
	Forestry                 Sector = "forestry"
	Construction             Sector = "construction"
	NaturalStone             Sector = "natural_stone"
	SnowGroomer              Sector = "snow_groomer"
	ProfessionalFishing      Sector = "professional_fishing"
	StationaryGenerator      Sector = "stationary_generator"
	StationaryCleaning       Sector = "stationary_cleaning"
	StationaryCombustion     Sector = "stationary_combustion"
	ConcessionTransport      Sector = "concession_transport"
	Rinsing                  Sector = "rinsing"
	OtherTaxas               Sector = "other_taxas"
)

var knownSectors = []Sector{
	AgricultureWithDirect,
	AgricultureWithoutDirect,
	Forestry,
	Construction,
	NaturalStone,
	SnowGroomer,
	ProfessionalFishing,
	StationaryGenerator,
	StationaryCleaning,
	StationaryCombustion,
	ConcessionTransport,
	Rinsing,
	OtherTaxas,
}

var sectorSet = func() map[Sector]struct{} {
	set := make(map[Sector]struct{}, len(knownSectors))
	for _, s := range knownSectors {
		set[s] = struct{}{}
	}
	return set
}()

// Sectors returns every recognised activity classification.
func Sectors() []Sector {
	out := make([]Sector, len(knownSectors))
	copy(out, knownSectors)
	return out
}

// ParseSector normalises an activity code. The boolean is false for empty or
// unrecognised codes; such codes resolve to the standard rate.
func ParseSector(code string) (Sector, bool) {
	s := Sector(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := sectorSet[s]; !ok {
		return "", false
	}
	return s, true
}

// IsKnown reports whether s is one of the recognised classifications.
func (s Sector) IsKnown() bool {
	_, ok := sectorSet[s]
	return ok
}

func (s Sector) String() string {
	return string(s)
}
