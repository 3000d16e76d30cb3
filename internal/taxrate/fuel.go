package taxrate

import "strings"

// FuelType identifies the fuel a purchase was made for.
type FuelType string

const (
	Diesel    FuelType = "diesel"
	Gasoline  FuelType = "gasoline"
	Biodiesel FuelType = "biodiesel"
)

// FuelTypes returns the recognised fuel types.
func FuelTypes() []FuelType {
	return []FuelType{Diesel, Gasoline, Biodiesel}
}

// ParseFuelType maps a fuel code to a FuelType. Empty and unrecognised codes
// are treated as diesel.
func ParseFuelType(code string) FuelType {
	if f, ok := lookupFuelType(code); ok {
		return f
	}
	return Diesel
}

// IsKnownFuelType reports whether code names a recognised fuel type.
func IsKnownFuelType(code string) bool {
	_, ok := lookupFuelType(code)
	return ok
}

func lookupFuelType(code string) (FuelType, bool) {
	switch FuelType(strings.ToLower(strings.TrimSpace(code))) {
	case Diesel:
		return Diesel, true
	case Gasoline:
		return Gasoline, true
	case Biodiesel:
		return Biodiesel, true
	}
	return "", false
}

func (f FuelType) String() string {
	return string(f)
}
