package taxrate

import "time"

// ReformPivot is the instant the sector-differentiated rates take effect.
var ReformPivot = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// Era is the regulatory period an instant falls into.
type Era string

const (
	PreReform  Era = "pre_reform"
	PostReform Era = "post_reform"
)

// EraOf classifies t against ReformPivot. The comparison is on the instant,
// so the location attached to t does not matter.
func EraOf(t time.Time) Era {
	if t.Before(ReformPivot) {
		return PreReform
	}
	return PostReform
}

func (e Era) String() string {
	return string(e)
}
