package taxrate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ndjaka/mineral-tax/internal/dateutils"
)

// ErrInvalidDate matches every *InvalidDateError.
var ErrInvalidDate = errors.New("invalid transaction date")

// InvalidDateError is returned by ParseDate for input that is not a date.
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidDate, e.Value)
}

func (e *InvalidDateError) Is(target error) bool {
	return target == ErrInvalidDate
}

// Layouts accepted by ParseDate, tried in order. Layouts without a zone are
// read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	dateutils.DateLayoutFull,
	dateutils.DateLayoutISO,
	"02.01.2006 15:04",
	dateutils.DateLayoutSwiss,
}

// ParseDate parses an invoice timestamp for use with the resolver. Date-only
// values mean midnight UTC.
func ParseDate(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, &InvalidDateError{Value: value}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &InvalidDateError{Value: value}
}
