package domain

import "fmt"

// DataError reports an observation whose required fields are missing or malformed,
// or whose optional fields carry a value that cannot be coerced to a number.
type DataError struct {
	Index  int // position in the input sequence, -1 when unknown
	Date   string
	Ticker string
	Field  string
	Reason string
}

func (e *DataError) Error() string {
	where := fmt.Sprintf("observation %d", e.Index)
	if e.Index < 0 {
		where = "observation"
	}
	if e.Ticker != "" || e.Date != "" {
		where = fmt.Sprintf("%s (%s @ %s)", where, e.Ticker, e.Date)
	}
	return fmt.Sprintf("%s: field %q: %s", where, e.Field, e.Reason)
}
