package pid

import "fmt"

// DataType classifies the numeric domain of a decoded value.
type DataType int

const (
	Integer DataType = iota
	Real
)

// Unit is the physical unit of a decoded value.
type Unit int

const (
	Percent Unit = iota
	RPM
	Celsius
	Pascals
	KilometersPerHour
)

func (u Unit) String() string {
	switch u {
	case Percent:
		return "%"
	case RPM:
		return "rpm"
	case Celsius:
		return "degC"
	case Pascals:
		return "Pa"
	case KilometersPerHour:
		return "km/h"
	}
	return "?"
}

// DecodeRule selects which conversion applies to a parameter's payload
// bytes. The set is closed: every supported parameter decodes with one
// of these.
type DecodeRule int

const (
	DecodeIdentity DecodeRule = iota
	DecodeRPM
)

// Definition describes one Mode 01 parameter: the request code sent to
// the vehicle, how many response bytes carry data, and how those bytes
// map to a physical value. Min/Max and Type document the expected
// domain; they are not enforced at decode time.
type Definition struct {
	Code  uint8
	Name  string
	Width int
	Type  DataType
	Min   float64
	Max   float64
	Unit  Unit
	Rule  DecodeRule
}

// Active reports whether the parameter is queried during a sweep.
// Zero-width entries are placeholders.
func (d Definition) Active() bool {
	return d.Width > 0
}

// Decode converts the two payload bytes to a physical value according
// to the definition's rule.
func (d Definition) Decode(a, b byte) float64 {
	switch d.Rule {
	case DecodeRPM:
		return EngineRPM(a, b)
	default:
		return Identity(a, b)
	}
}

// String renders the full Mode 01 request, e.g. "010C" for engine speed.
func (d Definition) String() string {
	return fmt.Sprintf("01%02X", d.Code)
}
