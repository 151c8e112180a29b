// Package portrange turns "<start>-<end>" expressions into the ordered list of
// ports to scan.
package portrange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrFormat matches every *FormatError.
	ErrFormat = errors.New("invalid port range format")
	// ErrOrder matches every *OrderError.
	ErrOrder = errors.New("start port after end port")
)

// FormatError reports a range expression that is not two 16-bit port numbers
// separated by a single dash.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string { return e.Reason }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// OrderError reports a well-formed range whose start is greater than its end.
type OrderError struct {
	Start, End uint16
}

func (e *OrderError) Error() string {
	return "Start port must be less than or equal to end port."
}

func (e *OrderError) Is(target error) bool { return target == ErrOrder }

// Range is an inclusive, ascending span of TCP ports.
type Range struct {
	Start uint16
	End   uint16
}

// Len returns the number of ports in r.
func (r Range) Len() int {
	if r.Start > r.End {
		return 0
	}
	return int(r.End) - int(r.Start) + 1
}

// Ports expands r into its individual ports in ascending order.
func (r Range) Ports() []uint16 {
	if r.Start > r.End {
		return nil
	}
	results := make([]uint16, 0, r.Len())
	for p := r.Start; ; p++ {
		results = append(results, p)
		// p == 65535 would wrap on the increment
		if p == r.End {
			break
		}
	}
	return results
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// ParseRange parses s of the form "<start>-<end>".
func ParseRange(s string) (Range, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Range{}, &FormatError{Input: s, Reason: "Invalid port range format."}
	}

	start, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return Range{}, &FormatError{Input: s, Reason: "Invalid start port."}
	}

	end, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return Range{}, &FormatError{Input: s, Reason: "Invalid end port."}
	}

	if start > end {
		return Range{}, &OrderError{Start: uint16(start), End: uint16(end)}
	}
	return Range{Start: uint16(start), End: uint16(end)}, nil
}

// Parse parses s and returns every port it covers, ascending.
func Parse(s string) ([]uint16, error) {
	r, err := ParseRange(s)
	if err != nil {
		return nil, err
	}
	return r.Ports(), nil
}
