package design

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTaps reads a comma- or whitespace-separated list of integers.
func ParseTaps(s string) ([]int64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty tap list", ErrInvalidParams)
	}

	taps := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: tap %d: %w", ErrInvalidParams, i, err)
		}
		taps[i] = v
	}
	return taps, nil
}

// FormatTaps writes taps in the form ParseTaps reads.
func FormatTaps(taps []int64) string {
	parts := make([]string, len(taps))
	for i, c := range taps {
		parts[i] = strconv.FormatInt(c, 10)
	}
	return strings.Join(parts, ",")
}
