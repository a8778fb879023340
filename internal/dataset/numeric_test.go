package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		loc  Locale
		want float64
		ok   bool
	}{
		{"42", Locale{}, 42, true},
		{" -3.5 ", Locale{}, -3.5, true},
		{"1,234.5", Locale{}, 1234.5, true},
		{"1.234,5", Locale{}, 1234.5, true},
		{"1,000", Locale{}, 1000, true},
		{"3,5", Locale{}, 3.5, true},
		{"1 234", Locale{}, 1234, true},
		{"1e3", Locale{}, 1000, true},
		{"1,000,000", Locale{}, 1000000, true},
		{"-12 345.5", Locale{}, -12345.5, true},
		{"1,2,3", Locale{}, 0, false},
		{"10 20", Locale{}, 0, false},
		{"1,000 000", Locale{}, 0, false},
		{"1,5,000", Locale{}, 0, false},
		{"1.2.3", Locale{Decimal: ',', Thousands: '.'}, 0, false},
		{"1.000", Locale{Decimal: ',', Thousands: '.'}, 1000, true},
		{"NaN", Locale{}, 0, false},
		{"Inf", Locale{}, 0, false},
		{"0x10", Locale{}, 0, false},
		{"2024-08-10", Locale{}, 0, false},
		{"12.5%", Locale{}, 0, false},
		{"", Locale{}, 0, false},
		{"East", Locale{}, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in, tt.loc)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, tt.in)
		}
	}
}
