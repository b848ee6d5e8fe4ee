package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "N/A"},
		{"blank", "   ", "N/A"},
		{"millis", "2026-10-15T09:30:00.000Z", "Oct 15, 2026"},
		{"nanos", "2024-01-02T03:04:05.123456789Z", "Jan 2, 2024"},
		{"offset", "2024-03-01T01:00:00+02:00", "Feb 29, 2024"},
		{"date only", "2023-12-31", "Dec 31, 2023"},
		{"garbage", "yesterday", "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Date(tt.input))
		})
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		ok    bool
		want  string
	}{
		{"unknown", 0, false, "N/A"},
		{"zero", 0, true, "$0.00"},
		{"grouping", 1234.5, true, "$1,234.50"},
		{"rounding", 19.999, true, "$20.00"},
		{"negative", -5, true, "-$5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Price(tt.value, tt.ok))
		})
	}
}

func TestStock(t *testing.T) {
	assert.Equal(t, "N/A", Stock(0, false))
	assert.Equal(t, "0", Stock(0, true))
	assert.Equal(t, "12", Stock(12, true))
	assert.Equal(t, "1,200", Stock(1200, true))
}
