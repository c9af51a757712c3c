package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaleInterval(t *testing.T) {
	assert.Equal(t, 120, ScaleInterval(12))
	assert.Equal(t, 0, ScaleInterval(0))
}

func TestScalePercentage(t *testing.T) {
	assert.Equal(t, 0.09, ScalePercentage(9))
	assert.Equal(t, 1.0, ScalePercentage(100))
}

func TestParseStartTime(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"08:30:00", 18000},
		{"08:30", 18000},
		{"08:00:01", 10},
		{"09:15:30", 45300},
		{"07:00:00", -36000},
		{"bad", 0},
		{"", 0},
		{"08:xx:00", 0},
		{"08:30:yy", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStartTime(tt.in))
		})
	}
}
