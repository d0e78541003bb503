package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		minutes float64
		want    string
	}{
		{0, "0 minute"},
		{0.9, "0 minute"},
		{1, "1 minute"},
		{59.99, "59 minutes"},
		{60, "1 hour"},
		{61, "1 hour 1 minute"},
		{1440, "1 day"},
		{2*1440 + 3*60, "2 days 3 hours"},
		{30 * 1440, "1 month"},
		{365 * 1440, "1 year"},
		{366*1440 + 30*1440 + 2, "1 year 1 month 1 day 2 minutes"},
		{-5, "0 minute"},
		{math.NaN(), "0 minute"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanDuration(tt.minutes), "minutes=%v", tt.minutes)
	}
}
