package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{1500 * time.Millisecond, "1s"},
		{200 * time.Second, "3m20s"},
		{time.Hour + 5*time.Minute + 59*time.Second, "1h05m"},
		{-30 * time.Second, "30s"},
		{26 * time.Hour, "26h00m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Advert...", Truncate("Advertisement", 9))
	assert.Equal(t, "Ad", Truncate("Advertisement", 2))
	assert.Equal(t, "Spé...", Truncate("Spécial offer", 6))
}
