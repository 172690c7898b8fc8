package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{in: "#0D0D1F", want: RGB{R: 0x0D, G: 0x0D, B: 0x1F}},
		{in: "ffffff", want: RGB{R: 0xFF, G: 0xFF, B: 0xFF}},
		{in: " #102030 ", want: RGB{R: 0x10, G: 0x20, B: 0x30}},
		{in: "#FFF", wantErr: true},
		{in: "#GG0000", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidColor)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColorOr(t *testing.T) {
	def := RGB{R: 1, G: 2, B: 3}
	assert.Equal(t, def, ColorOr("nope", def))
	assert.Equal(t, RGB{R: 0xAA}, ColorOr("#AA0000", def))
}

func TestFadeSteps(t *testing.T) {
	assert.Zero(t, fadeSteps(0))
	assert.Equal(t, 1, fadeSteps(5*time.Millisecond))
	assert.Equal(t, 10, fadeSteps(150*time.Millisecond))
}
