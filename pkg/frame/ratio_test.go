package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRatio(t *testing.T) {
	for _, r := range Ratios() {
		got, err := ParseRatio(" " + r.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	for _, bad := range []string{"", "2:1", "16/9", "1:1:1"} {
		_, err := ParseRatio(bad)
		assert.Error(t, err, bad)
	}

	assert.Len(t, Ratios(), 5)
	assert.InDelta(t, 16.0/9.0, RatioWide.Value(), 1e-9)
	assert.InDelta(t, 0.75, RatioPortrait.Value(), 1e-9)
}

func TestParseFit(t *testing.T) {
	tests := map[string]Fit{"": FitPad, "pad": FitPad, "PAD": FitPad, " crop ": FitCrop}
	for in, want := range tests {
		got, err := ParseFit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFit("stretch")
	assert.Error(t, err)
}
