package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "8125.00", FormatCents(812500))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "-12.30", FormatCents(-1230))
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$0.00", FormatUSD(0))
	assert.Equal(t, "$18.75", FormatUSD(1875))
	assert.Equal(t, "$1,234,567.89", FormatUSD(123456789))
	assert.Equal(t, "-$100.00", FormatUSD(-10000))
}

func TestParseDollars(t *testing.T) {
	cases := map[string]int64{
		"32.50":   3250,
		"$1,250":  125000,
		" 0.01 ":  1,
		"75":      7500,
		"$18.750": 1875,
	}
	for in, want := range cases {
		got, err := ParseDollars(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "abc", "1.234", "$"} {
		_, err := ParseDollars(bad)
		assert.Error(t, err, bad)
	}
}
