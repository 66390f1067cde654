package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("valid amounts", func(t *testing.T) {
		cases := map[string]int64{
			"100.50": 10050,
			"100.5":  10050,
			"100":    10000,
			"0.01":   1,
			"-3.25":  -325,
			"0":      0,
		}
		for input, want := range cases {
			got, err := Parse(input)
			require.NoError(t, err, input)
			assert.Equal(t, want, got, input)
		}
	})

	t.Run("not a number", func(t *testing.T) {
		for _, input := range []string{"", "abc", "10.5.5", "1,000"} {
			_, err := Parse(input)
			assert.ErrorIs(t, err, ErrInvalidAmountFormat, input)
		}
	})

	t.Run("too many decimal places", func(t *testing.T) {
		_, err := Parse("0.005")
		assert.ErrorIs(t, err, ErrTooManyDecimalPlaces)
		_, err = Parse("100.123")
		assert.ErrorIs(t, err, ErrTooManyDecimalPlaces)
	})

	t.Run("out of int64 range", func(t *testing.T) {
		_, err := Parse("92233720368547758.08")
		assert.ErrorIs(t, err, ErrInvalidAmountFormat)
	})
}

func TestMinorUnitsMatchesScale(t *testing.T) {
	assert.EqualValues(t, MinorUnits, decimal.New(1, Scale).IntPart())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "100.50", Format(10050))
	assert.Equal(t, "0.01", Format(1))
	assert.Equal(t, "0.00", Format(0))
	assert.Equal(t, "-3.25", Format(-325))
	assert.Equal(t, "100.00", Format(10000))
}
