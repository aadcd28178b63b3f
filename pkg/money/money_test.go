package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFloatAvoidsBinaryDrift(t *testing.T) {
	assert.Equal(t, Cents(59999), FromFloat(599.99))
	assert.Equal(t, Cents(30), FromFloat(0.1+0.2))
	assert.Equal(t, Cents(1000), FromFloat(10))
}

func TestParseString(t *testing.T) {
	c, err := ParseString("19.95")
	require.NoError(t, err)
	assert.Equal(t, Cents(1995), c)

	_, err = ParseString("abc")
	require.Error(t, err)
}

func TestStringFormatsTwoDecimals(t *testing.T) {
	assert.Equal(t, "599.99", Cents(59999).String())
	assert.Equal(t, "50.00", Cents(5000).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.True(t, Cents(1234).Decimal().Equal(decimal.RequireFromString("12.34")))
}

func TestApplyPercentDiscount(t *testing.T) {
	assert.Equal(t, Cents(9000), Cents(10000).ApplyPercentDiscount(10))
	assert.Equal(t, Cents(10000), Cents(10000).ApplyPercentDiscount(0))
	assert.Equal(t, Cents(0), Cents(10000).ApplyPercentDiscount(150))
	// 999 * 0.85 = 849.15
	assert.Equal(t, Cents(849), Cents(999).ApplyPercentDiscount(15))
	// 333 * 0.5 = 166.5 rounds half away from zero
	assert.Equal(t, Cents(167), Cents(333).ApplyPercentDiscount(50))
}

func TestMulAndSum(t *testing.T) {
	assert.Equal(t, Cents(5000), Sum(Cents(1000).Mul(1), Cents(2000).Mul(2)))
	assert.Equal(t, Cents(0), Sum())
}
