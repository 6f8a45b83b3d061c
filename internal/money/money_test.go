package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound2HalfUp(t *testing.T) {
	assert.Equal(t, "68.33", Round2(decimal.RequireFromString("68.3325")).StringFixed(2))
	assert.Equal(t, "68.34", Round2(decimal.RequireFromString("68.335")).StringFixed(2))
	assert.Equal(t, "2.50", Round2(decimal.RequireFromString("2.495")).StringFixed(2))
	assert.Equal(t, "-2.50", Round2(decimal.RequireFromString("-2.495")).StringFixed(2))
}

func TestRound4(t *testing.T) {
	assert.Equal(t, "1.2346", Round4(decimal.RequireFromString("1.23456")).StringFixed(4))
	assert.Equal(t, "0.0000", Round4(decimal.Zero).StringFixed(4))
}

func TestMinutesToHours(t *testing.T) {
	assert.Equal(t, "1.5000", MinutesToHours(90).StringFixed(4))
	assert.Equal(t, "0.0167", MinutesToHours(1).StringFixed(4))
	assert.Equal(t, "0.0000", MinutesToHours(0).StringFixed(4))
}

func TestFromPtr(t *testing.T) {
	assert.True(t, FromPtr(nil).IsZero())
	v := decimal.RequireFromString("45.55")
	assert.True(t, FromPtr(&v).Equal(v))
}

func TestNinetyMinutesAtRate(t *testing.T) {
	rate := decimal.RequireFromString("45.555")
	amount := Round2(MinutesToHours(90).Mul(rate))
	assert.Equal(t, "68.33", amount.StringFixed(2))
}
