package payroll

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.RequireFromString("10.005"))
	require.NoError(t, err)
	assert.Equal(t, "10.01", m.String(), "rounds half-up to two digits")

	_, err = NewMoney(decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestMoney_Percentage(t *testing.T) {
	cases := []struct {
		amount string
		pct    string
		want   string
	}{
		{"6500000", "9", "585000.00"},
		{"100.05", "9", "9.00"},  // 9.0045
		{"100.50", "9", "9.05"},  // 9.045 -> half-up
		{"0", "9", "0.00"},
		{"1000", "0", "0.00"},
		{"1000", "12.5", "125.00"},
	}
	for _, c := range cases {
		got := MustMoney(c.amount).Percentage(decimal.RequireFromString(c.pct))
		assert.Equal(t, c.want, got.String(), "%s%% of %s", c.pct, c.amount)
	}
}

func TestMoney_ProratedOver(t *testing.T) {
	assert.Equal(t, "100000.00", MustMoney("3000000").ProratedOver(30).String())
	assert.Equal(t, "6500000.00", MustMoney("78000000").ProratedOver(12).String())
	assert.Equal(t, "0.34", MustMoney("1.01").ProratedOver(3).String()) // 0.3366..
	assert.Equal(t, "0.17", MustMoney("0.50").ProratedOver(3).String()) // 0.1666..
	assert.Equal(t, "0.01", MustMoney("0.05").ProratedOver(4).String()) // 0.0125
	assert.Equal(t, "0.02", MustMoney("0.06").ProratedOver(4).String()) // 0.015 -> half-up
	assert.True(t, MustMoney("10").ProratedOver(0).IsZero())
}

func TestMoney_SubClampsAtZero(t *testing.T) {
	assert.Equal(t, "50.00", MustMoney("100").Sub(MustMoney("50")).String())
	assert.True(t, MustMoney("100").Sub(MustMoney("150.25")).IsZero())
}

func TestMoney_MulInt(t *testing.T) {
	assert.Equal(t, "200000.00", MustMoney("100000").MulInt(2).String())
	assert.True(t, MustMoney("100000").MulInt(0).IsZero())
	assert.True(t, MustMoney("100000").MulInt(-3).IsZero())
}

func TestMoney_Equality(t *testing.T) {
	assert.True(t, MustMoney("10").Equal(MustMoney("10.00")))
	assert.Equal(t, 0, MustMoney("10").Cmp(MustMoney("10.000")))
	assert.Equal(t, -1, MustMoney("9.99").Cmp(MustMoney("10")))
	assert.True(t, Zero().Equal(MoneyFromInt(0)))
	assert.Equal(t, "0.00", Money{}.String())
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Net Money `json:"net"`
	}{Net: MustMoney("1234.5")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"net":"1234.50"}`, string(data))

	var in struct {
		Amount Money `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 99.999}`), &in))
	assert.Equal(t, "100.00", in.Amount.String())

	assert.Error(t, json.Unmarshal([]byte(`{"amount": "-5"}`), &in))
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("42.10"))
	assert.Equal(t, "42.10", m.String())

	require.NoError(t, m.Scan([]byte("7")))
	assert.Equal(t, "7.00", m.String())

	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, "7.00", v)

	assert.Error(t, m.Scan("-1"))
}

func TestNetPay(t *testing.T) {
	net := NetPay(MustMoney("4500000"), MustMoney("2000000"), MustMoney("585000"), MustMoney("0"), MustMoney("100000"))
	assert.Equal(t, "5815000.00", net.String())

	clamped := NetPay(MustMoney("1000"), Zero(), MustMoney("90"), MustMoney("2000"), Zero())
	assert.True(t, clamped.IsZero())
}
