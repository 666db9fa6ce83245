package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025-03")
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2025, Month: 3}, p)
	assert.Equal(t, "2025-03", p.String())

	for _, bad := range []string{"", "2025-13", "2025-3-1", "March", "2025/03"} {
		_, err := ParsePeriod(bad)
		assert.ErrorIs(t, err, ErrInvalidPeriod, bad)
	}
}

func TestNewPeriod(t *testing.T) {
	_, err := NewPeriod(2025, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = NewPeriod(0, 5)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	p, err := NewPeriod(2024, 12)
	require.NoError(t, err)
	assert.True(t, p.Valid())
}

func TestPeriod_Ordering(t *testing.T) {
	jan := Period{Year: 2025, Month: 1}
	dec := Period{Year: 2024, Month: 12}
	feb := Period{Year: 2025, Month: 2}

	assert.Equal(t, 1, jan.Compare(dec))
	assert.Equal(t, -1, jan.Compare(feb))
	assert.Equal(t, 0, jan.Compare(Period{Year: 2025, Month: 1}))
	assert.True(t, dec.Before(jan))
	assert.Equal(t, jan, dec.Next())
}

func TestPeriod_Bounds(t *testing.T) {
	feb := Period{Year: 2024, Month: 2}
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), feb.Start())
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), feb.End())
	assert.Equal(t, int32(202402), feb.Key())
}
