package payroll

import (
	"fmt"
	"time"
)

// Period is a calendar (year, month) pair. The zero value is not a valid period.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func NewPeriod(year, month int) (Period, error) {
	p := Period{Year: year, Month: month}
	if !p.Valid() {
		return Period{}, fmt.Errorf("%w: %04d-%02d", ErrInvalidPeriod, year, month)
	}
	return p, nil
}

// ParsePeriod parses the "YYYY-MM" form used in URLs and CSV exports.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return NewPeriod(t.Year(), int(t.Month()))
}

func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

func (p Period) Valid() bool {
	return p.Year >= 1 && p.Year <= 9999 && p.Month >= 1 && p.Month <= 12
}

// Compare returns -1, 0 or +1 ordering by year then month.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year < o.Year:
		return -1
	case p.Year > o.Year:
		return 1
	case p.Month < o.Month:
		return -1
	case p.Month > o.Month:
		return 1
	}
	return 0
}

func (p Period) Before(o Period) bool {
	return p.Compare(o) < 0
}

func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End is the last calendar day of the month; used as the default payment date.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p Period) Next() Period {
	return PeriodOf(p.Start().AddDate(0, 1, 0))
}

// Key packs the period into a single integer (YYYYMM), used for lock keys.
func (p Period) Key() int32 {
	return int32(p.Year*100 + p.Month)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
