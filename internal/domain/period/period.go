// Package period identifies a payroll month.
package period

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid period")

type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func New(year, month int) (Period, error) {
	p := Period{Year: year, Month: month}
	return p, p.Validate()
}

func Of(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Parse accepts "2026-03".
func Parse(value string) (Period, error) {
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
	return Of(t), nil
}

func (p Period) Validate() error {
	if p.Year < 2000 || p.Year > 2100 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	return nil
}

func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the month.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p Period) Days() int {
	return p.End().Day()
}

func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && int(t.Month()) == p.Month
}

func (p Period) Day(day int) (time.Time, error) {
	if day < 1 || day > p.Days() {
		return time.Time{}, fmt.Errorf("%w: day %d outside %s", ErrInvalidPeriod, day, p)
	}
	return time.Date(p.Year, time.Month(p.Month), day, 0, 0, 0, 0, time.UTC), nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
