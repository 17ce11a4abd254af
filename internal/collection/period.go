package collection

import (
	"errors"
	"fmt"
)

// HoursPerYear is the row count of a non-leap annual hourly record.
const HoursPerYear = 8760

var daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// ErrInvalidPeriod is returned when a month, day, or hour is outside the
// non-leap calendar.
var ErrInvalidPeriod = errors.New("invalid analysis period")

// AnalysisPeriod is a month/day/hour range within a non-leap year. A period
// whose end precedes its start wraps across the new year.
type AnalysisPeriod struct {
	StMonth  int `json:"st_month" yaml:"st_month"`
	StDay    int `json:"st_day" yaml:"st_day"`
	StHour   int `json:"st_hour" yaml:"st_hour"`
	EndMonth int `json:"end_month" yaml:"end_month"`
	EndDay   int `json:"end_day" yaml:"end_day"`
	EndHour  int `json:"end_hour" yaml:"end_hour"`
}

// NewAnalysisPeriod validates the range and returns the period. Hours are 0–23.
func NewAnalysisPeriod(stMonth, stDay, stHour, endMonth, endDay, endHour int) (AnalysisPeriod, error) {
	p := AnalysisPeriod{
		StMonth: stMonth, StDay: stDay, StHour: stHour,
		EndMonth: endMonth, EndDay: endDay, EndHour: endHour,
	}
	if err := p.Validate(); err != nil {
		return AnalysisPeriod{}, err
	}
	return p, nil
}

// AnnualPeriod covers Jan 1 hour 0 through Dec 31 hour 23.
func AnnualPeriod() AnalysisPeriod {
	return AnalysisPeriod{StMonth: 1, StDay: 1, StHour: 0, EndMonth: 12, EndDay: 31, EndHour: 23}
}

// WeekFrom returns the seven-day period starting on the given month and day.
func WeekFrom(month, day int) (AnalysisPeriod, error) {
	if !validDate(month, day) {
		return AnalysisPeriod{}, fmt.Errorf("%w: %d/%d", ErrInvalidPeriod, month, day)
	}
	endDoy := DayOfYear(month, day) + 6
	if endDoy > 365 {
		endDoy -= 365
	}
	endMonth, endDay := MonthDay(endDoy)
	return NewAnalysisPeriod(month, day, 0, endMonth, endDay, 23)
}

// Validate checks that both endpoints exist in the non-leap calendar.
func (p AnalysisPeriod) Validate() error {
	if !validDate(p.StMonth, p.StDay) {
		return fmt.Errorf("%w: start %d/%d", ErrInvalidPeriod, p.StMonth, p.StDay)
	}
	if !validDate(p.EndMonth, p.EndDay) {
		return fmt.Errorf("%w: end %d/%d", ErrInvalidPeriod, p.EndMonth, p.EndDay)
	}
	if p.StHour < 0 || p.StHour > 23 || p.EndHour < 0 || p.EndHour > 23 {
		return fmt.Errorf("%w: hours %d-%d", ErrInvalidPeriod, p.StHour, p.EndHour)
	}
	return nil
}

// IsReversed reports whether the period wraps across the end of the year.
func (p AnalysisPeriod) IsReversed() bool {
	return DayOfYear(p.EndMonth, p.EndDay) < DayOfYear(p.StMonth, p.StDay)
}

// Doys returns the days of year (1–365) covered by the period, in order.
func (p AnalysisPeriod) Doys() []int {
	st, end := DayOfYear(p.StMonth, p.StDay), DayOfYear(p.EndMonth, p.EndDay)
	if st <= end {
		doys := make([]int, 0, end-st+1)
		for d := st; d <= end; d++ {
			doys = append(doys, d)
		}
		return doys
	}
	doys := make([]int, 0, 365-st+1+end)
	for d := st; d <= 365; d++ {
		doys = append(doys, d)
	}
	for d := 1; d <= end; d++ {
		doys = append(doys, d)
	}
	return doys
}

// DayCount is the number of calendar days the period touches.
func (p AnalysisPeriod) DayCount() int {
	return len(p.Doys())
}

// HourCount is the number of hourly timesteps in the period.
func (p AnalysisPeriod) HourCount() int {
	if p.EndHour < p.StHour {
		return 0
	}
	return p.DayCount() * (p.EndHour - p.StHour + 1)
}

// IsAnnual reports whether the period covers the whole year.
func (p AnalysisPeriod) IsAnnual() bool {
	return p == AnnualPeriod()
}

func (p AnalysisPeriod) String() string {
	return fmt.Sprintf("%d/%d to %d/%d between %d and %d @1",
		p.StMonth, p.StDay, p.EndMonth, p.EndDay, p.StHour, p.EndHour)
}

// DayOfYear converts a month and day to 1–365. It assumes valid input.
func DayOfYear(month, day int) int {
	doy := day
	for m := 0; m < month-1; m++ {
		doy += daysInMonth[m]
	}
	return doy
}

// MonthDay converts a day of year (1–365) back to month and day.
func MonthDay(doy int) (month, day int) {
	for m, n := range daysInMonth {
		if doy <= n {
			return m + 1, doy
		}
		doy -= n
	}
	return 12, 31
}

// DaysInMonth returns the number of days in a month of a non-leap year.
func DaysInMonth(month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	return daysInMonth[month-1]
}

func validDate(month, day int) bool {
	return month >= 1 && month <= 12 && day >= 1 && day <= daysInMonth[month-1]
}
