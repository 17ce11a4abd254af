// Package collection holds the time-indexed containers used for EPW fields:
// hourly annual series, monthly series, and the analysis periods they span.
package collection

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrIndexOutOfRange is returned by element access outside [0, Len()).
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrLengthMismatch is returned when a replacement series has the wrong length.
	ErrLengthMismatch = errors.New("length mismatch")
)

// MonthsPerYear is the length of a monthly series.
const MonthsPerYear = 12

// Header describes what a collection holds.
type Header struct {
	DataType string            `json:"data_type" yaml:"data_type"`
	Unit     string            `json:"unit" yaml:"unit"`
	Period   AnalysisPeriod    `json:"analysis_period" yaml:"analysis_period"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

func (h Header) clone() Header {
	if h.Metadata != nil {
		md := make(map[string]string, len(h.Metadata))
		for k, v := range h.Metadata {
			md[k] = v
		}
		h.Metadata = md
	}
	return h
}

// series is the shared fixed-length value store behind both collection kinds.
type series struct {
	header Header
	values []float64
}

func (s *series) Header() Header { return s.header.clone() }

func (s *series) Len() int { return len(s.values) }

func (s *series) At(i int) (float64, error) {
	if i < 0 || i >= len(s.values) {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(s.values))
	}
	return s.values[i], nil
}

func (s *series) Set(i int, v float64) error {
	if i < 0 || i >= len(s.values) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(s.values))
	}
	s.values[i] = v
	return nil
}

func (s *series) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

func (s *series) SetValues(values []float64) error {
	if len(values) != len(s.values) {
		return fmt.Errorf("%w: got %d values, want %d", ErrLengthMismatch, len(values), len(s.values))
	}
	copy(s.values, values)
	return nil
}

func (s *series) Average() float64 {
	if len(s.values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range s.values {
		sum += v
	}
	return sum / float64(len(s.values))
}

// HourlyCollection is a continuous hourly series over an analysis period.
type HourlyCollection struct {
	series
}

// NewHourly copies values into a collection whose length must equal the
// hour count of the header's period.
func NewHourly(h Header, values []float64) (*HourlyCollection, error) {
	want := h.Period.HourCount()
	if len(values) != want {
		return nil, fmt.Errorf("%w: got %d hourly values, want %d", ErrLengthMismatch, len(values), want)
	}
	c := &HourlyCollection{series{header: h.clone(), values: make([]float64, want)}}
	copy(c.values, values)
	return c, nil
}

// NewAnnualHourly builds an 8760-value collection over the annual period.
func NewAnnualHourly(dataType, unit string, values []float64) (*HourlyCollection, error) {
	return NewHourly(Header{DataType: dataType, Unit: unit, Period: AnnualPeriod()}, values)
}

// Filled builds an annual collection where every hour holds v.
func Filled(dataType, unit string, v float64) *HourlyCollection {
	values := make([]float64, HoursPerYear)
	for i := range values {
		values[i] = v
	}
	return &HourlyCollection{series{
		header: Header{DataType: dataType, Unit: unit, Period: AnnualPeriod()},
		values: values,
	}}
}

// Clone returns an independent copy.
func (c *HourlyCollection) Clone() *HourlyCollection {
	return &HourlyCollection{series{header: c.header.clone(), values: c.Values()}}
}

// MonthlyCollection holds one value per calendar month.
type MonthlyCollection struct {
	series
}

// NewMonthly copies exactly twelve values into a monthly collection.
func NewMonthly(h Header, values []float64) (*MonthlyCollection, error) {
	if len(values) != MonthsPerYear {
		return nil, fmt.Errorf("%w: got %d monthly values, want %d", ErrLengthMismatch, len(values), MonthsPerYear)
	}
	c := &MonthlyCollection{series{header: h.clone(), values: make([]float64, MonthsPerYear)}}
	copy(c.values, values)
	return c, nil
}

// Clone returns an independent copy.
func (c *MonthlyCollection) Clone() *MonthlyCollection {
	return &MonthlyCollection{series{header: c.header.clone(), values: c.Values()}}
}
