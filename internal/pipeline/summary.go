package pipeline

import (
	"time"

	"github.com/couchcryptid/epw-weather-service/internal/epw"
)

// Summary condenses one weather file for catalogs and API responses.
type Summary struct {
	Name                string         `json:"name"`
	Location            epw.Location   `json:"location"`
	DataYear            int            `json:"data_year"`
	AnnualMeanDryBulb   float64        `json:"annual_mean_dry_bulb"`
	HeatingDryBulb996   *float64       `json:"heating_dry_bulb_996,omitempty"`
	CoolingDryBulb004   *float64       `json:"cooling_dry_bulb_004,omitempty"`
	MagneticDeclination *float64       `json:"magnetic_declination,omitempty"`
	TypicalWeeks        int            `json:"typical_weeks"`
	ExtremeWeeks        int            `json:"extreme_weeks"`
	GroundDepths        []float64      `json:"ground_depths"`
	MissingHours        map[string]int `json:"missing_hours"`
}

// Summarize loads f fully and computes its summary. The magnetic declination
// is evaluated at the given time and omitted when the field model cannot
// produce it.
func Summarize(f *epw.File, at time.Time) (Summary, error) {
	loc, err := f.Location()
	if err != nil {
		return Summary{}, err
	}
	table, err := f.Table()
	if err != nil {
		return Summary{}, err
	}
	s := Summary{Name: f.Name(), Location: *loc, MissingHours: map[string]int{}}

	years, err := f.Years()
	if err != nil {
		return Summary{}, err
	}
	if years.Len() > 0 {
		y, err := years.At(0)
		if err != nil {
			return Summary{}, err
		}
		s.DataYear = int(y)
	}

	dryBulb, err := f.DryBulbTemperature()
	if err != nil {
		return Summary{}, err
	}
	s.AnnualMeanDryBulb = meanPresent(epw.Spec(epw.FieldDryBulbTemperature), dryBulb.Values())

	heating, err := f.HeatingDesignConditions()
	if err != nil {
		return Summary{}, err
	}
	if v, ok := heating["DB996"]; ok {
		s.HeatingDryBulb996 = &v
	}
	cooling, err := f.CoolingDesignConditions()
	if err != nil {
		return Summary{}, err
	}
	if v, ok := cooling["DB004"]; ok {
		s.CoolingDryBulb004 = &v
	}

	// The field model only covers its validity window.
	if d, err := loc.MagneticDeclination(at); err == nil {
		s.MagneticDeclination = &d
	}

	typical, err := f.TypicalWeeks()
	if err != nil {
		return Summary{}, err
	}
	cold, err := f.ExtremeColdWeeks()
	if err != nil {
		return Summary{}, err
	}
	hot, err := f.ExtremeHotWeeks()
	if err != nil {
		return Summary{}, err
	}
	s.TypicalWeeks, s.ExtremeWeeks = len(typical), len(cold)+len(hot)

	if s.GroundDepths, err = f.GroundDepths(); err != nil {
		return Summary{}, err
	}

	for _, spec := range epw.HourlyFields() {
		if n := table.MissingCount(spec.ID); n > 0 {
			s.MissingHours[spec.Key] = n
		}
	}
	return s, nil
}

// meanPresent averages the values that are not the field's missing marker.
// A column that is entirely missing averages to the sentinel itself.
func meanPresent(spec epw.FieldSpec, values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if spec.IsMissing(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return spec.Missing
	}
	return sum / float64(n)
}
