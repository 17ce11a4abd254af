package epw

import (
	"fmt"

	"github.com/couchcryptid/epw-weather-service/internal/designday"
)

// designDayOfMonth is the day used for annual design days.
const designDayOfMonth = 21

func (f *File) heatingDesignDay(label, dbKey string) (*designday.DesignDay, error) {
	if err := f.ensureHeader(); err != nil {
		return nil, err
	}
	h := f.header.conditions.heating
	if len(h) == 0 {
		return nil, fmt.Errorf("%s heating design day: %w", label, ErrNoDesignConditions)
	}
	loc := f.header.location
	return &designday.DesignDay{
		Name:    fmt.Sprintf("%s Heating Design Day for %s", label, loc.City),
		DayType: designday.WinterDesignDay,
		Site:    loc.Site(),
		DryBulb: designday.DryBulbCondition{Max: h[dbKey], Range: 0, ModifierType: designday.DefaultModifier},
		Humidity: designday.HumidityCondition{
			Type:               designday.HumidityWetbulb,
			Value:              h[dbKey],
			BarometricPressure: loc.StandardPressure(),
		},
		Wind: designday.WindCondition{Speed: h["WS_DB996"], Direction: h["WD_DB996"]},
		Sky: designday.SkyCondition{
			SolarModel: designday.SolarModelASHRAEClearSky,
			Month:      int(h["Month"]),
			Day:        designDayOfMonth,
			Clearness:  0,
		},
	}, nil
}

func (f *File) coolingDesignDay(label, dbKey, wbKey string) (*designday.DesignDay, error) {
	if err := f.ensureHeader(); err != nil {
		return nil, err
	}
	c := f.header.conditions.cooling
	if len(c) == 0 {
		return nil, fmt.Errorf("%s cooling design day: %w", label, ErrNoDesignConditions)
	}
	loc := f.header.location
	return &designday.DesignDay{
		Name:    fmt.Sprintf("%s Cooling Design Day for %s", label, loc.City),
		DayType: designday.SummerDesignDay,
		Site:    loc.Site(),
		DryBulb: designday.DryBulbCondition{Max: c[dbKey], Range: c["DBR"], ModifierType: designday.DefaultModifier},
		Humidity: designday.HumidityCondition{
			Type:               designday.HumidityWetbulb,
			Value:              c[wbKey],
			BarometricPressure: loc.StandardPressure(),
		},
		Wind: designday.WindCondition{Speed: c["WS_DB004"], Direction: c["WD_DB004"]},
		Sky: designday.SkyCondition{
			SolarModel: designday.SolarModelASHRAEClearSky,
			Month:      int(c["Month"]),
			Day:        designDayOfMonth,
			Clearness:  1,
		},
	}, nil
}

// AnnualHeatingDesignDay996 builds the 99.6% heating design day from the
// current heating conditions.
func (f *File) AnnualHeatingDesignDay996() (*designday.DesignDay, error) {
	return f.heatingDesignDay("99.6%", "DB996")
}

// AnnualHeatingDesignDay990 builds the 99.0% heating design day.
func (f *File) AnnualHeatingDesignDay990() (*designday.DesignDay, error) {
	return f.heatingDesignDay("99.0%", "DB990")
}

// AnnualCoolingDesignDay004 builds the 0.4% cooling design day from the
// current cooling conditions.
func (f *File) AnnualCoolingDesignDay004() (*designday.DesignDay, error) {
	return f.coolingDesignDay("0.4%", "DB004", "WB_DB004")
}

// AnnualCoolingDesignDay010 builds the 1.0% cooling design day.
func (f *File) AnnualCoolingDesignDay010() (*designday.DesignDay, error) {
	return f.coolingDesignDay("1.0%", "DB010", "WB_DB010")
}

// AnnualDesignDays returns the heating 99.6% and 99.0% days followed by the
// cooling 0.4% and 1.0% days.
func (f *File) AnnualDesignDays() ([]*designday.DesignDay, error) {
	builders := []func() (*designday.DesignDay, error){
		f.AnnualHeatingDesignDay996,
		f.AnnualHeatingDesignDay990,
		f.AnnualCoolingDesignDay004,
		f.AnnualCoolingDesignDay010,
	}
	days := make([]*designday.DesignDay, 0, len(builders))
	for _, build := range builders {
		d, err := build()
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}
