// Package designday models EnergyPlus SizingPeriod:DesignDay objects and
// renders them as DDY (IDF) text.
package designday

import (
	"errors"
	"fmt"
)

// Day types accepted by EnergyPlus for sizing periods.
const (
	SummerDesignDay = "SummerDesignDay"
	WinterDesignDay = "WinterDesignDay"
)

// Humidity condition types.
const (
	HumidityWetbulb  = "Wetbulb"
	HumidityDewpoint = "Dewpoint"
)

// SolarModelASHRAEClearSky is the original ASHRAE clear-sky model, driven by a
// single clearness value.
const SolarModelASHRAEClearSky = "ASHRAEClearSky"

// DefaultModifier applies EnergyPlus' built-in diurnal dry-bulb profile.
const DefaultModifier = "DefaultMultipliers"

// ErrInvalidDesignDay is returned when a design day fails validation.
var ErrInvalidDesignDay = errors.New("invalid design day")

// Site is the location block written ahead of the design days.
type Site struct {
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	TimeZone  float64 `json:"time_zone" yaml:"time_zone"`
	Elevation float64 `json:"elevation" yaml:"elevation"`
}

// DryBulbCondition is the daily dry-bulb maximum and range.
type DryBulbCondition struct {
	Max          float64 `json:"dry_bulb_max" yaml:"dry_bulb_max"`
	Range        float64 `json:"dry_bulb_range" yaml:"dry_bulb_range"`
	ModifierType string  `json:"modifier_type" yaml:"modifier_type"`
}

// HumidityCondition describes moisture at the maximum dry-bulb.
type HumidityCondition struct {
	Type               string  `json:"hum_type" yaml:"hum_type"`
	Value              float64 `json:"hum_value" yaml:"hum_value"`
	BarometricPressure float64 `json:"barometric_pressure" yaml:"barometric_pressure"`
}

// WindCondition carries the coincident wind.
type WindCondition struct {
	Speed        float64 `json:"wind_speed" yaml:"wind_speed"`
	Direction    float64 `json:"wind_direction" yaml:"wind_direction"`
	Rain         bool    `json:"rain" yaml:"rain"`
	SnowOnGround bool    `json:"snow_on_ground" yaml:"snow_on_ground"`
}

// SkyCondition selects the solar model and the day it applies to.
type SkyCondition struct {
	SolarModel      string  `json:"solar_model" yaml:"solar_model"`
	Month           int     `json:"month" yaml:"month"`
	Day             int     `json:"day_of_month" yaml:"day_of_month"`
	DaylightSavings bool    `json:"daylight_savings" yaml:"daylight_savings"`
	Clearness       float64 `json:"clearness" yaml:"clearness"`
}

// DesignDay is a synthesized 24-hour sizing condition.
type DesignDay struct {
	Name     string            `json:"name" yaml:"name"`
	DayType  string            `json:"day_type" yaml:"day_type"`
	Site     Site              `json:"site" yaml:"site"`
	DryBulb  DryBulbCondition  `json:"dry_bulb_condition" yaml:"dry_bulb_condition"`
	Humidity HumidityCondition `json:"humidity_condition" yaml:"humidity_condition"`
	Wind     WindCondition     `json:"wind_condition" yaml:"wind_condition"`
	Sky      SkyCondition      `json:"sky_condition" yaml:"sky_condition"`
}

// Validate checks the fields EnergyPlus rejects outright.
func (d *DesignDay) Validate() error {
	switch d.DayType {
	case SummerDesignDay, WinterDesignDay:
	default:
		return fmt.Errorf("%w: day type %q", ErrInvalidDesignDay, d.DayType)
	}
	if d.Sky.Month < 1 || d.Sky.Month > 12 || d.Sky.Day < 1 || d.Sky.Day > 31 {
		return fmt.Errorf("%w: date %d/%d", ErrInvalidDesignDay, d.Sky.Month, d.Sky.Day)
	}
	if d.DryBulb.Range < 0 {
		return fmt.Errorf("%w: negative dry-bulb range %v", ErrInvalidDesignDay, d.DryBulb.Range)
	}
	if d.Wind.Speed < 0 || d.Wind.Direction < 0 || d.Wind.Direction > 360 {
		return fmt.Errorf("%w: wind %v m/s at %v deg", ErrInvalidDesignDay, d.Wind.Speed, d.Wind.Direction)
	}
	if d.Sky.Clearness < 0 || d.Sky.Clearness > 1.2 {
		return fmt.Errorf("%w: clearness %v", ErrInvalidDesignDay, d.Sky.Clearness)
	}
	return nil
}
