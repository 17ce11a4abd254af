package epw

import "math"

// FieldID is the zero-based column of a data row.
type FieldID int

// Data row columns in file order.
const (
	FieldYear FieldID = iota
	FieldMonth
	FieldDay
	FieldHour
	FieldMinute
	FieldUncertaintyFlags
	FieldDryBulbTemperature
	FieldDewPointTemperature
	FieldRelativeHumidity
	FieldAtmosphericStationPressure
	FieldExtraterrestrialHorizontalRadiation
	FieldExtraterrestrialDirectNormalRadiation
	FieldHorizontalInfraredRadiationIntensity
	FieldGlobalHorizontalRadiation
	FieldDirectNormalRadiation
	FieldDiffuseHorizontalRadiation
	FieldGlobalHorizontalIlluminance
	FieldDirectNormalIlluminance
	FieldDiffuseHorizontalIlluminance
	FieldZenithLuminance
	FieldWindDirection
	FieldWindSpeed
	FieldTotalSkyCover
	FieldOpaqueSkyCover
	FieldVisibility
	FieldCeilingHeight
	FieldPresentWeatherObservation
	FieldPresentWeatherCodes
	FieldPrecipitableWater
	FieldAerosolOpticalDepth
	FieldSnowDepth
	FieldDaysSinceLastSnowfall
	FieldAlbedo
	FieldLiquidPrecipitationDepth
	FieldLiquidPrecipitationQuantity

	// FieldCount is the number of comma-separated values in a data row.
	FieldCount = int(FieldLiquidPrecipitationQuantity) + 1
)

// FieldSpec describes one column: its unit, missing sentinel, and bounds.
type FieldSpec struct {
	ID   FieldID
	Key  string // snake_case key used in structured documents
	Name string
	Unit string
	// Missing is the sentinel written for absent data. Values at or above it
	// are treated as missing. Zero for columns without a sentinel.
	Missing float64
	Min     float64
	Max     float64
}

var inf = math.Inf(1)

var fieldSpecs = [FieldCount]FieldSpec{
	{FieldYear, "years", "Year", "yr", 0, 0, inf},
	{FieldMonth, "month", "Month", "month", 0, 1, 12},
	{FieldDay, "day", "Day", "day", 0, 1, 31},
	{FieldHour, "hour", "Hour", "hr", 0, 1, 24},
	{FieldMinute, "minute", "Minute", "min", 0, 0, 60},
	{FieldUncertaintyFlags, "uncertainty_flags", "Data Source and Uncertainty Flags", "", 0, 0, 0},
	{FieldDryBulbTemperature, "dry_bulb_temperature", "Dry Bulb Temperature", "C", 99.9, -70, 70},
	{FieldDewPointTemperature, "dew_point_temperature", "Dew Point Temperature", "C", 99.9, -70, 70},
	{FieldRelativeHumidity, "relative_humidity", "Relative Humidity", "%", 999, 0, 110},
	{FieldAtmosphericStationPressure, "atmospheric_station_pressure", "Atmospheric Station Pressure", "Pa", 999999, 31000, 120000},
	{FieldExtraterrestrialHorizontalRadiation, "extraterrestrial_horizontal_radiation", "Extraterrestrial Horizontal Radiation", "Wh/m2", 9999, 0, inf},
	{FieldExtraterrestrialDirectNormalRadiation, "extraterrestrial_direct_normal_radiation", "Extraterrestrial Direct Normal Radiation", "Wh/m2", 9999, 0, inf},
	{FieldHorizontalInfraredRadiationIntensity, "horizontal_infrared_radiation_intensity", "Horizontal Infrared Radiation Intensity", "Wh/m2", 9999, 0, inf},
	{FieldGlobalHorizontalRadiation, "global_horizontal_radiation", "Global Horizontal Radiation", "Wh/m2", 9999, 0, inf},
	{FieldDirectNormalRadiation, "direct_normal_radiation", "Direct Normal Radiation", "Wh/m2", 9999, 0, inf},
	{FieldDiffuseHorizontalRadiation, "diffuse_horizontal_radiation", "Diffuse Horizontal Radiation", "Wh/m2", 9999, 0, inf},
	{FieldGlobalHorizontalIlluminance, "global_horizontal_illuminance", "Global Horizontal Illuminance", "lux", 999999, 0, inf},
	{FieldDirectNormalIlluminance, "direct_normal_illuminance", "Direct Normal Illuminance", "lux", 999999, 0, inf},
	{FieldDiffuseHorizontalIlluminance, "diffuse_horizontal_illuminance", "Diffuse Horizontal Illuminance", "lux", 999999, 0, inf},
	{FieldZenithLuminance, "zenith_luminance", "Zenith Luminance", "cd/m2", 9999, 0, inf},
	{FieldWindDirection, "wind_direction", "Wind Direction", "degrees", 999, 0, 360},
	{FieldWindSpeed, "wind_speed", "Wind Speed", "m/s", 999, 0, 40},
	{FieldTotalSkyCover, "total_sky_cover", "Total Sky Cover", "tenths", 99, 0, 10},
	{FieldOpaqueSkyCover, "opaque_sky_cover", "Opaque Sky Cover", "tenths", 99, 0, 10},
	{FieldVisibility, "visibility", "Visibility", "km", 9999, 0, inf},
	{FieldCeilingHeight, "ceiling_height", "Ceiling Height", "m", 99999, 0, inf},
	{FieldPresentWeatherObservation, "present_weather_observation", "Present Weather Observation", "condition", 9, 0, 9},
	{FieldPresentWeatherCodes, "present_weather_codes", "Present Weather Codes", "condition", 999999999, 0, inf},
	{FieldPrecipitableWater, "precipitable_water", "Precipitable Water", "mm", 999, 0, inf},
	{FieldAerosolOpticalDepth, "aerosol_optical_depth", "Aerosol Optical Depth", "fraction", 0.999, 0, inf},
	{FieldSnowDepth, "snow_depth", "Snow Depth", "cm", 999, 0, inf},
	{FieldDaysSinceLastSnowfall, "days_since_last_snowfall", "Days Since Last Snowfall", "day", 99, 0, inf},
	{FieldAlbedo, "albedo", "Albedo", "fraction", 999, 0, inf},
	{FieldLiquidPrecipitationDepth, "liquid_precipitation_depth", "Liquid Precipitation Depth", "mm", 999, 0, inf},
	{FieldLiquidPrecipitationQuantity, "liquid_precipitation_quantity", "Liquid Precipitation Quantity", "hr", 99, 0, inf},
}

// Spec returns the column description for id. It panics on an id outside the schema.
func Spec(id FieldID) FieldSpec {
	return fieldSpecs[id]
}

// HourlyFields lists the columns exposed as hourly series: the year column
// and every physical quantity from dry-bulb temperature onward.
func HourlyFields() []FieldSpec {
	out := make([]FieldSpec, 0, FieldCount-5)
	for _, s := range fieldSpecs {
		if s.ID.IsHourly() {
			out = append(out, s)
		}
	}
	return out
}

// IsHourly reports whether the column is stored as an hourly series.
func (id FieldID) IsHourly() bool {
	return id == FieldYear || (id >= FieldDryBulbTemperature && int(id) < FieldCount)
}

func (id FieldID) String() string {
	if id < 0 || int(id) >= FieldCount {
		return "unknown field"
	}
	return fieldSpecs[id].Name
}

// FieldByKey looks a column up by its structured-document key.
func FieldByKey(key string) (FieldID, bool) {
	for _, s := range fieldSpecs {
		if s.Key == key {
			return s.ID, true
		}
	}
	return 0, false
}

// HasSentinel reports whether the column defines a missing-value sentinel.
func (s FieldSpec) HasSentinel() bool { return s.Missing != 0 }

// IsMissing reports whether v is the column's missing marker.
func (s FieldSpec) IsMissing(v float64) bool {
	return s.HasSentinel() && v >= s.Missing
}

// InRange reports whether v falls inside the column's physical bounds.
func (s FieldSpec) InRange(v float64) bool {
	return v >= s.Min && v <= s.Max
}
