package epw

import (
	"math"

	"github.com/couchcryptid/epw-weather-service/internal/collection"
)

const (
	stefanBoltzmann = 5.6697e-8
	kelvinOffset    = 273.15
)

// SkyEmissivity is the clear/cloudy sky emissivity for a dew point in C and
// an opaque sky cover in tenths.
func SkyEmissivity(dewPoint, skyCover float64) float64 {
	clearSky := 0.787 + 0.764*math.Log((dewPoint+kelvinOffset)/kelvinOffset)
	n := skyCover
	return clearSky * (1 + 0.0224*n - 0.0035*n*n + 0.00028*n*n*n)
}

// HorizontalInfraredIntensity is the downwelling sky radiation in W/m2.
func HorizontalInfraredIntensity(dryBulb, dewPoint, skyCover float64) float64 {
	t := dryBulb + kelvinOffset
	return SkyEmissivity(dewPoint, skyCover) * stefanBoltzmann * t * t * t * t
}

// SkyTemperatureAt is the effective radiant sky temperature in C.
func SkyTemperatureAt(dryBulb, dewPoint, skyCover float64) float64 {
	ir := HorizontalInfraredIntensity(dryBulb, dewPoint, skyCover)
	return math.Pow(ir/stefanBoltzmann, 0.25) - kelvinOffset
}

// SkyTemperature derives an hourly sky temperature series from the current
// dry-bulb, dew-point and sky cover values. Opaque sky cover falls back to
// total sky cover and then to a clear sky; hours with a missing temperature
// get the dry-bulb missing sentinel.
func (f *File) SkyTemperature() (*collection.HourlyCollection, error) {
	if err := f.ensureData(); err != nil {
		return nil, err
	}
	db := f.table.fields[FieldDryBulbTemperature].Values()
	dp := f.table.fields[FieldDewPointTemperature].Values()
	opaque := f.table.fields[FieldOpaqueSkyCover].Values()
	total := f.table.fields[FieldTotalSkyCover].Values()

	dbSpec, dpSpec := Spec(FieldDryBulbTemperature), Spec(FieldDewPointTemperature)
	coverSpec := Spec(FieldOpaqueSkyCover)

	out := make([]float64, len(db))
	for i := range db {
		if dbSpec.IsMissing(db[i]) || dpSpec.IsMissing(dp[i]) {
			out[i] = dbSpec.Missing
			continue
		}
		cover := opaque[i]
		if coverSpec.IsMissing(cover) {
			cover = total[i]
		}
		if coverSpec.IsMissing(cover) {
			cover = 0
		}
		out[i] = SkyTemperatureAt(db[i], dp[i], cover)
	}
	return collection.NewAnnualHourly("SkyTemperature", "C", out)
}
