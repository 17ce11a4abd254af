package epw

import (
	"bufio"
	"fmt"
	"io"

	"github.com/couchcryptid/epw-weather-service/internal/collection"
)

// WriteWEA renders the radiation-only format read by Radiance and Daysim:
// six site lines then "month day hour direct_normal diffuse_horizontal" per
// hour, with the hour taken at its midpoint. Longitude and time zone are
// written west positive.
func (f *File) WriteWEA(w io.Writer) error {
	if err := f.ensureData(); err != nil {
		return err
	}
	loc := f.header.location
	if err := loc.Validate(); err != nil {
		return err
	}
	dnr := f.table.fields[FieldDirectNormalRadiation].Values()
	dhr := f.table.fields[FieldDiffuseHorizontalRadiation].Values()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "place %s_%s\n", loc.City, loc.Country)
	fmt.Fprintf(bw, "latitude %s\n", formatNumber(loc.Latitude))
	fmt.Fprintf(bw, "longitude %s\n", formatNumber(-loc.Longitude))
	fmt.Fprintf(bw, "time_zone %s\n", formatNumber(-loc.TimeZone*15))
	fmt.Fprintf(bw, "site_elevation %s\n", formatNumber(loc.Elevation))
	fmt.Fprintf(bw, "weather_data_file_units 1\n")
	for i := 0; i < collection.HoursPerYear; i++ {
		fmt.Fprintf(bw, "%d %d %.3f %s %s\n",
			f.table.Month[i], f.table.Day[i], float64(f.table.Hour[i])-0.5,
			formatNumber(dnr[i]), formatNumber(dhr[i]))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write wea: %w", err)
	}
	return nil
}

// ToWEA writes the radiation-only format to path.
func (f *File) ToWEA(path string) error {
	return writeFile(path, f.WriteWEA)
}
