package epw

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"

	"github.com/couchcryptid/epw-weather-service/internal/designday"
)

const (
	keywordLocation = "LOCATION"
	groupLocation   = "location"
)

// Location is the station block from the first header line.
type Location struct {
	City      string  `json:"city" yaml:"city"`
	State     string  `json:"state" yaml:"state"`
	Country   string  `json:"country" yaml:"country"`
	Source    string  `json:"source" yaml:"source"`
	StationID string  `json:"station_id" yaml:"station_id"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	TimeZone  float64 `json:"time_zone" yaml:"time_zone"`
	Elevation float64 `json:"elevation" yaml:"elevation"`
}

func defaultLocation() Location {
	return Location{City: "-", State: "-", Country: "-", Source: "-", StationID: "-"}
}

// parseLocation reads "LOCATION,city,state,country,source,wmo,lat,lon,tz,elev".
func parseLocation(lineNo int, fields []string) (Location, error) {
	if len(fields) < 10 {
		return Location{}, formatErrorf(lineNo, "location has %d fields, want at least 10", len(fields))
	}
	loc := Location{
		City:      strings.TrimSpace(fields[1]),
		State:     strings.TrimSpace(fields[2]),
		Country:   strings.TrimSpace(fields[3]),
		Source:    strings.TrimSpace(fields[4]),
		StationID: strings.TrimSpace(fields[5]),
	}
	nums := []*float64{&loc.Latitude, &loc.Longitude, &loc.TimeZone, &loc.Elevation}
	for i, dst := range nums {
		v, err := parseHeaderFloat(fields[6+i])
		if err != nil {
			return Location{}, formatErrorf(lineNo, "location field %d: %v", 6+i, err)
		}
		*dst = v
	}
	return loc, nil
}

// Validate checks that the text fields fit on the comma-separated location
// line and that the coordinates are finite.
func (l Location) Validate() error {
	text := []struct{ name, value string }{
		{"city", l.City}, {"state", l.State}, {"country", l.Country},
		{"source", l.Source}, {"station id", l.StationID},
	}
	for _, t := range text {
		if err := checkFieldText(groupLocation, t.name, t.value); err != nil {
			return err
		}
	}
	nums := []struct {
		name  string
		value float64
	}{
		{"latitude", l.Latitude}, {"longitude", l.Longitude},
		{"time zone", l.TimeZone}, {"elevation", l.Elevation},
	}
	for _, n := range nums {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return &ValidationError{Group: groupLocation, Msg: fmt.Sprintf("%s is not finite", n.name)}
		}
	}
	return nil
}

func (l Location) line() string {
	return strings.Join([]string{
		keywordLocation, l.City, l.State, l.Country, l.Source, l.StationID,
		formatNumber(l.Latitude), formatNumber(l.Longitude),
		formatNumber(l.TimeZone), formatNumber(l.Elevation),
	}, ",")
}

// StandardPressure is the ISA barometric pressure in Pa at the station elevation.
func (l Location) StandardPressure() float64 {
	return 101325 * math.Pow(1-2.25577e-5*l.Elevation, 5.2559)
}

// MagneticDeclination returns the WMM declination in degrees (east positive)
// at the station for the given date.
func (l Location) MagneticDeclination(t time.Time) (float64, error) {
	loc := egm96.NewLocationGeodetic(l.Latitude, l.Longitude, l.Elevation)
	mag, err := wmm.CalculateWMMMagneticField(loc, t)
	if err != nil {
		return 0, fmt.Errorf("magnetic declination for %s: %w", l.City, err)
	}
	return mag.D(), nil
}

// Site converts the station to the block written ahead of design days.
func (l Location) Site() designday.Site {
	return designday.Site{
		Name:      l.City,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		TimeZone:  l.TimeZone,
		Elevation: l.Elevation,
	}
}
