package epw

import (
	"io"

	"github.com/couchcryptid/epw-weather-service/internal/designday"
)

// WriteDDY renders the station and its four annual design days as
// EnergyPlus IDF objects.
func (f *File) WriteDDY(w io.Writer) error {
	days, err := f.AnnualDesignDays()
	if err != nil {
		return err
	}
	if err := f.header.location.Validate(); err != nil {
		return err
	}
	return designday.WriteDDY(w, f.header.location.Site(), f.header.conditions.source, clock.Now(), days...)
}

// ToDDY writes the design days to path.
func (f *File) ToDDY(path string) error {
	return writeFile(path, f.WriteDDY)
}
