package designday

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// field is one IDF value with its trailing "!-" comment.
type field struct {
	value   string
	comment string
}

// WriteDDY writes a Site:Location object followed by each design day.
// Design days are validated first; nothing is written if any is invalid.
func WriteDDY(w io.Writer, site Site, source string, generated time.Time, days ...*DesignDay) error {
	for _, d := range days {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("write ddy %q: %w", d.Name, err)
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "! %s Design Conditions\n", site.Name)
	if source != "" {
		fmt.Fprintf(bw, "! Source: %s\n", source)
	}
	fmt.Fprintf(bw, "! Generated %s\n\n", generated.UTC().Format(time.RFC3339))

	writeObject(bw, "Site:Location", site.fields())
	for _, d := range days {
		bw.WriteString("\n")
		writeObject(bw, "SizingPeriod:DesignDay", d.fields())
	}
	return bw.Flush()
}

// IDF renders a single design day as an IDF object.
func (d *DesignDay) IDF() string {
	var b strings.Builder
	writeObject(&b, "SizingPeriod:DesignDay", d.fields())
	return b.String()
}

func (s Site) fields() []field {
	return []field{
		{s.Name, "Name"},
		{num(s.Latitude), "Latitude {deg}"},
		{num(s.Longitude), "Longitude {deg}"},
		{num(s.TimeZone), "Time Zone {hr}"},
		{num(s.Elevation), "Elevation {m}"},
	}
}

func (d *DesignDay) fields() []field {
	return []field{
		{d.Name, "Name"},
		{strconv.Itoa(d.Sky.Month), "Month"},
		{strconv.Itoa(d.Sky.Day), "Day of Month"},
		{d.DayType, "Day Type"},
		{num(d.DryBulb.Max), "Maximum Dry-Bulb Temperature {C}"},
		{num(d.DryBulb.Range), "Daily Dry-Bulb Temperature Range {deltaC}"},
		{modifier(d.DryBulb.ModifierType), "Dry-Bulb Temperature Range Modifier Type"},
		{"", "Dry-Bulb Temperature Range Modifier Day Schedule Name"},
		{d.Humidity.Type, "Humidity Condition Type"},
		{num(d.Humidity.Value), "Wetbulb or DewPoint at Maximum Dry-Bulb {C}"},
		{"", "Humidity Condition Day Schedule Name"},
		{"", "Humidity Ratio at Maximum Dry-Bulb {kgWater/kgDryAir}"},
		{"", "Enthalpy at Maximum Dry-Bulb {J/kg}"},
		{"", "Daily Wet-Bulb Temperature Range {deltaC}"},
		{num(d.Humidity.BarometricPressure), "Barometric Pressure {Pa}"},
		{num(d.Wind.Speed), "Wind Speed {m/s}"},
		{num(d.Wind.Direction), "Wind Direction {deg}"},
		{yesNo(d.Wind.Rain), "Rain Indicator"},
		{yesNo(d.Wind.SnowOnGround), "Snow Indicator"},
		{yesNo(d.Sky.DaylightSavings), "Daylight Saving Time Indicator"},
		{d.Sky.SolarModel, "Solar Model Indicator"},
		{"", "Beam Solar Day Schedule Name"},
		{"", "Diffuse Solar Day Schedule Name"},
		{"", "ASHRAE Clear Sky Optical Depth for Beam Irradiance (taub) {dimensionless}"},
		{"", "ASHRAE Clear Sky Optical Depth for Diffuse Irradiance (taud) {dimensionless}"},
		{num(d.Sky.Clearness), "Sky Clearness"},
	}
}

type stringWriter interface {
	WriteString(s string) (int, error)
}

func writeObject(w stringWriter, class string, fields []field) {
	w.WriteString(class + ",\n")
	for i, f := range fields {
		sep := ","
		if i == len(fields)-1 {
			sep = ";"
		}
		w.WriteString(fmt.Sprintf("  %-40s !- %s\n", f.value+sep, f.comment))
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func modifier(m string) string {
	if m == "" {
		return DefaultModifier
	}
	return m
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
