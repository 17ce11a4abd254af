package epw

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/epw-weather-service/internal/collection"
	"github.com/couchcryptid/epw-weather-service/internal/designday"
)

func sourceLines(t *testing.T, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n"), "\n")
}

func fieldCount(line string) int { return len(strings.Split(line, ",")) }

func TestSave_RoundTrip(t *testing.T) {
	f := openChicago(t)
	out := filepath.Join(t.TempDir(), "chicago_copy.epw")
	require.NoError(t, f.Save(out))

	src := sourceLines(t, chicagoPath)
	saved := sourceLines(t, out)
	require.Len(t, saved, HeaderLineCount+collection.HoursPerYear)
	assert.Equal(t, src[:HeaderLineCount], saved[:HeaderLineCount], "unmodified header is written back as read")

	re, err := Open(out)
	require.NoError(t, err)
	loc, _ := f.Location()
	reLoc, err := re.Location()
	require.NoError(t, err)
	assert.Equal(t, *loc, *reLoc)

	db, _ := f.DryBulbTemperature()
	reDB, err := re.DryBulbTemperature()
	require.NoError(t, err)
	assert.Equal(t, db.Values(), reDB.Values())

	tbl, _ := re.Table()
	assert.Equal(t, DefaultUncertaintyFlags, tbl.Flags[0])
}

func TestSave_ModifiedHeader(t *testing.T) {
	f := openChicago(t)
	src := sourceLines(t, chicagoPath)

	heating, _ := f.HeatingDesignConditions()
	heating["DB996"] = -25
	require.NoError(t, f.SetHeatingDesignConditions(heating))
	week, _ := collection.WeekFrom(3, 1)
	typical, _ := f.TypicalWeeks()
	delete(typical, "Spring - Week Nearest Average Temperature For Period")
	typical["Spring"] = week
	require.NoError(t, f.SetTypicalWeeks(typical))
	loc, _ := f.Location()
	loc.Elevation = 205

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	re := FromBytes("modified", buf.Bytes())
	lines, err := re.HeaderLines()
	require.NoError(t, err)

	assert.Equal(t, "LOCATION,Chicago Ohare Intl Ap,IL,USA,TMY3,725300,41.98,-87.92,-6,205", lines[0])
	assert.Equal(t, fieldCount(src[1]), fieldCount(lines[1]), "design conditions keep their field count")
	assert.Equal(t, fieldCount(src[2]), fieldCount(lines[2]), "periods keep their field count")
	assert.Contains(t, lines[2], "Spring,Typical,3/ 1,3/ 7")
	for i := 3; i < HeaderLineCount; i++ {
		assert.Equal(t, src[i], lines[i])
	}

	got, err := re.HeatingDesignConditions()
	require.NoError(t, err)
	assert.Equal(t, -25.0, got["DB996"])
	cold, _ := re.ExtremeColdWeeks()
	assert.Len(t, cold, 1)
	hot, _ := re.ExtremeHotWeeks()
	assert.Len(t, hot, 1)
}

func TestSave_GroundTemperatureRebuilt(t *testing.T) {
	f := openChicago(t)
	ground, _ := f.MonthlyGroundTemperature()
	mc, err := NewGroundTemperature(1, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	require.NoError(t, err)
	ground[1] = mc
	require.NoError(t, f.SetMonthlyGroundTemperature(ground))

	lines, err := f.HeaderLines()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(lines[3], "GROUND TEMPERATURES,4,0.5,,,,-1.89,"))
	assert.Contains(t, lines[3], ",1,,,,1,2,3,4,5,6,7,8,9,10,11,12,2,,,,2.39,")
	assert.Equal(t, 2+4*16, fieldCount(lines[3]))
}

func TestSave_MissingValues(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing.epw")
	require.NoError(t, NewFromMissingValues().Save(out))

	f, err := Open(out)
	require.NoError(t, err)
	db, err := f.DryBulbTemperature()
	require.NoError(t, err)
	assert.Equal(t, collection.Filled("x", "C", 99.9).Values(), db.Values())

	lines, _ := f.HeaderLines()
	assert.Equal(t, "DESIGN CONDITIONS,0", lines[1])
	assert.Equal(t, "TYPICAL/EXTREME PERIODS,0", lines[2])
	assert.Equal(t, "GROUND TEMPERATURES,0", lines[3])
}

func TestWriteWEA(t *testing.T) {
	f := openChicago(t)
	var buf bytes.Buffer
	require.NoError(t, f.WriteWEA(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6+collection.HoursPerYear)
	assert.Equal(t, []string{
		"place Chicago Ohare Intl Ap_USA",
		"latitude 41.98",
		"longitude 87.92",
		"time_zone 90",
		"site_elevation 201",
		"weather_data_file_units 1",
	}, lines[:6])

	dnr, _ := f.DirectNormalRadiation()
	dhr, _ := f.DiffuseHorizontalRadiation()
	for _, hour := range []int{0, 11, 4000, collection.HoursPerYear - 1} {
		tokens := strings.Fields(lines[6+hour])
		d, _ := dnr.At(hour)
		h, _ := dhr.At(hour)
		assert.Equal(t, formatNumber(d), tokens[len(tokens)-2], "hour %d", hour)
		assert.Equal(t, formatNumber(h), tokens[len(tokens)-1], "hour %d", hour)
	}
	assert.Equal(t, "1 1 0.500 0 0", lines[6])
	assert.Equal(t, "1 1 11.500 148 57", lines[17])
	assert.Equal(t, "12 31 23.500", strings.Join(strings.Fields(lines[len(lines)-1])[:3], " "))
}

func TestToWEA_File(t *testing.T) {
	out := filepath.Join(t.TempDir(), "chicago.wea")
	require.NoError(t, openChicago(t).ToWEA(out))
	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWriteDDY(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	var buf bytes.Buffer
	require.NoError(t, openChicago(t).WriteDDY(&buf))
	out := buf.String()

	assert.Contains(t, out, "! Generated 2024-04-27T06:00:00Z")
	assert.Contains(t, out, "! Source: Climate Design Data 2009 ASHRAE Handbook")
	assert.Equal(t, 4, strings.Count(out, "SizingPeriod:DesignDay,"))
	assert.Contains(t, out, "99.6% Heating Design Day for Chicago Ohare Intl Ap,")
	assert.Contains(t, out, "1.0% Cooling Design Day for Chicago Ohare Intl Ap,")

	var tokyo bytes.Buffer
	f, _ := Open(tokyoPath)
	require.ErrorIs(t, f.WriteDDY(&tokyo), ErrNoDesignConditions)
}

func TestWrite_PropagatesParseError(t *testing.T) {
	f, err := Open(statPath)
	require.NoError(t, err)
	require.ErrorIs(t, f.Save(filepath.Join(t.TempDir(), "x.epw")), ErrFormat)
	require.ErrorIs(t, f.WriteWEA(&bytes.Buffer{}), ErrFormat)
}

func TestStructured_RoundTripJSON(t *testing.T) {
	first, err := openChicago(t).ToJSON()
	require.NoError(t, err)

	f, err := FromJSON(first)
	require.NoError(t, err)
	assert.True(t, f.IsDataLoaded())

	second, err := f.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	heating, _ := f.HeatingDesignConditions()
	assert.Equal(t, -20.0, heating["DB996"])
	ground, _ := f.MonthlyGroundTemperature()
	assert.Len(t, ground, 3)
}

func TestStructured_RoundTripYAML(t *testing.T) {
	tokyo, err := Open(tokyoPath)
	require.NoError(t, err)
	first, err := tokyo.ToYAML()
	require.NoError(t, err)

	f, err := FromYAML(first)
	require.NoError(t, err)
	second, err := f.ToYAML()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestStructured_NegativeZeroRoundTripYAML(t *testing.T) {
	lines := sourceLines(t, tokyoPath)
	lines[8] = strings.Replace(lines[8], ",2.8,", ",-0.0,", 1)
	f := FromBytes("tokyo", []byte(strings.Join(lines, "\n")))

	db, err := f.DryBulbTemperature()
	require.NoError(t, err)
	v, _ := db.At(0)
	assert.False(t, math.Signbit(v), "negative zero is stored as zero")

	first, err := f.ToYAML()
	require.NoError(t, err)
	again, err := FromYAML(first)
	require.NoError(t, err)
	second, err := again.ToYAML()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestFromStructured_NonFiniteValue(t *testing.T) {
	doc, err := openChicago(t).ToStructured()
	require.NoError(t, err)
	doc.Fields[1].Values[0] = math.NaN()

	_, err = FromStructured(doc)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "not a finite number")
}

func TestStructured_Document(t *testing.T) {
	f := openChicago(t)
	doc, err := f.ToStructured()
	require.NoError(t, err)

	assert.Equal(t, DocumentType, doc.Type)
	assert.Equal(t, "chicago", doc.Name)
	require.Len(t, doc.DesignDays, 4)
	assert.Equal(t, -20.0, doc.DesignDays[0].DryBulb.Max)
	require.Len(t, doc.Fields, len(HourlyFields()))
	assert.Equal(t, "years", doc.Fields[0].Key)
	assert.Equal(t, "dry_bulb_temperature", doc.Fields[1].Key)
	assert.Equal(t, []float64{0.5, 2, 4}, []float64{
		doc.GroundTemperatures[0].Depth, doc.GroundTemperatures[1].Depth, doc.GroundTemperatures[2].Depth,
	})

	doc.DesignDays = nil
	rebuilt, err := FromStructured(doc)
	require.NoError(t, err)
	again, err := rebuilt.ToStructured()
	require.NoError(t, err)
	doc.DesignDays = again.DesignDays
	if diff := cmp.Diff(doc, again); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestFromStructured_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Document)
	}{
		{"wrong type", func(d *Document) { d.Type = "STAT" }},
		{"short column", func(d *Document) { d.Fields[3].Values = d.Fields[3].Values[:10] }},
		{"unknown field", func(d *Document) { d.Fields[3].Key = "sunshine" }},
		{"duplicate field", func(d *Document) { d.Fields[3].Key = d.Fields[2].Key }},
		{"missing field", func(d *Document) { d.Fields = d.Fields[:5] }},
		{"short month", func(d *Document) { d.Month = d.Month[:1] }},
		{"bad heating", func(d *Document) { d.DesignConditions.Heating = map[string]float64{"DB996": -20} }},
		{"bad ground", func(d *Document) {
			d.GroundTemperatures = []GroundTemperatureDoc{{Depth: 0.5, Values: []float64{1, 2}}}
		}},
		{"sub-hourly", func(d *Document) { d.DataPeriods = "DATA PERIODS,1,2,Data,Sunday, 1/ 1,12/31" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewFromMissingValues().ToStructured()
			require.NoError(t, err)

			tt.mutate(doc)
			_, err = FromStructured(doc)
			require.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := FromJSON([]byte("{not json"))
	require.ErrorIs(t, err, ErrFormat)
	_, err = FromStructured(nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestDesignDays(t *testing.T) {
	f := openChicago(t)

	h996, err := f.AnnualHeatingDesignDay996()
	require.NoError(t, err)
	assert.Equal(t, "99.6% Heating Design Day for Chicago Ohare Intl Ap", h996.Name)
	assert.Equal(t, designday.WinterDesignDay, h996.DayType)
	assert.Equal(t, -20.0, h996.DryBulb.Max)
	assert.Equal(t, 0.0, h996.DryBulb.Range)
	assert.Equal(t, -20.0, h996.Humidity.Value)
	assert.InDelta(t, 98934, h996.Humidity.BarometricPressure, 1)
	assert.Equal(t, designday.WindCondition{Speed: 2.5, Direction: 270}, h996.Wind)
	assert.Equal(t, 1, h996.Sky.Month)
	assert.Equal(t, 21, h996.Sky.Day)
	require.NoError(t, h996.Validate())

	h990, err := f.AnnualHeatingDesignDay990()
	require.NoError(t, err)
	assert.Equal(t, -16.6, h990.DryBulb.Max)

	c004, err := f.AnnualCoolingDesignDay004()
	require.NoError(t, err)
	assert.Equal(t, designday.SummerDesignDay, c004.DayType)
	assert.Equal(t, 33.3, c004.DryBulb.Max)
	assert.Equal(t, 11.7, c004.DryBulb.Range)
	assert.Equal(t, 23.5, c004.Humidity.Value)
	assert.Equal(t, designday.WindCondition{Speed: 4.9, Direction: 230}, c004.Wind)
	assert.Equal(t, 7, c004.Sky.Month)
	assert.Equal(t, 1.0, c004.Sky.Clearness)

	c010, err := f.AnnualCoolingDesignDay010()
	require.NoError(t, err)
	assert.Equal(t, 31.6, c010.DryBulb.Max)
	assert.Equal(t, 22.7, c010.Humidity.Value)

	days, err := f.AnnualDesignDays()
	require.NoError(t, err)
	require.Len(t, days, 4)
	assert.Equal(t, h996, days[0])
	assert.Equal(t, c010, days[3])
}

func TestDesignDays_ReflectMutation(t *testing.T) {
	f := openChicago(t)
	heating, _ := f.HeatingDesignConditions()
	heating["DB996"] = -30
	require.NoError(t, f.SetHeatingDesignConditions(heating))

	d, err := f.AnnualHeatingDesignDay996()
	require.NoError(t, err)
	assert.Equal(t, -30.0, d.DryBulb.Max)
}

func TestSkyTemperature(t *testing.T) {
	f := openChicago(t)
	sky, err := f.SkyTemperature()
	require.NoError(t, err)
	require.Equal(t, collection.HoursPerYear, sky.Len())
	v, _ := sky.At(0)
	assert.InDelta(t, -25.342, v, 0.001)

	opaque, _ := f.OpaqueSkyCover()
	require.NoError(t, opaque.Set(0, 99))
	sky, err = f.SkyTemperature()
	require.NoError(t, err)
	v, _ = sky.At(0)
	assert.InDelta(t, -23.320, v, 0.001, "missing opaque cover falls back to total cover")

	db, _ := f.DryBulbTemperature()
	require.NoError(t, db.Set(0, 99.9))
	sky, _ = f.SkyTemperature()
	v, _ = sky.At(0)
	assert.Equal(t, 99.9, v)
}

func TestHorizontalInfraredIntensity(t *testing.T) {
	assert.InDelta(t, 213.807, HorizontalInfraredIntensity(-7.1, -12, 0), 0.001)
	assert.InDelta(t, 220.871, HorizontalInfraredIntensity(-7.1, -12, 2), 0.001)
}

func TestLocation_Derived(t *testing.T) {
	f := openChicago(t)
	loc, err := f.Location()
	require.NoError(t, err)

	assert.InDelta(t, 98934, loc.StandardPressure(), 1)

	decl, err := loc.MagneticDeclination(time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.InDelta(t, -3.5, decl, 3)

	site := loc.Site()
	assert.Equal(t, "Chicago Ohare Intl Ap", site.Name)
	assert.Equal(t, 201.0, site.Elevation)
}
