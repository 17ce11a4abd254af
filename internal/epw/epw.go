package epw

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/epw-weather-service/internal/collection"
)

// DefaultYear is the year column of a synthesized all-missing file.
const DefaultYear = 2015

// File is one EPW weather file. The header is parsed on the first header
// access and the hourly rows on the first data access. A File is not safe
// for concurrent use.
type File struct {
	name string
	path string
	data []byte

	state  LoadState
	err    error
	header header
	table  *Table
}

// Open returns a File backed by path. The path is checked immediately;
// nothing is parsed until a field is read.
func Open(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}
	return &File{name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), path: path}, nil
}

// FromBytes returns a File over an in-memory EPW source.
func FromBytes(name string, data []byte) *File {
	if data == nil {
		data = []byte{}
	}
	return &File{name: name, data: data}
}

// NewFromMissingValues builds a fully loaded file whose every hourly field
// holds its missing sentinel and whose header carries placeholder values.
func NewFromMissingValues() *File {
	return &File{
		name:   "missing",
		state:  DataLoaded,
		header: defaultHeader(),
		table:  missingTable(DefaultYear),
	}
}

// Name is the file stem, or the name given to FromBytes.
func (f *File) Name() string { return f.name }

// Path is the source path, empty for in-memory files.
func (f *File) Path() string { return f.path }

// State reports how far parsing has progressed.
func (f *File) State() LoadState { return f.state }

// IsHeaderLoaded reports whether the header has been parsed.
func (f *File) IsHeaderLoaded() bool { return f.state >= HeaderLoaded }

// IsDataLoaded reports whether the hourly rows have been parsed.
func (f *File) IsDataLoaded() bool { return f.state >= DataLoaded }

// Load parses the whole file. Accessors load on demand, so this is only
// needed to surface errors early.
func (f *File) Load() error { return f.ensureData() }

// Location returns the live station block. Changes are checked and written
// on save.
func (f *File) Location() (*Location, error) {
	if err := f.ensureHeader(); err != nil {
		return nil, err
	}
	return &f.header.location, nil
}

// SetLocation replaces the station block after validating it.
func (f *File) SetLocation(loc Location) error {
	if err := f.ensureHeader(); err != nil {
		return err
	}
	if err := loc.Validate(); err != nil {
		return err
	}
	f.header.location = loc
	return nil
}

// DesignConditionSource is the reference named on the design conditions line.
func (f *File) DesignConditionSource() (string, error) {
	if err := f.ensureHeader(); err != nil {
		return "", err
	}
	return f.header.conditions.source, nil
}

// SetDesignConditionSource replaces the design conditions reference.
func (f *File) SetDesignConditionSource(source string) error {
	if err := f.ensureHeader(); err != nil {
		return err
	}
	if err := checkFieldText("design condition source", "source", source); err != nil {
		return err
	}
	f.header.conditions.source = source
	return nil
}

func (f *File) conditions(group string) (map[string]float64, error) {
	if err := f.ensureHeader(); err != nil {
		return nil, err
	}
	return copyConditions(*f.header.conditions.group(group)), nil
}

func (f *File) setConditions(group string, values map[string]float64) error {
	if err := f.ensureHeader(); err != nil {
		return err
	}
	return f.header.conditions.set(group, values)
}

// HeatingDesignConditions returns a copy of the heating group, empty when absent.
func (f *File) HeatingDesignConditions() (map[string]float64, error) {
	return f.conditions(GroupHeating)
}

// CoolingDesignConditions returns a copy of the cooling group, empty when absent.
func (f *File) CoolingDesignConditions() (map[string]float64, error) {
	return f.conditions(GroupCooling)
}

// ExtremeDesignConditions returns a copy of the extremes group, empty when absent.
func (f *File) ExtremeDesignConditions() (map[string]float64, error) {
	return f.conditions(GroupExtremes)
}

// SetHeatingDesignConditions replaces the heating group. values must hold
// exactly HeatingKeys.
func (f *File) SetHeatingDesignConditions(values map[string]float64) error {
	return f.setConditions(GroupHeating, values)
}

// SetCoolingDesignConditions replaces the cooling group. values must hold
// exactly CoolingKeys.
func (f *File) SetCoolingDesignConditions(values map[string]float64) error {
	return f.setConditions(GroupCooling, values)
}

// SetExtremeDesignConditions replaces the extremes group. values must hold
// exactly ExtremeKeys.
func (f *File) SetExtremeDesignConditions(values map[string]float64) error {
	return f.setConditions(GroupExtremes, values)
}

// ClearDesignConditions removes all three groups.
func (f *File) ClearDesignConditions() error {
	if err := f.ensureHeader(); err != nil {
		return err
	}
	f.header.conditions.heating = map[string]float64{}
	f.header.conditions.cooling = map[string]float64{}
	f.header.conditions.extremes = map[string]float64{}
	return nil
}

func (f *File) weeks(group string) (map[string]collection.AnalysisPeriod, error) {
	if err := f.ensureHeader(); err != nil {
		return nil, err
	}
	return copyPeriods(*f.header.weeks.group(group)), nil
}

func (f *File) setWeeks(group string, periods map[string]collection.AnalysisPeriod) error {
	if err := f.ensureHeader(); err != nil {
		return err
	}
	return f.header.weeks.set(group, periods)
}

// TypicalWeeks returns the typical periods keyed by label.
func (f *File) TypicalWeeks() (map[string]collection.AnalysisPeriod, error) {
	return f.weeks(GroupTypicalWeeks)
}

// ExtremeColdWeeks returns the extreme cold periods keyed by label.
func (f *File) ExtremeColdWeeks() (map[string]collection.AnalysisPeriod, error) {
	return f.weeks(GroupExtremeColdWeeks)
}

// ExtremeHotWeeks returns the extreme hot periods keyed by label.
func (f *File) ExtremeHotWeeks() (map[string]collection.AnalysisPeriod, error) {
	return f.weeks(GroupExtremeHotWeeks)
}

// SetTypicalWeeks replaces the typical periods. Every period must span exactly seven days.
func (f *File) SetTypicalWeeks(periods map[string]collection.AnalysisPeriod) error {
	return f.setWeeks(GroupTypicalWeeks, periods)
}

// SetExtremeColdWeeks replaces the extreme cold periods. Every period must span exactly seven days.
func (f *File) SetExtremeColdWeeks(periods map[string]collection.AnalysisPeriod) error {
	return f.setWeeks(GroupExtremeColdWeeks, periods)
}

// SetExtremeHotWeeks replaces the extreme hot periods. Every period must span exactly seven days.
func (f *File) SetExtremeHotWeeks(periods map[string]collection.AnalysisPeriod) error {
	return f.setWeeks(GroupExtremeHotWeeks, periods)
}

// MonthlyGroundTemperature returns copies of the monthly ground temperatures keyed by depth in meters.
func (f *File) MonthlyGroundTemperature() (map[float64]*collection.MonthlyCollection, error) {
	if err := f.ensureHeader(); err != nil {
		return nil, err
	}
	return copyGround(f.header.ground), nil
}

// GroundDepths returns the ground temperature depths in ascending order.
func (f *File) GroundDepths() ([]float64, error) {
	if err := f.ensureHeader(); err != nil {
		return nil, err
	}
	return sortedDepths(f.header.ground), nil
}

// SetMonthlyGroundTemperature replaces every depth. Each entry must be a
// twelve-value monthly series.
func (f *File) SetMonthlyGroundTemperature(ground map[float64]*collection.MonthlyCollection) error {
	if err := f.ensureHeader(); err != nil {
		return err
	}
	if err := validateGround(ground); err != nil {
		return err
	}
	f.header.ground = copyGround(ground)
	return nil
}

// Comments1 is the text of the first comment line.
func (f *File) Comments1() (string, error) {
	if err := f.ensureHeader(); err != nil {
		return "", err
	}
	return f.header.comments1, nil
}

// Comments2 is the text of the second comment line.
func (f *File) Comments2() (string, error) {
	if err := f.ensureHeader(); err != nil {
		return "", err
	}
	return f.header.comments2, nil
}

// SetComments1 replaces the first comment line. Line breaks are rejected.
func (f *File) SetComments1(text string) error {
	return f.setComment(&f.header.comments1, text)
}

// SetComments2 replaces the second comment line. Line breaks are rejected.
func (f *File) SetComments2(text string) error {
	return f.setComment(&f.header.comments2, text)
}

func (f *File) setComment(dst *string, text string) error {
	if err := f.ensureHeader(); err != nil {
		return err
	}
	if strings.ContainsAny(text, "\r\n") {
		return &ValidationError{Group: "comments", Msg: "must be a single line"}
	}
	*dst = text
	return nil
}

// HolidaysDaylightSavings is the raw holidays line.
func (f *File) HolidaysDaylightSavings() (string, error) {
	if err := f.ensureHeader(); err != nil {
		return "", err
	}
	return f.header.holidays, nil
}

// DataPeriod is the parsed data periods line.
func (f *File) DataPeriod() (DataPeriod, error) {
	if err := f.ensureHeader(); err != nil {
		return DataPeriod{}, err
	}
	return f.header.dataPeriod, nil
}

// HeaderLines returns the eight header lines as they would be saved.
func (f *File) HeaderLines() ([]string, error) {
	if err := f.ensureHeader(); err != nil {
		return nil, err
	}
	return f.header.lines(), nil
}

// Table returns the hourly record.
func (f *File) Table() (*Table, error) {
	if err := f.ensureData(); err != nil {
		return nil, err
	}
	return f.table, nil
}

// Field returns the live hourly series for id.
func (f *File) Field(id FieldID) (*collection.HourlyCollection, error) {
	if err := f.ensureData(); err != nil {
		return nil, err
	}
	return f.table.Field(id)
}

// SetField replaces every hour of an hourly field. values must hold exactly
// 8760 entries; the field is unchanged on error.
func (f *File) SetField(id FieldID, values []float64) error {
	c, err := f.Field(id)
	if err != nil {
		return err
	}
	if err := c.SetValues(values); err != nil {
		return &ValidationError{Group: Spec(id).Name, Msg: err.Error(), Err: err}
	}
	return nil
}

// Years returns the year column as an hourly series.
func (f *File) Years() (*collection.HourlyCollection, error) { return f.Field(FieldYear) }

// DryBulbTemperature returns dry-bulb temperature in C.
func (f *File) DryBulbTemperature() (*collection.HourlyCollection, error) {
	return f.Field(FieldDryBulbTemperature)
}

// DewPointTemperature returns dew-point temperature in C.
func (f *File) DewPointTemperature() (*collection.HourlyCollection, error) {
	return f.Field(FieldDewPointTemperature)
}

// RelativeHumidity returns relative humidity in percent.
func (f *File) RelativeHumidity() (*collection.HourlyCollection, error) {
	return f.Field(FieldRelativeHumidity)
}

// GlobalHorizontalRadiation returns global horizontal radiation in Wh/m2.
func (f *File) GlobalHorizontalRadiation() (*collection.HourlyCollection, error) {
	return f.Field(FieldGlobalHorizontalRadiation)
}

// DirectNormalRadiation returns direct normal radiation in Wh/m2.
func (f *File) DirectNormalRadiation() (*collection.HourlyCollection, error) {
	return f.Field(FieldDirectNormalRadiation)
}

// DiffuseHorizontalRadiation returns diffuse horizontal radiation in Wh/m2.
func (f *File) DiffuseHorizontalRadiation() (*collection.HourlyCollection, error) {
	return f.Field(FieldDiffuseHorizontalRadiation)
}

// WindSpeed returns wind speed in m/s.
func (f *File) WindSpeed() (*collection.HourlyCollection, error) {
	return f.Field(FieldWindSpeed)
}

// OpaqueSkyCover returns opaque sky cover in tenths.
func (f *File) OpaqueSkyCover() (*collection.HourlyCollection, error) {
	return f.Field(FieldOpaqueSkyCover)
}
