package epw

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/epw-weather-service/internal/collection"
	"github.com/couchcryptid/epw-weather-service/internal/designday"
)

// DocumentType tags structured documents produced by this package.
const DocumentType = "EPW"

// Document is the structured form of a File. Every modeled header group and
// hourly column is present, so a File rebuilt from a Document renders the
// same Document again. DesignDays is derived and ignored when reading.
type Document struct {
	Type               string                 `json:"type" yaml:"type"`
	Name               string                 `json:"name" yaml:"name"`
	Location           Location               `json:"location" yaml:"location"`
	DesignConditions   DesignConditionsDoc    `json:"design_conditions" yaml:"design_conditions"`
	TypicalWeeks       []NamedPeriod          `json:"typical_weeks" yaml:"typical_weeks"`
	ExtremeColdWeeks   []NamedPeriod          `json:"extreme_cold_weeks" yaml:"extreme_cold_weeks"`
	ExtremeHotWeeks    []NamedPeriod          `json:"extreme_hot_weeks" yaml:"extreme_hot_weeks"`
	GroundTemperatures []GroundTemperatureDoc `json:"monthly_ground_temps" yaml:"monthly_ground_temps"`
	HolidaysDST        string                 `json:"holidays_dst" yaml:"holidays_dst"`
	Comments1          string                 `json:"comments_1" yaml:"comments_1"`
	Comments2          string                 `json:"comments_2" yaml:"comments_2"`
	DataPeriods        string                 `json:"data_periods" yaml:"data_periods"`
	Month              []int                  `json:"month" yaml:"month"`
	Day                []int                  `json:"day" yaml:"day"`
	Hour               []int                  `json:"hour" yaml:"hour"`
	Minute             []int                  `json:"minute" yaml:"minute"`
	UncertaintyFlags   []string               `json:"uncertainty_flags" yaml:"uncertainty_flags"`
	Fields             []FieldValues          `json:"data_collections" yaml:"data_collections"`
	DesignDays         []*designday.DesignDay `json:"design_days,omitempty" yaml:"design_days,omitempty"`
}

// DesignConditionsDoc carries the three design condition groups. An empty
// group was absent from the file.
type DesignConditionsDoc struct {
	Source   string             `json:"source" yaml:"source"`
	Heating  map[string]float64 `json:"heating" yaml:"heating"`
	Cooling  map[string]float64 `json:"cooling" yaml:"cooling"`
	Extremes map[string]float64 `json:"extremes" yaml:"extremes"`
}

// NamedPeriod is one labeled week.
type NamedPeriod struct {
	Name   string                    `json:"name" yaml:"name"`
	Period collection.AnalysisPeriod `json:"period" yaml:"period"`
}

// GroundTemperatureDoc is one depth of monthly ground temperature.
type GroundTemperatureDoc struct {
	Depth  float64   `json:"depth" yaml:"depth"`
	Values []float64 `json:"values" yaml:"values"`
}

// FieldValues is one hourly column keyed by FieldSpec.Key.
type FieldValues struct {
	Key    string    `json:"key" yaml:"key"`
	Unit   string    `json:"unit" yaml:"unit"`
	Values []float64 `json:"values" yaml:"values"`
}

// ToStructured snapshots the file into a Document. Design days are included
// when the header carries design conditions.
func (f *File) ToStructured() (*Document, error) {
	if err := f.ensureData(); err != nil {
		return nil, err
	}
	h := &f.header
	t := f.table
	doc := &Document{
		Type:     DocumentType,
		Name:     f.name,
		Location: h.location,
		DesignConditions: DesignConditionsDoc{
			Source:   h.conditions.source,
			Heating:  copyConditions(h.conditions.heating),
			Cooling:  copyConditions(h.conditions.cooling),
			Extremes: copyConditions(h.conditions.extremes),
		},
		TypicalWeeks:     namedPeriods(h.weeks.typical),
		ExtremeColdWeeks: namedPeriods(h.weeks.cold),
		ExtremeHotWeeks:  namedPeriods(h.weeks.hot),
		HolidaysDST:      h.holidays,
		Comments1:        h.comments1,
		Comments2:        h.comments2,
		DataPeriods:      h.periodLine,
		Month:            append([]int(nil), t.Month...),
		Day:              append([]int(nil), t.Day...),
		Hour:             append([]int(nil), t.Hour...),
		Minute:           append([]int(nil), t.Minute...),
		UncertaintyFlags: append([]string(nil), t.Flags...),
	}
	for _, depth := range sortedDepths(h.ground) {
		doc.GroundTemperatures = append(doc.GroundTemperatures, GroundTemperatureDoc{
			Depth:  depth,
			Values: h.ground[depth].Values(),
		})
	}
	for _, s := range HourlyFields() {
		doc.Fields = append(doc.Fields, FieldValues{Key: s.Key, Unit: s.Unit, Values: t.fields[s.ID].Values()})
	}
	if len(h.conditions.heating) > 0 && len(h.conditions.cooling) > 0 {
		days, err := f.AnnualDesignDays()
		if err != nil {
			return nil, err
		}
		doc.DesignDays = days
	}
	return doc, nil
}

func namedPeriods(m map[string]collection.AnalysisPeriod) []NamedPeriod {
	out := make([]NamedPeriod, 0, len(m))
	for _, name := range sortedNames(m) {
		out = append(out, NamedPeriod{Name: name, Period: m[name]})
	}
	return out
}

// FromStructured rebuilds a fully loaded File from a Document.
func FromStructured(doc *Document) (*File, error) {
	if doc == nil {
		return nil, &ValidationError{Group: "document", Msg: "document is nil"}
	}
	if doc.Type != DocumentType {
		return nil, &ValidationError{Group: "document", Msg: fmt.Sprintf("type %q, want %q", doc.Type, DocumentType)}
	}

	if err := doc.Location.Validate(); err != nil {
		return nil, err
	}
	h := defaultHeader()
	h.location = doc.Location
	h.conditions.source = doc.DesignConditions.Source
	groups := []struct {
		name   string
		values map[string]float64
	}{
		{GroupHeating, doc.DesignConditions.Heating},
		{GroupCooling, doc.DesignConditions.Cooling},
		{GroupExtremes, doc.DesignConditions.Extremes},
	}
	for _, g := range groups {
		if len(g.values) == 0 {
			continue
		}
		if err := h.conditions.set(g.name, g.values); err != nil {
			return nil, err
		}
	}

	weekGroups := []struct {
		name    string
		periods []NamedPeriod
	}{
		{GroupTypicalWeeks, doc.TypicalWeeks},
		{GroupExtremeColdWeeks, doc.ExtremeColdWeeks},
		{GroupExtremeHotWeeks, doc.ExtremeHotWeeks},
	}
	for _, g := range weekGroups {
		dst := *h.weeks.group(g.name)
		for _, np := range g.periods {
			if err := checkFieldText(g.name, "label", np.Name); err != nil {
				return nil, err
			}
			if err := np.Period.Validate(); err != nil {
				return nil, &ValidationError{Group: g.name, Msg: fmt.Sprintf("%q: %v", np.Name, err), Err: err}
			}
			dst[np.Name] = np.Period
		}
	}

	for _, gt := range doc.GroundTemperatures {
		mc, err := NewGroundTemperature(gt.Depth, gt.Values)
		if err != nil {
			return nil, &ValidationError{Group: groupGround, Msg: fmt.Sprintf("depth %vm: %v", gt.Depth, err), Err: err}
		}
		h.ground[gt.Depth] = mc
	}

	if doc.HolidaysDST != "" {
		h.holidays = doc.HolidaysDST
	}
	h.comments1, h.comments2 = doc.Comments1, doc.Comments2
	if doc.DataPeriods != "" {
		dp, err := parseDataPeriod(0, strings.Split(doc.DataPeriods, ","))
		if err != nil {
			return nil, &ValidationError{Group: "data periods", Msg: err.Error(), Err: err}
		}
		h.dataPeriod, h.periodLine = dp, doc.DataPeriods
	}

	t, err := tableFromDocument(doc)
	if err != nil {
		return nil, err
	}
	return &File{name: doc.Name, state: DataLoaded, header: h, table: t}, nil
}

func tableFromDocument(doc *Document) (*Table, error) {
	n := collection.HoursPerYear
	lengths := map[string]int{
		"month": len(doc.Month), "day": len(doc.Day), "hour": len(doc.Hour),
		"minute": len(doc.Minute), "uncertainty_flags": len(doc.UncertaintyFlags),
	}
	names := make([]string, 0, len(lengths))
	for k := range lengths {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if lengths[k] != n {
			return nil, &ValidationError{
				Group: k,
				Msg:   fmt.Sprintf("got %d values, want %d", lengths[k], n),
				Err:   collection.ErrLengthMismatch,
			}
		}
	}

	t := &Table{
		Month:  append([]int(nil), doc.Month...),
		Day:    append([]int(nil), doc.Day...),
		Hour:   append([]int(nil), doc.Hour...),
		Minute: append([]int(nil), doc.Minute...),
		Flags:  append([]string(nil), doc.UncertaintyFlags...),
	}
	for _, fv := range doc.Fields {
		id, ok := FieldByKey(fv.Key)
		if !ok || !id.IsHourly() {
			return nil, &ValidationError{Group: "data collections", Msg: fmt.Sprintf("unknown field %q", fv.Key)}
		}
		if t.fields[id] != nil {
			return nil, &ValidationError{Group: "data collections", Msg: fmt.Sprintf("duplicate field %q", fv.Key)}
		}
		s := Spec(id)
		values := make([]float64, len(fv.Values))
		for i, v := range fv.Values {
			cv, err := canonicalValue(v, strconv.FormatFloat(v, 'g', -1, 64))
			if err != nil {
				return nil, &ValidationError{Group: s.Name, Msg: fmt.Sprintf("value %d: %v", i, err)}
			}
			values[i] = cv
		}
		c, err := collection.NewAnnualHourly(s.Name, s.Unit, values)
		if err != nil {
			return nil, &ValidationError{Group: s.Name, Msg: err.Error(), Err: err}
		}
		t.fields[id] = c
	}
	for _, s := range HourlyFields() {
		if t.fields[s.ID] == nil {
			return nil, &ValidationError{Group: "data collections", Msg: fmt.Sprintf("missing field %q", s.Key)}
		}
	}
	return t, nil
}

// ToJSON renders the structured document as JSON.
func (f *File) ToJSON() ([]byte, error) {
	doc, err := f.ToStructured()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal epw document: %w", err)
	}
	return b, nil
}

// ToYAML renders the structured document as YAML.
func (f *File) ToYAML() ([]byte, error) {
	doc, err := f.ToStructured()
	if err != nil {
		return nil, err
	}
	b, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal epw document: %w", err)
	}
	return b, nil
}

// FromJSON rebuilds a File from ToJSON output.
func FromJSON(data []byte) (*File, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode json document: %v", ErrFormat, err)
	}
	return FromStructured(&doc)
}

// FromYAML rebuilds a File from ToYAML output.
func FromYAML(data []byte) (*File, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode yaml document: %v", ErrFormat, err)
	}
	return FromStructured(&doc)
}
