package epw

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/epw-weather-service/internal/collection"
)

// DefaultUncertaintyFlags is the data source column written for synthesized rows.
const DefaultUncertaintyFlags = "?9?9?9?9E0?9?9?9?9?9?9?9?9?9?9?9?9?9*9*9?9?9?9"

// Table is the annual hourly record: the raw time columns plus one live
// series per physical field.
type Table struct {
	Month  []int
	Day    []int
	Hour   []int
	Minute []int
	Flags  []string

	fields [FieldCount]*collection.HourlyCollection
}

func newTable() *Table {
	return &Table{
		Month:  make([]int, collection.HoursPerYear),
		Day:    make([]int, collection.HoursPerYear),
		Hour:   make([]int, collection.HoursPerYear),
		Minute: make([]int, collection.HoursPerYear),
		Flags:  make([]string, collection.HoursPerYear),
	}
}

// missingTable builds a table where every physical field holds its sentinel.
func missingTable(year int) *Table {
	t := newTable()
	for i := 0; i < collection.HoursPerYear; i++ {
		doy := i/24 + 1
		t.Month[i], t.Day[i] = collection.MonthDay(doy)
		t.Hour[i] = i%24 + 1
		t.Flags[i] = DefaultUncertaintyFlags
	}
	for _, s := range HourlyFields() {
		v := s.Missing
		if s.ID == FieldYear {
			v = float64(year)
		}
		t.fields[s.ID] = collection.Filled(s.Name, s.Unit, v)
	}
	return t
}

// Field returns the live series for an hourly column.
func (t *Table) Field(id FieldID) (*collection.HourlyCollection, error) {
	if !id.IsHourly() {
		return nil, &ValidationError{Group: "field", Msg: fmt.Sprintf("%d is not an hourly field", int(id))}
	}
	return t.fields[id], nil
}

// MissingCount returns how many hours of the field hold the missing sentinel.
func (t *Table) MissingCount(id FieldID) int {
	if !id.IsHourly() {
		return 0
	}
	s := Spec(id)
	if !s.HasSentinel() {
		return 0
	}
	n := 0
	for _, v := range t.fields[id].Values() {
		if s.IsMissing(v) {
			n++
		}
	}
	return n
}

// parseTable converts data rows to columns. lineNos holds the 1-based source
// line of each row for error reporting.
func parseTable(rows []string, lineNos []int) (*Table, error) {
	if len(rows) != collection.HoursPerYear {
		line := 0
		if len(lineNos) > 0 {
			line = lineNos[len(lineNos)-1]
		}
		return nil, formatErrorf(line, "found %d data rows, want %d", len(rows), collection.HoursPerYear)
	}

	t := newTable()
	hourly := HourlyFields()
	columns := make([][]float64, FieldCount)
	for _, s := range hourly {
		columns[s.ID] = make([]float64, collection.HoursPerYear)
	}

	for i, row := range rows {
		cells := strings.Split(row, ",")
		if len(cells) != FieldCount {
			return nil, formatErrorf(lineNos[i], "data row has %d fields, want %d", len(cells), FieldCount)
		}
		ints := []*int{&t.Month[i], &t.Day[i], &t.Hour[i], &t.Minute[i]}
		for j, dst := range ints {
			v, err := strconv.Atoi(strings.TrimSpace(cells[int(FieldMonth)+j]))
			if err != nil {
				return nil, formatErrorf(lineNos[i], "%s %q is not an integer", FieldID(int(FieldMonth)+j), cells[int(FieldMonth)+j])
			}
			*dst = v
		}
		t.Flags[i] = cells[FieldUncertaintyFlags]
		for _, s := range hourly {
			v, err := parseCell(cells[s.ID])
			if err != nil {
				return nil, formatErrorf(lineNos[i], "%s: %v", s.Name, err)
			}
			columns[s.ID][i] = v
		}
	}

	for _, s := range hourly {
		c, err := collection.NewAnnualHourly(s.Name, s.Unit, columns[s.ID])
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", s.Name, err)
		}
		t.fields[s.ID] = c
	}
	return t, nil
}

// parseCell reads one numeric data cell. NaN and infinities are rejected and
// negative zero is stored as zero.
func parseCell(cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", cell)
	}
	return canonicalValue(v, cell)
}

// canonicalValue rejects non-finite values and folds negative zero, which
// the YAML codec would otherwise read back as an integer zero.
func canonicalValue(v float64, label string) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", label)
	}
	if v == 0 {
		return 0, nil
	}
	return v, nil
}

// row renders hour i as a comma-separated data line.
func (t *Table) row(i int) string {
	cells := make([]string, FieldCount)
	for id := FieldID(0); int(id) < FieldCount; id++ {
		switch id {
		case FieldMonth:
			cells[id] = strconv.Itoa(t.Month[i])
		case FieldDay:
			cells[id] = strconv.Itoa(t.Day[i])
		case FieldHour:
			cells[id] = strconv.Itoa(t.Hour[i])
		case FieldMinute:
			cells[id] = strconv.Itoa(t.Minute[i])
		case FieldUncertaintyFlags:
			cells[id] = t.Flags[i]
		default:
			v, _ := t.fields[id].At(i)
			cells[id] = formatNumber(v)
		}
	}
	return strings.Join(cells, ",")
}
