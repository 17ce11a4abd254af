package epw

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/epw-weather-service/internal/collection"
)

// HeaderLineCount is the number of metadata lines ahead of the hourly rows.
const HeaderLineCount = 8

const (
	keywordHolidays    = "HOLIDAYS/DAYLIGHT SAVINGS"
	keywordComments1   = "COMMENTS 1"
	keywordComments2   = "COMMENTS 2"
	keywordDataPeriods = "DATA PERIODS"
)

// header line positions
const (
	lineLocation = iota
	lineDesignConditions
	linePeriods
	lineGround
	lineHolidays
	lineComments1
	lineComments2
	lineDataPeriods
)

var headerKeywords = [HeaderLineCount]string{
	keywordLocation, keywordDesignConditions, keywordPeriods, keywordGround,
	keywordHolidays, keywordComments1, keywordComments2, keywordDataPeriods,
}

// DataPeriod is the parsed DATA PERIODS line.
type DataPeriod struct {
	Count          int    `json:"count" yaml:"count"`
	RecordsPerHour int    `json:"records_per_hour" yaml:"records_per_hour"`
	Name           string `json:"name" yaml:"name"`
	StartDayOfWeek string `json:"start_day_of_week" yaml:"start_day_of_week"`
	Start          string `json:"start" yaml:"start"`
	End            string `json:"end" yaml:"end"`
}

// header is the parsed metadata block. raw holds the source lines and
// parsed the lines rebuilt from what was parsed, so an unmodified group is
// written back exactly as it was read.
type header struct {
	location   Location
	conditions designConditions
	weeks      weeks
	ground     map[float64]*collection.MonthlyCollection
	holidays   string
	comments1  string
	comments2  string
	dataPeriod DataPeriod
	periodLine string

	raw    [HeaderLineCount]string
	parsed [HeaderLineCount]string
}

func defaultHeader() header {
	return header{
		location:   defaultLocation(),
		conditions: designConditions{heating: map[string]float64{}, cooling: map[string]float64{}, extremes: map[string]float64{}},
		weeks:      newWeeks(),
		ground:     map[float64]*collection.MonthlyCollection{},
		holidays:   keywordHolidays + ",No,0,0,0",
		periodLine: keywordDataPeriods + ",1,1,Data,Sunday, 1/ 1,12/31",
		dataPeriod: DataPeriod{Count: 1, RecordsPerHour: 1, Name: "Data", StartDayOfWeek: "Sunday", Start: "1/ 1", End: "12/31"},
	}
}

// parseHeader tokenizes the eight metadata lines. lines[i] is 1-based line
// start+i of the source.
func parseHeader(lines []string, start int) (header, error) {
	var h header
	if len(lines) < HeaderLineCount {
		return h, formatErrorf(start+len(lines), "found %d header lines, want %d", len(lines), HeaderLineCount)
	}
	for i, kw := range headerKeywords {
		if !hasKeyword(lines[i], kw) {
			return h, formatErrorf(start+i, "header line %d must start with %q", i+1, kw)
		}
	}

	var err error
	fields := func(i int) []string { return strings.Split(lines[i], ",") }

	if h.location, err = parseLocation(start+lineLocation, fields(lineLocation)); err != nil {
		return h, err
	}
	if h.conditions, err = parseDesignConditions(start+lineDesignConditions, fields(lineDesignConditions)); err != nil {
		return h, err
	}
	if h.weeks, err = parsePeriods(start+linePeriods, fields(linePeriods)); err != nil {
		return h, err
	}
	if h.ground, err = parseGround(start+lineGround, fields(lineGround)); err != nil {
		return h, err
	}
	if n := len(fields(lineHolidays)); n < 5 {
		return h, formatErrorf(start+lineHolidays, "holidays line has %d fields, want at least 5", n)
	}
	h.holidays = lines[lineHolidays]
	h.comments1 = commentText(lines[lineComments1], keywordComments1)
	h.comments2 = commentText(lines[lineComments2], keywordComments2)
	if h.dataPeriod, err = parseDataPeriod(start+lineDataPeriods, fields(lineDataPeriods)); err != nil {
		return h, err
	}
	h.periodLine = lines[lineDataPeriods]

	copy(h.raw[:], lines[:HeaderLineCount])
	h.parsed = h.build()
	return h, nil
}

func hasKeyword(line, kw string) bool {
	if !strings.HasPrefix(line, kw) {
		return false
	}
	rest := line[len(kw):]
	return rest == "" || rest[0] == ','
}

func commentText(line, kw string) string {
	text := strings.TrimPrefix(line, kw)
	return strings.TrimPrefix(text, ",")
}

func parseDataPeriod(lineNo int, fields []string) (DataPeriod, error) {
	if len(fields) < 7 {
		return DataPeriod{}, formatErrorf(lineNo, "data periods line has %d fields, want at least 7", len(fields))
	}
	count, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return DataPeriod{}, formatErrorf(lineNo, "data period count %q: %v", fields[1], err)
	}
	perHour, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return DataPeriod{}, formatErrorf(lineNo, "records per hour %q: %v", fields[2], err)
	}
	if count != 1 {
		return DataPeriod{}, formatErrorf(lineNo, "%d data periods, only a single annual period is supported", count)
	}
	if perHour != 1 {
		return DataPeriod{}, formatErrorf(lineNo, "%d records per hour, only hourly data is supported", perHour)
	}
	return DataPeriod{
		Count:          count,
		RecordsPerHour: perHour,
		Name:           strings.TrimSpace(fields[3]),
		StartDayOfWeek: strings.TrimSpace(fields[4]),
		Start:          strings.TrimSpace(fields[5]),
		End:            strings.TrimSpace(fields[6]),
	}, nil
}

// build renders every header line from the current values.
func (h *header) build() [HeaderLineCount]string {
	return [HeaderLineCount]string{
		h.location.line(),
		h.conditions.line(),
		h.weeks.line(),
		groundLine(h.ground),
		h.holidays,
		keywordComments1 + "," + h.comments1,
		keywordComments2 + "," + h.comments2,
		h.periodLine,
	}
}

// lines returns the header as it will be written: the source line for any
// group whose value is unchanged since parsing, the rebuilt line otherwise.
func (h *header) lines() []string {
	built := h.build()
	out := make([]string, HeaderLineCount)
	for i, line := range built {
		if h.raw[i] != "" && line == h.parsed[i] {
			out[i] = h.raw[i]
			continue
		}
		out[i] = line
	}
	return out
}

// checkFieldText rejects text that would split a header field or line.
func checkFieldText(group, field, s string) error {
	if strings.ContainsAny(s, ",\r\n") {
		return &ValidationError{Group: group, Msg: fmt.Sprintf("%s %q must not contain a comma or line break", field, s)}
	}
	return nil
}

func parseHeaderFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return canonicalValue(v, s)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
