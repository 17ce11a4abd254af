package epw

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/couchcryptid/epw-weather-service/internal/collection"
)

const keywordPeriods = "TYPICAL/EXTREME PERIODS"

// Week groups.
const (
	GroupTypicalWeeks     = "typical weeks"
	GroupExtremeColdWeeks = "extreme cold weeks"
	GroupExtremeHotWeeks  = "extreme hot weeks"
)

const (
	periodTypical = "Typical"
	periodExtreme = "Extreme"
)

type weeks struct {
	typical map[string]collection.AnalysisPeriod
	cold    map[string]collection.AnalysisPeriod
	hot     map[string]collection.AnalysisPeriod
}

func newWeeks() weeks {
	return weeks{
		typical: map[string]collection.AnalysisPeriod{},
		cold:    map[string]collection.AnalysisPeriod{},
		hot:     map[string]collection.AnalysisPeriod{},
	}
}

func (w *weeks) group(name string) *map[string]collection.AnalysisPeriod {
	switch name {
	case GroupTypicalWeeks:
		return &w.typical
	case GroupExtremeColdWeeks:
		return &w.cold
	default:
		return &w.hot
	}
}

// set stores a copy after checking that every period is a valid seven-day span.
func (w *weeks) set(group string, periods map[string]collection.AnalysisPeriod) error {
	if periods == nil {
		return &ValidationError{Group: group, Msg: "mapping is nil"}
	}
	for _, name := range sortedNames(periods) {
		p := periods[name]
		if err := checkFieldText(group, "label", name); err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return &ValidationError{Group: group, Msg: fmt.Sprintf("%q: %v", name, err), Err: err}
		}
		if n := p.DayCount(); n != 7 {
			return &ValidationError{Group: group, Msg: fmt.Sprintf("%q spans %d days, want 7", name, n)}
		}
		if p.StHour != 0 || p.EndHour != 23 {
			return &ValidationError{Group: group, Msg: fmt.Sprintf("%q covers hours %d-%d, want whole days 0-23", name, p.StHour, p.EndHour)}
		}
	}
	*w.group(group) = copyPeriods(periods)
	return nil
}

func copyPeriods(in map[string]collection.AnalysisPeriod) map[string]collection.AnalysisPeriod {
	out := make(map[string]collection.AnalysisPeriod, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedNames(m map[string]collection.AnalysisPeriod) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// coldWords mark an extreme period label as cold.
var coldWords = map[string]bool{"cold": true, "min": true, "minimum": true, "winter": true}

// classify places an extreme period in the cold group when its label has a
// cold word, and in the hot group otherwise.
func classify(name, kind string) string {
	if !strings.EqualFold(kind, periodExtreme) {
		return GroupTypicalWeeks
	}
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if coldWords[w] {
			return GroupExtremeColdWeeks
		}
	}
	return GroupExtremeHotWeeks
}

// parsePeriods reads "TYPICAL/EXTREME PERIODS,n,name,type,m/d,m/d,...".
// Spans are not checked here; files in the wild carry non-weekly periods.
func parsePeriods(lineNo int, fields []string) (weeks, error) {
	w := newWeeks()
	if len(fields) < 2 {
		return w, formatErrorf(lineNo, "periods line has no count")
	}
	n, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return w, formatErrorf(lineNo, "periods count %q: %v", fields[1], err)
	}
	if want := 2 + 4*n; len(fields) < want {
		return w, formatErrorf(lineNo, "periods line has %d fields, want %d for %d periods", len(fields), want, n)
	}
	for i := 0; i < n; i++ {
		f := fields[2+4*i : 6+4*i]
		name := strings.TrimSpace(f[0])
		stMonth, stDay, err := parseMonthDay(f[2])
		if err != nil {
			return w, formatErrorf(lineNo, "period %q start: %v", name, err)
		}
		endMonth, endDay, err := parseMonthDay(f[3])
		if err != nil {
			return w, formatErrorf(lineNo, "period %q end: %v", name, err)
		}
		p, err := collection.NewAnalysisPeriod(stMonth, stDay, 0, endMonth, endDay, 23)
		if err != nil {
			return w, formatErrorf(lineNo, "period %q: %v", name, err)
		}
		(*w.group(classify(name, strings.TrimSpace(f[1]))))[name] = p
	}
	return w, nil
}

// parseMonthDay reads "m/d", tolerating the padded form "2/ 2".
func parseMonthDay(s string) (month, day int, err error) {
	m, d, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return 0, 0, fmt.Errorf("date %q is not month/day", s)
	}
	if month, err = strconv.Atoi(strings.TrimSpace(m)); err != nil {
		return 0, 0, fmt.Errorf("date %q: %w", s, err)
	}
	if day, err = strconv.Atoi(strings.TrimSpace(d)); err != nil {
		return 0, 0, fmt.Errorf("date %q: %w", s, err)
	}
	return month, day, nil
}

func formatMonthDay(month, day int) string {
	return fmt.Sprintf("%d/%2d", month, day)
}

func (w *weeks) count() int {
	return len(w.typical) + len(w.cold) + len(w.hot)
}

func (w *weeks) line() string {
	parts := []string{keywordPeriods, strconv.Itoa(w.count())}
	write := func(m map[string]collection.AnalysisPeriod, kind string) {
		for _, name := range sortedNames(m) {
			p := m[name]
			parts = append(parts, name, kind,
				formatMonthDay(p.StMonth, p.StDay), formatMonthDay(p.EndMonth, p.EndDay))
		}
	}
	write(w.hot, periodExtreme)
	write(w.cold, periodExtreme)
	write(w.typical, periodTypical)
	return strings.Join(parts, ",")
}
