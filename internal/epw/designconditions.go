package epw

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const keywordDesignConditions = "DESIGN CONDITIONS"

// Design condition groups.
const (
	GroupHeating  = "heating"
	GroupCooling  = "cooling"
	GroupExtremes = "extremes"
)

// HeatingKeys are the ASHRAE heating design condition codes in file order.
var HeatingKeys = []string{
	"Month", "DB996", "DB990", "DP996", "HR_DP996", "DB_DP996", "DP990",
	"HR_DP990", "DB_DP990", "WS004c", "DB_WS004c", "WS010c", "DB_WS010c",
	"WS_DB996", "WD_DB996",
}

// CoolingKeys are the ASHRAE cooling design condition codes in file order.
var CoolingKeys = []string{
	"Month", "DBR", "DB004", "WB_DB004", "DB010", "WB_DB010", "DB020",
	"WB_DB020", "WB004", "DB_WB004", "WB010", "DB_WB010", "WB020", "DB_WB020",
	"WS_DB004", "WD_DB004", "DP004", "HR_DP004", "DB_DP004", "DP010",
	"HR_DP010", "DB_DP010", "DP020", "HR_DP020", "DB_DP020", "EN004",
	"DB_EN004", "EN010", "DB_EN010", "EN020", "DB_EN020", "Hrs_8-4_&_DB",
}

// ExtremeKeys are the ASHRAE extreme design condition codes in file order.
var ExtremeKeys = []string{
	"WS010", "WS025", "WS050", "WBmax", "DBmin_mean", "DBmax_mean",
	"DBmin_stddev", "DBmax_stddev", "DBmin05years", "DBmax05years",
	"DBmin10years", "DBmax10years", "DBmin20years", "DBmax20years",
	"DBmin50years", "DBmax50years",
}

// group labels as they appear in the design conditions line
var groupLabels = []struct {
	group string
	label string
	keys  []string
}{
	{GroupHeating, "Heating", HeatingKeys},
	{GroupCooling, "Cooling", CoolingKeys},
	{GroupExtremes, "Extremes", ExtremeKeys},
}

func keysFor(group string) []string {
	for _, g := range groupLabels {
		if g.group == group {
			return g.keys
		}
	}
	return nil
}

// designConditions holds the three keyed groups. An empty map means the
// group is absent from the file.
type designConditions struct {
	source   string
	heating  map[string]float64
	cooling  map[string]float64
	extremes map[string]float64
}

func (dc *designConditions) group(name string) *map[string]float64 {
	switch name {
	case GroupHeating:
		return &dc.heating
	case GroupCooling:
		return &dc.cooling
	default:
		return &dc.extremes
	}
}

func (dc *designConditions) empty() bool {
	return len(dc.heating) == 0 && len(dc.cooling) == 0 && len(dc.extremes) == 0
}

// set validates values against the group's key set and stores a copy.
// The previous mapping is left unchanged on error.
func (dc *designConditions) set(group string, values map[string]float64) error {
	if err := validateConditions(group, values); err != nil {
		return err
	}
	*dc.group(group) = copyConditions(values)
	return nil
}

func validateConditions(group string, values map[string]float64) error {
	keys := keysFor(group)
	if values == nil {
		return &ValidationError{Group: group + " design conditions", Msg: "mapping is nil"}
	}

	var missing, extra []string
	for _, k := range keys {
		if _, ok := values[k]; !ok {
			missing = append(missing, k)
		}
	}
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	for k, v := range values {
		if _, ok := want[k]; !ok {
			extra = append(extra, k)
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Group: group + " design conditions", Msg: fmt.Sprintf("%s is not a finite number", k)}
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}

	sort.Strings(extra)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing keys "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "unexpected keys "+strings.Join(extra, ", "))
	}
	return &ValidationError{Group: group + " design conditions", Msg: strings.Join(parts, "; ")}
}

func copyConditions(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// parseDesignConditions reads
// "DESIGN CONDITIONS,n,source,,Heating,<15>,Cooling,<32>,Extremes,<16>".
// A group whose values are all blank is treated as absent.
func parseDesignConditions(lineNo int, fields []string) (designConditions, error) {
	dc := designConditions{
		heating:  map[string]float64{},
		cooling:  map[string]float64{},
		extremes: map[string]float64{},
	}
	if len(fields) < 2 {
		return dc, formatErrorf(lineNo, "design conditions line has no count")
	}
	n, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return dc, formatErrorf(lineNo, "design conditions count %q: %v", fields[1], err)
	}
	if n == 0 {
		return dc, nil
	}
	if len(fields) > 2 {
		dc.source = strings.TrimSpace(fields[2])
	}

	for _, g := range groupLabels {
		at := indexOf(fields, g.label)
		if at < 0 {
			continue
		}
		if at+len(g.keys) >= len(fields) {
			return dc, formatErrorf(lineNo, "%s design conditions need %d values", g.group, len(g.keys))
		}
		values, err := parseConditionValues(fields[at+1:at+1+len(g.keys)], g.keys)
		if err != nil {
			return dc, formatErrorf(lineNo, "%s design conditions: %v", g.group, err)
		}
		*dc.group(g.group) = values
	}
	return dc, nil
}

func parseConditionValues(tokens, keys []string) (map[string]float64, error) {
	blank := 0
	for _, t := range tokens {
		if strings.TrimSpace(t) == "" {
			blank++
		}
	}
	if blank == len(tokens) {
		return map[string]float64{}, nil
	}
	values := make(map[string]float64, len(keys))
	for i, k := range keys {
		v, err := parseHeaderFloat(tokens[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		values[k] = v
	}
	return values, nil
}

func indexOf(fields []string, label string) int {
	for i, f := range fields {
		if strings.TrimSpace(f) == label {
			return i
		}
	}
	return -1
}

func (dc *designConditions) line() string {
	if dc.empty() {
		return keywordDesignConditions + ",0"
	}
	parts := []string{keywordDesignConditions, "1", dc.source, ""}
	for _, g := range groupLabels {
		parts = append(parts, g.label)
		values := *dc.group(g.group)
		for _, k := range g.keys {
			if v, ok := values[k]; ok {
				parts = append(parts, formatNumber(v))
			} else {
				parts = append(parts, "")
			}
		}
	}
	return strings.Join(parts, ",")
}
