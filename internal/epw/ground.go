package epw

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/epw-weather-service/internal/collection"
)

const (
	keywordGround = "GROUND TEMPERATURES"
	// depth, conductivity, density, specific heat, then twelve months
	groundFieldsPerDepth = 4 + collection.MonthsPerYear
)

const groupGround = "ground temperature"

func groundHeader(depth float64) collection.Header {
	return collection.Header{
		DataType: "GroundTemperature",
		Unit:     "C",
		Period:   collection.AnnualPeriod(),
		Metadata: map[string]string{"depth": formatNumber(depth)},
	}
}

// NewGroundTemperature builds a monthly ground temperature series for the given depth in meters.
func NewGroundTemperature(depth float64, values []float64) (*collection.MonthlyCollection, error) {
	return collection.NewMonthly(groundHeader(depth), values)
}

// parseGround reads "GROUND TEMPERATURES,n,depth,cond,dens,heat,<12 months>,...".
func parseGround(lineNo int, fields []string) (map[float64]*collection.MonthlyCollection, error) {
	out := map[float64]*collection.MonthlyCollection{}
	if len(fields) < 2 {
		return out, formatErrorf(lineNo, "ground temperatures line has no count")
	}
	n, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return out, formatErrorf(lineNo, "ground temperatures count %q: %v", fields[1], err)
	}
	if want := 2 + groundFieldsPerDepth*n; len(fields) < want {
		return out, formatErrorf(lineNo, "ground temperatures line has %d fields, want %d for %d depths", len(fields), want, n)
	}
	for i := 0; i < n; i++ {
		f := fields[2+groundFieldsPerDepth*i : 2+groundFieldsPerDepth*(i+1)]
		depth, err := parseHeaderFloat(f[0])
		if err != nil {
			return out, formatErrorf(lineNo, "ground depth %d: %v", i+1, err)
		}
		values := make([]float64, collection.MonthsPerYear)
		for m := range values {
			if values[m], err = parseHeaderFloat(f[4+m]); err != nil {
				return out, formatErrorf(lineNo, "ground temperature at %vm month %d: %v", depth, m+1, err)
			}
		}
		mc, err := NewGroundTemperature(depth, values)
		if err != nil {
			return out, formatErrorf(lineNo, "ground temperature at %vm: %v", depth, err)
		}
		out[depth] = mc
	}
	return out, nil
}

func validateGround(ground map[float64]*collection.MonthlyCollection) error {
	if ground == nil {
		return &ValidationError{Group: groupGround, Msg: "mapping is nil"}
	}
	for _, depth := range sortedDepths(ground) {
		mc := ground[depth]
		if mc == nil {
			return &ValidationError{Group: groupGround, Msg: fmt.Sprintf("depth %vm has no series", depth)}
		}
		if mc.Len() != collection.MonthsPerYear {
			return &ValidationError{
				Group: groupGround,
				Msg:   fmt.Sprintf("depth %vm has %d values, want %d", depth, mc.Len(), collection.MonthsPerYear),
				Err:   collection.ErrLengthMismatch,
			}
		}
	}
	return nil
}

func copyGround(in map[float64]*collection.MonthlyCollection) map[float64]*collection.MonthlyCollection {
	out := make(map[float64]*collection.MonthlyCollection, len(in))
	for depth, mc := range in {
		out[depth] = mc.Clone()
	}
	return out
}

func sortedDepths(m map[float64]*collection.MonthlyCollection) []float64 {
	depths := make([]float64, 0, len(m))
	for d := range m {
		depths = append(depths, d)
	}
	sort.Float64s(depths)
	return depths
}

// groundLine writes depths ascending with blank soil properties.
func groundLine(ground map[float64]*collection.MonthlyCollection) string {
	parts := []string{keywordGround, strconv.Itoa(len(ground))}
	for _, depth := range sortedDepths(ground) {
		parts = append(parts, formatNumber(depth), "", "", "")
		for _, v := range ground[depth].Values() {
			parts = append(parts, formatNumber(v))
		}
	}
	return strings.Join(parts, ",")
}
