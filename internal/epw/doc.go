// Package epw reads, edits, and writes EnergyPlus weather (EPW) files.
//
// A File parses lazily. The eight header lines are read on the first header
// access and the 8760 hourly rows on the first data access; each step runs
// at most once and a parse failure is returned on every later access.
//
// Header groups are exposed through typed getters that return copies and
// setters that validate before committing: design conditions must carry
// their exact ASHRAE key set, weeks must span seven days, and ground
// temperatures must hold twelve monthly values. Hourly fields are live
// collection.HourlyCollection values.
//
// Derived data (sky temperature and the four ASHRAE annual design days) is
// recomputed from current values on every call. Files can be written back
// as EPW, as WEA for daylighting tools, as DDY design days, or as a
// structured JSON/YAML Document that round-trips exactly.
package epw
