package vatsim

import "strings"

// Position categories in display order for event postings.
var PositionCategoryOrder = []string{"RMP", "DEL", "GND", "TWR", "DEP", "APP", "CTR", "CIC", "TMU", "OTHER", "UNKNOWN"}

var positionSuffixes = map[string]string{
	"RMP": "RMP",
	"DEL": "DEL",
	"GND": "GND",
	"TWR": "TWR",
	"DEP": "DEP",
	"APP": "APP",
	"CTR": "CTR",
	"CIC": "CIC",
	"TMU": "TMU",
	"FSS": "CTR",
}

// ParsePosition extracts the category from a position callsign like
// "DCA_TWR" or "PCT_1_APP". Unrecognized suffixes map to "OTHER"; callsigns
// without a separator map to "UNKNOWN".
func ParsePosition(position string) string {
	p := strings.ToUpper(strings.TrimSpace(position))
	if p == "" {
		return "UNKNOWN"
	}
	idx := strings.LastIndex(p, "_")
	if idx < 0 || idx == len(p)-1 {
		return "UNKNOWN"
	}
	if cat, ok := positionSuffixes[p[idx+1:]]; ok {
		return cat
	}
	return "OTHER"
}
