package zone

import (
	"fmt"
	"strings"
)

// DefaultZone is used when a postal code matches neither the exact nor the
// prefix table. Zone 3 is "cross-country": downstream quoting must always get
// some comparable estimate, so mapping never fails.
const DefaultZone = 3

// exactZones covers curated high-volume destinations by full 5-digit code.
var exactZones = map[string]int{
	"10001": 6, // Manhattan
	"11201": 6, // Brooklyn
	"30301": 4, // Atlanta
	"33101": 5, // Miami
	"60601": 3, // Chicago
	"73301": 2, // Austin
	"75201": 2, // Dallas
	"80201": 1, // Denver
	"85001": 1, // Phoenix
	"90210": 0, // Beverly Hills
	"94105": 0, // San Francisco
	"97201": 1, // Portland
	"98101": 1, // Seattle
}

// prefixZones maps 3-digit postal prefixes to regional zones.
var prefixZones = map[string]int{
	"006": 8, // Puerto Rico
	"967": 8, // Hawaii
	"995": 8, // Alaska
	"900": 0, "902": 0, "904": 0, "906": 0, "908": 0, // LA metro
	"940": 0, "941": 0, "943": 0, "945": 0, // Bay Area
	"890": 1, "891": 1, // Las Vegas
	"980": 1, "981": 1, // Seattle
	"972": 1, "973": 1, // Portland
	"800": 1, "802": 1, // Denver
	"850": 1, "852": 1, // Phoenix
	"840": 1, "841": 1, // Salt Lake City
	"750": 2, "752": 2, "770": 2, "773": 2, "787": 2, // Texas
	"730": 2, "731": 2, // Oklahoma
	"606": 3, "607": 3, "480": 3, "482": 3, "532": 3, "553": 3, // Midwest
	"630": 3, "631": 3, "641": 3, "660": 3, "661": 3, // MO/KS
	"300": 4, "303": 4, "370": 4, "372": 4, "282": 4, // Southeast
	"331": 5, "328": 5, "327": 5, "337": 5, // Florida
	"100": 6, "101": 6, "102": 6, "112": 6, "070": 6, "071": 6, // NY/NJ
	"191": 6, "021": 6, "022": 6, "200": 6, "208": 6, // PHL/BOS/DC
	"040": 7, "044": 7, "058": 7, "059": 7, // northern New England
}

// standardDays is the standard delivery window per zone, inclusive.
var standardDays = [9][2]int{
	{1, 2}, // 0 local
	{2, 3},
	{2, 4},
	{3, 5}, // 3 cross-country default
	{3, 6},
	{4, 6},
	{4, 7},
	{5, 8},
	{6, 10}, // 8 remote
}

// Map resolves a destination postal code to a zone and a human-readable
// standard delivery estimate. Lookup order: exact 5-digit match, 3-digit
// prefix, then DefaultZone. Unmapped input degrades, it never errors.
func Map(postalCode string) (int, string) {
	code := sanitize(postalCode)
	if z, ok := exactZones[code]; ok {
		return z, Estimate(z, false)
	}
	if len(code) >= 3 {
		if z, ok := prefixZones[code[:3]]; ok {
			return z, Estimate(z, false)
		}
	}
	return DefaultZone, Estimate(DefaultZone, false)
}

// Estimate renders the delivery window for a zone. Express estimates are
// never under 1 day and never slower than the standard window.
func Estimate(z int, express bool) string {
	min, max := TransitDays(z, express)
	if min == max {
		return fmt.Sprintf("%d business day%s", min, plural(min))
	}
	return fmt.Sprintf("%d-%d business days", min, max)
}

// TransitDays returns the inclusive delivery-day window for a zone.
func TransitDays(z int, express bool) (int, int) {
	if z < 0 || z > 8 {
		z = DefaultZone
	}
	min, max := standardDays[z][0], standardDays[z][1]
	if express {
		min, max = min-1, max-2
		if min < 1 {
			min = 1
		}
		if max < min {
			max = min
		}
	}
	return min, max
}

// sanitize keeps the leading run of digits, capped at 5. ZIP+4 input and
// trailing junk are tolerated.
func sanitize(postal string) string {
	s := strings.TrimSpace(postal)
	var b strings.Builder
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		b.WriteRune(r)
		if b.Len() == 5 {
			break
		}
	}
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
