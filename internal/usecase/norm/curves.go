package norm

import "math"

// Segmented curve family for age/prestige-style quantities: polynomial near
// zero, logarithmic in a middle band, then a slow tail approaching a capped
// asymptote. Each segment is continuous at its boundary; downstream consumers
// plot and compare these curves, so a value jump is a correctness bug, not a
// cosmetic one.

const (
	// AgeModifierCap is the saturation value beyond 100 years
	AgeModifierCap = 0.95

	// PrestigeModifierCap is the saturation value for very large prestige totals
	PrestigeModifierCap = 0.95
)

// AgeModifier maps an age in years onto [0, AgeModifierCap].
//
// Segments (continuous at 10, 40 and 100 years):
//
//	(0, 10]   polynomial   0.30 * (y/10)^1.5
//	(10, 40]  logarithmic  0.30 + 0.45 * ln(1 + (y-10)/10) / ln(4)
//	(40, 100] arctangent   0.75 + 0.20 * atan((y-40)/25) / atan(2.4)
//	> 100     capped at 0.95
//
// The same curve is shared by vine age and company age scoring; the
// parameter sharing is intentional.
func AgeModifier(years float64) float64 {
	switch {
	case math.IsNaN(years) || years <= 0:
		return 0
	case years <= 10:
		return 0.30 * math.Pow(years/10, 1.5)
	case years <= 40:
		return 0.30 + 0.45*math.Log(1+(years-10)/10)/math.Log(4)
	case years <= 100:
		return 0.75 + 0.20*math.Atan((years-40)/25)/math.Atan(2.4)
	default:
		return AgeModifierCap
	}
}

// PrestigeModifier maps a prestige total onto [0, PrestigeModifierCap].
//
// Segments (continuous at 5, 50 and 500):
//
//	(0, 5]    polynomial   0.20 * (p/5)^2
//	(5, 50]   logarithmic  0.20 + 0.40 * ln(1 + (p-5)/5) / ln(10)
//	(50, 500] square root  0.60 + 0.35 * sqrt((p-50)/450)
//	> 500     capped at 0.95
func PrestigeModifier(prestige float64) float64 {
	switch {
	case math.IsNaN(prestige) || prestige <= 0:
		return 0
	case prestige <= 5:
		return 0.20 * math.Pow(prestige/5, 2)
	case prestige <= 50:
		return 0.20 + 0.40*math.Log(1+(prestige-5)/5)/math.Log(10)
	case prestige <= 500:
		return 0.60 + 0.35*math.Sqrt((prestige-50)/450)
	default:
		return PrestigeModifierCap
	}
}
