package nutrition

import "math"

// Hydration constants: 37 ml/kg inside the recommended 35–40 ml/kg band,
// 2 L/day minimum, split across the day as morning/afternoon/evening.
const (
	WaterMLPerKG = 37.0
	MinWaterL    = 2.0

	waterMorningShare   = 0.33
	waterAfternoonShare = 0.37
	waterEveningShare   = 0.30
)

// WaterTargetML computes the daily water target in milliliters.
func WaterTargetML(weightKG float64) int {
	return int(math.Round(weightKG * WaterMLPerKG))
}

// WaterLiters converts a milliliter target to liters (one decimal place),
// never below MinWaterL.
func WaterLiters(totalML int) float64 {
	l := round1(float64(totalML) / 1000.0)
	if l < MinWaterL {
		return MinWaterL
	}
	return l
}

// WaterSplit divides a liter target into morning, afternoon, and evening
// portions, each rounded to one decimal place.
func WaterSplit(liters float64) (morning, afternoon, evening float64) {
	return round1(liters * waterMorningShare),
		round1(liters * waterAfternoonShare),
		round1(liters * waterEveningShare)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
