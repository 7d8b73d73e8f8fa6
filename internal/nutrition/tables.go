// Package nutrition provides the lookup tables and pure calculation functions
// behind the coaching plan: BMR, TDEE, calorie targets, macro split, meal
// apportionment, and hydration.
package nutrition

// Bracket maps a multiple-choice answer to an estimated numeric midpoint.
// Label is the display form stored alongside the estimate.
type Bracket struct {
	Low   int
	High  int
	Mid   float64
	Label string
}

// AgeBrackets maps Q2 answers to estimated ages in years.
var AgeBrackets = map[string]Bracket{
	"1": {16, 24, 21, "16–24"},
	"2": {25, 34, 29, "25–34"},
	"3": {35, 44, 39, "35–44"},
	"4": {45, 54, 49, "45–54"},
	"5": {55, 64, 59, "55–64"},
	"6": {65, 75, 68, "65+"},
}

// HeightBrackets maps Q3 answers to estimated heights in centimeters.
var HeightBrackets = map[string]Bracket{
	"1": {150, 159, 158, "150–159 cm"},
	"2": {160, 169, 165, "160–169 cm"},
	"3": {170, 179, 175, "170–179 cm"},
	"4": {180, 189, 185, "180–189 cm"},
	"5": {190, 205, 195, "≥190 cm"},
}

// WeightBrackets maps Q4 answers to estimated weights in kilograms.
var WeightBrackets = map[string]Bracket{
	"1": {50, 59, 57.5, "50–59 kg"},
	"2": {60, 69, 65.0, "60–69 kg"},
	"3": {70, 79, 75.0, "70–79 kg"},
	"4": {80, 89, 85.0, "80–89 kg"},
	"5": {90, 99, 95.0, "90–99 kg"},
	"6": {100, 130, 105.0, "100+ kg"},
}

// ActivityFactors are the product's TDEE multipliers per activity category.
// These are deliberate product constants, not the classic Harris-Benedict
// factors; do not "correct" them.
var ActivityFactors = map[string]float64{
	"Sedentário": 1.25,
	"Leve":       1.40,
	"Moderado":   1.55,
	"Intenso":    1.70,
}

// ObjectiveAdjustments are the relative calorie adjustments per objective.
var ObjectiveAdjustments = map[string]float64{
	"Emagrecimento": -0.15,
	"Manutenção":    0.00,
	"Hipertrofia":   0.10,
}

// ActivityByChoice maps Q5 answers to activity categories.
var ActivityByChoice = map[string]string{
	"1": "Sedentário",
	"2": "Leve",
	"3": "Moderado",
	"4": "Intenso",
}

// ObjectiveByChoice maps Q6 answers to objectives.
var ObjectiveByChoice = map[string]string{
	"1": "Emagrecimento",
	"2": "Manutenção",
	"3": "Hipertrofia",
}

// RestrictionByChoice maps Q7 answers to dietary restriction labels.
var RestrictionByChoice = map[string]string{
	"1": "Sem restrições",
	"2": "Sem lactose",
	"3": "Vegetariano",
	"4": "Low-carb",
	"5": "Outras",
}

// MealCountByChoice maps Q12 answers to meals per day.
var MealCountByChoice = map[string]int{
	"1": 3,
	"2": 4,
	"3": 5,
	"4": 6,
}
