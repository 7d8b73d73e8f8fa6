package nutrition

import (
	"math"
	"strings"
)

// Calculation constants. The protein ratio is a fixed point inside the
// [MinProteinPerKG, MaxProteinPerKG] guard band.
const (
	// MinCalories is the daily calorie floor; targets never go below it.
	MinCalories = 1200
	// CalorieRoundBase rounds the final calorie target to the nearest multiple.
	CalorieRoundBase = 10
	// ProteinPerKG is the protein prescription in grams per kg of body weight.
	ProteinPerKG = 2.0
	// MinProteinPerKG and MaxProteinPerKG bound the allowed protein ratio.
	MinProteinPerKG = 1.6
	MaxProteinPerKG = 2.4
	// FatCalorieShare is the fraction of target calories allotted to fat.
	FatCalorieShare = 0.25

	kcalPerGramProtein = 4.0
	kcalPerGramCarb    = 4.0
	kcalPerGramFat     = 9.0
)

// BMR computes the basal metabolic rate (Mifflin–St Jeor).
// Sex strings starting with "m" (case-insensitive) are treated as male.
func BMR(sex string, weightKG, heightCM float64, ageYears int) float64 {
	base := 10*weightKG + 6.25*heightCM - 5*float64(ageYears)
	if strings.HasPrefix(strings.ToLower(sex), "m") {
		return base + 5
	}
	return base - 161
}

// TDEE computes total daily energy expenditure from a basal rate and an
// activity category. Unknown categories fall back to the "Leve" factor.
func TDEE(bmr float64, activity string) float64 {
	f, ok := ActivityFactors[activity]
	if !ok {
		f = ActivityFactors["Leve"]
	}
	return bmr * f
}

// TargetCalories applies the objective adjustment to a TDEE, enforces the
// calorie floor, and rounds to the nearest CalorieRoundBase.
func TargetCalories(tdee float64, objective string) int {
	adj := ObjectiveAdjustments[objective]
	target := roundToBase(tdee*(1.0+adj), CalorieRoundBase)
	if target < MinCalories {
		return MinCalories
	}
	return target
}

// Macros derives protein, carb, and fat grams from body weight and the
// calorie target. Protein uses ProteinPerKG clamped to the guard band; fat
// takes FatCalorieShare of the target; carbs absorb the remainder, never
// negative. Grams are rounded to the nearest integer.
func Macros(weightKG float64, targetCalories int) (proteinG, carbG, fatG int) {
	ratio := math.Min(MaxProteinPerKG, math.Max(MinProteinPerKG, ProteinPerKG))
	protein := ratio * weightKG

	fatKcal := float64(targetCalories) * FatCalorieShare
	fat := fatKcal / kcalPerGramFat

	remaining := float64(targetCalories) - protein*kcalPerGramProtein - fatKcal
	carb := math.Max(0, remaining/kcalPerGramCarb)

	return int(math.Round(protein)), int(math.Round(carb)), int(math.Round(fat))
}

// SplitByMeals divides total into meals parts as equal as possible. Parts sum
// exactly to total, no part is negative, and no two parts differ by more
// than 1. Returns nil when meals is not positive.
func SplitByMeals(total, meals int) []int {
	if meals <= 0 {
		return nil
	}
	base := float64(total) / float64(meals)
	parts := make([]int, meals)
	sum := 0
	for i := range parts {
		parts[i] = int(math.Round(base))
		sum += parts[i]
	}
	diff := total - sum
	for i := 0; diff != 0; i = (i + 1) % meals {
		if diff > 0 {
			parts[i]++
			diff--
		} else if parts[i] > 0 {
			parts[i]--
			diff++
		}
	}
	return parts
}

// roundToBase rounds x to the nearest multiple of base.
func roundToBase(x float64, base int) int {
	return base * int(math.Round(x/float64(base)))
}
