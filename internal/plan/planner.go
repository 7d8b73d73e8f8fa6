// Package plan derives the daily reminder hours for one user: meal times,
// hydration pings, and pre/post-training pings, all as pure functions of the
// stored profile. Only the dispatch outcome is persisted, never these hours.
package plan

import (
	"math"
	"sort"

	"github.com/MeteOShape/shapebot/internal/models"
)

// MaxHydrationSlots caps the hydration pings per day.
const MaxHydrationSlots = 3

// MealHours distributes meals points evenly across the feeding window
// [start, end] inclusive: first at start, last at end, intermediate points
// linearly interpolated and rounded to the nearest whole hour. Duplicates are
// collapsed and the result is sorted ascending. An invalid window
// (start > end) or non-positive meal count yields nil.
func MealHours(start, end, meals int) []int {
	if meals <= 0 || start > end {
		return nil
	}
	if meals == 1 {
		return []int{start}
	}
	hours := make([]int, 0, meals)
	span := float64(end - start)
	for i := 0; i < meals; i++ {
		h := float64(start) + span*float64(i)/float64(meals-1)
		hours = append(hours, int(math.Round(h)))
	}
	return dedupeSorted(hours)
}

// ApplyPostWorkout forces one meal slot to land right after training. When the
// training hour falls inside [start, end], the target slot is
// min(end, training+1); if no slot already equals the target, the meal hour
// nearest to it (earliest index on ties) is replaced. Outside the window the
// hours are returned unchanged.
func ApplyPostWorkout(mealHours []int, start, end, training int) []int {
	if len(mealHours) == 0 || training < start || training > end {
		return mealHours
	}
	target := training + 1
	if target > end {
		target = end
	}
	best, bestDist := -1, math.MaxInt
	for i, h := range mealHours {
		if h == target {
			return mealHours
		}
		if d := abs(h - target); d < bestDist {
			best, bestDist = i, d
		}
	}
	out := make([]int, len(mealHours))
	copy(out, mealHours)
	out[best] = target
	return dedupeSorted(out)
}

// HydrationHours places up to MaxHydrationSlots pings at the midpoints between
// consecutive meal hours. With fewer than two meals it falls back to the
// quarter points of the feeding window. Candidates outside the window or
// colliding with a meal hour are discarded; the result is capped and sorted.
func HydrationHours(mealHours []int, start, end int) []int {
	if start > end {
		return nil
	}
	var candidates []int
	if len(mealHours) >= 2 {
		for i := 0; i < len(mealHours)-1; i++ {
			mid := math.Round(float64(mealHours[i]+mealHours[i+1]) / 2)
			candidates = append(candidates, int(mid))
		}
	} else {
		span := float64(end - start)
		for _, q := range []float64{0.25, 0.5, 0.75} {
			candidates = append(candidates, int(math.Round(float64(start)+span*q)))
		}
	}

	meals := make(map[int]bool, len(mealHours))
	for _, h := range mealHours {
		meals[h] = true
	}
	var hours []int
	for _, h := range candidates {
		if h < start || h > end || meals[h] {
			continue
		}
		hours = append(hours, h)
	}
	hours = dedupeSorted(hours)
	if len(hours) > MaxHydrationSlots {
		hours = hours[:MaxHydrationSlots]
	}
	return hours
}

// TrainingPings returns the pre- and post-workout ping hours for a training
// hour, each clamped to [0, 23]. These fire independently of the feeding
// window.
func TrainingPings(training int) (pre, post int) {
	return clampHour(training - 1), clampHour(training + 1)
}

// Muted reports whether the given hour falls inside the mute window. A nil
// window never mutes.
func Muted(w *models.HourWindow, hour int) bool {
	return w != nil && w.Contains(hour)
}

func clampHour(h int) int {
	if h < 0 {
		return 0
	}
	if h > 23 {
		return 23
	}
	return h
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func dedupeSorted(hours []int) []int {
	sort.Ints(hours)
	out := hours[:0]
	for i, h := range hours {
		if i == 0 || h != hours[i-1] {
			out = append(out, h)
		}
	}
	return out
}
