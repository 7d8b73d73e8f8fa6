package plan

import (
	"reflect"
	"testing"

	"github.com/MeteOShape/shapebot/internal/models"
)

func TestMealHoursEvenDistribution(t *testing.T) {
	cases := []struct {
		start, end, meals int
		want              []int
	}{
		{8, 20, 4, []int{8, 12, 16, 20}},
		{8, 20, 3, []int{8, 14, 20}},
		{8, 20, 1, []int{8}},
		{7, 22, 5, []int{7, 11, 15, 18, 22}},
		{10, 12, 6, []int{10, 11, 12}}, // duplicates collapse
		{20, 8, 4, nil},                // invalid window
		{8, 20, 0, nil},
	}
	for _, c := range cases {
		got := MealHours(c.start, c.end, c.meals)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("MealHours(%d, %d, %d) = %v, want %v", c.start, c.end, c.meals, got, c.want)
		}
	}
}

func TestApplyPostWorkout(t *testing.T) {
	// Training at 17 inside [8,20]: nearest slot to 18 is 16, replaced.
	got := ApplyPostWorkout([]int{8, 12, 16, 20}, 8, 20, 17)
	want := []int{8, 12, 18, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ApplyPostWorkout = %v, want %v", got, want)
	}

	// Target already present: unchanged.
	got = ApplyPostWorkout([]int{8, 13, 18}, 8, 20, 17)
	if !reflect.DeepEqual(got, []int{8, 13, 18}) {
		t.Errorf("ApplyPostWorkout with existing slot = %v, want unchanged", got)
	}

	// Training outside the feeding window: unchanged.
	got = ApplyPostWorkout([]int{8, 12, 16, 20}, 8, 20, 22)
	if !reflect.DeepEqual(got, []int{8, 12, 16, 20}) {
		t.Errorf("ApplyPostWorkout outside window = %v, want unchanged", got)
	}

	// Training at the window end clamps the target to end.
	got = ApplyPostWorkout([]int{8, 12, 16, 20}, 8, 20, 20)
	if !reflect.DeepEqual(got, []int{8, 12, 16, 20}) {
		t.Errorf("ApplyPostWorkout at window end = %v, want unchanged", got)
	}
}

func TestHydrationHoursMidpoints(t *testing.T) {
	// Meals at 8,12,16,20 -> midpoints 10,14,18.
	got := HydrationHours([]int{8, 12, 16, 20}, 8, 20)
	want := []int{10, 14, 18}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HydrationHours = %v, want %v", got, want)
	}
}

func TestHydrationHoursQuartileFallback(t *testing.T) {
	// Single meal: quarter points of [8,20] are 11, 14, 17.
	got := HydrationHours([]int{8}, 8, 20)
	want := []int{11, 14, 17}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HydrationHours fallback = %v, want %v", got, want)
	}
}

func TestHydrationHoursDiscardsCollisions(t *testing.T) {
	// Midpoint of 8 and 10 is 9; midpoint of 10 and 12 is 11. No collision.
	// Midpoint of adjacent hours collides with a meal: 8,9 -> 9 (meal), dropped.
	got := HydrationHours([]int{8, 9}, 8, 20)
	if len(got) != 0 {
		t.Errorf("HydrationHours with colliding midpoint = %v, want empty", got)
	}
}

func TestTrainingPingsClamped(t *testing.T) {
	pre, post := TrainingPings(18)
	if pre != 17 || post != 19 {
		t.Errorf("TrainingPings(18) = %d/%d, want 17/19", pre, post)
	}
	pre, post = TrainingPings(0)
	if pre != 0 || post != 1 {
		t.Errorf("TrainingPings(0) = %d/%d, want 0/1", pre, post)
	}
	pre, post = TrainingPings(23)
	if pre != 22 || post != 23 {
		t.Errorf("TrainingPings(23) = %d/%d, want 22/23", pre, post)
	}
}

func TestMutedWraparound(t *testing.T) {
	night := &models.HourWindow{Start: 22, End: 5}
	cases := []struct {
		hour int
		want bool
	}{
		{23, true},
		{0, true},
		{4, true},
		{5, false},
		{6, false},
		{21, false},
		{22, true},
	}
	for _, c := range cases {
		if got := Muted(night, c.hour); got != c.want {
			t.Errorf("Muted([22,5], %d) = %v, want %v", c.hour, got, c.want)
		}
	}

	day := &models.HourWindow{Start: 9, End: 18}
	if !Muted(day, 9) || Muted(day, 18) {
		t.Errorf("Muted([9,18]) boundary semantics wrong: start inclusive, end exclusive")
	}

	// Equal bounds mute everything.
	always := &models.HourWindow{Start: 7, End: 7}
	if !Muted(always, 0) || !Muted(always, 23) {
		t.Error("Muted([7,7]) should mute every hour")
	}

	if Muted(nil, 12) {
		t.Error("nil mute window must never mute")
	}
}
