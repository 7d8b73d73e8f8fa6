// Package models defines the core data structures for ShapeBot.
//
// It includes the per-user conversation record, the anamnesis profile, and the
// reminder schedule, which are shared across modules.
package models

import (
	"errors"
	"time"
)

// Step identifies the user's current position in the anamnesis conversation.
type Step string

const (
	// StepStart is the initial state; only a greeting advances the flow.
	StepStart Step = "start"
	// StepAskName collects the user's preferred name (free text).
	StepAskName Step = "ask_name"
	// StepAskSex asks Q1, biological sex (closed choice).
	StepAskSex Step = "ask_sex"
	// StepAskAge asks Q2, age bracket or exact age.
	StepAskAge Step = "ask_age"
	// StepAskHeight asks Q3, height bracket.
	StepAskHeight Step = "ask_height"
	// StepAskWeight asks Q4, weight bracket.
	StepAskWeight Step = "ask_weight"
	// StepAskActivity asks Q5, physical activity level.
	StepAskActivity Step = "ask_activity"
	// StepAskObjective asks Q6, main objective.
	StepAskObjective Step = "ask_objective"
	// StepAskRestriction asks Q7, dietary restrictions.
	StepAskRestriction Step = "ask_restriction"
	// StepAskRestrictionNote is the free-text detour taken when Q7 answer is "Outras".
	StepAskRestrictionNote Step = "ask_restriction_note"
	// StepAskPhotos asks Q8, whether the user wants to send physique photos.
	StepAskPhotos Step = "ask_photos"
	// StepCollectPhotos waits for 1-3 media attachments or a skip keyword.
	StepCollectPhotos Step = "collect_photos"
	// StepAskTraining asks Q9, the usual training hour (or none).
	StepAskTraining Step = "ask_training"
	// StepAskEatWindow asks Q10, the daily feeding window as "HH–HH".
	StepAskEatWindow Step = "ask_eat_window"
	// StepAskMuteWindow asks Q11, the quiet hours window (may wrap midnight).
	StepAskMuteWindow Step = "ask_mute_window"
	// StepConfirm presents the collected summary for confirmation or restart.
	StepConfirm Step = "confirm"
	// StepAskMeals asks Q12, how many meals per day, after initial results.
	StepAskMeals Step = "ask_meals"
	// StepDone is the terminal state; reminders are active and free-text
	// questions are forwarded to the Q&A collaborator.
	StepDone Step = "done"
)

// allSteps enumerates every defined step for validation.
var allSteps = map[Step]bool{
	StepStart: true, StepAskName: true, StepAskSex: true, StepAskAge: true,
	StepAskHeight: true, StepAskWeight: true, StepAskActivity: true,
	StepAskObjective: true, StepAskRestriction: true, StepAskRestrictionNote: true,
	StepAskPhotos: true, StepCollectPhotos: true, StepAskTraining: true,
	StepAskEatWindow: true, StepAskMuteWindow: true, StepConfirm: true,
	StepAskMeals: true, StepDone: true,
}

// IsValid reports whether s is a defined conversation step.
func (s Step) IsValid() bool { return allSteps[s] }

// InProgress reports whether s is strictly between the initial and terminal
// states, i.e. the user is mid-questionnaire.
func (s Step) InProgress() bool {
	return s.IsValid() && s != StepStart && s != StepDone
}

// MaxPhotoRefs caps how many physique photo references are stored per user.
const MaxPhotoRefs = 3

// Error variables shared across modules.
var (
	ErrEmptyRecipient = errors.New("recipient cannot be empty")
	ErrEmptyBody      = errors.New("message body cannot be empty")
)

// HourWindow is an hour-of-day range. For mute windows the range may wrap
// past midnight (Start > End). Contains implements the wraparound rules:
// Start < End covers [Start, End); Start > End covers h >= Start or h < End;
// Start == End covers every hour.
type HourWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether the given hour falls inside the window.
func (w HourWindow) Contains(hour int) bool {
	switch {
	case w.Start < w.End:
		return hour >= w.Start && hour < w.End
	case w.Start > w.End:
		return hour >= w.Start || hour < w.End
	default:
		return true
	}
}

// WaterPlan holds the daily hydration target and its time-of-day split.
type WaterPlan struct {
	TotalML    int     `json:"total_ml"`
	Liters     float64 `json:"liters"`
	MorningL   float64 `json:"morning_l"`
	AfternoonL float64 `json:"afternoon_l"`
	EveningL   float64 `json:"evening_l"`
}

// NutritionPlan holds the computed results of the anamnesis: energy targets,
// macro grams, and per-meal splits. Populated by the conversation flow at the
// calculation transition; read-only afterwards.
type NutritionPlan struct {
	BMR          int        `json:"bmr"`
	TDEE         int        `json:"tdee"`
	Calories     int        `json:"calories"`
	ProteinG     int        `json:"protein_g"`
	CarbG        int        `json:"carb_g"`
	FatG         int        `json:"fat_g"`
	KcalSplit    []int      `json:"kcal_split,omitempty"`
	ProteinSplit []int      `json:"protein_split,omitempty"`
	CarbSplit    []int      `json:"carb_split,omitempty"`
	FatSplit     []int      `json:"fat_split,omitempty"`
	Water        *WaterPlan `json:"water,omitempty"`
}

// Profile holds everything collected during the anamnesis. Optional numeric
// fields are pointers; readers must go through the *OrDefault accessors so
// that every consumer resolves missing data to the same defaults.
type Profile struct {
	Name            string      `json:"name,omitempty"`
	Sex             string      `json:"sex,omitempty"`
	AgeRange        string      `json:"age_range,omitempty"`
	AgeYears        *int        `json:"age_years,omitempty"`
	AgeExact        bool        `json:"age_exact,omitempty"`
	HeightRange     string      `json:"height_range,omitempty"`
	HeightCM        *float64    `json:"height_cm,omitempty"`
	WeightRange     string      `json:"weight_range,omitempty"`
	WeightKG        *float64    `json:"weight_kg,omitempty"`
	Activity        string      `json:"activity,omitempty"`
	Objective       string      `json:"objective,omitempty"`
	Restriction     string      `json:"restriction,omitempty"`
	RestrictionNote string      `json:"restriction_note,omitempty"`
	PhotoRefs       []string    `json:"photo_refs,omitempty"`
	TrainingHour    *int        `json:"training_hour,omitempty"`
	EatStart        *int        `json:"eat_start,omitempty"`
	EatEnd          *int        `json:"eat_end,omitempty"`
	Mute            *HourWindow `json:"mute,omitempty"`
	MealCount       int         `json:"meal_count,omitempty"`

	Plan *NutritionPlan `json:"plan,omitempty"`
}

// Default values used by the calculator and planner when a profile field was
// never collected (e.g. records persisted by an older questionnaire revision).
const (
	DefaultSex       = "Masculino"
	DefaultAgeYears  = 30
	DefaultWeightKG  = 75.0
	DefaultHeightCM  = 175.0
	DefaultActivity  = "Leve"
	DefaultObjective = "Manutenção"
	DefaultEatStart  = 8
	DefaultEatEnd    = 20
	DefaultMealCount = 4
)

// SexOrDefault resolves the stored sex, defaulting to DefaultSex.
func (p *Profile) SexOrDefault() string {
	if p.Sex == "" {
		return DefaultSex
	}
	return p.Sex
}

// AgeYearsOrDefault resolves the age estimate, defaulting to DefaultAgeYears.
func (p *Profile) AgeYearsOrDefault() int {
	if p.AgeYears == nil {
		return DefaultAgeYears
	}
	return *p.AgeYears
}

// WeightKGOrDefault resolves the weight estimate, defaulting to DefaultWeightKG.
func (p *Profile) WeightKGOrDefault() float64 {
	if p.WeightKG == nil {
		return DefaultWeightKG
	}
	return *p.WeightKG
}

// HeightCMOrDefault resolves the height estimate, defaulting to DefaultHeightCM.
func (p *Profile) HeightCMOrDefault() float64 {
	if p.HeightCM == nil {
		return DefaultHeightCM
	}
	return *p.HeightCM
}

// ActivityOrDefault resolves the activity category, defaulting to DefaultActivity.
func (p *Profile) ActivityOrDefault() string {
	if p.Activity == "" {
		return DefaultActivity
	}
	return p.Activity
}

// ObjectiveOrDefault resolves the objective, defaulting to DefaultObjective.
func (p *Profile) ObjectiveOrDefault() string {
	if p.Objective == "" {
		return DefaultObjective
	}
	return p.Objective
}

// EatWindowOrDefault resolves the feeding window, defaulting to
// [DefaultEatStart, DefaultEatEnd].
func (p *Profile) EatWindowOrDefault() (start, end int) {
	start, end = DefaultEatStart, DefaultEatEnd
	if p.EatStart != nil {
		start = *p.EatStart
	}
	if p.EatEnd != nil {
		end = *p.EatEnd
	}
	return start, end
}

// MealCountOrDefault resolves the meal count, defaulting to DefaultMealCount.
func (p *Profile) MealCountOrDefault() int {
	if p.MealCount <= 0 {
		return DefaultMealCount
	}
	return p.MealCount
}

// Schedule tracks reminder delivery state for one user. Last maps a slot key
// (category plus hour) to the "YYYY-MM-DD@HH" stamp of the most recent send;
// a matching stamp blocks re-sending that slot within the same day and hour.
type Schedule struct {
	Enabled bool              `json:"enabled"`
	Last    map[string]string `json:"last"`
}

// UserRecord is the whole conversational state for one sender identity.
type UserRecord struct {
	Step            Step      `json:"step"`
	Profile         Profile   `json:"profile"`
	Schedule        Schedule  `json:"schedule"`
	LastDestination string    `json:"last_destination,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewUserRecord creates a fresh record at the initial step.
func NewUserRecord(now time.Time) *UserRecord {
	return &UserRecord{
		Step:      StepStart,
		Schedule:  Schedule{Last: make(map[string]string)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reset returns the record to the initial step, clearing the profile and all
// reminder markers in place. The record itself is never deleted.
func (u *UserRecord) Reset(now time.Time) {
	u.Step = StepStart
	u.Profile = Profile{}
	u.Schedule = Schedule{Last: make(map[string]string)}
	u.UpdatedAt = now
}

// Inbound is one incoming conversational event from the transport adapter.
type Inbound struct {
	Sender string   `json:"sender"`
	WaID   string   `json:"wa_id,omitempty"`
	Body   string   `json:"body"`
	Media  []string `json:"media,omitempty"`
}
