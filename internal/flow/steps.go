package flow

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/MeteOShape/shapebot/internal/models"
	"github.com/MeteOShape/shapebot/internal/nutrition"
)

// input is one normalized inbound event handed to step handlers. Text is the
// lowercased trimmed body used for token matching; Raw preserves the user's
// casing for free-text answers.
type input struct {
	Raw   string
	Text  string
	Media []string
}

// stepHandler advances (or re-prompts) one conversation step. Handlers mutate
// rec in place; the engine persists the record after the handler returns.
type stepHandler func(e *Engine, ctx context.Context, rec *models.UserRecord, in input) string

// handlers is the transition table: every defined step has exactly one
// handler. Unknown steps never reach this table; the engine falls back first.
var handlers = map[models.Step]stepHandler{
	models.StepStart:              (*Engine).handleStart,
	models.StepAskName:            (*Engine).handleAskName,
	models.StepAskSex:             (*Engine).handleAskSex,
	models.StepAskAge:             (*Engine).handleAskAge,
	models.StepAskHeight:          (*Engine).handleAskHeight,
	models.StepAskWeight:          (*Engine).handleAskWeight,
	models.StepAskActivity:        (*Engine).handleAskActivity,
	models.StepAskObjective:       (*Engine).handleAskObjective,
	models.StepAskRestriction:     (*Engine).handleAskRestriction,
	models.StepAskRestrictionNote: (*Engine).handleAskRestrictionNote,
	models.StepAskPhotos:          (*Engine).handleAskPhotos,
	models.StepCollectPhotos:      (*Engine).handleCollectPhotos,
	models.StepAskTraining:        (*Engine).handleAskTraining,
	models.StepAskEatWindow:       (*Engine).handleAskEatWindow,
	models.StepAskMuteWindow:      (*Engine).handleAskMuteWindow,
	models.StepConfirm:            (*Engine).handleConfirm,
	models.StepAskMeals:           (*Engine).handleAskMeals,
	models.StepDone:               (*Engine).handleDone,
}

// Token sets recognized independently of the current step.
var (
	startWords = map[string]bool{
		"oi": true, "ola": true, "olá": true,
		"bom dia": true, "boa tarde": true, "boa noite": true,
	}
	resetWords = map[string]bool{
		"reiniciar": true, "reset": true, "recomeçar": true, "recomecar": true,
	}
	skipWords = map[string]bool{
		"pular": true, "pula": true, "skip": true,
	}
	noneWords = map[string]bool{
		"nenhum": true, "nenhuma": true, "não": true, "nao": true, "n": true,
	}
)

const (
	minExactAge = 14
	maxExactAge = 99
	maxNameLen  = 60
)

func (e *Engine) handleStart(ctx context.Context, rec *models.UserRecord, in input) string {
	if !startWords[in.Text] {
		return msgPressOi
	}
	rec.Profile = models.Profile{}
	rec.Step = models.StepAskName
	return promptWelcome
}

func (e *Engine) handleAskName(ctx context.Context, rec *models.UserRecord, in input) string {
	name := strings.TrimSpace(in.Raw)
	if name == "" {
		return errName
	}
	if len([]rune(name)) > maxNameLen {
		name = string([]rune(name)[:maxNameLen])
	}
	rec.Profile.Name = name
	rec.Step = models.StepAskSex
	return "Prazer, " + name + "! 💪\n\n" + promptSex
}

func (e *Engine) handleAskSex(ctx context.Context, rec *models.UserRecord, in input) string {
	switch in.Text {
	case "1":
		rec.Profile.Sex = "Masculino"
	case "2":
		rec.Profile.Sex = "Feminino"
	default:
		return errSex
	}
	rec.Step = models.StepAskAge
	return promptAge
}

func (e *Engine) handleAskAge(ctx context.Context, rec *models.UserRecord, in input) string {
	if b, ok := nutrition.AgeBrackets[in.Text]; ok {
		age := int(b.Mid)
		rec.Profile.AgeRange = b.Label
		rec.Profile.AgeYears = &age
		rec.Profile.AgeExact = false
	} else if age, ok := parseExactAge(in.Text); ok {
		rec.Profile.AgeRange = strconv.Itoa(age)
		rec.Profile.AgeYears = &age
		rec.Profile.AgeExact = true
	} else {
		return errAge
	}
	rec.Step = models.StepAskHeight
	return promptHeight
}

func (e *Engine) handleAskHeight(ctx context.Context, rec *models.UserRecord, in input) string {
	b, ok := nutrition.HeightBrackets[in.Text]
	if !ok {
		return errHeight
	}
	rec.Profile.HeightRange = b.Label
	rec.Profile.HeightCM = &b.Mid
	rec.Step = models.StepAskWeight
	return promptWeight
}

func (e *Engine) handleAskWeight(ctx context.Context, rec *models.UserRecord, in input) string {
	b, ok := nutrition.WeightBrackets[in.Text]
	if !ok {
		return errWeight
	}
	rec.Profile.WeightRange = b.Label
	rec.Profile.WeightKG = &b.Mid
	rec.Step = models.StepAskActivity
	return promptActivity
}

func (e *Engine) handleAskActivity(ctx context.Context, rec *models.UserRecord, in input) string {
	activity, ok := nutrition.ActivityByChoice[in.Text]
	if !ok {
		return errActivity
	}
	rec.Profile.Activity = activity
	rec.Step = models.StepAskObjective
	return promptObjective
}

func (e *Engine) handleAskObjective(ctx context.Context, rec *models.UserRecord, in input) string {
	objective, ok := nutrition.ObjectiveByChoice[in.Text]
	if !ok {
		return errObjective
	}
	rec.Profile.Objective = objective
	rec.Step = models.StepAskRestriction
	return promptRestriction
}

func (e *Engine) handleAskRestriction(ctx context.Context, rec *models.UserRecord, in input) string {
	restriction, ok := nutrition.RestrictionByChoice[in.Text]
	if !ok {
		return errRestriction
	}
	rec.Profile.Restriction = restriction
	if in.Text == "5" {
		rec.Step = models.StepAskRestrictionNote
		return promptRestrictionNote
	}
	rec.Step = models.StepAskPhotos
	return promptPhotos
}

func (e *Engine) handleAskRestrictionNote(ctx context.Context, rec *models.UserRecord, in input) string {
	note := strings.TrimSpace(in.Raw)
	if note == "" {
		return errRestrictionNote
	}
	rec.Profile.RestrictionNote = note
	rec.Step = models.StepAskPhotos
	return promptPhotos
}

func (e *Engine) handleAskPhotos(ctx context.Context, rec *models.UserRecord, in input) string {
	switch in.Text {
	case "1":
		rec.Step = models.StepCollectPhotos
		return promptCollectPhotos
	case "2":
		rec.Step = models.StepAskTraining
		return promptTraining
	default:
		return errPhotosChoice
	}
}

func (e *Engine) handleCollectPhotos(ctx context.Context, rec *models.UserRecord, in input) string {
	if len(in.Media) > 0 {
		for _, ref := range in.Media {
			if len(rec.Profile.PhotoRefs) >= models.MaxPhotoRefs {
				break
			}
			rec.Profile.PhotoRefs = append(rec.Profile.PhotoRefs, ref)
		}
		rec.Step = models.StepAskTraining
		return "📸 Fotos recebidas! Vamos seguir.\n\n" + promptTraining
	}
	if skipWords[in.Text] {
		rec.Step = models.StepAskTraining
		return promptTraining
	}
	return errPhotosMedia
}

func (e *Engine) handleAskTraining(ctx context.Context, rec *models.UserRecord, in input) string {
	// Unparseable input falls back to "no fixed hour" and the flow advances.
	if hour, ok := parseHour(in.Text); ok && !noneWords[in.Text] {
		rec.Profile.TrainingHour = &hour
	} else {
		rec.Profile.TrainingHour = nil
	}
	rec.Step = models.StepAskEatWindow
	return promptEatWindow
}

func (e *Engine) handleAskEatWindow(ctx context.Context, rec *models.UserRecord, in input) string {
	start, end, ok := parseHourPair(in.Text)
	if !ok || start > end {
		return errEatWindow
	}
	rec.Profile.EatStart = &start
	rec.Profile.EatEnd = &end
	rec.Step = models.StepAskMuteWindow
	return promptMuteWindow
}

func (e *Engine) handleAskMuteWindow(ctx context.Context, rec *models.UserRecord, in input) string {
	if noneWords[in.Text] {
		rec.Profile.Mute = nil
	} else {
		start, end, ok := parseHourPair(in.Text)
		if !ok {
			return errMuteWindow
		}
		rec.Profile.Mute = &models.HourWindow{Start: start, End: end}
	}
	rec.Step = models.StepConfirm
	return renderSummary(&rec.Profile)
}

func (e *Engine) handleConfirm(ctx context.Context, rec *models.UserRecord, in input) string {
	switch in.Text {
	case "2":
		rec.Reset(e.now())
		return msgRestarted
	case "1":
	default:
		return errConfirm
	}

	p := &rec.Profile
	bmr := nutrition.BMR(p.SexOrDefault(), p.WeightKGOrDefault(), p.HeightCMOrDefault(), p.AgeYearsOrDefault())
	tdee := nutrition.TDEE(bmr, p.ActivityOrDefault())
	calories := nutrition.TargetCalories(tdee, p.ObjectiveOrDefault())
	proteinG, carbG, fatG := nutrition.Macros(p.WeightKGOrDefault(), calories)

	p.Plan = &models.NutritionPlan{
		BMR:      int(math.Round(bmr)),
		TDEE:     int(math.Round(tdee)),
		Calories: calories,
		ProteinG: proteinG,
		CarbG:    carbG,
		FatG:     fatG,
	}
	rec.Step = models.StepAskMeals
	return renderResults(p)
}

func (e *Engine) handleAskMeals(ctx context.Context, rec *models.UserRecord, in input) string {
	meals, ok := nutrition.MealCountByChoice[in.Text]
	if !ok {
		return errMeals
	}
	p := &rec.Profile
	p.MealCount = meals

	plan := p.Plan
	plan.KcalSplit = nutrition.SplitByMeals(plan.Calories, meals)
	plan.ProteinSplit = nutrition.SplitByMeals(plan.ProteinG, meals)
	plan.CarbSplit = nutrition.SplitByMeals(plan.CarbG, meals)
	plan.FatSplit = nutrition.SplitByMeals(plan.FatG, meals)

	totalML := nutrition.WaterTargetML(p.WeightKGOrDefault())
	liters := nutrition.WaterLiters(totalML)
	morning, afternoon, evening := nutrition.WaterSplit(liters)
	plan.Water = &models.WaterPlan{
		TotalML:    totalML,
		Liters:     liters,
		MorningL:   morning,
		AfternoonL: afternoon,
		EveningL:   evening,
	}

	rec.Schedule.Enabled = true
	if rec.Schedule.Last == nil {
		rec.Schedule.Last = make(map[string]string)
	}
	rec.Step = models.StepDone
	return renderFinalPlan(p)
}

func (e *Engine) handleDone(ctx context.Context, rec *models.UserRecord, in input) string {
	switch in.Text {
	case "pausar":
		rec.Schedule.Enabled = false
		return msgPaused
	case "ativar":
		rec.Schedule.Enabled = true
		return msgResumed
	}
	if in.Raw != "" && e.qa != nil {
		answer, err := e.qa.Ask(ctx, in.Raw, profileContext(&rec.Profile))
		if err == nil && answer != "" {
			return answer
		}
	}
	return msgDoneMenu
}

// parseExactAge accepts a bare integer age inside the plausible band.
func parseExactAge(text string) (int, bool) {
	age, err := strconv.Atoi(text)
	if err != nil || age < minExactAge || age > maxExactAge {
		return 0, false
	}
	return age, true
}

// parseHour accepts a bare hour of day, tolerating an "h" suffix ("18h").
func parseHour(text string) (int, bool) {
	text = strings.TrimSuffix(strings.TrimSpace(text), "h")
	hour, err := strconv.Atoi(text)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}

// parseHourPair extracts two hours from an "HH–HH" style answer. Any
// non-digit run separates the two numbers, so "8-20", "8–20", "8 as 20" and
// "das 8 às 20" all parse.
func parseHourPair(text string) (start, end int, ok bool) {
	var runs []string
	var cur strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			cur.WriteRune(r)
		} else if cur.Len() > 0 {
			runs = append(runs, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		runs = append(runs, cur.String())
	}
	if len(runs) != 2 {
		return 0, 0, false
	}
	a, err1 := strconv.Atoi(runs[0])
	b, err2 := strconv.Atoi(runs[1])
	if err1 != nil || err2 != nil || a < 0 || a > 23 || b < 0 || b > 23 {
		return 0, 0, false
	}
	return a, b, true
}
