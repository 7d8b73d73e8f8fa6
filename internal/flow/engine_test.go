package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MeteOShape/shapebot/internal/models"
	"github.com/MeteOShape/shapebot/internal/store"
)

const testUID = "5511999998888"

func testClock() time.Time {
	return time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *store.Guarded) {
	t.Helper()
	guarded := store.NewGuarded(store.NewInMemoryStore())
	opts = append([]Option{WithClock(testClock)}, opts...)
	return NewEngine(guarded, opts...), guarded
}

func send(t *testing.T, e *Engine, body string, media ...string) string {
	t.Helper()
	return e.HandleInbound(context.Background(), models.Inbound{
		Sender: "whatsapp:+5511999998888",
		WaID:   testUID,
		Body:   body,
		Media:  media,
	})
}

func getRecord(t *testing.T, g *store.Guarded) *models.UserRecord {
	t.Helper()
	var rec *models.UserRecord
	if err := g.View(func(doc store.Document) error {
		rec = doc[testUID]
		return nil
	}); err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if rec == nil {
		t.Fatalf("no record for %s", testUID)
	}
	return rec
}

// advanceToConfirm drives the flow from scratch to the confirmation step with
// the reference answers: male, 35-44, 170-179cm, 70-79kg, light activity,
// weight loss, no restrictions, no photos, training 17h, eating 8-20, no mute.
func advanceToConfirm(t *testing.T, e *Engine) {
	t.Helper()
	answers := []string{"oi", "Carlos", "1", "3", "3", "3", "2", "1", "1", "2", "17", "8-20", "nenhum"}
	for _, a := range answers {
		send(t, e, a)
	}
}

func TestStartRequiresGreeting(t *testing.T) {
	e, _ := newTestEngine(t)
	reply := send(t, e, "qualquer coisa")
	if reply != msgPressOi {
		t.Errorf("expected greeting hint, got %q", reply)
	}
}

func TestGreetingStartsFlow(t *testing.T) {
	e, g := newTestEngine(t)
	reply := send(t, e, "oi")
	if !strings.Contains(reply, "Bem-vindo ao Mete o Shape") {
		t.Errorf("welcome missing from reply: %q", reply)
	}
	if rec := getRecord(t, g); rec.Step != models.StepAskName {
		t.Errorf("step = %q, want ask_name", rec.Step)
	}
}

func TestPingIsAlwaysAvailable(t *testing.T) {
	e, _ := newTestEngine(t)
	for _, cmd := range []string{"ping", "status", "up"} {
		if reply := send(t, e, cmd); reply != msgOnline {
			t.Errorf("%s: got %q", cmd, reply)
		}
	}
}

func TestInvalidChoiceIsIdempotent(t *testing.T) {
	e, g := newTestEngine(t)
	send(t, e, "oi")
	send(t, e, "Carlos")
	before := getRecord(t, g)

	reply := send(t, e, "9")
	if reply != errSex {
		t.Errorf("expected sex re-prompt, got %q", reply)
	}
	after := getRecord(t, g)
	if after.Step != before.Step {
		t.Errorf("step changed on invalid input: %q -> %q", before.Step, after.Step)
	}
	if after.Profile.Sex != "" {
		t.Errorf("profile mutated on invalid input: %+v", after.Profile)
	}
}

func TestGreetingMidFlowDoesNotReset(t *testing.T) {
	e, g := newTestEngine(t)
	send(t, e, "oi")
	send(t, e, "Carlos")
	send(t, e, "1")

	reply := send(t, e, "bom dia")
	if reply != msgMidFlowHint {
		t.Errorf("expected mid-flow hint, got %q", reply)
	}
	rec := getRecord(t, g)
	if rec.Step != models.StepAskAge {
		t.Errorf("greeting reset progress, step = %q", rec.Step)
	}
	if rec.Profile.Sex != "Masculino" {
		t.Errorf("profile lost: %+v", rec.Profile)
	}
}

func TestResetClearsProfile(t *testing.T) {
	e, g := newTestEngine(t)
	send(t, e, "oi")
	send(t, e, "Carlos")
	send(t, e, "1")

	reply := send(t, e, "reiniciar")
	if reply != msgRestarted {
		t.Errorf("got %q", reply)
	}
	rec := getRecord(t, g)
	if rec.Step != models.StepStart {
		t.Errorf("step = %q after reset", rec.Step)
	}
	if rec.Profile.Name != "" || rec.Profile.Sex != "" {
		t.Errorf("profile not cleared: %+v", rec.Profile)
	}
}

func TestBracketChoiceStoresRangeAndEstimate(t *testing.T) {
	e, g := newTestEngine(t)
	send(t, e, "oi")
	send(t, e, "Carlos")
	send(t, e, "1") // sexo
	send(t, e, "3") // idade 35-44
	send(t, e, "3") // altura 170-179

	rec := getRecord(t, g)
	if rec.Profile.AgeRange != "35–44" || rec.Profile.AgeYearsOrDefault() != 39 {
		t.Errorf("age = %q / %d", rec.Profile.AgeRange, rec.Profile.AgeYearsOrDefault())
	}
	if rec.Profile.HeightRange != "170–179 cm" || rec.Profile.HeightCMOrDefault() != 175 {
		t.Errorf("height = %q / %v", rec.Profile.HeightRange, rec.Profile.HeightCMOrDefault())
	}
}

func TestExactAgeAccepted(t *testing.T) {
	e, g := newTestEngine(t)
	send(t, e, "oi")
	send(t, e, "Ana")
	send(t, e, "2")
	reply := send(t, e, "27")
	if !strings.Contains(reply, "Altura") {
		t.Errorf("exact age should advance to height, got %q", reply)
	}
	rec := getRecord(t, g)
	if !rec.Profile.AgeExact || rec.Profile.AgeYearsOrDefault() != 27 {
		t.Errorf("exact age not stored: %+v", rec.Profile)
	}
}

func TestRestrictionOtherDetour(t *testing.T) {
	e, g := newTestEngine(t)
	for _, a := range []string{"oi", "Carlos", "1", "3", "3", "3", "2", "1"} {
		send(t, e, a)
	}
	reply := send(t, e, "5")
	if reply != promptRestrictionNote {
		t.Errorf("expected note prompt, got %q", reply)
	}
	if reply := send(t, e, ""); reply != errRestrictionNote {
		t.Errorf("empty note should re-prompt, got %q", reply)
	}
	send(t, e, "alergia a ovos")
	rec := getRecord(t, g)
	if rec.Profile.Restriction != "Outras" || rec.Profile.RestrictionNote != "alergia a ovos" {
		t.Errorf("restriction = %q (%q)", rec.Profile.Restriction, rec.Profile.RestrictionNote)
	}
	if rec.Step != models.StepAskPhotos {
		t.Errorf("detour did not rejoin, step = %q", rec.Step)
	}
}

func TestPhotoCollection(t *testing.T) {
	e, g := newTestEngine(t)
	for _, a := range []string{"oi", "Carlos", "1", "3", "3", "3", "2", "1", "1"} {
		send(t, e, a)
	}
	send(t, e, "1") // quero enviar

	if reply := send(t, e, "sem anexo"); reply != errPhotosMedia {
		t.Errorf("text without media should re-prompt, got %q", reply)
	}
	send(t, e, "", "url1", "url2", "url3", "url4")
	rec := getRecord(t, g)
	if len(rec.Profile.PhotoRefs) != models.MaxPhotoRefs {
		t.Errorf("photo refs = %d, want %d", len(rec.Profile.PhotoRefs), models.MaxPhotoRefs)
	}
	if rec.Step != models.StepAskTraining {
		t.Errorf("step = %q", rec.Step)
	}
}

func TestPhotoSkip(t *testing.T) {
	e, g := newTestEngine(t)
	for _, a := range []string{"oi", "Carlos", "1", "3", "3", "3", "2", "1", "1", "1"} {
		send(t, e, a)
	}
	send(t, e, "pular")
	rec := getRecord(t, g)
	if rec.Step != models.StepAskTraining || len(rec.Profile.PhotoRefs) != 0 {
		t.Errorf("skip failed: step=%q photos=%d", rec.Step, len(rec.Profile.PhotoRefs))
	}
}

func TestTrainingUnparseableFallsBack(t *testing.T) {
	e, g := newTestEngine(t)
	for _, a := range []string{"oi", "Carlos", "1", "3", "3", "3", "2", "1", "1", "2"} {
		send(t, e, a)
	}
	reply := send(t, e, "de vez em quando")
	if !strings.Contains(reply, "Janela alimentar") {
		t.Errorf("unparseable training hour should advance, got %q", reply)
	}
	if rec := getRecord(t, g); rec.Profile.TrainingHour != nil {
		t.Errorf("training hour should be unset, got %d", *rec.Profile.TrainingHour)
	}
}

func TestEatWindowMalformedReprompts(t *testing.T) {
	e, g := newTestEngine(t)
	for _, a := range []string{"oi", "Carlos", "1", "3", "3", "3", "2", "1", "1", "2", "18"} {
		send(t, e, a)
	}
	if reply := send(t, e, "vinte as oito"); reply != errEatWindow {
		t.Errorf("malformed window should re-prompt, got %q", reply)
	}
	if reply := send(t, e, "20-8"); reply != errEatWindow {
		t.Errorf("inverted window should re-prompt, got %q", reply)
	}
	send(t, e, "8–20")
	rec := getRecord(t, g)
	start, end := rec.Profile.EatWindowOrDefault()
	if start != 8 || end != 20 {
		t.Errorf("eat window = [%d,%d]", start, end)
	}
}

func TestMuteWindowWrapsStored(t *testing.T) {
	e, g := newTestEngine(t)
	for _, a := range []string{"oi", "Carlos", "1", "3", "3", "3", "2", "1", "1", "2", "18", "8-20"} {
		send(t, e, a)
	}
	reply := send(t, e, "22-6")
	if !strings.Contains(reply, "Resumo rápido") {
		t.Errorf("expected summary, got %q", reply)
	}
	rec := getRecord(t, g)
	if rec.Profile.Mute == nil || rec.Profile.Mute.Start != 22 || rec.Profile.Mute.End != 6 {
		t.Errorf("mute = %+v", rec.Profile.Mute)
	}
}

func TestConfirmRestart(t *testing.T) {
	e, g := newTestEngine(t)
	advanceToConfirm(t, e)
	if reply := send(t, e, "2"); reply != msgRestarted {
		t.Errorf("got %q", reply)
	}
	if rec := getRecord(t, g); rec.Step != models.StepStart {
		t.Errorf("step = %q", rec.Step)
	}
}

func TestEndToEndPlan(t *testing.T) {
	e, g := newTestEngine(t)
	advanceToConfirm(t, e)

	results := send(t, e, "1")
	for _, want := range []string{"TMB: 1654", "TDEE (atividade): 2315", "Calorias meta (Emagrecimento): 1970", "P 150 g | C 219 g | G 55 g"} {
		if !strings.Contains(results, want) {
			t.Errorf("results missing %q:\n%s", want, results)
		}
	}

	final := send(t, e, "2") // 4 refeições
	for _, want := range []string{
		"Plano Inicial",
		"Calorias: 1970 kcal/dia",
		"Ref 4:",
		"Cardápio exemplo",
		"Hidratação*: ~2.8 L/dia",
		"Treino (ABC sugerido)",
		"check-in semanal",
	} {
		if !strings.Contains(final, want) {
			t.Errorf("final plan missing %q:\n%s", want, final)
		}
	}

	rec := getRecord(t, g)
	if rec.Step != models.StepDone {
		t.Errorf("step = %q", rec.Step)
	}
	if !rec.Schedule.Enabled {
		t.Error("schedule should be enabled at completion")
	}
	plan := rec.Profile.Plan
	if plan == nil || plan.Calories != 1970 {
		t.Fatalf("plan = %+v", plan)
	}
	sum := 0
	for _, v := range plan.KcalSplit {
		sum += v
	}
	if sum != plan.Calories {
		t.Errorf("kcal split sums to %d, want %d", sum, plan.Calories)
	}
}

func TestPauseAndResume(t *testing.T) {
	e, g := newTestEngine(t)
	advanceToConfirm(t, e)
	send(t, e, "1")
	send(t, e, "2")

	if reply := send(t, e, "pausar"); reply != msgPaused {
		t.Errorf("got %q", reply)
	}
	if rec := getRecord(t, g); rec.Schedule.Enabled {
		t.Error("schedule still enabled after pausar")
	}
	if reply := send(t, e, "ativar"); reply != msgResumed {
		t.Errorf("got %q", reply)
	}
	if rec := getRecord(t, g); !rec.Schedule.Enabled {
		t.Error("schedule still disabled after ativar")
	}
}

type stubAsker struct {
	answer  string
	err     error
	lastQ   string
	lastCtx string
}

func (s *stubAsker) Ask(ctx context.Context, question, profileContext string) (string, error) {
	s.lastQ = question
	s.lastCtx = profileContext
	return s.answer, s.err
}

func TestDoneForwardsToQA(t *testing.T) {
	asker := &stubAsker{answer: "Pode trocar arroz por batata doce."}
	e, _ := newTestEngine(t, WithAsker(asker))
	advanceToConfirm(t, e)
	send(t, e, "1")
	send(t, e, "2")

	reply := send(t, e, "Posso trocar arroz por batata?")
	if reply != asker.answer {
		t.Errorf("got %q", reply)
	}
	if asker.lastQ != "Posso trocar arroz por batata?" {
		t.Errorf("question forwarded as %q", asker.lastQ)
	}
	if !strings.Contains(asker.lastCtx, "1970 kcal") {
		t.Errorf("profile context missing plan: %q", asker.lastCtx)
	}
}

func TestDoneQAFailureFallsBack(t *testing.T) {
	asker := &stubAsker{err: errors.New("api down")}
	e, _ := newTestEngine(t, WithAsker(asker))
	advanceToConfirm(t, e)
	send(t, e, "1")
	send(t, e, "2")

	if reply := send(t, e, "alguma dica?"); reply != msgDoneMenu {
		t.Errorf("got %q", reply)
	}
}

func TestDoneWithoutAskerShowsMenu(t *testing.T) {
	e, _ := newTestEngine(t)
	advanceToConfirm(t, e)
	send(t, e, "1")
	send(t, e, "2")

	if reply := send(t, e, "alguma dica?"); reply != msgDoneMenu {
		t.Errorf("got %q", reply)
	}
}

func TestUnknownStepFallsBack(t *testing.T) {
	e, g := newTestEngine(t)
	send(t, e, "oi")
	if err := g.Update(func(doc store.Document) error {
		doc[testUID].Step = models.Step("weird")
		return nil
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if reply := send(t, e, "qualquer coisa"); reply != msgFallback {
		t.Errorf("got %q", reply)
	}
	if rec := getRecord(t, g); rec.Step != models.Step("weird") {
		t.Errorf("unknown step mutated to %q", rec.Step)
	}
}

func TestLastDestinationRecorded(t *testing.T) {
	e, g := newTestEngine(t)
	send(t, e, "oi")
	if rec := getRecord(t, g); rec.LastDestination != "whatsapp:+5511999998888" {
		t.Errorf("last destination = %q", rec.LastDestination)
	}
}
