package flow

import (
	"fmt"
	"strings"

	"github.com/MeteOShape/shapebot/internal/models"
	"github.com/MeteOShape/shapebot/internal/nutrition"
)

// User-facing copy. All texts are Portuguese, in the product's voice.
const (
	msgPressOi = "👋 Digite **oi** para iniciar."

	msgOnline = "✅ Online. Digite **oi** para iniciar sua anamnese."

	msgRestarted = "🔁 Reiniciado. Digite **oi** para começar."

	msgMidFlowHint = "ℹ️ Estamos no processo. Para recomeçar: **reiniciar**."

	msgFallback = "❓ Não entendi. Digite **oi** para iniciar ou **reiniciar** para recomeçar."

	msgEmptyFallback = "⚠️ Não entendi. Digite **oi** para iniciar ou **reiniciar** para recomeçar."

	msgApology = "⚠️ Tive um erro aqui. Mande **reiniciar** ou **oi** para seguir."

	msgPaused = "⏸️ Lembretes pausados. Envie *ATIVAR* para reativar."

	msgResumed = "▶️ Lembretes reativados. Você receberá mensagens ao longo do dia."

	msgDoneMenu = "✅ Fluxo concluído.\n" +
		"• *reiniciar* para recomeçar\n" +
		"• *pausar* ou *ativar* lembretes\n" +
		"• *status* para checar online"

	msgQAFallback = "🤖 No momento não consigo responder perguntas livres. " +
		"Use *reiniciar*, *pausar* ou *ativar*."
)

const (
	promptWelcome = "👋 *Bem-vindo ao Mete o Shape* 🚀\n" +
		"Acompanhamento completo de nutrição, treino e motivação.\n" +
		"Vamos começar com perguntas rápidas pra montar seu plano.\n\n" +
		"**Q1. Como posso te chamar?**\n_Digite seu nome ou apelido._"

	promptSex = "**Q2. Sexo**\n" +
		"1️⃣ Masculino\n2️⃣ Feminino\n_Responda 1–2._"

	promptAge = "**Q3. Idade (faixa)**\n" +
		"1️⃣ 16–24\n2️⃣ 25–34\n3️⃣ 35–44\n4️⃣ 45–54\n5️⃣ 55–64\n6️⃣ 65+\n" +
		"_Responda 1–6 (ou digite sua idade exata)._"

	promptHeight = "**Q4. Altura (faixa)**\n" +
		"1️⃣ <1,60 m\n2️⃣ 1,60–1,69 m\n3️⃣ 1,70–1,79 m\n4️⃣ 1,80–1,89 m\n5️⃣ ≥1,90 m\n_Responda 1–5._"

	promptWeight = "**Q5. Peso atual (faixa, kg)**\n" +
		"1️⃣ <60\n2️⃣ 60–69\n3️⃣ 70–79\n4️⃣ 80–89\n5️⃣ 90–99\n6️⃣ 100+\n_Responda 1–6._"

	promptActivity = "**Q6. Nível de atividade física**\n" +
		"1️⃣ Sedentário (0–1x/sem)\n2️⃣ Leve (2–3x/sem)\n3️⃣ Moderado (3–4x/sem)\n4️⃣ Intenso (5–6x/sem)\n_Responda 1–4._"

	promptObjective = "**Q7. Objetivo principal**\n" +
		"1️⃣ Emagrecimento\n2️⃣ Definição/Manutenção\n3️⃣ Ganho de massa\n_Responda 1–3._"

	promptRestriction = "**Q8. Restrições/observações**\n" +
		"1️⃣ Sem restrições\n2️⃣ Intolerância à lactose\n3️⃣ Vegetariano\n4️⃣ Low-carb\n5️⃣ Outras\n_Responda 1–5._"

	promptRestrictionNote = "✍️ Digite sua observação em uma frase curta (ex.: alergia a ovos)."

	promptPhotos = "**Q9. Quer enviar fotos do físico?**\n" +
		"Ajudam no acompanhamento (frente, lado, costas).\n" +
		"1️⃣ Sim, vou enviar\n2️⃣ Agora não\n_Responda 1–2._"

	promptCollectPhotos = "📸 Envie até 3 fotos nesta conversa (frente, lado, costas) " +
		"ou digite *pular* para seguir."

	promptTraining = "**Q10. Que horas você costuma treinar?**\n" +
		"_Digite a hora (0–23, ex.: 18) ou *nenhum* se não treina em horário fixo._"

	promptEatWindow = "**Q11. Janela alimentar**\n" +
		"Das que horas às que horas você costuma comer?\n" +
		"_Formato HH–HH, ex.: 8–20._"

	promptMuteWindow = "**Q12. Horário de silêncio**\n" +
		"Em que janela NÃO quer receber mensagens? Pode cruzar a meia-noite.\n" +
		"_Formato HH–HH (ex.: 22–6) ou *nenhum*._"

	promptMeals = "**Q13. Quantas refeições por dia você prefere?**\n" +
		"1️⃣ 3\n2️⃣ 4\n3️⃣ 5\n4️⃣ 6+\n_Responda 1–4._"
)

// Re-prompt error texts. Each leaves the step unchanged.
const (
	errName            = "❗ Escreva seu nome (texto)."
	errSex             = "❗ Responda **1** (Masculino) ou **2** (Feminino)."
	errAge             = "❗ Idade: responda **1–6** ou digite sua idade exata (14–99)."
	errHeight          = "❗ Altura: responda **1–5**."
	errWeight          = "❗ Peso: responda **1–6**."
	errActivity        = "❗ Atividade: responda **1–4**."
	errObjective       = "❗ Objetivo: responda **1–3**."
	errRestriction     = "❗ Responda **1–5**."
	errRestrictionNote = "❗ Escreva uma observação curta (texto)."
	errPhotosChoice    = "❗ Responda **1** (vou enviar) ou **2** (agora não)."
	errPhotosMedia     = "❗ Envie as fotos como anexo ou digite *pular*."
	errEatWindow       = "❗ Janela alimentar: use o formato **HH–HH** com início ≤ fim (ex.: 8–20)."
	errMuteWindow      = "❗ Horário de silêncio: use o formato **HH–HH** (ex.: 22–6) ou *nenhum*."
	errConfirm         = "❗ Responda **1** para Confirmar ou **2** para Reiniciar."
	errMeals           = "❗ Refeições: responda **1–4**."
)

// mealBlocks is the sample menu shown with the final plan, one block per
// meal moment plus the quick-recipes footer.
var mealBlocks = []struct {
	Name  string
	Items []string
}{
	{"Cafe da manhã", []string{
		"Ovos mexidos + aveia com banana",
		"Iogurte natural + granola + fruta",
		"Sanduíche integral com frango desfiado",
	}},
	{"Lanche da manhã", []string{
		"Fruta + castanhas",
		"Iogurte proteico",
		"Sanduíche fit (peito de peru + queijo)",
	}},
	{"Almoço", []string{
		"Arroz + feijão + frango/peixe + salada",
		"Batata doce + patinho + legumes",
		"Quinoa + frango + salada",
	}},
	{"Lanche da tarde", []string{
		"Overnight oats",
		"Shake proteico + fruta",
		"Wrap integral com frango e salada",
	}},
	{"Jantar (pré-treino)", []string{
		"Arroz/batata + carne magra + legumes",
		"Massa integral + frango + salada",
		"Omelete + arroz + salada",
	}},
	{"Ceia", []string{
		"Iogurte + fruta",
		"Cottage/queijo + torradas integrais",
		"Leite/veg + aveia",
	}},
}

var quickRecipes = []string{
	"Panqueca de aveia",
	"Sanduíche fit",
	"Frango desfiado",
	"Overnight oats",
	"Wrap integral",
}

const trainingBlurb = "🏋️ *Treino (ABC sugerido)*\n" +
	"A: Peito, Ombro, Tríceps\n" +
	"B: Costas, Bíceps\n" +
	"C: Pernas, Abdômen\n" +
	"Frequência: 3x/sem (ABC) ou 6x/sem (ABC duas vezes)\n"

func renderMenu() string {
	var lines []string
	for _, b := range mealBlocks {
		lines = append(lines, fmt.Sprintf("• %s: %s", b.Name, strings.Join(b.Items, " | ")))
	}
	lines = append(lines, "\n🍳 *Receitas rápidas*: "+strings.Join(quickRecipes, ", "))
	return strings.Join(lines, "\n")
}

// renderSummary shows everything collected before the confirmation step.
func renderSummary(p *models.Profile) string {
	restr := p.Restriction
	if restr == "" {
		restr = "Sem restrições"
	}
	if p.RestrictionNote != "" {
		restr = fmt.Sprintf("%s (%s)", restr, p.RestrictionNote)
	}
	training := "sem horário fixo"
	if p.TrainingHour != nil {
		training = fmt.Sprintf("%dh", *p.TrainingHour)
	}
	mute := "nenhum"
	if p.Mute != nil {
		mute = fmt.Sprintf("%d–%dh", p.Mute.Start, p.Mute.End)
	}
	photos := "não enviadas"
	if n := len(p.PhotoRefs); n > 0 {
		photos = fmt.Sprintf("%d recebida(s)", n)
	}
	eatStart, eatEnd := p.EatWindowOrDefault()

	return fmt.Sprintf(
		"✅ *Resumo rápido*\n"+
			"Nome: %s\n"+
			"Sexo: %s | Idade: %s (~%d a)\n"+
			"Altura: %s | Peso: %s\n"+
			"Atividade: %s | Objetivo: %s\n"+
			"Restrições: %s\n"+
			"Treino: %s | Janela alimentar: %d–%dh | Silêncio: %s\n"+
			"Fotos: %s\n\n"+
			"**Confirmar?**\n1️⃣ Confirmar\n2️⃣ Reiniciar",
		p.Name,
		p.SexOrDefault(), p.AgeRange, p.AgeYearsOrDefault(),
		p.HeightRange, p.WeightRange,
		p.ActivityOrDefault(), p.ObjectiveOrDefault(),
		restr,
		training, eatStart, eatEnd, mute,
		photos,
	)
}

// renderResults shows the first calculation block plus the meal-count question.
func renderResults(p *models.Profile) string {
	plan := p.Plan
	return fmt.Sprintf(
		"📊 *Resultados Iniciais*\n"+
			"TMB: %d kcal\n"+
			"TDEE (atividade): %d kcal\n"+
			"Calorias meta (%s): %d kcal/dia\n"+
			"Macros: P %d g | C %d g | G %d g\n\n%s",
		plan.BMR, plan.TDEE, p.ObjectiveOrDefault(), plan.Calories,
		plan.ProteinG, plan.CarbG, plan.FatG,
		promptMeals,
	)
}

// renderFinalPlan assembles the complete plan reply returned at completion.
func renderFinalPlan(p *models.Profile) string {
	plan := p.Plan
	meals := p.MealCountOrDefault()

	var split []string
	for i := 0; i < meals; i++ {
		split = append(split, fmt.Sprintf(
			"- Ref %d: %d kcal | P %d g | C %d g | G %d g",
			i+1, plan.KcalSplit[i], plan.ProteinSplit[i], plan.CarbSplit[i], plan.FatSplit[i],
		))
	}

	w := plan.Water
	waterLine := fmt.Sprintf(
		"💧 *Hidratação*: ~%.1f L/dia (manhã %.1f L, tarde %.1f L, noite %.1f L).",
		w.Liters, w.MorningL, w.AfternoonL, w.EveningL,
	)

	return fmt.Sprintf(
		"🔥 *Plano Inicial*\n\n"+
			"Calorias: %d kcal/dia\n"+
			"Macros: P %d g | C %d g | G %d g\n\n"+
			"📅 *Divisão por refeição*\n%s\n\n"+
			"🍽️ *Cardápio exemplo*\n%s\n\n"+
			"%s\n\n%s\n"+
			"ℹ️ Receberá lembretes diários (água/refeições) e 1 *check-in semanal*. "+
			"Para desligar lembretes: envie *PAUSAR*. Para reativar: *ATIVAR*.",
		plan.Calories,
		plan.ProteinG, plan.CarbG, plan.FatG,
		strings.Join(split, "\n"),
		renderMenu(),
		waterLine,
		trainingBlurb,
	)
}

// profileContext is a one-line profile description handed to the Q&A
// collaborator as conversation context.
func profileContext(p *models.Profile) string {
	restr := p.Restriction
	if p.RestrictionNote != "" {
		restr = fmt.Sprintf("%s (%s)", restr, p.RestrictionNote)
	}
	var plan string
	if p.Plan != nil {
		plan = fmt.Sprintf("; plano: %d kcal, P %d g, C %d g, G %d g",
			p.Plan.Calories, p.Plan.ProteinG, p.Plan.CarbG, p.Plan.FatG)
	}
	return fmt.Sprintf(
		"Nome: %s; sexo %s; ~%d anos; %.0f cm; %.1f kg; atividade %s (fator %.2f); objetivo %s; restrições: %s%s",
		p.Name, p.SexOrDefault(), p.AgeYearsOrDefault(),
		p.HeightCMOrDefault(), p.WeightKGOrDefault(),
		p.ActivityOrDefault(), nutrition.ActivityFactors[p.ActivityOrDefault()],
		p.ObjectiveOrDefault(), restr, plan,
	)
}
