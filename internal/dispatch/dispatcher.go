// Package dispatch delivers proactive reminders: on every clock tick it
// recomputes each user's reminder hours and sends at most one message per
// slot per day, keyed by idempotence markers in the user's schedule.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/MeteOShape/shapebot/internal/messaging"
	"github.com/MeteOShape/shapebot/internal/models"
	"github.com/MeteOShape/shapebot/internal/plan"
	"github.com/MeteOShape/shapebot/internal/store"
)

// Reminder texts per category.
const (
	mealReminder  = "🍽️ Hora da refeição! Siga o plano: proteína + carbo + salada. Evite pular refeição."
	waterReminder = "💧 Lembrete de água: mais um copo agora. Hidratação em dia, shape em dia."
	preReminder   = "⚡ Pré-treino: aquece, técnica limpa. Hoje é dia de vencer a inércia."
	postReminder  = "🔥 Pós-treino: capricha na refeição com proteína em até 1h. Missão do dia concluída!"

	checkinReminder = "📈 *Check-in semanal*\n" +
		"Qual seu peso desta semana? Mudou algo nas medidas/fotos?\n" +
		"Responda aqui que ajusto suas calorias/macros se precisar."
)

// Marker key prefixes. Hour-keyed slots store "YYYY-MM-DD@HH"; the weekly
// check-in stores a bare date so it fires once across the qualifying window.
const (
	keyMeal      = "meal:"
	keyWater     = "water:"
	keyPretrain  = "pretrain:"
	keyPosttrain = "posttrain:"
	keyCheckin   = "checkin"
)

// Config holds the dispatcher's temporal parameters. It is injected at
// construction so tests and deployments pick their own time zone.
type Config struct {
	Location       *time.Location
	CheckinWeekday time.Weekday
	CheckinHour    int
}

// DefaultConfig returns the production defaults: local time zone, Monday
// check-in at or after 08:00.
func DefaultConfig() Config {
	return Config{
		Location:       time.Local,
		CheckinWeekday: time.Monday,
		CheckinHour:    8,
	}
}

// Opts holds optional dispatcher settings.
type Opts struct {
	Clock func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Opts)

// WithClock overrides the wall clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Opts) { o.Clock = clock }
}

// Dispatcher walks all users on each tick and emits due reminders. It
// tolerates ticks more frequent than hourly: markers make re-sends no-ops.
type Dispatcher struct {
	users *store.Guarded
	msg   messaging.Service
	cfg   Config
	now   func() time.Time
}

// NewDispatcher creates a dispatcher over the guarded store and a messaging
// transport.
func NewDispatcher(users *store.Guarded, msg messaging.Service, cfg Config, opts ...Option) *Dispatcher {
	o := Opts{Clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Dispatcher{users: users, msg: msg, cfg: cfg, now: o.Clock}
}

// Tick processes all users for the current wall-clock instant and returns the
// total number of messages emitted.
func (d *Dispatcher) Tick(ctx context.Context) (int, error) {
	return d.tickAt(ctx, d.now())
}

func (d *Dispatcher) tickAt(ctx context.Context, now time.Time) (int, error) {
	now = now.In(d.cfg.Location)
	sent := 0
	err := d.users.Update(func(doc store.Document) error {
		for uid, rec := range doc {
			sent += d.dispatchUser(ctx, uid, rec, now)
		}
		return nil
	})
	if err != nil {
		return sent, fmt.Errorf("dispatch tick failed: %w", err)
	}
	slog.Debug("Dispatcher tick complete", "sent", sent, "hour", now.Hour())
	return sent, nil
}

// dispatchUser emits every reminder due for one user at this instant. A
// failure for one user never aborts the others; the failed slot's marker is
// left unset so the send is retried on the next tick within the same hour.
func (d *Dispatcher) dispatchUser(ctx context.Context, uid string, rec *models.UserRecord, now time.Time) (sent int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Dispatcher user panic recovered", "uid", uid, "panic", r)
		}
	}()

	if !rec.Schedule.Enabled || rec.LastDestination == "" {
		return 0
	}
	to, err := d.msg.ValidateAndCanonicalizeRecipient(rec.LastDestination)
	if err != nil {
		slog.Warn("Dispatcher skipping user with bad destination", "uid", uid, "error", err)
		return 0
	}

	hour := now.Hour()
	p := &rec.Profile
	if plan.Muted(p.Mute, hour) {
		return 0
	}
	if rec.Schedule.Last == nil {
		rec.Schedule.Last = make(map[string]string)
	}

	start, end := p.EatWindowOrDefault()
	mealHours := plan.MealHours(start, end, p.MealCountOrDefault())
	if p.TrainingHour != nil {
		mealHours = plan.ApplyPostWorkout(mealHours, start, end, *p.TrainingHour)
	}
	waterHours := plan.HydrationHours(mealHours, start, end)

	stamp := now.Format("2006-01-02") + "@" + strconv.Itoa(hour)
	emit := func(key, body string) {
		if rec.Schedule.Last[key] == stamp {
			return
		}
		if err := d.msg.SendMessage(ctx, to, body); err != nil {
			slog.Error("Dispatcher send failed", "uid", uid, "slot", key, "error", err)
			return
		}
		rec.Schedule.Last[key] = stamp
		sent++
	}

	for _, h := range mealHours {
		if h == hour {
			emit(keyMeal+strconv.Itoa(h), mealReminder)
		}
	}
	for _, h := range waterHours {
		if h == hour {
			emit(keyWater+strconv.Itoa(h), waterReminder)
		}
	}
	if p.TrainingHour != nil {
		pre, post := plan.TrainingPings(*p.TrainingHour)
		if pre == hour {
			emit(keyPretrain+strconv.Itoa(pre), preReminder)
		}
		if post == hour {
			emit(keyPosttrain+strconv.Itoa(post), postReminder)
		}
	}

	if now.Weekday() == d.cfg.CheckinWeekday && hour >= d.cfg.CheckinHour {
		today := now.Format("2006-01-02")
		if rec.Schedule.Last[keyCheckin] != today {
			if err := d.msg.SendMessage(ctx, to, checkinReminder); err != nil {
				slog.Error("Dispatcher check-in send failed", "uid", uid, "error", err)
			} else {
				rec.Schedule.Last[keyCheckin] = today
				sent++
			}
		}
	}
	return sent
}
