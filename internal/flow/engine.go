// Package flow implements the anamnesis conversation state machine: given the
// user's current step and an inbound message, it validates the answer, mutates
// the persisted record and returns the next prompt.
package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/MeteOShape/shapebot/internal/genai"
	"github.com/MeteOShape/shapebot/internal/models"
	"github.com/MeteOShape/shapebot/internal/store"
	"github.com/MeteOShape/shapebot/internal/util"
)

// Opts holds configuration options for the conversation engine.
type Opts struct {
	Asker genai.Asker
	Clock func() time.Time
}

// Option configures the conversation engine.
type Option func(*Opts)

// WithAsker sets the Q&A collaborator used for free-text questions after the
// questionnaire completes. Without one, those messages get the static menu.
func WithAsker(a genai.Asker) Option {
	return func(o *Opts) { o.Asker = a }
}

// WithClock overrides the wall clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Opts) { o.Clock = clock }
}

// Engine drives the conversation. All state lives in the guarded store; the
// engine itself is stateless and safe for concurrent use.
type Engine struct {
	users *store.Guarded
	qa    genai.Asker
	now   func() time.Time
}

// NewEngine creates a conversation engine over the guarded user store.
func NewEngine(users *store.Guarded, opts ...Option) *Engine {
	cfg := Opts{Clock: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{users: users, qa: cfg.Asker, now: cfg.Clock}
}

// HandleInbound processes one inbound message and returns the reply text.
// The whole read-modify-write cycle runs under the store's coarse lock, so
// each inbound event is effectively transactional. It never panics; any
// unexpected failure degrades to an apology reply.
func (e *Engine) HandleInbound(ctx context.Context, in models.Inbound) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Engine HandleInbound panic recovered", "panic", r, "sender", in.Sender)
			reply = msgApology
		}
	}()

	uid := util.UserID(in.Sender, in.WaID)
	ev := input{
		Raw:   strings.TrimSpace(in.Body),
		Text:  strings.ToLower(strings.TrimSpace(in.Body)),
		Media: in.Media,
	}
	slog.Debug("Engine HandleInbound", "uid", uid, "body_length", len(ev.Raw), "media", len(ev.Media))

	err := e.users.Update(func(doc store.Document) error {
		rec := doc[uid]
		if rec == nil {
			rec = models.NewUserRecord(e.now())
			doc[uid] = rec
		}
		if in.Sender != "" {
			rec.LastDestination = in.Sender
		}
		reply = e.dispatch(ctx, rec, ev)
		rec.UpdatedAt = e.now()
		return nil
	})
	if err != nil {
		slog.Error("Engine HandleInbound store update failed", "uid", uid, "error", err)
		return msgApology
	}
	return safeReply(reply)
}

// dispatch resolves global commands first, then routes to the step handler.
func (e *Engine) dispatch(ctx context.Context, rec *models.UserRecord, ev input) string {
	switch ev.Text {
	case "ping", "status", "up":
		return msgOnline
	}
	if resetWords[ev.Text] {
		rec.Reset(e.now())
		return msgRestarted
	}
	if startWords[ev.Text] && rec.Step.InProgress() {
		return msgMidFlowHint
	}

	handler, ok := handlers[rec.Step]
	if !ok {
		slog.Warn("Engine dispatch: unknown step, using fallback", "step", rec.Step)
		return msgFallback
	}
	return handler(e, ctx, rec, ev)
}

// safeReply guarantees a non-empty conversational reply.
func safeReply(text string) string {
	if strings.TrimSpace(text) == "" {
		return msgEmptyFallback
	}
	return text
}
