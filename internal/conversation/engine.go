// Package conversation runs the participant-facing state machine: one step
// per inbound chat event, driven by the session flow.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/MrJamesThe3rd/ledgerbot/internal/chat"
	"github.com/MrJamesThe3rd/ledgerbot/internal/participant"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/session"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
	"github.com/MrJamesThe3rd/ledgerbot/internal/validate"
)

var ErrAuthorizationDenied = errors.New("authorization denied")

type Records interface {
	Create(ctx context.Context, params record.CreateParams) (*record.Record, error)
	Get(ctx context.Context, key string) (*record.Record, error)
	SubmitReview(ctx context.Context, key, reviewLink, paypal string) (*record.Record, error)
	MarkPaid(ctx context.Context, key, proofRef string) (*record.Record, error)
	SetStatus(ctx context.Context, ledger, key string, st status.Status) (*record.Record, error)
	PendingReviews(ctx context.Context) ([]*record.Record, error)
	Ledgers() record.Ledgers
}

type Directory interface {
	FindByHandle(ctx context.Context, handle string) (*participant.Profile, error)
	FindByChannel(ctx context.Context, channel string) (*participant.Profile, error)
	Upsert(ctx context.Context, p *participant.Profile) error
}

type Sessions interface {
	Lock(key string) func()
	Get(ctx context.Context, key string) (*session.Session, error)
	Set(ctx context.Context, s *session.Session) error
	Clear(ctx context.Context, key string) error
}

type Config struct {
	// Admins are the session keys allowed to mark orders paid and list
	// pending reviews.
	Admins []string
	// OperatorChat receives review notices. Empty disables them.
	OperatorChat string
	// MaxRejections ends the current flow after that many invalid answers
	// in a row. Zero means DefaultMaxRejections.
	MaxRejections int
	Language      language.Tag
}

const DefaultMaxRejections = 3

type Engine struct {
	records   Records
	directory Directory
	sessions  Sessions
	transport chat.Transport
	cfg       Config
	printer   *message.Printer
	logger    *slog.Logger
}

func NewEngine(
	records Records,
	directory Directory,
	sessions Sessions,
	transport chat.Transport,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if cfg.Language == language.Und {
		cfg.Language = language.Spanish
	}

	if cfg.MaxRejections <= 0 {
		cfg.MaxRejections = DefaultMaxRejections
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		records:   records,
		directory: directory,
		sessions:  sessions,
		transport: transport,
		cfg:       cfg,
		printer:   message.NewPrinter(cfg.Language),
		logger:    logger.With("component", "conversation"),
	}
}

func (e *Engine) isAdmin(key string) bool {
	return slices.Contains(e.cfg.Admins, key)
}

// Handle processes one event to completion. Events for the same participant
// are serialised; the session is written only after the step's own I/O has
// finished.
func (e *Engine) Handle(ctx context.Context, ev chat.Event) {
	key := ev.SenderID

	unlock := e.sessions.Lock(key)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic while handling event", "key", key, "panic", r)
			e.fail(ctx, ev)
		}
	}()

	if ev.CallbackID != "" {
		if err := e.transport.AnswerCallback(ctx, ev.CallbackID); err != nil {
			e.logger.Warn("failed to answer callback", "key", key, "error", err)
		}
	}

	sess, err := e.sessions.Get(ctx, key)
	if err != nil {
		e.logger.Error("failed to load session", "key", key, "error", err)
		e.fail(ctx, ev)

		return
	}

	cmd := command(ev)

	switch {
	case isCancel(cmd):
		e.reset(ctx, key)
		e.reply(ctx, ev, chat.Message{Text: e.printer.Sprintf(msgCancelled)})

		return
	case isMenu(cmd):
		e.reset(ctx, key)
		e.showMenu(ctx, ev)

		return
	}

	next, err := e.step(ctx, sess.Flow, ev, cmd)
	if err != nil {
		e.handleError(ctx, ev, sess, err)
		return
	}

	if next == nil {
		// The step left the session untouched.
		return
	}

	sess.Flow = next
	sess.Rejections = 0

	if err := e.sessions.Set(ctx, sess); err != nil {
		e.logger.Error("failed to save session", "key", key, "error", err)
		e.fail(ctx, ev)
	}
}

// step dispatches on the current flow. A nil Flow with a nil error keeps the
// session as it is.
func (e *Engine) step(ctx context.Context, flow session.Flow, ev chat.Event, cmd string) (session.Flow, error) {
	if next, handled, err := e.operatorAction(ctx, ev, cmd); handled {
		return next, err
	}

	switch f := flow.(type) {
	case session.Registering:
		return e.stepRegistering(ctx, f, ev)
	case session.CreatingOrder:
		return e.stepCreatingOrder(ctx, f, ev, cmd)
	case session.SubmittingReview:
		return e.stepSubmittingReview(ctx, f, ev, cmd)
	case session.AdminMarkingPaid:
		return e.stepAdminMarkingPaid(ctx, f, ev, cmd)
	case session.AwaitingProof:
		return e.stepAwaitingProof(ctx, f, ev)
	default:
		return e.stepIdle(ctx, ev, cmd)
	}
}

func (e *Engine) handleError(ctx context.Context, ev chat.Event, sess *session.Session, err error) {
	var invalid *validate.InvalidInputError

	switch {
	case errors.As(err, &invalid):
		e.reject(ctx, ev, sess, invalid)

	case errors.Is(err, ErrAuthorizationDenied):
		e.logger.Warn("privileged action denied", "key", ev.SenderID)
		e.reply(ctx, ev, chat.Message{Text: e.printer.Sprintf(msgDenied)})

	case errors.Is(err, record.ErrNotFound):
		var nf *notFoundError

		key := ""
		if errors.As(err, &nf) {
			key = nf.key
		}

		e.reset(ctx, sess.Key)
		e.reply(ctx, ev, chat.Message{Text: e.printer.Sprintf(msgNotFound, key)})

	case errors.Is(err, record.ErrDuplicate):
		var dup *duplicateError

		key := ""
		if errors.As(err, &dup) {
			key = dup.key
		}

		e.reset(ctx, sess.Key)
		e.reply(ctx, ev, chat.Message{Text: e.printer.Sprintf(msgDuplicate, key)})

	default:
		e.logger.Error("step failed", "key", sess.Key, "flow", sess.Flow.Kind(), "error", err)
		e.fail(ctx, ev)
	}
}

// reject re-prompts the same step, or ends the flow once the participant has
// given too many invalid answers in a row.
func (e *Engine) reject(ctx context.Context, ev chat.Event, sess *session.Session, invalid *validate.InvalidInputError) {
	sess.Rejections++

	if sess.Rejections >= e.cfg.MaxRejections {
		e.logger.Info("flow abandoned after invalid input", "key", sess.Key, "flow", sess.Flow.Kind(), "field", invalid.Field)
		e.reset(ctx, sess.Key)
		e.reply(ctx, ev, chat.Message{
			Text:     e.printer.Sprintf(msgTooManyAttempts),
			Keyboard: menuKeyboard(e.printer, e.isAdmin(ev.SenderID)),
		})

		return
	}

	if err := e.sessions.Set(ctx, sess); err != nil {
		e.logger.Error("failed to save session", "key", sess.Key, "error", err)
		e.fail(ctx, ev)

		return
	}

	e.reply(ctx, ev, chat.Message{
		Text:     e.printer.Sprintf(invalidPrefix + invalid.Field),
		Keyboard: cancelKeyboard(e.printer),
	})
}

type notFoundError struct {
	key string
	err error
}

func (e *notFoundError) Error() string { return fmt.Sprintf("record %s: %v", e.key, e.err) }
func (e *notFoundError) Unwrap() error { return e.err }

type duplicateError struct {
	key string
	err error
}

func (e *duplicateError) Error() string { return fmt.Sprintf("record %s: %v", e.key, e.err) }
func (e *duplicateError) Unwrap() error { return e.err }

// tagKey attaches the order key to lookup misses and duplicates so the
// participant can be told which order was meant.
func tagKey(key string, err error) error {
	switch {
	case errors.Is(err, record.ErrNotFound):
		return &notFoundError{key: key, err: err}
	case errors.Is(err, record.ErrDuplicate):
		return &duplicateError{key: key, err: err}
	default:
		return err
	}
}

// fail reports a generic failure and drops whatever the participant was doing.
func (e *Engine) fail(ctx context.Context, ev chat.Event) {
	e.reset(ctx, ev.SenderID)
	e.reply(ctx, ev, chat.Message{
		Text:     e.printer.Sprintf(msgFailure),
		Keyboard: menuKeyboard(e.printer, e.isAdmin(ev.SenderID)),
	})
}

func (e *Engine) reset(ctx context.Context, key string) {
	if err := e.sessions.Clear(ctx, key); err != nil {
		e.logger.Error("failed to clear session", "key", key, "error", err)
	}
}

func (e *Engine) reply(ctx context.Context, ev chat.Event, msg chat.Message) {
	e.send(ctx, ev.ChatID, msg)
}

func (e *Engine) send(ctx context.Context, chatID string, msg chat.Message) {
	if err := e.transport.Send(ctx, chatID, msg); err != nil {
		e.logger.Error("failed to send message", "chat", chatID, "error", err)
	}
}

func (e *Engine) showMenu(ctx context.Context, ev chat.Event) {
	e.reply(ctx, ev, chat.Message{
		Text:     e.printer.Sprintf(msgMenu),
		Keyboard: menuKeyboard(e.printer, e.isAdmin(ev.SenderID)),
	})
}

func (e *Engine) prompt(ctx context.Context, ev chat.Event, key string, args ...any) {
	e.reply(ctx, ev, chat.Message{
		Text:     e.printer.Sprintf(key, args...),
		Keyboard: cancelKeyboard(e.printer),
	})
}

// NotifyExpired tells a participant their session timed out. It is meant to
// be installed as the session manager's expiry handler; in private chats the
// session key is also the chat id.
func (e *Engine) NotifyExpired(ctx context.Context, key string) {
	e.send(ctx, key, chat.Message{
		Text:     e.printer.Sprintf(msgExpired),
		Keyboard: menuKeyboard(e.printer, e.isAdmin(key)),
	})
}
