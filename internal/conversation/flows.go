package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/ledgerbot/internal/chat"
	"github.com/MrJamesThe3rd/ledgerbot/internal/participant"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/session"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
	"github.com/MrJamesThe3rd/ledgerbot/internal/validate"
)

func invalid(field, reason string) error {
	return &validate.InvalidInputError{Field: field, Reason: reason}
}

func (e *Engine) stepIdle(ctx context.Context, ev chat.Event, cmd string) (session.Flow, error) {
	switch cmd {
	case cbCreateOrder:
		e.prompt(ctx, ev, msgOrderID)
		return session.CreatingOrder{Step: session.OrderID}, nil

	case cbSubmitReview:
		e.prompt(ctx, ev, msgReviewLink)
		return session.SubmittingReview{Step: session.ReviewLink}, nil

	case cbRegister:
		e.prompt(ctx, ev, msgRegisterProfile)
		return session.Registering{Step: session.RegisterProfile}, nil

	case cbMarkPaid:
		if !e.isAdmin(ev.SenderID) {
			return nil, ErrAuthorizationDenied
		}

		e.prompt(ctx, ev, msgPaidOrderID)

		return session.AdminMarkingPaid{Step: session.PaidOrderID}, nil

	case cbPending:
		return nil, e.listPending(ctx, ev)

	default:
		e.showMenu(ctx, ev)
		return nil, nil
	}
}

// operatorAction handles the buttons attached to operator notices. They act
// on a named order and work from any flow.
func (e *Engine) operatorAction(ctx context.Context, ev chat.Event, cmd string) (session.Flow, bool, error) {
	var key string

	switch {
	case strings.HasPrefix(cmd, cbAdvancePrefix):
		key = strings.TrimPrefix(cmd, cbAdvancePrefix)
	case strings.HasPrefix(cmd, cbPaidPrefix):
		key = strings.TrimPrefix(cmd, cbPaidPrefix)
	default:
		return nil, false, nil
	}

	if !e.isAdmin(ev.SenderID) {
		return nil, true, ErrAuthorizationDenied
	}

	rec, err := e.records.Get(ctx, key)
	if err != nil {
		return nil, true, tagKey(key, err)
	}

	if strings.HasPrefix(cmd, cbPaidPrefix) {
		e.reply(ctx, ev, chat.Message{
			Text:     e.printer.Sprintf(msgPaidChoice, key),
			Keyboard: paidChoiceKeyboard(e.printer),
		})

		return session.AdminMarkingPaid{Step: session.PaidChoice, OrderID: key}, true, nil
	}

	if rec.Status != status.ReviewUploaded {
		e.reply(ctx, ev, chat.Message{Text: e.printer.Sprintf(msgAdvanceSkipped, key, rec.Status.Label())})
		return nil, true, nil
	}

	rec, err = e.records.SetStatus(ctx, e.records.Ledgers().Primary, key, status.ReviewForwarded)
	if err != nil {
		return nil, true, tagKey(key, err)
	}

	e.logger.Info("review forwarded", "key", key, "operator", ev.SenderID)
	e.reply(ctx, ev, chat.Message{Text: e.printer.Sprintf(msgAdvanceDone, key, rec.Status.Label())})

	return nil, true, nil
}

func (e *Engine) stepRegistering(ctx context.Context, f session.Registering, ev chat.Event) (session.Flow, error) {
	text := textOf(ev)

	switch f.Step {
	case session.RegisterProfile:
		if text == "" {
			return nil, invalid(fieldProfile, "empty profile")
		}

		e.prompt(ctx, ev, msgRegisterPayPal)

		return session.Registering{Step: session.RegisterPayPal, Profile: text}, nil

	case session.RegisterPayPal:
		if err := validate.Email(text); err != nil {
			return nil, err
		}

		e.prompt(ctx, ev, msgRegisterIntermediaries)

		return session.Registering{Step: session.RegisterIntermediaries, Profile: f.Profile, PayPal: text}, nil

	case session.RegisterIntermediaries:
		profile := &participant.Profile{
			Handle:         ev.Handle,
			Channel:        ev.SenderID,
			ProfileLink:    f.Profile,
			PayPal:         f.PayPal,
			Intermediaries: parseIntermediaries(text),
		}

		if err := e.directory.Upsert(ctx, profile); err != nil {
			return nil, fmt.Errorf("registering participant: %w", err)
		}

		e.logger.Info("participant registered", "key", ev.SenderID, "intermediaries", profile.Intermediaries)
		e.reply(ctx, ev, chat.Message{
			Text:     e.printer.Sprintf(msgRegisterDone),
			Keyboard: menuKeyboard(e.printer, e.isAdmin(ev.SenderID)),
		})

		return session.Idle{}, nil
	}

	return nil, fmt.Errorf("unknown registering step %q", f.Step)
}

func (e *Engine) stepCreatingOrder(ctx context.Context, f session.CreatingOrder, ev chat.Event, cmd string) (session.Flow, error) {
	switch f.Step {
	case session.OrderID:
		id := textOf(ev)
		if err := validate.OrderID(id); err != nil {
			return nil, err
		}

		if _, err := e.records.Get(ctx, id); err == nil {
			return nil, tagKey(id, record.ErrDuplicate)
		} else if !errors.Is(err, record.ErrNotFound) {
			return nil, fmt.Errorf("checking order: %w", err)
		}

		e.prompt(ctx, ev, msgOrderProof)

		return session.CreatingOrder{Step: session.OrderProof, OrderID: id}, nil

	case session.OrderProof:
		if !ev.HasImage() {
			return nil, invalid(fieldProof, "no image attached")
		}

		// File ids are stable; download links embed the bot token and expire.
		f.ProofRef = ev.ImageID

		suggested, err := e.registeredPayPal(ctx, ev.SenderID)
		if err != nil {
			return nil, err
		}

		if suggested != "" {
			f.Step = session.OrderPayPalChoice
			f.SuggestedPayPal = suggested
			e.askPayPalChoice(ctx, ev, suggested)

			return f, nil
		}

		f.Step = session.OrderPayPal
		e.prompt(ctx, ev, msgPayPal)

		return f, nil

	case session.OrderPayPalChoice:
		switch cmd {
		case cbPayPalKeep:
			return e.createOrder(ctx, ev, f, f.SuggestedPayPal)
		case cbPayPalChange:
			f.Step = session.OrderPayPal
			e.prompt(ctx, ev, msgPayPal)

			return f, nil
		}

		return nil, invalid(fieldChoice, "expected keep or change")

	case session.OrderPayPal:
		paypal := textOf(ev)
		if err := validate.Email(paypal); err != nil {
			return nil, err
		}

		return e.createOrder(ctx, ev, f, paypal)
	}

	return nil, fmt.Errorf("unknown order step %q", f.Step)
}

func (e *Engine) createOrder(ctx context.Context, ev chat.Event, f session.CreatingOrder, paypal string) (session.Flow, error) {
	params := record.CreateParams{
		Key:         f.OrderID,
		Status:      status.Pending,
		OwnerKey:    ev.SenderID,
		OwnerChat:   ev.ChatID,
		OwnerHandle: ev.Handle,
		PayPal:      paypal,
		ProofRef:    f.ProofRef,
	}

	profile, err := e.profile(ctx, ev.SenderID)
	if err != nil {
		return nil, err
	}

	if profile != nil {
		params.ProfileLink = profile.ProfileLink
		params.Intermediaries = profile.Intermediaries
	}

	rec, err := e.records.Create(ctx, params)
	if err != nil {
		return nil, tagKey(f.OrderID, err)
	}

	e.logger.Info("order created", "key", rec.Key, "owner", ev.SenderID, "mirror", rec.Mirror)
	e.reply(ctx, ev, chat.Message{
		Text:     e.printer.Sprintf(msgOrderCreated, rec.Key, rec.Status.Label()),
		Keyboard: menuKeyboard(e.printer, e.isAdmin(ev.SenderID)),
	})

	return session.Idle{}, nil
}

func (e *Engine) stepSubmittingReview(ctx context.Context, f session.SubmittingReview, ev chat.Event, cmd string) (session.Flow, error) {
	switch f.Step {
	case session.ReviewLink:
		link := textOf(ev)
		if err := validate.ReviewURL(link); err != nil {
			return nil, err
		}

		e.prompt(ctx, ev, msgReviewOrderID)

		return session.SubmittingReview{Step: session.ReviewOrderID, ReviewLink: link}, nil

	case session.ReviewOrderID:
		id := textOf(ev)
		if err := validate.OrderID(id); err != nil {
			return nil, err
		}

		rec, err := e.records.Get(ctx, id)
		if err != nil {
			return nil, tagKey(id, err)
		}

		f.OrderID = id

		suggested, err := e.registeredPayPal(ctx, ev.SenderID)
		if err != nil {
			return nil, err
		}

		if suggested == "" {
			suggested = rec.PayPal
		}

		if suggested != "" {
			f.Step = session.ReviewPayPalChoice
			f.SuggestedPayPal = suggested
			e.askPayPalChoice(ctx, ev, suggested)

			return f, nil
		}

		f.Step = session.ReviewPayPal
		e.prompt(ctx, ev, msgPayPal)

		return f, nil

	case session.ReviewPayPalChoice:
		switch cmd {
		case cbPayPalKeep:
			return e.submitReview(ctx, ev, f, f.SuggestedPayPal)
		case cbPayPalChange:
			f.Step = session.ReviewPayPal
			e.prompt(ctx, ev, msgPayPal)

			return f, nil
		}

		return nil, invalid(fieldChoice, "expected keep or change")

	case session.ReviewPayPal:
		paypal := textOf(ev)
		if err := validate.Email(paypal); err != nil {
			return nil, err
		}

		return e.submitReview(ctx, ev, f, paypal)
	}

	return nil, fmt.Errorf("unknown review step %q", f.Step)
}

func (e *Engine) submitReview(ctx context.Context, ev chat.Event, f session.SubmittingReview, paypal string) (session.Flow, error) {
	rec, err := e.records.SubmitReview(ctx, f.OrderID, f.ReviewLink, paypal)
	if err != nil {
		return nil, tagKey(f.OrderID, err)
	}

	e.logger.Info("review submitted", "key", rec.Key, "owner", ev.SenderID)

	if e.cfg.OperatorChat != "" {
		handle := rec.OwnerHandle
		if handle == "" {
			handle = ev.Handle
		}

		e.send(ctx, e.cfg.OperatorChat, chat.Message{
			Text:     e.printer.Sprintf(msgReviewNotice, rec.Key, handle, rec.ReviewLink, rec.PayPal),
			Keyboard: operatorKeyboard(e.printer, rec.Key),
		})
	}

	e.reply(ctx, ev, chat.Message{
		Text:     e.printer.Sprintf(msgReviewSubmitted, rec.Key),
		Keyboard: menuKeyboard(e.printer, e.isAdmin(ev.SenderID)),
	})

	return session.Idle{}, nil
}

func (e *Engine) stepAdminMarkingPaid(ctx context.Context, f session.AdminMarkingPaid, ev chat.Event, cmd string) (session.Flow, error) {
	if !e.isAdmin(ev.SenderID) {
		return nil, ErrAuthorizationDenied
	}

	switch f.Step {
	case session.PaidOrderID:
		id := textOf(ev)
		if err := validate.OrderID(id); err != nil {
			return nil, err
		}

		if _, err := e.records.Get(ctx, id); err != nil {
			return nil, tagKey(id, err)
		}

		e.reply(ctx, ev, chat.Message{
			Text:     e.printer.Sprintf(msgPaidChoice, id),
			Keyboard: paidChoiceKeyboard(e.printer),
		})

		return session.AdminMarkingPaid{Step: session.PaidChoice, OrderID: id}, nil

	case session.PaidChoice:
		switch cmd {
		case cbPaidProof:
			e.prompt(ctx, ev, msgPaidAwaitingProof)
			return session.AwaitingProof{OrderID: f.OrderID}, nil
		case cbPaidNoProof:
			return e.markPaid(ctx, ev, f.OrderID, "")
		}

		return nil, invalid(fieldChoice, "expected proof or no proof")
	}

	return nil, fmt.Errorf("unknown paid step %q", f.Step)
}

func (e *Engine) stepAwaitingProof(ctx context.Context, f session.AwaitingProof, ev chat.Event) (session.Flow, error) {
	if !e.isAdmin(ev.SenderID) {
		return nil, ErrAuthorizationDenied
	}

	if !ev.HasImage() {
		return nil, invalid(fieldProof, "no image attached")
	}

	return e.markPaid(ctx, ev, f.OrderID, ev.ImageID)
}

func (e *Engine) markPaid(ctx context.Context, ev chat.Event, key, proofRef string) (session.Flow, error) {
	rec, err := e.records.MarkPaid(ctx, key, proofRef)
	if err != nil {
		return nil, tagKey(key, err)
	}

	e.logger.Info("order marked paid", "key", key, "operator", ev.SenderID, "proof", proofRef != "")

	e.notifyOwner(ctx, ev, rec)
	e.reply(ctx, ev, chat.Message{
		Text:     e.printer.Sprintf(msgPaidDone, key),
		Keyboard: menuKeyboard(e.printer, true),
	})

	return session.Idle{}, nil
}

// notifyOwner tells the buyer their order was paid, forwarding the proof
// image when there is one.
func (e *Engine) notifyOwner(ctx context.Context, ev chat.Event, rec *record.Record) {
	chatID := rec.OwnerChat

	if chatID == "" && rec.OwnerHandle != "" {
		p, err := e.directory.FindByHandle(ctx, rec.OwnerHandle)
		switch {
		case err == nil:
			chatID = p.Channel
		case !errors.Is(err, participant.ErrNotFound):
			e.logger.Warn("failed to look up order owner", "key", rec.Key, "handle", rec.OwnerHandle, "error", err)
		}
	}

	if chatID == "" {
		e.reply(ctx, ev, chat.Message{Text: e.printer.Sprintf(msgPaidOwnerUnknown, rec.Key)})
		return
	}

	e.send(ctx, chatID, chat.Message{Text: e.printer.Sprintf(msgPaidOwnerNotice, rec.Key)})

	if rec.PaymentProofRef == "" {
		return
	}

	if err := e.transport.SendImage(ctx, chatID, rec.PaymentProofRef, rec.Key); err != nil {
		e.logger.Error("failed to forward payment proof", "key", rec.Key, "chat", chatID, "error", err)
	}
}

func (e *Engine) listPending(ctx context.Context, ev chat.Event) error {
	if !e.isAdmin(ev.SenderID) {
		return ErrAuthorizationDenied
	}

	recs, err := e.records.PendingReviews(ctx)
	if err != nil {
		return fmt.Errorf("listing pending reviews: %w", err)
	}

	if len(recs) == 0 {
		e.reply(ctx, ev, chat.Message{Text: e.printer.Sprintf(msgPendingEmpty)})
		return nil
	}

	var sb strings.Builder

	sb.WriteString(e.printer.Sprintf(msgPendingHeader, len(recs)))

	for _, r := range recs {
		sb.WriteString("\n")
		sb.WriteString(e.printer.Sprintf(msgPendingItem, r.Key, r.ReviewLink))
	}

	e.reply(ctx, ev, chat.Message{Text: sb.String()})

	return nil
}

func (e *Engine) askPayPalChoice(ctx context.Context, ev chat.Event, suggested string) {
	e.reply(ctx, ev, chat.Message{
		Text:     e.printer.Sprintf(msgPayPalChoice, suggested),
		Keyboard: paypalKeyboard(e.printer, suggested),
	})
}

// profile returns the participant's registered profile, or nil if they never
// registered.
func (e *Engine) profile(ctx context.Context, key string) (*participant.Profile, error) {
	p, err := e.directory.FindByChannel(ctx, key)
	if errors.Is(err, participant.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("looking up participant: %w", err)
	}

	return p, nil
}

func (e *Engine) registeredPayPal(ctx context.Context, key string) (string, error) {
	p, err := e.profile(ctx, key)
	if err != nil || p == nil {
		return "", err
	}

	return p.PayPal, nil
}
