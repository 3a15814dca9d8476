package conversation

import (
	"golang.org/x/text/message"

	"github.com/MrJamesThe3rd/ledgerbot/internal/chat"
)

// Catalog keys. The copy lives in messages_*.go.
const (
	msgMenu         = "menu.prompt"
	btnCreateOrder  = "menu.create_order"
	btnSubmitReview = "menu.submit_review"
	btnRegister     = "menu.register"
	btnMarkPaid     = "menu.mark_paid"
	btnPending      = "menu.pending"
	btnCancel       = "button.cancel"
	btnKeepPayPal   = "button.paypal_keep"
	btnChangePayPal = "button.paypal_change"
	btnPaidProof    = "button.paid_proof"
	btnPaidNoProof  = "button.paid_noproof"
	btnAdvance      = "button.advance"

	msgCancelled       = "common.cancelled"
	msgFailure         = "common.failure"
	msgDenied          = "common.denied"
	msgExpired         = "common.expired"
	msgNotFound        = "common.not_found"
	msgDuplicate       = "common.duplicate"
	msgTooManyAttempts = "common.too_many_attempts"

	msgRegisterProfile        = "register.profile"
	msgRegisterPayPal         = "register.paypal"
	msgRegisterIntermediaries = "register.intermediaries"
	msgRegisterDone           = "register.done"

	msgOrderID      = "order.id"
	msgOrderProof   = "order.proof"
	msgOrderCreated = "order.created"

	msgPayPalChoice = "paypal.choice"
	msgPayPal       = "paypal.prompt"

	msgReviewLink      = "review.link"
	msgReviewOrderID   = "review.order_id"
	msgReviewSubmitted = "review.submitted"
	msgReviewNotice    = "review.operator_notice"

	msgPaidOrderID       = "paid.order_id"
	msgPaidChoice        = "paid.choice"
	msgPaidAwaitingProof = "paid.awaiting_proof"
	msgPaidDone          = "paid.done"
	msgPaidOwnerNotice   = "paid.owner_notice"
	msgPaidOwnerUnknown  = "paid.owner_unknown"

	msgPendingEmpty  = "pending.empty"
	msgPendingHeader = "pending.header"
	msgPendingItem   = "pending.item"

	msgAdvanceDone    = "advance.done"
	msgAdvanceSkipped = "advance.skipped"

	invalidPrefix = "invalid."
)

// Fields rejected by the engine itself rather than by the validators.
const (
	fieldProof   = "proof"
	fieldProfile = "profile"
	fieldChoice  = "choice"
)

func menuKeyboard(p *message.Printer, admin bool) chat.Keyboard {
	kb := chat.Keyboard{
		{{Label: p.Sprintf(btnCreateOrder), Data: cbCreateOrder}},
		{{Label: p.Sprintf(btnSubmitReview), Data: cbSubmitReview}},
		{{Label: p.Sprintf(btnRegister), Data: cbRegister}},
	}

	if admin {
		kb = append(kb,
			[]chat.Button{{Label: p.Sprintf(btnMarkPaid), Data: cbMarkPaid}},
			[]chat.Button{{Label: p.Sprintf(btnPending), Data: cbPending}},
		)
	}

	return kb
}

func cancelKeyboard(p *message.Printer) chat.Keyboard {
	return chat.Keyboard{{{Label: p.Sprintf(btnCancel), Data: cbCancel}}}
}

func paypalKeyboard(p *message.Printer, suggested string) chat.Keyboard {
	return chat.Keyboard{
		{{Label: p.Sprintf(btnKeepPayPal, suggested), Data: cbPayPalKeep}},
		{{Label: p.Sprintf(btnChangePayPal), Data: cbPayPalChange}},
		{{Label: p.Sprintf(btnCancel), Data: cbCancel}},
	}
}

func paidChoiceKeyboard(p *message.Printer) chat.Keyboard {
	return chat.Keyboard{
		{{Label: p.Sprintf(btnPaidProof), Data: cbPaidProof}},
		{{Label: p.Sprintf(btnPaidNoProof), Data: cbPaidNoProof}},
		{{Label: p.Sprintf(btnCancel), Data: cbCancel}},
	}
}

func operatorKeyboard(p *message.Printer, key string) chat.Keyboard {
	return chat.Keyboard{
		{{Label: p.Sprintf(btnAdvance, key), Data: cbAdvancePrefix + key}},
		{{Label: p.Sprintf(btnMarkPaid), Data: cbPaidPrefix + key}},
	}
}
