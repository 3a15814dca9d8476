package conversation

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/MrJamesThe3rd/ledgerbot/internal/chat"
	"github.com/MrJamesThe3rd/ledgerbot/internal/participant"
)

// Callback payloads carried by inline buttons.
const (
	cbCancel        = "cancel"
	cbMenu          = "menu"
	cbCreateOrder   = "create_order"
	cbSubmitReview  = "submit_review"
	cbRegister      = "register"
	cbMarkPaid      = "mark_paid"
	cbPending       = "pending"
	cbPayPalKeep    = "paypal_keep"
	cbPayPalChange  = "paypal_change"
	cbPaidProof     = "paid_proof"
	cbPaidNoProof   = "paid_noproof"
	cbAdvancePrefix = "advance:"
	cbPaidPrefix    = "paid:"
)

var fold = cases.Fold()

var (
	cancelTokens = tokenSet("/cancel", "cancel", "cancelar", cbCancel)
	menuTokens   = tokenSet("/start", "/menu", "menu", "menú", "inicio", cbMenu)

	// Typed equivalents of the menu buttons.
	commandTokens = map[string]string{
		"/pedido":     cbCreateOrder,
		"/order":      cbCreateOrder,
		"/resena":     cbSubmitReview,
		"/reseña":     cbSubmitReview,
		"/review":     cbSubmitReview,
		"/registro":   cbRegister,
		"/register":   cbRegister,
		"/pagado":     cbMarkPaid,
		"/paid":       cbMarkPaid,
		"/pending":    cbPending,
		"/pendientes": cbPending,
	}
)

func tokenSet(tokens ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[fold.String(t)] = struct{}{}
	}

	return set
}

// command returns the normalised command carried by the event: the callback
// payload if any, otherwise the folded text.
func command(ev chat.Event) string {
	if ev.Callback != "" {
		return ev.Callback
	}

	cmd := fold.String(strings.TrimSpace(ev.Text))

	// "/start@ledgerbot" in group chats.
	if i := strings.IndexByte(cmd, '@'); i > 0 && strings.HasPrefix(cmd, "/") {
		cmd = cmd[:i]
	}

	if mapped, ok := commandTokens[cmd]; ok {
		return mapped
	}

	return cmd
}

func isCancel(cmd string) bool {
	_, ok := cancelTokens[cmd]
	return ok
}

func isMenu(cmd string) bool {
	_, ok := menuTokens[cmd]
	return ok
}

var (
	separators = regexp.MustCompile(`(?i)\s*(?:,|;|\n|&|/|\s+y\s+|\s+and\s+)\s*`)
	noneTokens = tokenSet("-", "no", "ninguno", "ninguna", "none", "nadie")
)

// parseIntermediaries splits a free-text list of handles on separators and
// conjunctions, dropping leading mention markers.
func parseIntermediaries(text string) []string {
	text = strings.TrimSpace(text)
	if _, none := noneTokens[fold.String(text)]; none || text == "" {
		return nil
	}

	var out []string

	for _, part := range separators.Split(text, -1) {
		if h := participant.NormalizeHandle(part); h != "" {
			out = append(out, h)
		}
	}

	return out
}

func textOf(ev chat.Event) string {
	return strings.TrimSpace(ev.Text)
}
