package record

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("record already exists")
	ErrUnknownLedger = errors.New("unknown ledger")
)

// Record is one tracked order/review/payment cycle as stored in a single
// ledger. The same Key may exist once in the primary ledger and once in an
// agent ledger; the two copies share nothing but the key.
type Record struct {
	ID     uuid.UUID
	Ledger string
	Key    string
	Status status.Status
	Paid   bool

	OwnerKey    string // participant that submitted the order
	OwnerChat   string // channel used for owner notifications
	OwnerHandle string

	PayPal          string
	ProfileLink     string
	ProofRef        string // proof of purchase
	ReviewLink      string
	PaymentProofRef string

	// Mirror names the agent ledger holding a copy. Only set on primary copies.
	Mirror string

	// Color is the observed row color, nil when the row was never painted.
	Color *status.Pair

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patch lists the fields a mutation changes. Nil fields are left untouched.
type Patch struct {
	Status          *status.Status
	Paid            *bool
	PayPal          *string
	ReviewLink      *string
	PaymentProofRef *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Status == nil && p.Paid == nil && p.PayPal == nil && p.ReviewLink == nil && p.PaymentProofRef == nil
}

// Apply copies the patch onto an in-memory record.
func (p Patch) Apply(r *Record) {
	if p.Status != nil {
		r.Status = *p.Status
	}

	if p.Paid != nil {
		r.Paid = *p.Paid
	}

	if p.PayPal != nil {
		r.PayPal = *p.PayPal
	}

	if p.ReviewLink != nil {
		r.ReviewLink = *p.ReviewLink
	}

	if p.PaymentProofRef != nil {
		r.PaymentProofRef = *p.PaymentProofRef
	}
}

// StatusPatch builds the patch for a status change. Paid statuses also raise
// the paid flag; it is never lowered by a status change.
func StatusPatch(s status.Status) Patch {
	p := Patch{Status: new(s)}
	if s.IsPaid() {
		p.Paid = new(true)
	}

	return p
}
