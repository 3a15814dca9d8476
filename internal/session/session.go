// Package session holds per-participant conversation state and expires it
// after a period of inactivity.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("session not found")

type Kind string

const (
	KindIdle             Kind = "idle"
	KindRegistering      Kind = "registering"
	KindCreatingOrder    Kind = "creating_order"
	KindSubmittingReview Kind = "submitting_review"
	KindAdminMarkingPaid Kind = "admin_marking_paid"
	KindAwaitingProof    Kind = "awaiting_proof"
)

// Flow is the closed set of conversation states. Each variant carries its own
// step cursor and the fields collected so far.
type Flow interface {
	Kind() Kind
	isFlow()
}

type Idle struct{}

type RegisterStep string

const (
	RegisterProfile        RegisterStep = "profile"
	RegisterPayPal         RegisterStep = "paypal"
	RegisterIntermediaries RegisterStep = "intermediaries"
)

type Registering struct {
	Step    RegisterStep `json:"step"`
	Profile string       `json:"profile,omitempty"`
	PayPal  string       `json:"paypal,omitempty"`
}

type OrderStep string

const (
	OrderID           OrderStep = "order_id"
	OrderProof        OrderStep = "proof"
	OrderPayPalChoice OrderStep = "paypal_choice"
	OrderPayPal       OrderStep = "paypal"
)

type CreatingOrder struct {
	Step            OrderStep `json:"step"`
	OrderID         string    `json:"order_id,omitempty"`
	ProofRef        string    `json:"proof_ref,omitempty"`
	SuggestedPayPal string    `json:"suggested_paypal,omitempty"`
}

type ReviewStep string

const (
	ReviewLink         ReviewStep = "review_link"
	ReviewOrderID      ReviewStep = "order_id"
	ReviewPayPalChoice ReviewStep = "paypal_choice"
	ReviewPayPal       ReviewStep = "paypal"
)

type SubmittingReview struct {
	Step            ReviewStep `json:"step"`
	ReviewLink      string     `json:"review_link,omitempty"`
	OrderID         string     `json:"order_id,omitempty"`
	SuggestedPayPal string     `json:"suggested_paypal,omitempty"`
}

type PaidStep string

const (
	PaidOrderID PaidStep = "order_id"
	PaidChoice  PaidStep = "choice"
)

type AdminMarkingPaid struct {
	Step    PaidStep `json:"step"`
	OrderID string   `json:"order_id,omitempty"`
}

// AwaitingProof waits for the payment proof image of an order being marked paid.
type AwaitingProof struct {
	OrderID string `json:"order_id"`
}

func (Idle) Kind() Kind             { return KindIdle }
func (Registering) Kind() Kind      { return KindRegistering }
func (CreatingOrder) Kind() Kind    { return KindCreatingOrder }
func (SubmittingReview) Kind() Kind { return KindSubmittingReview }
func (AdminMarkingPaid) Kind() Kind { return KindAdminMarkingPaid }
func (AwaitingProof) Kind() Kind    { return KindAwaitingProof }

func (Idle) isFlow()             {}
func (Registering) isFlow()      {}
func (CreatingOrder) isFlow()    {}
func (SubmittingReview) isFlow() {}
func (AdminMarkingPaid) isFlow() {}
func (AwaitingProof) isFlow()    {}

type Session struct {
	Key  string
	Flow Flow
	// Rejections counts invalid answers in a row at the current step.
	Rejections     int
	LastActivityAt time.Time
}

func New(key string) *Session {
	return &Session{Key: key, Flow: Idle{}}
}

func (s *Session) IsIdle() bool {
	return s.Flow == nil || s.Flow.Kind() == KindIdle
}

// Expired reports whether an active session has been untouched for at least timeout.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	return !s.IsIdle() && now.Sub(s.LastActivityAt) >= timeout
}

type envelope struct {
	Key            string          `json:"key"`
	Kind           Kind            `json:"kind"`
	Flow           json.RawMessage `json:"flow,omitempty"`
	Rejections     int             `json:"rejections,omitempty"`
	LastActivityAt time.Time       `json:"last_activity_at"`
}

func (s Session) MarshalJSON() ([]byte, error) {
	flow := s.Flow
	if flow == nil {
		flow = Idle{}
	}

	raw, err := json.Marshal(flow)
	if err != nil {
		return nil, fmt.Errorf("marshal flow: %w", err)
	}

	return json.Marshal(envelope{
		Key:            s.Key,
		Kind:           flow.Kind(),
		Flow:           raw,
		Rejections:     s.Rejections,
		LastActivityAt: s.LastActivityAt,
	})
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	flow, err := decodeFlow(env.Kind, env.Flow)
	if err != nil {
		return err
	}

	s.Key = env.Key
	s.Flow = flow
	s.Rejections = env.Rejections
	s.LastActivityAt = env.LastActivityAt

	return nil
}

func decodeFlow(kind Kind, raw json.RawMessage) (Flow, error) {
	switch kind {
	case KindIdle, "":
		return Idle{}, nil
	case KindRegistering:
		return decodeInto[Registering](raw)
	case KindCreatingOrder:
		return decodeInto[CreatingOrder](raw)
	case KindSubmittingReview:
		return decodeInto[SubmittingReview](raw)
	case KindAdminMarkingPaid:
		return decodeInto[AdminMarkingPaid](raw)
	case KindAwaitingProof:
		return decodeInto[AwaitingProof](raw)
	default:
		return nil, fmt.Errorf("unknown flow kind %q", kind)
	}
}

func decodeInto[T Flow](raw json.RawMessage) (Flow, error) {
	var f T
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal %T: %w", f, err)
	}

	return f, nil
}
