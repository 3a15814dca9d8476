package record

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

type recordResponse struct {
	ID              uuid.UUID      `json:"id"`
	Ledger          string         `json:"ledger"`
	Key             string         `json:"key"`
	Status          status.Status  `json:"status"`
	Label           string         `json:"label"`
	Paid            bool           `json:"paid"`
	OwnerHandle     string         `json:"owner_handle,omitempty"`
	PayPal          string         `json:"paypal,omitempty"`
	ProfileLink     string         `json:"profile_link,omitempty"`
	ProofRef        string         `json:"proof_ref,omitempty"`
	ReviewLink      string         `json:"review_link,omitempty"`
	PaymentProofRef string         `json:"payment_proof_ref,omitempty"`
	Mirror          string         `json:"mirror,omitempty"`
	Color           *colorResponse `json:"color,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type colorResponse struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

func toResponse(rec *record.Record) recordResponse {
	resp := recordResponse{
		ID:              rec.ID,
		Ledger:          rec.Ledger,
		Key:             rec.Key,
		Status:          rec.Status,
		Label:           rec.Status.Label(),
		Paid:            rec.Paid,
		OwnerHandle:     rec.OwnerHandle,
		PayPal:          rec.PayPal,
		ProfileLink:     rec.ProfileLink,
		ProofRef:        rec.ProofRef,
		ReviewLink:      rec.ReviewLink,
		PaymentProofRef: rec.PaymentProofRef,
		Mirror:          rec.Mirror,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}

	if rec.Color != nil {
		resp.Color = &colorResponse{
			Background: rec.Color.Background.Hex(),
			Foreground: rec.Color.Foreground.Hex(),
		}
	}

	return resp
}

func toResponseList(recs []*record.Record) []recordResponse {
	resp := make([]recordResponse, len(recs))
	for i, rec := range recs {
		resp[i] = toResponse(rec)
	}

	return resp
}
