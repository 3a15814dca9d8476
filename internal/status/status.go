package status

import (
	"fmt"
	"strings"
)

// Status is the logical lifecycle state of a ledger record.
type Status string

const (
	Pending         Status = "pending"
	ReviewUploaded  Status = "review_uploaded"
	ReviewForwarded Status = "review_forwarded"
	Paid            Status = "paid"
	Completed       Status = "completed"
)

// All lists every status in lifecycle order.
var All = []Status{Pending, ReviewUploaded, ReviewForwarded, Paid, Completed}

func (s Status) Valid() bool {
	for _, v := range All {
		if v == s {
			return true
		}
	}

	return false
}

// IsPaid reports whether records in this status carry the paid flag.
func (s Status) IsPaid() bool {
	return s == Paid || s == Completed
}

// Label returns the sheet label operators see in the ledger.
func (s Status) Label() string {
	switch s {
	case Pending:
		return "Pendiente"
	case ReviewUploaded:
		return "Reseña subida"
	case ReviewForwarded:
		return "Reseña enviada"
	case Paid:
		return "Pagado"
	case Completed:
		return "Completado"
	}

	return string(s)
}

// Parse accepts either the canonical value or a sheet label, ignoring case.
func Parse(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, v := range All {
		if strings.EqualFold(s, string(v)) || strings.EqualFold(s, v.Label()) {
			return v, nil
		}
	}

	return "", fmt.Errorf("unknown status %q", s)
}
