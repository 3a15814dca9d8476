package participant

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("participant not found")

// Profile is a registered participant. It lives outside the order ledger.
type Profile struct {
	ID             uuid.UUID
	Handle         string
	Channel        string
	ProfileLink    string
	PayPal         string
	Intermediaries []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
