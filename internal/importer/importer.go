// Package importer turns ledger exports into record create params.
package importer

import (
	"io"

	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
)

type Format string

const (
	FormatSheet Format = "sheet"
)

type Importer interface {
	Parse(r io.Reader) ([]record.CreateParams, error)
}
