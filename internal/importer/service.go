package importer

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/ledgerbot/internal/importer/sheet"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
)

type Service struct {
	sheetImporter Importer
}

func NewService() *Service {
	return &Service{
		sheetImporter: sheet.NewParser(),
	}
}

// Import parses r in the given format. An empty format means FormatSheet.
func (s *Service) Import(format Format, r io.Reader) ([]record.CreateParams, error) {
	var importer Importer

	switch format {
	case FormatSheet, "":
		importer = s.sheetImporter
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}

	return importer.Parse(r)
}
