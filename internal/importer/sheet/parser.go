// Package sheet reads ledger spreadsheets exported as CSV.
package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"

	enc "github.com/MrJamesThe3rd/ledgerbot/internal/encoding"
	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
	"github.com/MrJamesThe3rd/ledgerbot/internal/status"
)

// Parser auto-detects the export layout by matching header rows against the
// known profiles, so title rows above the table are tolerated.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]record.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	br := bufio.NewReader(utf8r)

	reader := csv.NewReader(br)
	reader.Comma = sniffComma(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching ledger format found: expected a key and a status column")
	}

	return parseRows(profile, cols, rows[headerIdx+1:], headerIdx+1)
}

// sniffComma picks ';' when the first line has more semicolons than commas.
// Sheets in Spanish locales export with ';'.
func sniffComma(br *bufio.Reader) rune {
	head, _ := br.Peek(br.Size())
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}

	return ','
}

var fold = cases.Fold()

func normalize(s string) string {
	return fold.String(strings.TrimSpace(s))
}

type colIndex map[string]int

// find returns the index of the first alias present, or -1.
func (c colIndex) find(aliases []string) int {
	for _, a := range aliases {
		if i, ok := c[normalize(a)]; ok {
			return i
		}
	}

	return -1
}

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := normalize(cell)
			if _, dup := cols[name]; name != "" && !dup {
				cols[name] = i
			}
		}

		for i := range profiles {
			if cols.find(profiles[i].KeyCol) >= 0 && cols.find(profiles[i].StatusCol) >= 0 {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

// parseRows turns data rows into create params. Rows without a key are
// skipped (blank lines and totals); an unreadable status is an error.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]record.CreateParams, error) {
	var (
		keyIdx     = cols.find(p.KeyCol)
		statusIdx  = cols.find(p.StatusCol)
		paypalIdx  = cols.find(p.PayPalCol)
		handleIdx  = cols.find(p.HandleCol)
		profileIdx = cols.find(p.ProfileCol)
		proofIdx   = cols.find(p.ProofCol)
		reviewIdx  = cols.find(p.ReviewCol)
	)

	var params []record.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		key := cellValue(row, keyIdx)
		if key == "" {
			continue
		}

		st := status.Pending
		if label := cellValue(row, statusIdx); label != "" {
			parsed, err := status.Parse(label)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", rowNum, err)
			}

			st = parsed
		}

		params = append(params, record.CreateParams{
			Key:         key,
			Status:      st,
			OwnerHandle: strings.TrimPrefix(cellValue(row, handleIdx), "@"),
			PayPal:      cellValue(row, paypalIdx),
			ProfileLink: cellValue(row, profileIdx),
			ProofRef:    cellValue(row, proofIdx),
			ReviewLink:  cellValue(row, reviewIdx),
		})
	}

	return params, nil
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
