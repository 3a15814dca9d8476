// Package encoding normalises spreadsheet exports to UTF-8 before parsing.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decoded is a UTF-8 view over an export together with the charset it was
// read as.
type Decoded struct {
	io.Reader
	Charset string
}

// legacy maps chardet results to decoders for the single-byte charsets
// spreadsheet tools still write on Windows.
var legacy = map[string]encoding.Encoding{
	"ISO-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-15":  charmap.ISO8859_15,
	"ISO-8859-9":   charmap.ISO8859_9,
}

// Detect sniffs the head of r and returns a reader yielding UTF-8.
//
// A BOM wins over everything else; otherwise valid UTF-8 passes through,
// then chardet is consulted, and Windows-1252 is the fallback.
func Detect(r io.Reader) (*Decoded, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return &Decoded{Reader: br, Charset: "UTF-8"}, nil
	case bytes.HasPrefix(head, bomUTF16LE):
		return decode(br, "UTF-16LE", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)), nil
	case bytes.HasPrefix(head, bomUTF16BE):
		return decode(br, "UTF-16BE", unicode.UTF16(unicode.BigEndian, unicode.UseBOM)), nil
	case utf8.Valid(head):
		return &Decoded{Reader: br, Charset: "UTF-8"}, nil
	}

	if res, err := chardet.NewTextDetector().DetectBest(head); err == nil {
		if res.Charset == "UTF-8" {
			return &Decoded{Reader: br, Charset: "UTF-8"}, nil
		}

		if enc, ok := legacy[res.Charset]; ok {
			return decode(br, res.Charset, enc), nil
		}
	}

	return decode(br, "windows-1252", charmap.Windows1252), nil
}

// NewUTF8Reader is Detect without the charset name.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	d, err := Detect(r)
	if err != nil {
		return nil, err
	}

	return d.Reader, nil
}

func decode(r io.Reader, name string, enc encoding.Encoding) *Decoded {
	return &Decoded{Reader: transform.NewReader(r, enc.NewDecoder()), Charset: name}
}
