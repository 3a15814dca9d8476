// Package export writes ledgers out as CSV in the layout the sheet importer
// reads back, optionally downloading purchase proofs next to the file.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/ledgerbot/internal/record"
)

// Header is the column layout of exported files.
var Header = []string{"key", "status", "paid", "paypal", "handle", "profile_link", "proof_ref", "review_link", "mirror"}

// Item is one exported record and the local copy of its proof, if any.
type Item struct {
	Record    *record.Record
	ProofPath string
}

type Lister interface {
	List(ctx context.Context, ledger string, filter record.ListFilter) ([]*record.Record, error)
}

// FileResolver turns a chat transport file id into a short-lived download URL.
type FileResolver interface {
	FileURL(ctx context.Context, fileID string) (string, error)
}

type Option func(*Service)

func WithFileResolver(r FileResolver) Option {
	return func(s *Service) { s.files = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

type Service struct {
	records Lister
	files   FileResolver
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(records Lister, opts ...Option) *Service {
	s := &Service{
		records: records,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("component", "export")

	return s
}

// WriteCSV streams the ledger to w.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, ledger string, filter record.ListFilter) (int, error) {
	recs, err := s.records.List(ctx, ledger, filter)
	if err != nil {
		return 0, fmt.Errorf("listing records: %w", err)
	}

	if err := writeRecords(w, recs); err != nil {
		return 0, err
	}

	return len(recs), nil
}

// Export writes <ledger>-<date>.csv into outputDir and downloads every proof
// it can reach into outputDir/proofs. A proof that cannot be downloaded is
// logged and left out.
func (s *Service) Export(ctx context.Context, ledger string, filter record.ListFilter, outputDir string) (string, []Item, error) {
	recs, err := s.records.List(ctx, ledger, filter)
	if err != nil {
		return "", nil, fmt.Errorf("listing records: %w", err)
	}

	proofDir := filepath.Join(outputDir, "proofs")
	if err := os.MkdirAll(proofDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(recs))

	for _, rec := range recs {
		item := Item{Record: rec}

		path, err := s.fetchProof(ctx, rec, proofDir)
		if err != nil {
			// The row is still exported; Summary marks it as missing a proof.
			s.logger.Warn("failed to download proof", "key", rec.Key, "ledger", ledger, "error", err)
		}

		item.ProofPath = path

		items = append(items, item)
	}

	csvPath := filepath.Join(outputDir, fmt.Sprintf("%s-%s.csv", safeName(ledger), s.now().Format("20060102")))

	f, err := os.Create(csvPath)
	if err != nil {
		return "", nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := writeRecords(f, recs); err != nil {
		return "", nil, err
	}

	return csvPath, items, nil
}

func writeRecords(w io.Writer, recs []*record.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, rec := range recs {
		row := []string{
			rec.Key,
			string(rec.Status),
			strconv.FormatBool(rec.Paid),
			rec.PayPal,
			rec.OwnerHandle,
			rec.ProfileLink,
			rec.ProofRef,
			rec.ReviewLink,
			rec.Mirror,
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", rec.Key, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// fetchProof downloads the proof of rec. Stored references are either plain
// URLs or transport file ids, which are resolved right before the download.
func (s *Service) fetchProof(ctx context.Context, rec *record.Record, dir string) (string, error) {
	if rec.ProofRef == "" {
		return "", nil
	}

	src := rec.ProofRef

	if !isURL(src) {
		if s.files == nil {
			return "", nil
		}

		u, err := s.files.FileURL(ctx, src)
		if err != nil {
			return "", fmt.Errorf("resolving file: %w", err)
		}

		src = u
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// Drop the URL from the error: resolved links carry credentials.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}

		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	path := filepath.Join(dir, proofFilename(resp, rec))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

// proofFilename names the file after the order key so proofs sort with the
// ledger; the extension comes from the URL or the content type.
func proofFilename(resp *http.Response, rec *record.Record) string {
	ext := filepath.Ext(resp.Request.URL.Path)

	if ext == "" {
		ext = ".jpg"

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
				ext = exts[0]
			}
		}
	}

	return safeName(rec.Key) + ext
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, s)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

// Summary renders one line per exported record.
func Summary(items []Item) string {
	var sb strings.Builder

	for _, item := range items {
		proof := "sin captura"
		if item.ProofPath != "" {
			proof = filepath.Base(item.ProofPath)
		}

		fmt.Fprintf(&sb, "* %s | %s | %s | %s\n",
			item.Record.Key, item.Record.Status.Label(), item.Record.PayPal, proof)
	}

	return sb.String()
}
