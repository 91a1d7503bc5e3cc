// Package scan runs page images through the OCR service, persists the
// recognized text per supply date, and hands the pages to the department
// extractor.
package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyeonlab/ward-recon/internal/application/ocrtext"
	"github.com/hyeonlab/ward-recon/internal/domain"
	"github.com/hyeonlab/ward-recon/internal/domain/entity"
	"github.com/hyeonlab/ward-recon/internal/domain/repository"
	"github.com/hyeonlab/ward-recon/pkg/logger"
)

// OCRClient recognizes the text of one page image.
type OCRClient interface {
	RecognizePage(ctx context.Context, image []byte) (string, error)
}

// Result carries the recognized pages and the department blocks found on
// them. Warnings localize per-page OCR failures; a failed page contributes
// an empty string so page numbering stays stable.
type Result struct {
	Pages       []string
	Departments []entity.DepartmentPage
	Warnings    []string
}

// Pipeline drives OCR recognition and storage for one scanned receipt.
type Pipeline struct {
	ocr    OCRClient
	blobs  repository.BlobStore
	parser *ocrtext.Parser
	log    *logger.Logger
}

// NewPipeline wires the scan pipeline.
func NewPipeline(ocr OCRClient, blobs repository.BlobStore, parser *ocrtext.Parser, log *logger.Logger) *Pipeline {
	return &Pipeline{ocr: ocr, blobs: blobs, parser: parser, log: log}
}

// Run recognizes every page image in order, persists each page's text and a
// concatenated all-pages blob under the date, and extracts the department
// blocks. A page whose recognition fails is recorded as a warning and left
// empty; only when every page fails is the run an error (domain.ErrEmptyInput).
func (p *Pipeline) Run(ctx context.Context, date string, images [][]byte) (*Result, error) {
	if p.ocr == nil {
		return nil, fmt.Errorf("scan: no OCR client configured: %w", domain.ErrExternalService)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("scan: %w", domain.ErrEmptyInput)
	}

	res := &Result{Pages: make([]string, len(images))}
	recognized := 0
	for i, img := range images {
		text, err := p.ocr.RecognizePage(ctx, img)
		if err != nil {
			msg := fmt.Sprintf("page %d recognition failed: %v", i+1, err)
			p.log.Warn().Msg(msg)
			res.Warnings = append(res.Warnings, msg)
			continue
		}
		res.Pages[i] = text
		recognized++
	}
	if recognized == 0 {
		return nil, fmt.Errorf("scan: every page failed: %w", domain.ErrEmptyInput)
	}

	for i, text := range res.Pages {
		key := PageKey(date, i+1)
		if err := p.blobs.Put(ctx, key, []byte(text)); err != nil {
			return nil, fmt.Errorf("store %s: %w", key, err)
		}
	}
	all := strings.Join(res.Pages, "\n")
	if err := p.blobs.Put(ctx, AllPagesKey(date), []byte(all)); err != nil {
		return nil, fmt.Errorf("store %s: %w", AllPagesKey(date), err)
	}

	res.Departments = p.parser.ExtractDepartments(res.Pages)
	p.log.Info().Str("date", date).Int("pages", recognized).Int("departments", len(res.Departments)).Msg("scan complete")
	return res, nil
}

// Load returns the stored per-page texts for a date, in page order. The
// loop ends at the first absent page; any other store error propagates so a
// transient failure cannot silently truncate the page list.
func (p *Pipeline) Load(ctx context.Context, date string) ([]string, error) {
	var pages []string
	for n := 1; ; n++ {
		data, err := p.blobs.Get(ctx, PageKey(date, n))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				break
			}
			return nil, fmt.Errorf("load %s: %w", PageKey(date, n), err)
		}
		pages = append(pages, string(data))
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no stored pages for %s: %w", date, domain.ErrNotFound)
	}
	return pages, nil
}

// PageKey is the blob key of one page's recognized text.
func PageKey(date string, page int) string {
	return fmt.Sprintf("ocr_results/%s/page_%d.txt", date, page)
}

// AllPagesKey is the blob key of the concatenated recognized text.
func AllPagesKey(date string) string {
	return fmt.Sprintf("ocr_results/%s/all_pages.txt", date)
}
