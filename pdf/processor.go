package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"slices"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
)

var (
	// ErrNoPages is returned for documents without a single page.
	ErrNoPages = errors.New("PDF has no pages")

	// ErrPageOutOfRange is returned when a requested page does not exist.
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrNoPagesSelected is returned when extraction is asked to keep nothing.
	ErrNoPagesSelected = errors.New("no pages selected")
)

// Processor reads, renders and extracts PDF documents in process. Page
// structure goes through pdfcpu; rasterization goes through MuPDF.
type Processor struct {
	timeout time.Duration
	logger  zerolog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

func WithTimeout(d time.Duration) ProcessorOption {
	return func(p *Processor) { p.timeout = d }
}

func WithLogger(logger zerolog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = logger }
}

func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		timeout: DefaultOperationTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PageCount validates the document at path and returns its number of pages.
func (p *Processor) PageCount(ctx context.Context, path string) (int, error) {
	var count int
	err := runWithTimeout(ctx, p.timeout, func() error {
		pdfCtx, err := readContextFile(path)
		if err != nil {
			return err
		}
		count = pdfCtx.PageCount
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count < 1 {
		return 0, ErrNoPages
	}
	return count, nil
}

// Extract writes a new document to outFile holding only pages of inFile,
// in ascending order. pages are 1-indexed; duplicates are ignored.
func (p *Processor) Extract(ctx context.Context, inFile, outFile string, pages []int) error {
	in, err := os.Open(inFile)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(outFile)
	if err != nil {
		return err
	}

	if err := p.ExtractTo(ctx, in, out, pages); err != nil {
		out.Close()
		os.Remove(outFile)
		return err
	}

	if err := out.Close(); err != nil {
		os.Remove(outFile)
		return err
	}
	return nil
}

// ExtractTo is Extract over streams.
func (p *Processor) ExtractTo(ctx context.Context, r io.ReadSeeker, w io.Writer, pages []int) error {
	keep := slices.Clone(pages)
	slices.Sort(keep)
	keep = slices.Compact(keep)
	if len(keep) == 0 {
		return ErrNoPagesSelected
	}

	start := time.Now()
	err := runWithTimeout(ctx, p.timeout, func() error {
		pdfCtx, err := readContext(r)
		if err != nil {
			return err
		}

		for _, page := range []int{keep[0], keep[len(keep)-1]} {
			if page < 1 || page > pdfCtx.PageCount {
				return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, pdfCtx.PageCount)
			}
		}

		extracted, err := pdfcpu.ExtractPages(pdfCtx, keep, false)
		if err != nil {
			return fmt.Errorf("pdfcpu extract failed: %w", err)
		}

		// Buffer so a failed write never leaves a partial document in w
		var buf bytes.Buffer
		if err := api.WriteContext(extracted, &buf); err != nil {
			return fmt.Errorf("pdfcpu write failed: %w", err)
		}
		_, err = buf.WriteTo(w)
		return err
	})
	if err != nil {
		return err
	}

	p.logger.Debug().
		Int("pages", len(keep)).
		Dur("elapsed", time.Since(start)).
		Msg("extracted pages")
	return nil
}

// RenderPage rasterizes a 1-indexed page to PNG at the given resolution.
func (p *Processor) RenderPage(ctx context.Context, path string, page, dpi int) ([]byte, error) {
	if dpi <= 0 {
		dpi = DefaultThumbnailDPI
	}
	dpi = min(max(dpi, MinThumbnailDPI), MaxThumbnailDPI)

	var data []byte
	err := runWithTimeout(ctx, p.timeout, func() error {
		doc, err := fitz.New(path)
		if err != nil {
			return fmt.Errorf("failed to open PDF: %w", err)
		}
		defer doc.Close()

		if page < 1 || page > doc.NumPage() {
			return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, doc.NumPage())
		}

		img, err := doc.ImageDPI(page-1, float64(dpi))
		if err != nil {
			return fmt.Errorf("failed to render page %d: %w", page, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("failed to encode page %d as PNG: %w", page, err)
		}
		data = buf.Bytes()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func readContextFile(path string) (*model.Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := ValidateHeader(f); err != nil {
		return nil, err
	}
	return readContext(f)
}

func readContext(r io.ReadSeeker) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(r, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("pdfcpu page count: %w", err)
	}
	return pdfCtx, nil
}
