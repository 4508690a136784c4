package pdf

import "time"

const (
	// DefaultThumbnailDPI renders a letter page at roughly 612x792 pixels
	DefaultThumbnailDPI = 72

	// MinThumbnailDPI is the lowest accepted render resolution
	MinThumbnailDPI = 18

	// MaxThumbnailDPI caps render resolution to bound memory per request
	MaxThumbnailDPI = 300

	// DefaultOperationTimeout bounds a single read, extract or render
	DefaultOperationTimeout = 30 * time.Second

	// pdfMagic is the header every PDF file starts with
	pdfMagic = "%PDF"
)
