package api

import "time"

const (
	// FileCleanupDelay is the delay before cleaning up temp files after response is sent
	FileCleanupDelay = 2 * time.Second

	// MaxErrorMessageLength truncates library errors echoed to clients
	MaxErrorMessageLength = 200

	// ThumbnailCacheControl lets browsers reuse a rendered page for the document lifetime
	ThumbnailCacheControl = "private, max-age=3600"

	// MaxNormalizePageCount bounds the page count a client may claim when
	// normalizing an expression without a document
	MaxNormalizePageCount = 10000

	// MaxEchoedPages is the largest selection listed page by page in a
	// normalize response
	MaxEchoedPages = 1000

	extractedSuffix    = "extracted"
	pagesRemovedSuffix = "pages_removed"
)
