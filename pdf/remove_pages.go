package pdf

import (
	"context"
	"fmt"
	"slices"
)

// RemovePages writes outFile with every page of inFile except pages.
// Removing every page is rejected, a PDF needs at least one.
func (p *Processor) RemovePages(ctx context.Context, inFile, outFile string, pages []int) error {
	total, err := p.PageCount(ctx, inFile)
	if err != nil {
		return fmt.Errorf("failed to get page count: %w", err)
	}

	for _, page := range pages {
		if page < 1 || page > total {
			return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, total)
		}
	}

	keep := make([]int, 0, total)
	for page := 1; page <= total; page++ {
		if !slices.Contains(pages, page) {
			keep = append(keep, page)
		}
	}
	if len(keep) == 0 {
		return fmt.Errorf("cannot remove all %d pages", total)
	}

	return p.Extract(ctx, inFile, outFile, keep)
}
