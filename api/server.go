package api

import (
	"context"

	"pagepicker/config"
	"pagepicker/store"

	"github.com/rs/zerolog"
)

// ServiceName is reported by the health endpoint and in logs
const ServiceName = "pagepicker"

// DocumentSource reports page counts and renders page previews.
type DocumentSource interface {
	PageCount(ctx context.Context, path string) (int, error)
	RenderPage(ctx context.Context, path string, page, dpi int) ([]byte, error)
}

// Extractor writes derived documents holding a subset of pages.
type Extractor interface {
	Extract(ctx context.Context, inFile, outFile string, pages []int) error
	RemovePages(ctx context.Context, inFile, outFile string, pages []int) error
}

// Server carries the dependencies shared by all handlers.
type Server struct {
	cfg       *config.Config
	store     *store.Store
	source    DocumentSource
	extractor Extractor
	logger    zerolog.Logger
}

func NewServer(cfg *config.Config, st *store.Store, source DocumentSource, extractor Extractor, logger zerolog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		source:    source,
		extractor: extractor,
		logger:    logger,
	}
}
