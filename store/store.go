// Package store keeps uploaded documents and extracted outputs on disk and
// tracks their lifetime.
package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"pagepicker/selection"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultFilePermissions for temp directory creation
const DefaultFilePermissions = 0755

var (
	ErrNotFound = errors.New("not found")
	ErrTooLarge = errors.New("file too large")
)

// Document is an uploaded PDF and its live page selection.
type Document struct {
	ID         string             `json:"id"`
	Filename   string             `json:"filename"`
	Path       string             `json:"-"`
	PageCount  int                `json:"page_count"`
	UploadedAt time.Time          `json:"uploaded_at"`
	Session    *selection.Session `json:"-"`
}

// Download is an extracted file that can be fetched until it expires.
type Download struct {
	Name      string
	Path      string
	Filename  string
	ExpiresAt time.Time
}

// Store is safe for concurrent use.
type Store struct {
	dir    string
	logger zerolog.Logger

	mu        sync.RWMutex
	docs      map[string]*Document
	downloads map[string]*Download
	timers    map[string]*time.Timer
	closed    bool
}

func New(dir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, DefaultFilePermissions); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &Store{
		dir:       dir,
		logger:    logger,
		docs:      make(map[string]*Document),
		downloads: make(map[string]*Download),
		timers:    make(map[string]*time.Timer),
	}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save copies r into a new file named after a fresh ID. At most maxSize
// bytes are accepted; maxSize <= 0 means no limit.
func (s *Store) Save(r io.Reader, maxSize int64) (id, path string, err error) {
	id = uuid.NewString()
	path = filepath.Join(s.dir, id+".pdf")

	out, err := os.Create(path)
	if err != nil {
		return "", "", err
	}

	src := r
	if maxSize > 0 {
		src = io.LimitReader(r, maxSize+1)
	}
	n, err := io.Copy(out, src)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && maxSize > 0 && n > maxSize {
		err = fmt.Errorf("%w: exceeds maximum allowed %d bytes", ErrTooLarge, maxSize)
	}
	if err != nil {
		os.Remove(path) // Clean up on error
		return "", "", err
	}

	return id, path, nil
}

// Add registers doc. Its file is owned by the store from now on.
func (s *Store) Add(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("store is closed")
	}
	if _, exists := s.docs[doc.ID]; exists {
		return fmt.Errorf("document %s already exists", doc.ID)
	}
	s.docs[doc.ID] = doc
	return nil
}

func (s *Store) Get(id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return doc, nil
}

// List returns documents ordered by upload time.
func (s *Store) List() []*Document {
	s.mu.RLock()
	docs := make([]*Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	s.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.Before(docs[j].UploadedAt)
	})
	return docs
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Remove forgets the document, stops its session and deletes its file.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	doc, ok := s.docs[id]
	delete(s.docs, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}

	s.release(doc)
	return nil
}

// OutputPath names a new extracted file for document id.
func (s *Store) OutputPath(id string) string {
	return filepath.Join(s.dir, fmt.Sprintf("extracted_%d_%s.pdf", time.Now().UnixMilli(), id))
}

// Publish makes the file at path downloadable as filename for ttl, after
// which the file is deleted.
func (s *Store) Publish(path, filename string, ttl time.Duration) (*Download, error) {
	name := filepath.Base(path)
	dl := &Download{
		Name:      name,
		Path:      path,
		Filename:  filename,
		ExpiresAt: time.Now().Add(ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		os.Remove(path)
		return nil, errors.New("store is closed")
	}
	s.downloads[name] = dl
	s.timers[name] = time.AfterFunc(ttl, func() { s.expire(name) })

	return dl, nil
}

func (s *Store) Download(name string) (*Download, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dl, ok := s.downloads[name]
	if !ok {
		return nil, fmt.Errorf("download %s: %w", name, ErrNotFound)
	}
	return dl, nil
}

// Close stops every session and timer and deletes every file the store owns.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	docs := s.docs
	downloads := s.downloads
	for _, timer := range s.timers {
		timer.Stop()
	}
	s.docs = make(map[string]*Document)
	s.downloads = make(map[string]*Download)
	s.timers = make(map[string]*time.Timer)
	s.mu.Unlock()

	for _, doc := range docs {
		s.release(doc)
	}
	for _, dl := range downloads {
		removeFile(s.logger, dl.Path)
	}
	return nil
}

func (s *Store) expire(name string) {
	s.mu.Lock()
	dl, ok := s.downloads[name]
	delete(s.downloads, name)
	delete(s.timers, name)
	s.mu.Unlock()

	if ok {
		s.logger.Debug().Str("download", name).Msg("download expired")
		removeFile(s.logger, dl.Path)
	}
}

func (s *Store) release(doc *Document) {
	if doc.Session != nil {
		doc.Session.Close()
	}
	removeFile(s.logger, doc.Path)
}

func removeFile(logger zerolog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Str("path", path).Msg("failed to remove file")
	}
}
