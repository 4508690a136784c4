// Package selection holds the page selection of one open document.
//
// The selected PageSet is the only state; the text shown in the range field
// and the per-thumbnail selected flags are derived from it. Typing and
// clicking both end in the same apply step, so the two views cannot drift.
package selection

import (
	"fmt"
	"sync"
	"time"

	"pagepicker/pagerange"

	"github.com/rs/zerolog"
)

// DefaultValidationDelay is how long typed input must stay quiet before it is parsed
const DefaultValidationDelay = 1500 * time.Millisecond

// State is a snapshot of a session as the user sees it.
type State struct {
	PageCount  int               `json:"page_count"`
	Pages      pagerange.PageSet `json:"pages"`
	Expression string            `json:"expression"`
	Editing    bool              `json:"editing"`
	Error      string            `json:"error,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithValidationDelay sets the quiescence interval for typed input.
func WithValidationDelay(d time.Duration) Option {
	return func(s *Session) { s.delay = d }
}

// WithOnChange registers a listener that receives every new State.
// It is called without the session lock held.
func WithOnChange(fn func(State)) Option {
	return func(s *Session) { s.onChange = fn }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// Session owns the selection for a document with a fixed page count.
// It is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	pageCount int
	pages     pagerange.PageSet
	draft     string
	editing   bool
	rev       uint64
	lastErr   error

	delay    time.Duration
	debounce *Debouncer
	onChange func(State)
	logger   zerolog.Logger
}

func NewSession(pageCount int, opts ...Option) (*Session, error) {
	if pageCount < 1 {
		return nil, fmt.Errorf("page count must be positive, got %d", pageCount)
	}

	s := &Session{
		pageCount: pageCount,
		delay:     DefaultValidationDelay,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.debounce = NewDebouncer(s.delay)

	return s, nil
}

func (s *Session) PageCount() int {
	return s.pageCount
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Pages returns the committed selection, ignoring any unresolved draft.
func (s *Session) Pages() pagerange.PageSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages
}

// Selected reports whether the thumbnail for page should render as selected.
func (s *Session) Selected(page int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages.Contains(page)
}

// Toggle flips one page, as when its thumbnail is clicked. Any draft being
// typed is discarded.
func (s *Session) Toggle(page int) (State, error) {
	if page < 1 || page > s.pageCount {
		return s.State(), &pagerange.Error{
			Kind:  pagerange.OutOfRange,
			Token: fmt.Sprint(page),
			Value: page,
			Max:   s.pageCount,
		}
	}

	s.debounce.Cancel()

	s.mu.Lock()
	next := pagerange.Toggle(s.pages, page)
	state := s.applyLocked(next, nil)
	s.mu.Unlock()

	s.notify(state)
	return state, nil
}

// Commit parses expr immediately and replaces the selection. On error the
// selection is left as it was and any draft is dropped.
func (s *Session) Commit(expr string) (State, error) {
	s.debounce.Cancel()

	pages, err := pagerange.Parse(expr, s.pageCount)

	s.mu.Lock()
	var state State
	if err != nil {
		state = s.applyLocked(s.pages, err)
	} else {
		state = s.applyLocked(pages, nil)
	}
	s.mu.Unlock()

	s.notify(state)
	return state, err
}

// Set replaces the selection with an already built set.
func (s *Session) Set(pages pagerange.PageSet) (State, error) {
	if err := pages.Validate(s.pageCount); err != nil {
		return s.State(), err
	}

	s.debounce.Cancel()

	s.mu.Lock()
	state := s.applyLocked(pages, nil)
	s.mu.Unlock()

	s.notify(state)
	return state, nil
}

// Reset clears the selection.
func (s *Session) Reset() State {
	s.debounce.Cancel()

	s.mu.Lock()
	state := s.applyLocked(pagerange.PageSet{}, nil)
	s.mu.Unlock()

	s.notify(state)
	return state
}

// Edit records raw keystrokes. The text is shown verbatim until the
// validation delay passes without another Edit, or until Blur.
func (s *Session) Edit(raw string) State {
	s.mu.Lock()
	s.draft = raw
	s.editing = true
	s.lastErr = nil
	s.rev++
	rev := s.rev
	state := s.stateLocked()
	// Triggered under s.mu so the surviving timer always carries the newest rev
	s.debounce.Trigger(func() { s.resolveDraft(rev) })
	s.mu.Unlock()

	s.notify(state)
	return state
}

// Blur resolves the draft right away and cancels the pending validation.
// Input that does not parse, or that is non-blank yet selects nothing,
// clears the field and with it the selection.
func (s *Session) Blur() (State, error) {
	s.debounce.Cancel()

	s.mu.Lock()
	if !s.editing {
		state := s.stateLocked()
		s.mu.Unlock()
		return state, nil
	}

	draft := s.draft
	// Parse never returns an empty set for non-blank input without an error
	pages, err := pagerange.Parse(draft, s.pageCount)

	var state State
	if err != nil {
		s.logger.Debug().Err(err).Str("draft", draft).Msg("discarding invalid selection on blur")
		state = s.applyLocked(pagerange.PageSet{}, err)
	} else {
		state = s.applyLocked(pages, nil)
	}
	s.mu.Unlock()

	s.notify(state)
	return state, err
}

// Pending reports whether a typed draft is waiting for the validation delay.
func (s *Session) Pending() bool {
	return s.debounce.Pending()
}

// Close stops the validation timer. The session stays readable.
func (s *Session) Close() {
	s.debounce.Stop()
}

func (s *Session) resolveDraft(rev uint64) {
	s.mu.Lock()
	if !s.editing || s.rev != rev {
		s.mu.Unlock()
		return
	}

	pages, err := pagerange.Parse(s.draft, s.pageCount)
	if err != nil {
		// Keep the draft visible so it can be corrected
		s.lastErr = err
		state := s.stateLocked()
		s.mu.Unlock()

		s.logger.Debug().Err(err).Str("draft", state.Expression).Msg("selection draft rejected")
		s.notify(state)
		return
	}

	state := s.applyLocked(pages, nil)
	s.mu.Unlock()

	s.notify(state)
}

// applyLocked is the single place the selection changes.
func (s *Session) applyLocked(pages pagerange.PageSet, err error) State {
	s.pages = pages
	s.draft = ""
	s.editing = false
	s.rev++
	s.lastErr = err
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	state := State{
		PageCount:  s.pageCount,
		Pages:      s.pages,
		Expression: pagerange.Format(s.pages),
		Editing:    s.editing,
	}
	if s.editing {
		state.Expression = s.draft
	}
	if s.lastErr != nil {
		state.Error = s.lastErr.Error()
	}
	return state
}

func (s *Session) notify(state State) {
	if s.onChange != nil {
		s.onChange(state)
	}
}
