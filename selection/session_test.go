package selection

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"pagepicker/pagerange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 20 * time.Millisecond

func newTestSession(t *testing.T, pageCount int, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithValidationDelay(testDelay)}, opts...)
	s, err := NewSession(pageCount, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNewSessionRejectsEmptyDocument(t *testing.T) {
	_, err := NewSession(0)
	assert.Error(t, err)
}

func TestToggleUpdatesExpression(t *testing.T) {
	s := newTestSession(t, 10)

	for _, p := range []int{1, 2, 3, 5, 9, 8, 7} {
		_, err := s.Toggle(p)
		require.NoError(t, err)
	}

	state := s.State()
	assert.Equal(t, "1-3, 5, 7-9", state.Expression)
	assert.Equal(t, []int{1, 2, 3, 5, 7, 8, 9}, state.Pages.Pages())
	assert.True(t, s.Selected(5))
	assert.False(t, s.Selected(4))

	state, err := s.Toggle(2)
	require.NoError(t, err)
	assert.Equal(t, "1, 3, 5, 7-9", state.Expression)
}

func TestToggleOutOfBounds(t *testing.T) {
	s := newTestSession(t, 3)
	_, err := s.Toggle(1)
	require.NoError(t, err)

	_, err = s.Toggle(4)
	assert.ErrorIs(t, err, pagerange.ErrOutOfRange)
	_, err = s.Toggle(0)
	assert.ErrorIs(t, err, pagerange.ErrOutOfRange)

	assert.Equal(t, "1", s.State().Expression)
}

func TestCommit(t *testing.T) {
	s := newTestSession(t, 10)

	state, err := s.Commit("8-10, 1,2,3,3")
	require.NoError(t, err)
	assert.Equal(t, "1-3, 8-10", state.Expression)
	assert.Empty(t, state.Error)
	assert.True(t, s.Selected(9))
}

func TestCommitInvalidKeepsSelection(t *testing.T) {
	s := newTestSession(t, 10)
	_, err := s.Commit("2-4")
	require.NoError(t, err)

	state, err := s.Commit("1, 11")
	assert.ErrorIs(t, err, pagerange.ErrOutOfRange)
	assert.Equal(t, "2-4", state.Expression)
	assert.Equal(t, "page 11 exceeds total pages (10)", state.Error)
	assert.Equal(t, []int{2, 3, 4}, s.Pages().Pages())
}

func TestCommitInvalidDropsDraft(t *testing.T) {
	s := newTestSession(t, 10)
	s.Edit("1-3")

	state, err := s.Commit("99")
	assert.ErrorIs(t, err, pagerange.ErrOutOfRange)
	assert.False(t, state.Editing)
	assert.Equal(t, "", state.Expression)
	assert.Equal(t, "page 99 exceeds total pages (10)", state.Error)
	assert.False(t, s.Pending())

	time.Sleep(3 * testDelay)
	state = s.State()
	assert.False(t, state.Editing)
	assert.True(t, state.Pages.IsEmpty())
	assert.Equal(t, "page 99 exceeds total pages (10)", state.Error)
}

func TestSetValidatesBounds(t *testing.T) {
	s := newTestSession(t, 5)

	_, err := s.Set(pagerange.NewPageSet(1, 6))
	assert.ErrorIs(t, err, pagerange.ErrOutOfRange)
	assert.True(t, s.Pages().IsEmpty())

	state, err := s.Set(pagerange.NewPageSet(5, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, "1, 4-5", state.Expression)
}

func TestReset(t *testing.T) {
	s := newTestSession(t, 5)
	_, err := s.Commit("1-5")
	require.NoError(t, err)

	state := s.Reset()
	assert.Equal(t, "", state.Expression)
	assert.True(t, state.Pages.IsEmpty())
}

func TestEditShowsDraftUntilQuiet(t *testing.T) {
	s := newTestSession(t, 10)

	state := s.Edit("3,1-")
	assert.True(t, state.Editing)
	assert.Equal(t, "3,1-", state.Expression)

	state = s.Edit("3,1-2")
	assert.Equal(t, "3,1-2", state.Expression)
	assert.True(t, s.Pending())
	assert.True(t, s.Pages().IsEmpty(), "draft must not apply before the delay")

	assert.Eventually(t, func() bool {
		return s.State().Expression == "1-3"
	}, time.Second, 5*time.Millisecond)

	state = s.State()
	assert.False(t, state.Editing)
	assert.False(t, s.Pending())
	assert.Equal(t, []int{1, 2, 3}, state.Pages.Pages())
}

func TestEditInvalidDraftKeepsSelection(t *testing.T) {
	s := newTestSession(t, 10)
	_, err := s.Commit("4")
	require.NoError(t, err)

	s.Edit("4, 12")

	assert.Eventually(t, func() bool {
		return s.State().Error != ""
	}, time.Second, 5*time.Millisecond)

	state := s.State()
	assert.True(t, state.Editing)
	assert.Equal(t, "4, 12", state.Expression)
	assert.Equal(t, []int{4}, state.Pages.Pages())
}

func TestConcurrentEditsResolveNewestDraft(t *testing.T) {
	s := newTestSession(t, 100)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Edit(strconv.Itoa(i))
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		return !s.State().Editing
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, s.Pages().Len())
}

func TestBlurResolvesImmediately(t *testing.T) {
	s := newTestSession(t, 10, WithValidationDelay(time.Hour))

	s.Edit("5-6,2")
	require.True(t, s.Pending())

	state, err := s.Blur()
	require.NoError(t, err)
	assert.False(t, s.Pending())
	assert.Equal(t, "2, 5-6", state.Expression)
	assert.False(t, state.Editing)
}

func TestBlurInvalidClearsField(t *testing.T) {
	s := newTestSession(t, 10, WithValidationDelay(time.Hour))
	_, err := s.Commit("1-2")
	require.NoError(t, err)

	s.Edit("5-2")
	state, err := s.Blur()
	assert.ErrorIs(t, err, pagerange.ErrMalformedRange)
	assert.Equal(t, "", state.Expression)
	assert.True(t, state.Pages.IsEmpty())
	assert.NotEmpty(t, state.Error)
}

func TestBlurOnlySeparatorsClearsField(t *testing.T) {
	s := newTestSession(t, 10, WithValidationDelay(time.Hour))
	_, err := s.Commit("3")
	require.NoError(t, err)

	s.Edit(" , ,")
	state, err := s.Blur()
	assert.Error(t, err)
	assert.Equal(t, "", state.Expression)
}

func TestBlurWithoutEditIsNoop(t *testing.T) {
	s := newTestSession(t, 10)
	_, err := s.Commit("7")
	require.NoError(t, err)

	state, err := s.Blur()
	require.NoError(t, err)
	assert.Equal(t, "7", state.Expression)
}

func TestToggleDiscardsDraft(t *testing.T) {
	s := newTestSession(t, 10, WithValidationDelay(time.Hour))

	s.Edit("1-9")
	state, err := s.Toggle(3)
	require.NoError(t, err)
	assert.False(t, s.Pending())
	assert.False(t, state.Editing)
	assert.Equal(t, "3", state.Expression)
}

func TestOnChangeReceivesEveryUpdate(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	s := newTestSession(t, 10, WithOnChange(func(st State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, st.Expression)
	}))

	_, err := s.Toggle(2)
	require.NoError(t, err)
	_, err = s.Toggle(3)
	require.NoError(t, err)
	s.Reset()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"2", "2-3", ""}, seen)
}
