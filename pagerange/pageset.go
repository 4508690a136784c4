package pagerange

import (
	"encoding/json"
	"slices"
)

// PageSet is an immutable set of 1-indexed page numbers. The zero value is the
// empty set. Members are always observed in ascending order.
type PageSet struct {
	pages []int
}

// NewPageSet builds a set from pages in any order; duplicates collapse.
// Bounds are not checked here, use Validate against a page count.
func NewPageSet(pages ...int) PageSet {
	if len(pages) == 0 {
		return PageSet{}
	}
	sorted := slices.Clone(pages)
	slices.Sort(sorted)
	return PageSet{pages: slices.Compact(sorted)}
}

func (s PageSet) Len() int { return len(s.pages) }

func (s PageSet) IsEmpty() bool { return len(s.pages) == 0 }

func (s PageSet) Contains(page int) bool {
	_, found := slices.BinarySearch(s.pages, page)
	return found
}

// Pages returns the members in ascending order. The slice is a copy.
func (s PageSet) Pages() []int {
	if len(s.pages) == 0 {
		return []int{}
	}
	return slices.Clone(s.pages)
}

// Max returns the largest member, or 0 for the empty set.
func (s PageSet) Max() int {
	if len(s.pages) == 0 {
		return 0
	}
	return s.pages[len(s.pages)-1]
}

func (s PageSet) Equal(other PageSet) bool {
	return slices.Equal(s.pages, other.pages)
}

// Validate checks that every member lies in [1, pageCount].
func (s PageSet) Validate(pageCount int) error {
	if len(s.pages) == 0 {
		return nil
	}
	if first := s.pages[0]; first < 1 {
		return outOfRange("", first, pageCount)
	}
	if last := s.Max(); last > pageCount {
		return outOfRange("", last, pageCount)
	}
	return nil
}

// String returns the canonical range expression, see Format.
func (s PageSet) String() string {
	return Format(s)
}

func (s PageSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Pages())
}

func (s *PageSet) UnmarshalJSON(data []byte) error {
	var pages []int
	if err := json.Unmarshal(data, &pages); err != nil {
		return err
	}
	*s = NewPageSet(pages...)
	return nil
}

// Toggle flips the membership of page and returns the resulting set.
// The receiver is left untouched.
func Toggle(s PageSet, page int) PageSet {
	i, found := slices.BinarySearch(s.pages, page)
	if found {
		if len(s.pages) == 1 {
			return PageSet{}
		}
		return PageSet{pages: slices.Delete(slices.Clone(s.pages), i, i+1)}
	}
	return PageSet{pages: slices.Insert(slices.Clone(s.pages), i, page)}
}
