// Package pagerange parses and formats page range expressions such as
// "1-3, 5, 8-10".
//
// An expression is a comma separated list of tokens. Each token is either a
// single page "N" or an inclusive range "N-M". Whitespace around tokens and
// empty tokens are ignored. Pages are 1-indexed.
package pagerange

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	errNotNumber = errors.New("not a number")
	errTooLarge  = errors.New("number too large")
)

// Parse turns expr into a PageSet bounded by pageCount. A blank expression
// yields the empty set. The first invalid token rejects the whole
// expression and no partial result is returned.
func Parse(expr string, pageCount int) (PageSet, error) {
	if strings.TrimSpace(expr) == "" {
		return PageSet{}, nil
	}

	var pages []int
	for _, part := range strings.Split(expr, ",") {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}

		if strings.Contains(token, "-") {
			start, end, err := parseRange(token)
			if err != nil {
				return PageSet{}, err
			}
			if err := checkBounds(token, start, pageCount); err != nil {
				return PageSet{}, err
			}
			if err := checkBounds(token, end, pageCount); err != nil {
				return PageSet{}, err
			}
			for p := start; p <= end; p++ {
				pages = append(pages, p)
			}
			continue
		}

		page, err := parseNumber(token)
		if errors.Is(err, errTooLarge) {
			return PageSet{}, outOfRange(token, page, pageCount)
		}
		if err != nil {
			return PageSet{}, &Error{Kind: MalformedNumber, Token: token}
		}
		if err := checkBounds(token, page, pageCount); err != nil {
			return PageSet{}, err
		}
		pages = append(pages, page)
	}

	// Only separators, e.g. ",,"
	if len(pages) == 0 {
		return PageSet{}, &Error{Kind: MalformedNumber, Token: strings.TrimSpace(expr)}
	}

	return NewPageSet(pages...), nil
}

// Format renders pages in canonical form: ascending, consecutive pages
// coalesced into "start-end", tokens joined by ", ". The empty set formats
// to "".
func Format(pages PageSet) string {
	if pages.IsEmpty() {
		return ""
	}

	var b strings.Builder
	members := pages.pages
	runStart := members[0]
	prev := members[0]

	flush := func() {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(runStart))
		if prev != runStart {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(prev))
		}
	}

	for _, p := range members[1:] {
		if p == prev+1 {
			prev = p
			continue
		}
		flush()
		runStart, prev = p, p
	}
	flush()

	return b.String()
}

// Normalize parses expr and returns its canonical form.
func Normalize(expr string, pageCount int) (string, error) {
	pages, err := Parse(expr, pageCount)
	if err != nil {
		return "", err
	}
	return Format(pages), nil
}

// Hint returns an example expression for a document with pageCount pages,
// suitable as input placeholder text.
func Hint(pageCount int) string {
	if pageCount <= 1 {
		return "Eg: 1"
	}
	return "Eg: 1-" + strconv.Itoa(pageCount) + ", " + strconv.Itoa(min(20, pageCount))
}

func parseRange(token string) (int, int, error) {
	parts := strings.Split(token, "-")
	if len(parts) != 2 {
		return 0, 0, &Error{Kind: MalformedRange, Token: token}
	}

	start, startErr := parseNumber(strings.TrimSpace(parts[0]))
	end, endErr := parseNumber(strings.TrimSpace(parts[1]))
	if errors.Is(startErr, errNotNumber) || errors.Is(endErr, errNotNumber) {
		return 0, 0, &Error{Kind: MalformedRange, Token: token}
	}
	// Overflowing ends are clamped and then fail the bounds check

	// Reversed ranges are rejected rather than swapped
	if start > end {
		return 0, 0, &Error{Kind: MalformedRange, Token: token}
	}

	return start, end, nil
}

// parseNumber accepts only unsigned decimal digits. Digit strings that
// overflow int return math.MaxInt with errTooLarge.
func parseNumber(s string) (int, error) {
	if s == "" {
		return 0, errNotNumber
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, errNotNumber
		}
	}
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt, errTooLarge
	}
	if err != nil {
		return 0, errNotNumber
	}
	return n, nil
}

func checkBounds(token string, page, pageCount int) error {
	if page < 1 || page > pageCount {
		return outOfRange(token, page, pageCount)
	}
	return nil
}
