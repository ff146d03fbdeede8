// Package lineparser implements the regex-bounded resumable tokenizer
// shared by the exports line grammar and pkg/config's export_dir parser.
//
// The contract mirrors the four operations the original parser exposed:
// compile a pattern once, bind it to an input string, pull matches one at
// a time advancing a cursor, then rebind to a new string. In Go this
// collapses to a compiled *regexp.Regexp plus a small cursor type — no
// explicit deinit is needed since the garbage collector reclaims both
// once they go out of scope, but Pattern and Cursor are kept as distinct
// types so callers still compile a pattern once and reuse it across many
// lines, matching the original's init-once/set-per-line usage.
package lineparser

import (
	"regexp"
	"strings"
)

// Pattern is a compiled, reusable tokenizer. The first capture group of
// the pattern is what Next returns; the full match determines how far the
// cursor advances.
type Pattern struct {
	re *regexp.Regexp
}

// Compile compiles pattern once. A malformed pattern is a programmer
// error — the four patterns in patterns.go are fixed string literals — so Compile panics rather than returning an
// error, the same way the original treated a pattern compile failure as
// fatal at init.
func Compile(pattern string) *Pattern {
	return &Pattern{re: regexp.MustCompile(pattern)}
}

// Cursor binds a Pattern to one input string at offset 0. Next, called
// repeatedly, walks matches left to right; Cursor itself carries no
// reference back to the Pattern's compiled state beyond what regexp
// needs, so discarding a Cursor is the Unset/deinit step — there is
// nothing further to release.
type Cursor struct {
	re     *regexp.Regexp
	s      string
	offset int
}

// Cursor binds s to p, returning a fresh cursor positioned at the start
// of the string.
func (p *Pattern) Cursor(s string) *Cursor {
	return &Cursor{re: p.re, s: s}
}

// Next returns the first capture group of the next match starting at or
// after the cursor's current offset, and advances the cursor past the
// full match. The returned string is always a fresh copy (strings.Clone), never aliasing
// the cursor's underlying string beyond the call. ok is false once the
// input is exhausted; callers treat that as "no more tokens", never as
// an error in itself.
func (c *Cursor) Next() (token string, ok bool) {
	if c.offset > len(c.s) {
		return "", false
	}

	loc := c.re.FindStringSubmatchIndex(c.s[c.offset:])
	if loc == nil {
		c.offset = len(c.s) + 1
		return "", false
	}

	// loc[0:2] is the full match, loc[2:4] the first capture group,
	// both relative to c.s[c.offset:].
	var capture string
	if loc[2] >= 0 && loc[3] >= 0 {
		capture = strings.Clone(c.s[c.offset+loc[2] : c.offset+loc[3]])
	}

	c.offset += loc[1]
	if loc[1] == loc[0] {
		// Zero-width match: force progress so Next terminates.
		c.offset++
	}

	return capture, true
}
