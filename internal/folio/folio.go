// Package folio derives human-readable quotation identifiers of the form
// PREFIX-YYYYMM-NNN, numbered per calendar month.
package folio

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DefaultPrefix is used when a Sequencer has no prefix.
const DefaultPrefix = "COT"

// Sequencer generates folios for one prefix.
type Sequencer struct {
	Prefix string
}

// Next returns the next folio for the month of now using DefaultPrefix.
func Next(existing []string, now time.Time) string {
	return Sequencer{}.Next(existing, now)
}

// Next scans existing folios of the current year-month and returns the
// maximum sequence plus one. Folios of other months and strings that do not
// match the format are ignored. Gaps are never refilled.
func (s Sequencer) Next(existing []string, now time.Time) string {
	ym := YearMonth(now)
	highest := 0
	for _, f := range existing {
		gotYM, seq, ok := s.Parse(f)
		if ok && gotYM == ym && seq > highest {
			highest = seq
		}
	}
	return s.Format(ym, highest+1)
}

// Format builds a folio from a YYYYMM string and a sequence number.
// Sequences above 999 print in full.
func (s Sequencer) Format(yearMonth string, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", s.prefix(), yearMonth, seq)
}

// Parse splits a folio into its YYYYMM part and sequence number.
func (s Sequencer) Parse(folio string) (yearMonth string, seq int, ok bool) {
	m := s.pattern().FindStringSubmatch(folio)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], n, true
}

// Parse splits a folio using DefaultPrefix.
func Parse(folio string) (string, int, bool) {
	return Sequencer{}.Parse(folio)
}

// YearMonth formats t as YYYYMM in its own location.
func YearMonth(t time.Time) string {
	return t.Format("200601")
}

func (s Sequencer) prefix() string {
	if s.Prefix == "" {
		return DefaultPrefix
	}
	return s.Prefix
}

func (s Sequencer) pattern() *regexp.Regexp {
	if s.Prefix == "" || s.Prefix == DefaultPrefix {
		return defaultPattern
	}
	return compile(s.Prefix)
}

var defaultPattern = compile(DefaultPrefix)

func compile(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d{6})-(\d+)$`)
}
