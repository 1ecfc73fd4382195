package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/nleeper/goment"
)

// Default note name formats, matching the periodic notes conventions most
// vaults already use.
var DefaultFormats = map[Periodicity]string{
	Yearly:    "YYYY",
	Quarterly: "YYYY-[Q]Q",
	Monthly:   "YYYY-MM",
	Weekly:    "gggg-[W]ww",
	Daily:     "YYYY-MM-DD",
}

// DateFormat renders and recognizes note names written with moment-style
// tokens (YYYY, MM, DD, Q, ww, ...). Text inside [brackets] is literal.
// Rendering is delegated to goment; the token list only drives matching.
type DateFormat struct {
	layout string
	tokens []formatToken
}

type formatToken struct {
	literal string
	token   string
}

// tokenPatterns is ordered longest first so "YYYY" wins over "YY"
var tokenPatterns = []struct {
	token   string
	pattern string
}{
	{"YYYY", `\d{4}`},
	{"GGGG", `\d{4}`},
	{"gggg", `\d{4}`},
	{"MMMM", `[A-Za-z]+`},
	{"dddd", `[A-Za-z]+`},
	{"MMM", `[A-Za-z]{3}`},
	{"ddd", `[A-Za-z]{3}`},
	{"YY", `\d{2}`},
	{"GG", `\d{2}`},
	{"gg", `\d{2}`},
	{"MM", `\d{2}`},
	{"DD", `\d{2}`},
	{"WW", `\d{2}`},
	{"ww", `\d{2}`},
	{"HH", `\d{2}`},
	{"mm", `\d{2}`},
	{"Q", `[1-4]`},
	{"M", `\d{1,2}`},
	{"D", `\d{1,2}`},
	{"W", `\d{1,2}`},
	{"w", `\d{1,2}`},
}

// NewDateFormat tokenizes layout
func NewDateFormat(layout string) DateFormat {
	f := DateFormat{layout: layout}

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			f.tokens = append(f.tokens, formatToken{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(layout); {
		if layout[i] == '[' {
			end := strings.IndexByte(layout[i:], ']')
			if end > 0 {
				lit.WriteString(layout[i+1 : i+end])
				i += end + 1
				continue
			}
		}

		matched := false
		for _, tp := range tokenPatterns {
			if strings.HasPrefix(layout[i:], tp.token) {
				flush()
				f.tokens = append(f.tokens, formatToken{token: tp.token})
				i += len(tp.token)
				matched = true
				break
			}
		}
		if !matched {
			lit.WriteByte(layout[i])
			i++
		}
	}
	flush()

	return f
}

// Layout returns the original layout string
func (f DateFormat) Layout() string {
	return f.layout
}

// Format renders t the way moment does, so names agree with notes created
// by the host app. ww and gggg count locale weeks starting on Sunday; WW and
// GGGG count ISO weeks.
func (f DateFormat) Format(t time.Time) string {
	g, err := goment.New(t)
	if err != nil {
		return ""
	}
	return g.Format(f.layout)
}

// WeekStart returns the first day of the weeks this format names: Monday
// for ISO week tokens, Sunday otherwise
func (f DateFormat) WeekStart() time.Weekday {
	for _, tok := range f.tokens {
		switch tok.token {
		case "GGGG", "GG", "WW", "W":
			return time.Monday
		}
	}
	return time.Sunday
}

// Regexp returns an anchored pattern matching any name this format produces
func (f DateFormat) Regexp() *regexp.Regexp {
	var sb strings.Builder
	sb.WriteString("^")
	for _, tok := range f.tokens {
		if tok.token == "" {
			sb.WriteString(regexp.QuoteMeta(tok.literal))
			continue
		}
		for _, tp := range tokenPatterns {
			if tp.token == tok.token {
				sb.WriteString(tp.pattern)
				break
			}
		}
	}
	sb.WriteString("$")
	return regexp.MustCompile(sb.String())
}
