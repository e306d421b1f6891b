// Package titles recovers track titles from consistently numbered file
// stems such as "トラック01.森の中" or "#02 Intro".
//
// Extraction is all-or-nothing: a group of stems either yields one clean
// title per stem, or is returned unchanged.
package titles

import (
	"regexp"
	"strconv"
	"strings"
)

var numbered = regexp.MustCompile(
	`(?i)^(#|【|\(|\[|(?:トラック|track|trk|tr)[\s._\-]*)?` + // prefix
		`(\d{1,3})` + // track number
		`([\s._\-、。:：)）\]】]*)` + // separator
		`(.+)$`, // title
)

// openers may follow the number with no separator at all.
const openers = "「『【([（"

var closers = map[string]string{
	"【": "】",
	"(": ")",
	"[": "]",
}

type match struct {
	prefix string
	number int
	sep    string
	title  string
}

func parse(stem string) (match, bool) {
	m := numbered.FindStringSubmatch(stem)
	if m == nil {
		return match{}, false
	}

	n, err := strconv.Atoi(m[2])
	if err != nil {
		return match{}, false
	}

	res := match{prefix: m[1], number: n, sep: m[3], title: m[4]}

	if res.sep == "" && !strings.ContainsAny(firstRune(res.title), openers) {
		return match{}, false
	}
	if closer, ok := closers[res.prefix]; ok && !strings.Contains(res.sep, closer) {
		return match{}, false
	}

	return res, true
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// Try extracts one title per stem. It reports false, returning nil, if the
// stems do not form a single consistent numbering: fewer than two stems,
// a stem that does not parse, a prefix or separator that differs from the
// first stem, a number that is not the first number plus the position, or
// a title seen before.
func Try(stems []string) ([]string, bool) {
	if len(stems) < 2 {
		return nil, false
	}

	base, ok := parse(stems[0])
	if !ok {
		return nil, false
	}

	titles := make([]string, 0, len(stems))
	seen := make(map[string]struct{}, len(stems))
	titles = append(titles, base.title)
	seen[base.title] = struct{}{}

	for i, stem := range stems[1:] {
		m, ok := parse(stem)
		if !ok {
			return nil, false
		}
		if m.prefix != base.prefix || m.sep != base.sep {
			return nil, false
		}
		if m.number != base.number+i+1 {
			return nil, false
		}
		if _, dup := seen[m.title]; dup {
			return nil, false
		}

		seen[m.title] = struct{}{}
		titles = append(titles, m.title)
	}

	return titles, true
}

// Extract returns the titles found by Try, or stems itself when extraction
// fails.
func Extract(stems []string) []string {
	if titles, ok := Try(stems); ok {
		return titles
	}
	return stems
}
