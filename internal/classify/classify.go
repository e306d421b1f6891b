// Package classify splits the audio files of one directory into groups:
// the regular episode tracks and the bonus material shipped next to them
// (omake, extras, epilogues, B parts and so on).
//
// Matching runs over the file stem and is case-insensitive. Rules are tried
// in declaration order and the first match wins. Each rule carries sample
// stems, and the table is checked at start-up so that every sample matches
// its own rule and no other.
package classify

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Rule recognizes one kind of bonus track by its file stem.
type Rule struct {
	// Label names the kind of track, e.g. "omake".
	Label string

	// Pattern is matched against the stem. It must be anchored at the start.
	Pattern *regexp.Regexp

	// Samples are stems this rule exists for. They document the rule and
	// are used to detect rules that overlap.
	Samples []string
}

func rule(label, pattern string, samples ...string) Rule {
	return Rule{
		Label:   label,
		Pattern: regexp.MustCompile("(?i)" + pattern),
		Samples: samples,
	}
}

// Rules is the ordered bonus-track table.
var Rules = mustValidate([]Rule{
	rule("omake", `^omake_?.*[0-9]{1,2}.*$`, "omake_01", "omake2 おやすみ", "Omake 1"),
	rule("extra", `^.*ex[0-9]{1,2}.*$`, "ex01 耳かき", "track_ex2", "EX3"),
	rule("extra-prefixed", `^ex_.+$`, "ex_おまけ", "EX_bonus"),
	rule("epilogue", `^後日談.*$`, "後日談", "後日談 朝"),
	rule("omake-ja", `^おまけ_?[0-9]{0,2}.*$`, "おまけ", "おまけ_01", "おまけ2 添い寝"),
	rule("inverted-omake", `^反転おまけ_?[0-9]{1,2}.*$`, "反転おまけ1", "反転おまけ_02"),
	rule("inverted", `^反転_?[0-9]{1,2}.*$`, "反転_01 耳かき", "反転2"),
	rule("monthly", `^20..年?[0-9]{1,2}月配信.*$`, "2021年3月配信 おまけ", "202212月配信"),
	rule("bonus", `^.*特典.*$`, "購入特典", "特典 フリートーク"),
	rule("additional", `^追加[0-9]{1,2}.*$`, "追加1 ボイス", "追加02"),
	rule("option", `^opt[0-9]?.*`, "opt1", "option", "OPT_SE"),
	rule("part-b", `^#[0-9]+(-|ー)B`, "#1-B 耳かき", "#02ーb"),
	rule("part-c", `^#[0-9]+(-|ー)C`, "#1-C 耳かき", "#2ーC"),
	rule("asmr", `^ASMR_.*`, "ASMR_耳かき", "asmr_"),
	rule("b-part", `^.+Bパート`, "本編Bパート", "01_Bパート"),
	rule("side-story", `^番外編`, "番外編", "番外編 その2"),
})

// Validate checks that rules are anchored and that every sample of a rule
// matches that rule and no other.
func Validate(rules []Rule) error {
	for _, r := range rules {
		if !strings.HasPrefix(strings.TrimPrefix(r.Pattern.String(), "(?i)"), "^") {
			return fmt.Errorf("rule %q: pattern %q is not anchored", r.Label, r.Pattern)
		}
		if len(r.Samples) == 0 {
			return fmt.Errorf("rule %q: no samples", r.Label)
		}
	}

	for i, r := range rules {
		for _, sample := range r.Samples {
			for j, other := range rules {
				matched := other.Pattern.MatchString(sample)
				switch {
				case i == j && !matched:
					return fmt.Errorf("rule %q: sample %q does not match", r.Label, sample)
				case i != j && matched:
					return fmt.Errorf("rule %q: sample %q also matches rule %q", r.Label, sample, other.Label)
				}
			}
		}
	}

	return nil
}

func mustValidate(rules []Rule) []Rule {
	if err := Validate(rules); err != nil {
		panic("classify: " + err.Error())
	}
	return rules
}

// Group is a set of files that belong together.
type Group struct {
	// Label is the rule label, or empty for regular tracks.
	Label string

	// Names holds the members in input order.
	Names []string
}

// Match returns the first rule matching the stem of name.
func Match(name string) (Rule, bool) {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	for _, r := range Rules {
		if r.Pattern.MatchString(stem) {
			return r, true
		}
	}
	return Rule{}, false
}

// Classify partitions names into groups. The regular group comes first and
// only when it is non-empty, followed by one group per matching rule in
// table order. Members keep their input order.
func Classify(names []string) []Group {
	regular := Group{}
	byRule := make(map[string]*Group)

	for _, name := range names {
		r, ok := Match(name)
		if !ok {
			regular.Names = append(regular.Names, name)
			continue
		}

		g, found := byRule[r.Label]
		if !found {
			g = &Group{Label: r.Label}
			byRule[r.Label] = g
		}
		g.Names = append(g.Names, name)
	}

	var groups []Group
	if len(regular.Names) > 0 {
		groups = append(groups, regular)
	}
	for _, r := range Rules {
		if g, ok := byRule[r.Label]; ok {
			groups = append(groups, *g)
		}
	}

	return groups
}
