package indexparse

import (
	"regexp"
	"strings"
)

var bracketedPattern = regexp.MustCompile(`\[[^\]]*\]`)

// ParseLineScan is the line-oriented alternative to Parse. Each line with
// ranges is read on its own: the title is whatever text remains on that line
// once ranges, bracketed groups and marker glyphs are removed. The flag
// annotation only travels one line: a flag line directly after a range line
// flags the last segment of that line, and a flag line directly before a
// range line flags every segment of the next line.
func ParseLineScan(text string, mode Mode) []Segment {
	lines := splitLines(text)
	segments := make([]Segment, 0)
	pendingFlag := false
	lastRangeLine := -1

	for i, l := range lines {
		matches := rangePattern.FindAllStringSubmatch(l, -1)
		lineFlag := flagPattern.MatchString(l)

		if len(matches) > 0 {
			flagged := lineFlag || pendingFlag
			pendingFlag = false
			lastRangeLine = i
			for _, m := range matches {
				segments = append(segments, Segment{
					Start:   m[1],
					End:     m[2],
					Title:   lineTitle(l, m[0]),
					Flagged: flagged,
				})
			}
			continue
		}

		if !lineFlag {
			continue
		}
		if lastRangeLine == i-1 && len(segments) > 0 {
			segments[len(segments)-1].Flagged = true
			continue
		}
		if i+1 < len(lines) && rangePattern.MatchString(lines[i+1]) {
			pendingFlag = true
		}
	}

	return filterMode(segments, mode)
}

func lineTitle(line, matched string) string {
	s := strings.Replace(line, matched, " ", 1)
	s = stripAnnotations(s)
	s = bracketedPattern.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(markerGlyphs, r) {
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return DefaultTitle
	}
	return s
}
