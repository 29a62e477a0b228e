package indexparse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	rangePattern = regexp.MustCompile(`(\d{2}:\d{2}:\d{2})\s*[-\x{2013}]\s*(\d{2}:\d{2}:\d{2})`)
	flagPattern  = regexp.MustCompile(`(?i)DAW操作\s*[:：]\s*Yes`)
	labelPattern = regexp.MustCompile(`(?i)(?:内容|タイトル|題名|見出し|\btitle|\btopic|\bcontent)\s*[:：]\s*(.*)$`)

	// annotationPattern is a flag label with whatever value follows it.
	annotationPattern = regexp.MustCompile(`(?i)DAW操作\s*[:：]\s*\S*`)

	// bracketedRangePattern is a range together with the brackets around it.
	bracketedRangePattern = regexp.MustCompile(`[\[［【(（]\s*\d{2}:\d{2}:\d{2}\s*[-\x{2013}]\s*\d{2}:\d{2}:\d{2}\s*[\]］】)）]`)
)

// markerGlyphs open a block when they lead a line containing a range.
const markerGlyphs = "■◆●•▪◇□○★☆"

// separators are trimmed from both ends of an extracted title.
const separators = ":：-–—・,、。;；|｜/"

var bracketPairs = map[rune]rune{
	'「': '」',
	'『': '』',
	'【': '】',
	'[':  ']',
	'(':  ')',
	'（': '）',
	'"':  '"',
	'“':  '”',
	'\'': '\'',
}

type block struct {
	lines []string
}

// Parse splits text into blocks and emits one Segment per time range found
// in each block, in order of appearance.
//
// A block opens at a line that contains a range and starts with a marker
// glyph. Text that has no glyph-led range line at all is split at every line
// that contains a range instead, and so is text above the first glyph-led
// opener, so no range is ever dropped. The flag annotation and the labeled title
// apply to the whole block; a range line with its own label overrides the
// block title for the ranges on that line.
func Parse(text string, mode Mode) []Segment {
	segments := make([]Segment, 0)
	for _, b := range splitBlocks(splitLines(text)) {
		segments = append(segments, b.segments()...)
	}
	return filterMode(segments, mode)
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

func splitBlocks(lines []string) []block {
	glyphLed := false
	for _, l := range lines {
		if isOpener(l, true) {
			glyphLed = true
			break
		}
	}

	var blocks []block
	cur := -1
	for _, l := range lines {
		// Before the first glyph-led opener any range line opens a block.
		if isOpener(l, glyphLed) || (cur < 0 && isOpener(l, false)) {
			blocks = append(blocks, block{lines: []string{l}})
			cur = len(blocks) - 1
			continue
		}
		if cur >= 0 {
			blocks[cur].lines = append(blocks[cur].lines, l)
		}
	}
	return blocks
}

func isOpener(line string, requireGlyph bool) bool {
	if !rangePattern.MatchString(line) {
		return false
	}
	if !requireGlyph {
		return true
	}
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	r, _ := utf8.DecodeRuneInString(trimmed)
	return strings.ContainsRune(markerGlyphs, r)
}

func (b block) segments() []Segment {
	flagged := false
	blockTitle := ""
	for _, l := range b.lines {
		if flagPattern.MatchString(l) {
			flagged = true
		}
		if blockTitle == "" {
			if t, ok := labeledTitle(l); ok {
				blockTitle = t
			}
		}
	}

	var out []Segment
	for _, l := range b.lines {
		matches := rangePattern.FindAllStringSubmatch(l, -1)
		if len(matches) == 0 {
			continue
		}
		title := blockTitle
		if t, ok := labeledTitle(l); ok {
			title = t
		}
		if title == "" {
			title = DefaultTitle
		}
		for _, m := range matches {
			out = append(out, Segment{
				Start:   m[1],
				End:     m[2],
				Title:   title,
				Flagged: flagged,
			})
		}
	}
	return out
}

// labeledTitle returns the cleaned value of a title label on line.
func labeledTitle(line string) (string, bool) {
	m := labelPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	title := cleanTitle(m[1])
	return title, title != ""
}

func cleanTitle(s string) string {
	s = stripAnnotations(s)
	s = bracketedRangePattern.ReplaceAllString(s, " ")
	s = rangePattern.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	for {
		trimmed := strings.TrimFunc(s, func(r rune) bool {
			return unicode.IsSpace(r) ||
				strings.ContainsRune(separators, r) ||
				strings.ContainsRune(markerGlyphs, r)
		})
		trimmed = unwrapPair(trimmed)
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

// stripAnnotations removes flag labels that share a line with a title.
func stripAnnotations(s string) string {
	return annotationPattern.ReplaceAllString(s, " ")
}

// unwrapPair strips one matching bracket or quote pair enclosing s.
func unwrapPair(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	closing, ok := bracketPairs[first]
	if !ok {
		return s
	}
	last, lastSize := utf8.DecodeLastRuneInString(s)
	if len(s) < size+lastSize || last != closing {
		return s
	}
	inner := s[size : len(s)-lastSize]
	if strings.ContainsRune(inner, first) || strings.ContainsRune(inner, closing) {
		return s
	}
	return inner
}
