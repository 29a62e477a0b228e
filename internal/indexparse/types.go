// Package indexparse extracts clip segments from a free-form, human-authored
// index text. Parsing never fails: text without well-formed time ranges simply
// yields no segments.
package indexparse

import (
	"fmt"
	"strings"
)

// DefaultTitle is used when a block carries no usable labeled title.
const DefaultTitle = "clip"

// Mode selects which parsed segments are kept.
type Mode string

const (
	ModeAll         Mode = "all"
	ModeFlaggedOnly Mode = "flaggedOnly"

	// legacyFlaggedOnly is the value older clients send for ModeFlaggedOnly.
	legacyFlaggedOnly = "dawOnly"
)

// ParseMode converts a wire value into a Mode. An empty value means ModeAll.
func ParseMode(s string) (Mode, error) {
	switch strings.TrimSpace(s) {
	case "", string(ModeAll):
		return ModeAll, nil
	case string(ModeFlaggedOnly), legacyFlaggedOnly:
		return ModeFlaggedOnly, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// Segment is one time range of the source media plus its index metadata.
// Start and End are opaque HH:MM:SS markers handed to the cutter unchanged.
type Segment struct {
	Start   string `json:"start" yaml:"start"`
	End     string `json:"end" yaml:"end"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Flagged bool   `json:"flagged,omitempty" yaml:"flagged,omitempty"`
}

// Strategy is a parser implementation.
type Strategy func(text string, mode Mode) []Segment

const (
	StrategyBlock = "block"
	StrategyLine  = "line"
)

// Lookup returns the parser registered under name. An empty name selects the
// block strategy.
func Lookup(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyBlock:
		return Parse, nil
	case StrategyLine:
		return ParseLineScan, nil
	default:
		return nil, fmt.Errorf("unknown index strategy %q", name)
	}
}

func filterMode(segments []Segment, mode Mode) []Segment {
	if mode != ModeFlaggedOnly {
		return segments
	}
	out := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if s.Flagged {
			out = append(out, s)
		}
	}
	return out
}
