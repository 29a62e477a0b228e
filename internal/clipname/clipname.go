// Package clipname derives deterministic, filesystem-safe names for clip
// files. The orchestrator writes clips under these names and the archive
// builder recomputes them to find the clips again, so NameFor must only depend
// on its arguments.
package clipname

import (
	"fmt"
	"strings"

	"github.com/heimdex/heimdex-splitter/internal/indexparse"
)

const (
	// MaxTitleRunes bounds the title part of a clip name.
	MaxTitleRunes = 80
	// MaxFolderRunes bounds job folder names inside archives.
	MaxFolderRunes = 120

	Extension = ".mp4"
)

// NameFor returns "{NN}_{HHMMSS}-{HHMMSS}_{title}.mp4" for the segment at the
// zero-based position.
func NameFor(seg indexparse.Segment, position int) string {
	title := SanitizeOr(seg.Title, MaxTitleRunes, indexparse.DefaultTitle)
	return fmt.Sprintf("%02d_%s-%s_%s%s",
		position+1,
		compactTimecode(seg.Start),
		compactTimecode(seg.End),
		title,
		Extension,
	)
}

// Names returns NameFor for every segment in order.
func Names(segments []indexparse.Segment) []string {
	names := make([]string, len(segments))
	for i, s := range segments {
		names[i] = NameFor(s, i)
	}
	return names
}

func compactTimecode(tc string) string {
	return strings.ReplaceAll(tc, ":", "")
}
