package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedRange = errors.New("malformed range header")
	ErrUnsatisfiable  = errors.New("range not satisfiable")
)

// ByteRange is an inclusive span of a file.
type ByteRange struct {
	First int64
	Last  int64
}

func (b ByteRange) Length() int64 {
	return b.Last - b.First + 1
}

// Header renders the Content-Range value for a file of the given size.
func (b ByteRange) Header(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", b.First, b.Last, size)
}

// ParseByteRange reads a Range header against a file of size bytes. An empty
// header yields ok=false. Only the first span of a multi-range request is
// honoured; clip players never ask for more.
func ParseByteRange(header string, size int64) (ByteRange, bool, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return ByteRange{}, false, nil
	}

	rangeSet, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return ByteRange{}, false, ErrMalformedRange
	}
	if first, _, multi := strings.Cut(rangeSet, ","); multi {
		rangeSet = first
	}
	from, to, found := strings.Cut(strings.TrimSpace(rangeSet), "-")
	if !found {
		return ByteRange{}, false, ErrMalformedRange
	}

	var r ByteRange
	if from == "" {
		n, err := strconv.ParseInt(to, 10, 64)
		if err != nil || n <= 0 {
			return ByteRange{}, false, ErrMalformedRange
		}
		r = ByteRange{First: max(size-n, 0), Last: size - 1}
	} else {
		first, err := strconv.ParseInt(from, 10, 64)
		if err != nil || first < 0 {
			return ByteRange{}, false, ErrMalformedRange
		}
		last := size - 1
		if to != "" {
			if last, err = strconv.ParseInt(to, 10, 64); err != nil {
				return ByteRange{}, false, ErrMalformedRange
			}
		}
		r = ByteRange{First: first, Last: min(last, size-1)}
	}

	if r.First >= size || r.First > r.Last {
		return ByteRange{}, false, ErrUnsatisfiable
	}
	return r, true, nil
}
