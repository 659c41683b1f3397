package audio

import (
	"context"
	"math"
	"path/filepath"
	"strings"
)

// Info is what probing an uploaded file yields.
type Info struct {
	Duration float64 // seconds, 0 when unknown
	Codec    string
	FileType string // container as reported by the tag reader, e.g. MP3, FLAC
	Title    string
	Artist   string
}

// Prober inspects an audio file on disk.
type Prober interface {
	Probe(ctx context.Context, path string) (*Info, error)
}

// RoundDuration rounds seconds to the whole second stored on a track.
func RoundDuration(seconds float64) int {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return int(math.Round(seconds))
}

// TitleFromFilename is the default title of an upload: the file name
// without its extension.
func TitleFromFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
