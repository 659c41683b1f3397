package audio

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhowden/tag"
)

// ReadTags reads embedded metadata (ID3, MP4, FLAC, OGG) from r.
func ReadTags(r io.ReadSeeker) (*Info, error) {
	m, err := tag.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}
	return &Info{
		FileType: string(m.FileType()),
		Title:    strings.TrimSpace(m.Title()),
		Artist:   strings.TrimSpace(m.Artist()),
	}, nil
}
