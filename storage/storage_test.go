package storage

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewObjectKey(t *testing.T) {
	k1 := NewObjectKey("My Song.MP3")
	k2 := NewObjectKey("My Song.MP3")

	assert.True(t, strings.HasPrefix(k1, AudioPrefix))
	assert.True(t, strings.HasSuffix(k1, ".mp3"))
	assert.NotEqual(t, k1, k2)

	assert.True(t, strings.HasPrefix(NewObjectKey("noext"), AudioPrefix))
}

func TestURLFor(t *testing.T) {
	assert.Equal(t, "http://radio.local/media/audio/x.mp3", URLFor("http://radio.local/", "audio/x.mp3"))
	assert.Equal(t, "/media/audio/x.mp3", URLFor("", "/audio/x.mp3"))
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, "mp3", FormatOf("a.MP3", "audio/mpeg"))
	assert.Equal(t, "mp3", FormatOf("blob", "audio/mpeg"))
	assert.Equal(t, "ogg", FormatOf("blob", "audio/ogg; codecs=opus"))
	assert.Equal(t, "wav", FormatOf("", "audio/x-wav"))
	assert.Equal(t, "unknown", FormatOf("", ""))
}

func TestContentTypeOf(t *testing.T) {
	assert.Equal(t, "audio/mpeg", ContentTypeOf("audio/a.mp3"))
	assert.Equal(t, "audio/flac", ContentTypeOf("audio/a.FLAC"))
	assert.Equal(t, "application/octet-stream", ContentTypeOf("audio/a"))
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	mod := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	objects := []ObjectInfo{
		{Key: "audio/b.mp3", Size: 2048, LastModified: mod},
		{Key: "audio/a.mp3", Size: 1 << 20, LastModified: mod},
	}
	stats := &BucketStats{TotalObjects: 2, TotalSize: 2048 + 1<<20, LastModified: mod}

	WriteReport(&buf, "audiotheque", AudioPrefix, objects, stats)

	out := buf.String()
	assert.Contains(t, out, "Bucket:        audiotheque")
	assert.Contains(t, out, "1.0 MiB")
	assert.Less(t, strings.Index(out, "audio/a.mp3"), strings.Index(out, "audio/b.mp3"))
}
