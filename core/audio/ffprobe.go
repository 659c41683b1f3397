package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"Audiotheque/logger"
)

// FFprobeProber probes files with ffprobe and reads their tags.
type FFprobeProber struct {
	ffprobePath string
}

// NewFFprobeProber derives the ffprobe binary from the configured ffmpeg path.
func NewFFprobeProber(ffmpegPath string) *FFprobeProber {
	return &FFprobeProber{ffprobePath: strings.Replace(ffmpegPath, "ffmpeg", "ffprobe", 1)}
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecName string `json:"codec_name"`
	} `json:"streams"`
}

// Probe collects duration, codec and tags. A missing ffprobe binary or
// unreadable tags only leave the matching fields empty.
func (p *FFprobeProber) Probe(ctx context.Context, path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info := &Info{}
	if tags, err := ReadTags(f); err == nil {
		*info = *tags
	} else {
		logger.Debug("No tags in upload", logger.String("path", path), logger.ErrorField(err))
	}

	out, err := p.run(ctx, path)
	if err != nil {
		logger.Warn("ffprobe failed, duration unknown", logger.String("path", path), logger.ErrorField(err))
		return info, nil
	}
	duration, codec, err := parseProbeOutput(out)
	if err != nil {
		logger.Warn("Unexpected ffprobe output", logger.String("path", path), logger.ErrorField(err))
		return info, nil
	}
	info.Duration = duration
	info.Codec = codec
	return info, nil
}

func (p *FFprobeProber) run(ctx context.Context, path string) ([]byte, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "format=duration:stream=codec_name",
		"-of", "json",
		path,
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe execution failed for %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}

func parseProbeOutput(data []byte) (float64, string, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, "", fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}

	var codec string
	if len(probe.Streams) > 0 {
		codec = probe.Streams[0].CodecName
	}
	if probe.Format.Duration == "" {
		return 0, codec, fmt.Errorf("duration not found in ffprobe output")
	}
	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, codec, fmt.Errorf("failed to parse duration %q: %w", probe.Format.Duration, err)
	}
	return duration, codec, nil
}
