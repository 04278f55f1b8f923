package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// AudioInfo summarises the first audio stream of a produced file.
type AudioInfo struct {
	Codec      string
	Container  string
	Duration   time.Duration
	BitRate    int64
	SampleRate int
	Channels   int
	SizeBytes  int64
}

// ErrNoAudio is returned when the inspected file carries no audio stream.
var ErrNoAudio = errors.New("no audio stream")

type report struct {
	Streams []struct {
		CodecName  string `json:"codec_name"`
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
		BitRate    string `json:"bit_rate"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
}

// Inspect runs ffprobe against path and returns its audio summary.
func Inspect(ctx context.Context, binary, path string) (AudioInfo, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return AudioInfo{}, errors.New("ffprobe: empty path")
	}
	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return AudioInfo{}, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return AudioInfo{}, fmt.Errorf("ffprobe: %w", err)
	}
	return Parse(output)
}

// Parse decodes ffprobe JSON output.
func Parse(payload []byte) (AudioInfo, error) {
	var rep report
	if err := json.Unmarshal(payload, &rep); err != nil {
		return AudioInfo{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	info := AudioInfo{
		Container: rep.Format.FormatName,
		Duration:  seconds(rep.Format.Duration),
		BitRate:   integer(rep.Format.BitRate),
		SizeBytes: integer(rep.Format.Size),
	}
	for _, stream := range rep.Streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		info.Codec = stream.CodecName
		info.Channels = stream.Channels
		info.SampleRate = int(integer(stream.SampleRate))
		if info.BitRate == 0 {
			info.BitRate = integer(stream.BitRate)
		}
		return info, nil
	}
	return info, ErrNoAudio
}

func seconds(value string) time.Duration {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return time.Duration(parsed * float64(time.Second))
}

func integer(value string) int64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return int64(parsed)
}
