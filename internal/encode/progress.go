package encode

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/five82/hevcheck/internal/util"
)

// Progress represents conversion progress information.
type Progress struct {
	CurrentFrame uint64
	TotalFrames  uint64
	Percent      float32
	Speed        float32
	FPS          float32
	ETA          time.Duration
	Bitrate      string
	ElapsedSecs  float64
}

// ProgressCallback is called with progress updates during conversion.
type ProgressCallback func(Progress)

var timeRegex = regexp.MustCompile(`time=(\d{2}:\d{2}:\d{2}\.?\d*)`)

// parseProgress reads ffmpeg stderr and parses progress updates.
func parseProgress(stderr io.Reader, stderrBuilder *strings.Builder, duration float64, totalFrames uint64, callback ProgressCallback) {
	reader := bufio.NewReader(stderr)
	var lineBuf strings.Builder

	for {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}

		stderrBuilder.WriteByte(b)

		// Progress lines end with \r or \n
		if b == '\r' || b == '\n' {
			line := lineBuf.String()
			lineBuf.Reset()

			if callback != nil && strings.Contains(line, "frame=") {
				progress := parseProgressLine(line, duration, totalFrames)
				if progress != nil {
					callback(*progress)
				}
			}
		} else {
			lineBuf.WriteByte(b)
		}
	}
}

// parseProgressLine extracts progress information from an ffmpeg stats line.
func parseProgressLine(line string, duration float64, totalFrames uint64) *Progress {
	var elapsedSecs float64
	if matches := timeRegex.FindStringSubmatch(line); len(matches) >= 2 {
		if secs, ok := util.ParseFFmpegTime(matches[1]); ok {
			elapsedSecs = secs
		}
	}

	var frame uint64
	var fps, speed float32
	var bitrate string

	if idx := strings.Index(line, "frame="); idx >= 0 {
		remaining := strings.TrimLeft(line[idx+6:], " ")
		if spaceIdx := strings.IndexAny(remaining, " \t"); spaceIdx > 0 {
			if f, err := strconv.ParseUint(remaining[:spaceIdx], 10, 64); err == nil {
				frame = f
			}
		}
	}

	if idx := strings.Index(line, "fps="); idx >= 0 {
		remaining := strings.TrimLeft(line[idx+4:], " ")
		if spaceIdx := strings.IndexAny(remaining, " \t"); spaceIdx > 0 {
			if f, err := strconv.ParseFloat(remaining[:spaceIdx], 32); err == nil {
				fps = float32(f)
			}
		}
	}

	if idx := strings.Index(line, "bitrate="); idx >= 0 {
		remaining := strings.TrimLeft(line[idx+8:], " ")
		if spaceIdx := strings.IndexAny(remaining, " \t"); spaceIdx > 0 {
			bitrate = remaining[:spaceIdx]
		}
	}

	if idx := strings.Index(line, "speed="); idx >= 0 {
		remaining := strings.TrimLeft(line[idx+6:], " ")
		if spaceIdx := strings.IndexAny(remaining, " \t\rx\n"); spaceIdx > 0 {
			remaining = remaining[:spaceIdx]
		}
		remaining = strings.TrimSuffix(remaining, "x")
		if s, err := strconv.ParseFloat(remaining, 32); err == nil {
			speed = float32(s)
		}
	}

	var percent float32
	if duration > 0 {
		percent = float32((elapsedSecs / duration) * 100)
		if percent > 100 {
			percent = 100
		}
	}

	var eta time.Duration
	if speed > 0 && duration > 0 {
		remainingDuration := duration - elapsedSecs
		etaSeconds := remainingDuration / float64(speed)
		eta = time.Duration(etaSeconds) * time.Second
	}

	return &Progress{
		CurrentFrame: frame,
		TotalFrames:  totalFrames,
		Percent:      percent,
		Speed:        speed,
		FPS:          fps,
		ETA:          eta,
		Bitrate:      bitrate,
		ElapsedSecs:  elapsedSecs,
	}
}
