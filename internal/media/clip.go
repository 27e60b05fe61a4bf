package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

const (
	// MaxClipSeconds is the hard ceiling on preview length.
	MaxClipSeconds = 15

	clipBitrate = "128k"

	// stderrTailBytes bounds how much ffmpeg diagnostic output is carried
	// into an error message.
	stderrTailBytes = 2048
)

// EffectiveDuration returns the trim length for a probed track duration:
// at most MaxClipSeconds, and the full ceiling when the probe reported no
// usable duration. Encoding stops at end of input either way, so a short
// track still yields a clip of its own length.
func EffectiveDuration(probed float64) float64 {
	if probed <= 0 || probed > MaxClipSeconds {
		return MaxClipSeconds
	}
	return probed
}

// Clipper produces a bounded-duration 128 kbit/s MP3 copy of an audio file.
type Clipper struct {
	bin string
}

// NewClipper returns a Clipper that invokes ffmpeg from PATH.
func NewClipper() *Clipper {
	return &Clipper{bin: "ffmpeg"}
}

// Clip transcodes inputPath into outputPath, trimming from the start to
// seconds. Negative timestamps from the segmented source are zeroed so the
// output plays from 0. The process is killed and reaped if ctx expires.
func (c *Clipper) Clip(ctx context.Context, inputPath, outputPath string, seconds float64) error {
	cmd := exec.CommandContext(ctx, c.bin,
		"-i", inputPath,
		"-ss", "0",
		"-t", strconv.FormatFloat(seconds, 'f', -1, 64),
		"-c:a", "libmp3lame",
		"-b:a", clipBitrate,
		"-avoid_negative_ts", "make_zero",
		"-y", outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.Bytes(), stderrTailBytes))
	}
	return nil
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
