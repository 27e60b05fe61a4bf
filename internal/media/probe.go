// Package media wraps the external ffprobe and ffmpeg processes used to
// measure and trim audio artifacts.
package media

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Prober measures the container-level duration of a local audio file.
type Prober struct {
	bin string
}

// NewProber returns a Prober that invokes ffprobe from PATH.
func NewProber() *Prober {
	return &Prober{bin: "ffprobe"}
}

// ProbeDuration returns the duration of the file at path in seconds.
// A process failure is an error; a successful run whose output cannot be
// parsed as a number degrades to 0 so that missing metadata never blocks
// clipping. The process is killed and reaped if ctx expires.
func (p *Prober) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.bin,
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || math.IsNaN(d) {
		return 0, nil
	}
	return d, nil
}
