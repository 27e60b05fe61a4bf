// Package clip turns a SoundCloud track reference into a bounded-duration
// MP3 preview in object storage. The pipeline runs one request through
// resolve, download, probe, clip, and upload, with per-stage deadlines,
// per-request temp files, and metrics at every stage boundary.
package clip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/flowergardn/coverly/internal/media"
	"github.com/flowergardn/coverly/internal/platform/metrics"
	"github.com/flowergardn/coverly/internal/soundcloud"
)

// keyLength is the number of random characters in an object key, before the
// ".mp3" extension. Uniqueness is probabilistic and accepted as such.
const keyLength = 12

var (
	// ErrMissingClientID rejects requests without a platform credential.
	ErrMissingClientID = errors.New("no client ID provided")
	// ErrMissingURL rejects requests without a track URL.
	ErrMissingURL = errors.New("no URL provided")
	// ErrEmptyDownload rejects a zero-byte downloaded stream.
	ErrEmptyDownload = errors.New("downloaded file is empty")
	// ErrEmptyClip rejects a zero-byte encoder output.
	ErrEmptyClip = errors.New("clipped file is empty")
)

// Source resolves a track reference and acquires its audio stream.
// *soundcloud.Client satisfies it.
type Source interface {
	Resolve(ctx context.Context, clientID, trackURL string) (*soundcloud.Track, error)
	StreamURL(ctx context.Context, clientID string, tc soundcloud.Transcoding) (string, error)
	Download(ctx context.Context, streamURL, destPath string) error
}

// Prober measures a local artifact's duration. *media.Prober satisfies it.
type Prober interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Clipper produces the bounded-duration copy. *media.Clipper satisfies it.
type Clipper interface {
	Clip(ctx context.Context, inputPath, outputPath string, seconds float64) error
}

// Store writes clips to durable storage. *storage.R2 satisfies it.
// Exists is a hook for future dedup; the pipeline does not call it today.
type Store interface {
	Upload(ctx context.Context, key, path string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Result identifies a stored clip.
type Result struct {
	Key string
	URL string
}

// PipelineConfig carries the tunables for a Pipeline.
type PipelineConfig struct {
	// TmpDir is where per-request artifacts live. Empty means os.TempDir.
	TmpDir string
	// StageTimeout bounds each stage call. Zero means DefaultStageTimeout.
	StageTimeout time.Duration
	// MaxConcurrentClips bounds concurrent encoder processes.
	MaxConcurrentClips int
}

// DefaultStageTimeout is applied when PipelineConfig.StageTimeout is zero.
const DefaultStageTimeout = 2 * time.Minute

// Pipeline orchestrates the clip generation stages. It holds no per-request
// state and is safe for concurrent use.
type Pipeline struct {
	source  Source
	prober  Prober
	clipper Clipper
	store   Store
	pool    *media.Pool
	met     *metrics.Metrics
	log     *slog.Logger

	tmpDir       string
	stageTimeout time.Duration
}

// NewPipeline wires the stage implementations into a Pipeline.
func NewPipeline(source Source, prober Prober, clipper Clipper, store Store,
	met *metrics.Metrics, log *slog.Logger, cfg PipelineConfig) *Pipeline {

	tmpDir := cfg.TmpDir
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	stageTimeout := cfg.StageTimeout
	if stageTimeout <= 0 {
		stageTimeout = DefaultStageTimeout
	}

	return &Pipeline{
		source:       source,
		prober:       prober,
		clipper:      clipper,
		store:        store,
		pool:         media.NewPool(cfg.MaxConcurrentClips),
		met:          met,
		log:          log,
		tmpDir:       tmpDir,
		stageTimeout: stageTimeout,
	}
}

// Generate runs the full pipeline for one track reference and returns the
// stored clip. Both temp artifacts are removed on every exit path.
func (p *Pipeline) Generate(ctx context.Context, clientID, trackURL string) (res *Result, err error) {
	if clientID == "" {
		return nil, ErrMissingClientID
	}
	if trackURL == "" {
		return nil, ErrMissingURL
	}

	p.met.IncActive()
	defer p.met.DecActive()
	total := p.met.Timer("total_request")
	defer total.ObserveDuration()
	defer func() {
		if err != nil {
			p.met.IncResult("error")
		} else {
			p.met.IncResult("success")
		}
	}()

	var (
		track     *soundcloud.Track
		streamURL string
		duration  float64
	)

	err = p.runStage(ctx, "resolve_track", func(sctx context.Context) error {
		var serr error
		if track, serr = p.source.Resolve(sctx, clientID, trackURL); serr != nil {
			return serr
		}
		tc, serr := soundcloud.HLSTranscoding(track)
		if serr != nil {
			return serr
		}
		streamURL, serr = p.source.StreamURL(sctx, clientID, tc)
		return serr
	})
	if err != nil {
		return nil, err
	}

	raw := newArtifact(p.tmpDir, "temp", p.log)
	defer raw.Discard()

	err = p.runStage(ctx, "download_audio", func(sctx context.Context) error {
		return p.source.Download(sctx, streamURL, raw.Path())
	})
	if err != nil {
		return nil, err
	}

	rawSize, err := raw.Size()
	if err != nil {
		return nil, fmt.Errorf("verify download: %w", err)
	}
	p.met.ObserveFileSize("downloaded", rawSize)
	if rawSize == 0 {
		return nil, ErrEmptyDownload
	}

	err = p.runStage(ctx, "get_duration", func(sctx context.Context) error {
		var serr error
		duration, serr = p.prober.ProbeDuration(sctx, raw.Path())
		return serr
	})
	if err != nil {
		return nil, err
	}

	out := newArtifact(p.tmpDir, "output", p.log)
	defer out.Discard()

	effective := media.EffectiveDuration(duration)
	err = p.runStage(ctx, "clip_audio", func(sctx context.Context) error {
		if serr := p.pool.Acquire(sctx); serr != nil {
			return fmt.Errorf("acquire encoder slot: %w", serr)
		}
		defer p.pool.Release()
		return p.clipper.Clip(sctx, raw.Path(), out.Path(), effective)
	})
	if err != nil {
		return nil, err
	}

	outSize, err := out.Size()
	if err != nil {
		return nil, fmt.Errorf("verify clip: %w", err)
	}
	p.met.ObserveFileSize("clipped", outSize)
	if outSize == 0 {
		return nil, ErrEmptyClip
	}

	// The raw download is no longer needed; drop it before the upload so the
	// disk footprint stays at one artifact. The deferred Discard is the
	// safety net for early returns.
	raw.Discard()

	id, err := gonanoid.New(keyLength)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	key := id + ".mp3"

	var publicURL string
	err = p.runStage(ctx, "upload_s3", func(sctx context.Context) error {
		var serr error
		publicURL, serr = p.store.Upload(sctx, key, out.Path())
		return serr
	})
	if err != nil {
		return nil, err
	}

	p.log.Info("clip created",
		slog.String("key", key),
		slog.Float64("duration_s", effective),
		slog.Int64("size_bytes", outSize),
	)
	return &Result{Key: key, URL: publicURL}, nil
}

// runStage executes one pipeline stage under its own deadline, timing it and
// counting its outcome.
func (p *Pipeline) runStage(ctx context.Context, name string, fn func(context.Context) error) error {
	sctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	timer := p.met.Timer(name)
	err := fn(sctx)
	timer.ObserveDuration()

	if err != nil {
		p.met.IncStage(name, "error")
		p.log.Error("pipeline stage failed",
			slog.String("stage", name),
			slog.String("error", err.Error()),
		)
		return err
	}
	p.met.IncStage(name, "ok")
	return nil
}
