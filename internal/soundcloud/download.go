package soundcloud

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// highWaterMark is the copy buffer size between the network and disk sides
// of the download pipe.
const highWaterMark = 16 * 1024

// settleDelay gives the filesystem a moment to flush metadata after the last
// byte is written, so the next stage never sees a half-visible file.
const settleDelay = 100 * time.Millisecond

// Download fetches the media playlist at streamURL and writes its segments,
// in order, to destPath. The network and disk sides are decoupled by an
// io.Pipe: a slow disk back-pressures the segment fetches instead of
// buffering the stream in memory. Download returns only after the file is
// fully flushed.
func (c *Client) Download(ctx context.Context, streamURL, destPath string) error {
	segments, err := c.fetchPlaylist(ctx, streamURL)
	if err != nil {
		return err
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("download stream: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer pw.Close()
		for _, seg := range segments {
			if err := c.copySegment(gctx, seg, pw); err != nil {
				pw.CloseWithError(err)
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		buf := make([]byte, highWaterMark)
		if _, err := io.CopyBuffer(f, pr, buf); err != nil {
			pr.CloseWithError(err)
			return err
		}
		return f.Sync()
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("download stream: %w", err)
	}

	c.log.Debug("stream downloaded", slog.String("path", destPath), slog.Int("segments", len(segments)))
	time.Sleep(settleDelay)
	return nil
}

// fetchPlaylist retrieves the media playlist and returns its segment URLs,
// resolving relative URIs against the playlist URL.
func (c *Client) fetchPlaylist(ctx context.Context, streamURL string) ([]string, error) {
	base, err := url.Parse(streamURL)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}
	c.browserHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch playlist: status %d", resp.StatusCode)
	}

	var segments []string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ref, err := url.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("fetch playlist: bad segment URI %q: %w", line, err)
		}
		segments = append(segments, base.ResolveReference(ref).String())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}
	if len(segments) == 0 {
		return nil, errors.New("fetch playlist: no segments in media playlist")
	}
	return segments, nil
}

func (c *Client) copySegment(ctx context.Context, segmentURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, segmentURL, nil)
	if err != nil {
		return err
	}
	c.browserHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("segment %s: status %d", segmentURL, resp.StatusCode)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}
