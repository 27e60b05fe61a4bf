package soundcloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

const (
	apiBaseURL = "https://api-v2.soundcloud.com"

	// The CDN rejects requests that do not look like they come from a
	// browser, so transcoding and playlist requests carry these headers.
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/90.0.4430.212 Safari/537.36"
)

// ErrNoHLSTranscoding is returned when a track offers no HLS variant.
// Progressive-only tracks are not downloadable through this pipeline.
var ErrNoHLSTranscoding = errors.New("no HLS transcoding found for this track")

// Client talks to the SoundCloud public API and its media CDN. It is safe for
// concurrent use. Requests are bounded by the caller's context, not a client
// timeout, because stream downloads can legitimately run for minutes.
type Client struct {
	http    *http.Client
	baseURL string
	log     *slog.Logger
}

// NewClient returns a Client using the public api-v2 endpoint.
func NewClient(log *slog.Logger) *Client {
	return &Client{
		http:    &http.Client{},
		baseURL: apiBaseURL,
		log:     log,
	}
}

// Resolve turns a public track URL into the track record, including its
// transcoding variants. The clientID is attached as a query credential.
func (c *Client) Resolve(ctx context.Context, clientID, trackURL string) (*Track, error) {
	q := url.Values{}
	q.Set("url", trackURL)
	q.Set("client_id", clientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/resolve?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("resolve track: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve track: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolve track: invalid URL or failed to fetch track info (status %d)", resp.StatusCode)
	}

	var track Track
	if err := json.NewDecoder(resp.Body).Decode(&track); err != nil {
		return nil, fmt.Errorf("resolve track: decode response: %w", err)
	}
	return &track, nil
}

// HLSTranscoding returns the first transcoding variant delivered over HLS.
// Picking any other protocol would hand ffmpeg a progressive URL it cannot
// treat as a segmented stream, so a missing HLS variant is a hard error.
func HLSTranscoding(t *Track) (Transcoding, error) {
	for _, tc := range t.Media.Transcodings {
		if tc.Format.Protocol == "hls" {
			return tc, nil
		}
	}
	return Transcoding{}, ErrNoHLSTranscoding
}

// StreamURL re-requests the transcoding endpoint with the client_id attached
// and returns the time-limited media playlist URL from the response.
func (c *Client) StreamURL(ctx context.Context, clientID string, tc Transcoding) (string, error) {
	u, err := url.Parse(tc.URL)
	if err != nil {
		return "", fmt.Errorf("fetch stream URL: %w", err)
	}
	q := u.Query()
	q.Set("client_id", clientID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("fetch stream URL: %w", err)
	}
	c.browserHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch stream URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch stream URL: status %d", resp.StatusCode)
	}

	var pl playlistResponse
	if err := json.NewDecoder(resp.Body).Decode(&pl); err != nil {
		return "", fmt.Errorf("fetch stream URL: decode response: %w", err)
	}
	if pl.URL == "" {
		return "", errors.New("fetch stream URL: no URL found in response")
	}
	return pl.URL, nil
}

func (c *Client) browserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
}
