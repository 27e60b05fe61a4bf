package soundcloud

// Track is the subset of the SoundCloud api-v2 track record the pipeline
// needs: the list of transcoding variants offered for playback.
type Track struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Permalink string `json:"permalink_url"`
	Media     Media  `json:"media"`
}

// Media wraps the transcoding variants of a track.
type Media struct {
	Transcodings []Transcoding `json:"transcodings"`
}

// Transcoding is one encoded rendition of a track. URL points at an endpoint
// that must be re-requested with the client_id to obtain the playable
// playlist URL.
type Transcoding struct {
	URL      string `json:"url"`
	Preset   string `json:"preset"`
	Duration int64  `json:"duration"`
	Snipped  bool   `json:"snipped"`
	Format   Format `json:"format"`
	Quality  string `json:"quality"`
}

// Format describes a transcoding's delivery protocol and MIME type.
type Format struct {
	Protocol string `json:"protocol"`
	MimeType string `json:"mime_type"`
}

// playlistResponse is the body returned when a transcoding endpoint is
// re-authenticated; url is the time-limited media playlist URL.
type playlistResponse struct {
	URL string `json:"url"`
}
