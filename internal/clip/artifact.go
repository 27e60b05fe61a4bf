package clip

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// artifact is a temp file owned by exactly one request. The name embeds a
// UUID so concurrent requests can never collide, and removal is registered
// with defer at the creation site so every exit path cleans up.
type artifact struct {
	path string
	log  *slog.Logger
}

func newArtifact(dir, prefix string, log *slog.Logger) *artifact {
	return &artifact{
		path: filepath.Join(dir, prefix+"_"+uuid.NewString()+".mp3"),
		log:  log,
	}
}

// Path returns the absolute path of the temp file.
func (a *artifact) Path() string {
	return a.path
}

// Size returns the current size of the file in bytes.
func (a *artifact) Size() (int64, error) {
	st, err := os.Stat(a.path)
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

// Discard removes the file. Removal is best-effort: a missing file is fine
// (cleanup may run before the file was ever created, or twice), and any
// other failure is logged rather than propagated.
func (a *artifact) Discard() {
	if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
		a.log.Warn("failed to remove temp file",
			slog.String("path", a.path),
			slog.String("error", err.Error()),
		)
	}
}
