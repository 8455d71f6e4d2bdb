package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/nimbusworks/assistant-platform/pkg/logger"
)

// Registry is the deduplicating record of which uploaded documents have
// already been ingested. The persisted JSON list is treated as a cache: on
// every load it is reconciled against the upload directory, entries whose
// backing file is gone are pruned, and the file is rewritten.
type Registry struct {
	path      string
	uploadDir string
	logger    *logger.Logger
	mu        sync.Mutex
}

// NewRegistry creates a registry persisted at path, tracking files under
// uploadDir.
func NewRegistry(path, uploadDir string, log *logger.Logger) *Registry {
	return &Registry{
		path:      path,
		uploadDir: uploadDir,
		logger:    log,
	}
}

// Load returns the reconciled list of processed filenames. Malformed JSON
// resets the registry to empty rather than failing the caller.
func (r *Registry) Load() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

// Contains reports whether filename has already been ingested.
func (r *Registry) Contains(filename string) (bool, error) {
	processed, err := r.Load()
	if err != nil {
		return false, err
	}
	for _, name := range processed {
		if name == filename {
			return true, nil
		}
	}
	return false, nil
}

// Add records filename as ingested. A filename appears at most once.
func (r *Registry) Add(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	processed, err := r.loadLocked()
	if err != nil {
		return err
	}

	for _, name := range processed {
		if name == filename {
			return nil
		}
	}

	processed = append(processed, filename)
	return r.write(processed)
}

func (r *Registry) loadLocked() ([]string, error) {
	var processed []string

	data, err := os.ReadFile(r.path)
	switch {
	case os.IsNotExist(err):
		processed = []string{}
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, &processed); err != nil {
			r.logger.Warn("processed file registry was malformed, resetting")
			processed = []string{}
		}
	}

	// Keep only entries whose backing file still exists on disk.
	kept := processed[:0]
	for _, name := range processed {
		if _, err := os.Stat(filepath.Join(r.uploadDir, name)); err == nil {
			kept = append(kept, name)
		}
	}

	if err := r.write(kept); err != nil {
		return nil, err
	}

	return kept, nil
}

func (r *Registry) write(processed []string) error {
	if processed == nil {
		processed = []string{}
	}
	data, err := json.Marshal(processed)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}
