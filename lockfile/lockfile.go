// Package lockfile implements txsync.lock, the record of the last pull:
// when it ran, which resources it covered and the MD5 checksum of every
// artifact it wrote. status compares the checksums with the files on disk
// to spot artifacts edited by hand since.
//
// The lock file is stored alongside .txsync.yaml as txsync.lock.
package lockfile

import (
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "txsync.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the txsync.lock file structure. It is safe for
// concurrent use.
type LockFile struct {
	Version   int               `yaml:"version"`
	RunID     string            `yaml:"run_id,omitempty"`
	PulledAt  time.Time         `yaml:"pulled_at,omitempty"`
	Resources []string          `yaml:"resources,omitempty"`
	Checksums map[string]string `yaml:"checksums"` // artifact name -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the lock file from dir. A missing file yields an empty lock.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported version %d", path, lf.Version)
	}
	lf.Version = Version
	if lf.Checksums == nil {
		lf.Checksums = make(map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksums
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of data.
func Hash(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}

// HashFile computes the MD5 hex digest of a file's content.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Hash(data), nil
}

// RecordFile stores the checksum of the artifact at path under its base
// name.
func (lf *LockFile) RecordFile(path string) error {
	sum, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}

	lf.mu.Lock()
	defer lf.mu.Unlock()
	lf.Checksums[filepath.Base(path)] = sum
	return nil
}

// Touch marks the end of pull runID over resources.
func (lf *LockFile) Touch(runID string, resources []string, at time.Time) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	lf.RunID = runID
	lf.PulledAt = at.UTC()
	lf.Resources = append([]string(nil), resources...)
}

// Names returns the recorded artifact names, sorted.
func (lf *LockFile) Names() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	names := make([]string, 0, len(lf.Checksums))
	for n := range lf.Checksums {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Modified compares the recorded artifacts with the files in dir. It
// returns the names whose content changed since the pull and the names
// that no longer exist.
func (lf *LockFile) Modified(dir string) (changed, missing []string, err error) {
	for _, name := range lf.Names() {
		lf.mu.Lock()
		want := lf.Checksums[name]
		lf.mu.Unlock()

		sum, err := HashFile(filepath.Join(dir, name))
		switch {
		case errors.Is(err, os.ErrNotExist):
			missing = append(missing, name)
		case err != nil:
			return nil, nil, fmt.Errorf("hashing %s: %w", name, err)
		case sum != want:
			changed = append(changed, name)
		}
	}
	return changed, missing, nil
}

// ---------------------------------------------------------------------------
// Human-readable summary
// ---------------------------------------------------------------------------

// Summary returns a one-line description of the last pull.
func (lf *LockFile) Summary() string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.PulledAt.IsZero() {
		return "never pulled"
	}
	return fmt.Sprintf("%s, %d artifacts", lf.PulledAt.Format(time.RFC3339), len(lf.Checksums))
}
