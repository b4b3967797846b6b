package checksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"mediasort/internal/fileutil"
)

// Store manages the digest-to-origin mapping backing duplicate detection.
type Store struct {
	mu     sync.Mutex
	path   string
	hashes map[string]string
}

// VerifyResult reports the integrity of one stored record.
type VerifyResult struct {
	Path   string
	Digest string
	OK     bool
	Reason string
}

// Open loads the store document at path. A missing or unreadable document
// yields an empty store rather than an error; the first mutation recreates
// it.
func Open(path string) (*Store, error) {
	store := &Store{path: path, hashes: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("read checksum store: %w", err)
	}
	if len(data) == 0 {
		return store, nil
	}
	if err := json.Unmarshal(data, &store.hashes); err != nil {
		// Corruption is recoverable: start empty, keep the broken document
		// aside so nothing is silently destroyed.
		_ = os.Rename(path, path+".corrupt")
		store.hashes = map[string]string{}
	}
	return store, nil
}

// Path returns the backing document location.
func (s *Store) Path() string {
	return s.path
}

// Compute returns the SHA-256 digest of the file at path.
func Compute(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for digest: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Lookup reports the first-seen path for digest.
func (s *Store) Lookup(digest string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.hashes[digest]
	return path, ok
}

// Record inserts digest→path if absent and persists the store. Re-recording
// an existing digest is a no-op: the first writer wins.
func (s *Store) Record(digest, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[digest]; ok {
		return nil
	}
	s.hashes[digest] = path
	return s.persistLocked()
}

// Reassign points an existing digest at a new path and persists the store.
// Used when a managed file moves; recording semantics (first writer wins)
// are unchanged for unknown digests.
func (s *Store) Reassign(digest, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[digest]; !ok {
		return fmt.Errorf("reassign unknown digest %s", digest)
	}
	s.hashes[digest] = path
	return s.persistLocked()
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hashes)
}

// All returns the records sorted by path for deterministic iteration.
func (s *Store) All() []VerifyResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]VerifyResult, 0, len(s.hashes))
	for digest, path := range s.hashes {
		records = append(records, VerifyResult{Path: path, Digest: digest})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records
}

// Backup copies the current document to a timestamped sibling and returns
// its path. Backing up an absent document is a no-op.
func (s *Store) Backup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("stat checksum store: %w", err)
	}
	backupPath := fmt.Sprintf("%s.%s.bak", s.path, time.Now().UTC().Format("20060102-150405"))
	if err := fileutil.CopyFile(s.path, backupPath); err != nil {
		return "", fmt.Errorf("backup checksum store: %w", err)
	}
	return backupPath, nil
}

// Reset clears every record and persists the empty store.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes = map[string]string{}
	return s.persistLocked()
}

// Rebuild backs up the store, clears it, then walks root recording a digest
// for every regular file. The backup happens first so a failure mid-walk
// never loses the prior store irrecoverably. The visit callback, when
// non-nil, observes each recorded file.
func (s *Store) Rebuild(ctx context.Context, root string, visit func(path string)) error {
	if _, err := s.Backup(); err != nil {
		return err
	}
	if err := s.Reset(); err != nil {
		return err
	}

	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		digest, err := Compute(path)
		if err != nil {
			return err
		}
		if err := s.Record(digest, path); err != nil {
			return err
		}
		if visit != nil {
			visit(path)
		}
		return nil
	})
}

// Verify recomputes the digest of every stored path and reports mismatches
// and missing files. The store is not mutated.
func (s *Store) Verify(ctx context.Context) []VerifyResult {
	records := s.All()
	for i := range records {
		if ctx.Err() != nil {
			break
		}
		actual, err := Compute(records[i].Path)
		switch {
		case err != nil:
			records[i].Reason = "missing or unreadable"
		case actual != records[i].Digest:
			records[i].Reason = "digest mismatch"
		default:
			records[i].OK = true
		}
	}
	return records
}

func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.hashes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checksum store: %w", err)
	}
	return fileutil.WriteFileAtomic(s.path, data)
}
