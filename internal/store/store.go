// Package store implements the ingestion pipeline for neural-network
// artifacts. An upload is validated against the naming convention, persisted
// gzip-compressed under exclusive-create semantics, then read back and
// verified: the digest of the decompressed content must equal the fingerprint
// embedded in the filename. Any failure after the write deletes the stored
// file, so an artifact on disk is always complete and verified.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

// Store persists verified artifacts in a single directory, one gzip file per
// artifact. Concurrent uploads of the same name are serialized by the
// filesystem: exclusive-create lets exactly one writer win, the rest observe
// ErrAlreadyExists. No in-process locking is needed.
type Store struct {
	dir    string
	naming Naming
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, naming Naming) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir, naming: naming}, nil
}

// Naming returns the filename convention the store enforces.
func (s *Store) Naming() Naming {
	return s.naming
}

// ArtifactPath returns the on-disk path for an artifact name.
func (s *Store) ArtifactPath(filename string) string {
	return filepath.Join(s.dir, filename+".gz")
}

// Ingest runs the full pipeline for one upload: validate the filename, write
// the payload compressed, then verify the stored content against the
// fingerprint claimed by the name. It returns the number of uncompressed
// bytes consumed from r. Every error is terminal for the request; the caller
// may resubmit, and a resubmission after a successful commit fails with
// ErrAlreadyExists.
func (s *Store) Ingest(ctx context.Context, filename string, r io.Reader) (int64, error) {
	if err := s.naming.Validate(filename); err != nil {
		return 0, err
	}

	n, err := s.write(filename, r)
	if err != nil {
		return n, err
	}

	if err := s.Verify(ctx, filename); err != nil {
		return n, err
	}

	log.Info().
		Str("filename", filename).
		Int64("bytes", n).
		Msg("artifact committed")
	return n, nil
}

// write persists the payload gzip-compressed at the artifact path, created
// in exclusive mode. If the path already exists nothing is touched and
// ErrAlreadyExists is returned. Any other failure removes the partial file
// before returning.
func (s *Store) write(filename string, r io.Reader) (int64, error) {
	path := s.ArtifactPath(filename)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("%w: %s", ErrAlreadyExists, filename)
		}
		return 0, fmt.Errorf("%w: %s: %v", ErrWriteFailed, filename, err)
	}

	gz := gzip.NewWriter(f)
	n, err := io.Copy(gz, r)
	if err == nil {
		err = gz.Close()
	} else {
		_ = gz.Close()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.remove(path)
		return n, fmt.Errorf("%w: %s: %v", ErrWriteFailed, filename, err)
	}

	return n, nil
}

// Verify reads the stored artifact back, decompresses it, and checks that
// the content fingerprint equals the one embedded in the filename. On any
// failure the stored file is deleted before the error is returned: an
// unreadable or mislabeled artifact must never remain on disk.
func (s *Store) Verify(ctx context.Context, filename string) error {
	path := s.ArtifactPath(filename)

	compressed, err := os.ReadFile(path)
	if err != nil {
		s.remove(path)
		return fmt.Errorf("%w: %s: %v", ErrReadFailed, filename, err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		s.remove(path)
		return fmt.Errorf("%w: %s: %v", ErrReadFailed, filename, err)
	}
	data, err := io.ReadAll(gz)
	if err == nil {
		err = gz.Close()
	}
	if err != nil {
		s.remove(path)
		return fmt.Errorf("%w: %s: %v", ErrReadFailed, filename, err)
	}

	fingerprint := s.naming.Fingerprint(data)
	if fingerprint != s.naming.Claimed(filename) {
		s.remove(path)
		return fmt.Errorf("%w: %s: computed %s", ErrHashMismatch, filename, fingerprint)
	}

	return nil
}

// remove deletes a stored artifact, best effort. Cleanup failures are logged
// and do not change the request outcome.
func (s *Store) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("failed to remove artifact")
	}
}
