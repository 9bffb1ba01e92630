package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"regexp"
)

// Naming describes the artifact filename convention: a fixed prefix and
// suffix around a truncated hex digest of the artifact content. The digest
// segment is the claimed fingerprint; the store verifies it against the
// actual content after every write.
type Naming struct {
	prefix    string
	suffix    string
	hexLen    int
	algorithm func() hash.Hash
	re        *regexp.Regexp
}

// NewNaming builds a naming convention. hexLen is the number of lowercase
// hex digest characters embedded in the name; algorithm is the digest
// function applied to the uncompressed artifact bytes.
func NewNaming(prefix, suffix string, hexLen int, algorithm func() hash.Hash) Naming {
	re := regexp.MustCompile(fmt.Sprintf("^%s[0-9a-f]{%d}%s$",
		regexp.QuoteMeta(prefix), hexLen, regexp.QuoteMeta(suffix)))
	return Naming{
		prefix:    prefix,
		suffix:    suffix,
		hexLen:    hexLen,
		algorithm: algorithm,
		re:        re,
	}
}

// DefaultNaming is the NNUE network convention: "nn-" followed by the first
// 12 hex characters of the SHA-256 digest, with a ".nnue" extension.
func DefaultNaming() Naming {
	return NewNaming("nn-", ".nnue", 12, sha256.New)
}

// Pattern returns the human-readable form of the expected filename pattern,
// suitable for echoing back in rejection messages.
func (n Naming) Pattern() string {
	return fmt.Sprintf("%s[0-9a-f]{%d}%s", n.prefix, n.hexLen, n.suffix)
}

// Validate checks a candidate filename against the convention. It returns
// ErrMissingFilename for an empty name and ErrInvalidName for anything that
// does not match the pattern exactly. No I/O is performed.
func (n Naming) Validate(filename string) error {
	if filename == "" {
		return ErrMissingFilename
	}
	if !n.re.MatchString(filename) {
		return fmt.Errorf("%w: %s (expected %s)", ErrInvalidName, filename, n.Pattern())
	}
	return nil
}

// Claimed extracts the fingerprint embedded in a validated filename.
func (n Naming) Claimed(filename string) string {
	return filename[len(n.prefix) : len(n.prefix)+n.hexLen]
}

// Fingerprint computes the truncated lowercase-hex digest of data.
func (n Naming) Fingerprint(data []byte) string {
	h := n.algorithm()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))[:n.hexLen]
}
