package store

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/zeebo/xxh3"
)

// Freshness is the result of checking a stored fingerprint against the
// file on disk.
type Freshness int

const (
	// Fresh means the entry matches the file; nothing to do.
	Fresh Freshness = iota

	// Refreshed means the content is unchanged but size or mtime
	// drifted (touch, checkout). The returned fingerprint should be
	// stored; chunks and embeddings stay valid.
	Refreshed

	// Stale means the content or the model changed; the entry must be
	// rebuilt.
	Stale
)

// HashBytes returns the 64-bit content hash as fixed-width hex.
func HashBytes(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

// HashFile hashes the file at path.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return HashBytes(data), nil
}

// NewFingerprint fingerprints the file at path for the given model.
func NewFingerprint(path, model string) (Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("stat %s: %w", path, err)
	}
	hash, err := HashFile(path)
	if err != nil {
		return Fingerprint{}, err
	}
	return fingerprintOf(hash, info, model), nil
}

// FingerprintContent fingerprints already-loaded content. The indexer
// uses this to avoid reading files twice.
func FingerprintContent(data []byte, info fs.FileInfo, model string) Fingerprint {
	return fingerprintOf(HashBytes(data), info, model)
}

func fingerprintOf(hash string, info fs.FileInfo, model string) Fingerprint {
	return Fingerprint{
		ContentHash: hash,
		Size:        info.Size(),
		MtimeNs:     info.ModTime().UnixNano(),
		Model:       model,
	}
}

// Check compares the stored fingerprint against the file at path for the
// given model. Size and mtime are compared first; the content is only
// re-hashed when they drift, and a matching hash yields Refreshed with an
// updated fingerprint so the entry survives touches and checkouts without
// re-chunking. Any model difference is Stale regardless of content.
func (f Fingerprint) Check(path, model string) (Freshness, Fingerprint, error) {
	if f.Model != model {
		return Stale, Fingerprint{}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return Stale, Fingerprint{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == f.Size && info.ModTime().UnixNano() == f.MtimeNs {
		return Fresh, f, nil
	}

	hash, err := HashFile(path)
	if err != nil {
		return Stale, Fingerprint{}, err
	}
	if hash == f.ContentHash {
		return Refreshed, fingerprintOf(hash, info, model), nil
	}
	return Stale, Fingerprint{}, nil
}
