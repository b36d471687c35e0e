package dedup

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

// FingerprintError indicates a candidate whose content could not be
// canonicalized. The candidate is excluded from dedup; it is treated as
// neither duplicate nor unique.
type FingerprintError struct {
	Ref    domain.DocumentRef
	Reason string
}

func (e *FingerprintError) Error() string {
	return fmt.Sprintf("cannot fingerprint document %q: %s", e.Ref.Location, e.Reason)
}

// Hasher computes fingerprints over canonical bill content with a
// configurable digest algorithm.
type Hasher struct {
	algorithm domain.HashAlgorithm
}

// NewHasher creates a Hasher for the named algorithm. An empty name selects
// sha256.
func NewHasher(algorithm string) (*Hasher, error) {
	if algorithm == "" {
		algorithm = string(domain.HashSHA256)
	}
	switch domain.HashAlgorithm(algorithm) {
	case domain.HashSHA256, domain.HashSHA1, domain.HashMD5:
		return &Hasher{algorithm: domain.HashAlgorithm(algorithm)}, nil
	}
	return nil, fmt.Errorf("unsupported fingerprint hash algorithm %q", algorithm)
}

// Algorithm returns the configured digest algorithm.
func (h *Hasher) Algorithm() domain.HashAlgorithm {
	return h.algorithm
}

func (h *Hasher) newDigest() hash.Hash {
	switch h.algorithm {
	case domain.HashSHA1:
		return sha1.New()
	case domain.HashMD5:
		return md5.New()
	default:
		return sha256.New()
	}
}

// Fingerprint canonicalizes the candidate and digests the canonical byte
// sequence. The result is a pure function of the candidate's content.
func (h *Hasher) Fingerprint(c *domain.BillCandidate) (domain.Fingerprint, error) {
	canonical, err := CanonicalBytes(c)
	if err != nil {
		return "", err
	}
	digest := h.newDigest()
	digest.Write(canonical)
	return domain.Fingerprint(hex.EncodeToString(digest.Sum(nil))), nil
}
