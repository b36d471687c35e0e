package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryandalviplx/OCR-bill/internal/domain"
)

func TestNewHasher_Algorithms(t *testing.T) {
	tests := []struct {
		name      string
		algorithm string
		want      domain.HashAlgorithm
		wantErr   bool
	}{
		{"default", "", domain.HashSHA256, false},
		{"sha256", "sha256", domain.HashSHA256, false},
		{"sha1", "sha1", domain.HashSHA1, false},
		{"md5", "md5", domain.HashMD5, false},
		{"unsupported", "crc32", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHasher(tt.algorithm)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Algorithm())
		})
	}
}

func TestHasher_Fingerprint_Deterministic(t *testing.T) {
	h, err := NewHasher("sha256")
	require.NoError(t, err)

	c := &domain.BillCandidate{
		VendorName: "ACME",
		Total:      money(15000),
		Items:      []domain.LineItem{{Description: "Fee", Quantity: 1, LineTotal: money(15000)}},
	}

	fp1, err := h.Fingerprint(c)
	require.NoError(t, err)
	fp2, err := h.Fingerprint(c)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
	assert.Len(t, string(fp1), 64) // hex sha256
}

func TestHasher_Fingerprint_AlgorithmChangesDigest(t *testing.T) {
	c := &domain.BillCandidate{VendorName: "ACME", Total: money(15000)}

	sha, err := NewHasher("sha256")
	require.NoError(t, err)
	md5h, err := NewHasher("md5")
	require.NoError(t, err)

	fpSHA, err := sha.Fingerprint(c)
	require.NoError(t, err)
	fpMD5, err := md5h.Fingerprint(c)
	require.NoError(t, err)
	assert.NotEqual(t, fpSHA, fpMD5)
	assert.Len(t, string(fpMD5), 32) // hex md5
}

func TestHasher_Fingerprint_UncanonicalizableFails(t *testing.T) {
	h, err := NewHasher("")
	require.NoError(t, err)

	_, err = h.Fingerprint(&domain.BillCandidate{})
	var fpErr *FingerprintError
	require.ErrorAs(t, err, &fpErr)
	assert.Equal(t, "no canonicalizable fields", fpErr.Reason)
}
