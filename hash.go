package texcache

import "github.com/opencontainers/go-digest"

// Hash is the content hash of encoded image bytes: a SHA-256 digest in the
// "sha256:<hex>" form.
type Hash = digest.Digest

// HashBytes returns the content hash of data.
func HashBytes(data []byte) Hash {
	return digest.FromBytes(data)
}

// ContentKey returns the key under which the texture prepared from content
// hash for usage is persisted and mirrored. The same encoded bytes prepared
// for two usages are stored as two entries.
func ContentKey(hash Hash, usage Usage) Hash {
	return digest.FromString(hash.String() + "\n" + usage.String())
}
