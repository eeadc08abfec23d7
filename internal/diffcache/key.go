// Package diffcache implements the content-addressed Diff Cache (spec
// §4.9): a persistent store keyed on exactly the inputs that determine a
// DiffResult, so identical content never gets re-diffed and changed content
// never returns a stale result.
package diffcache

import (
	digest "github.com/opencontainers/go-digest"
)

// Key is DiffCacheKey from the data model: every field that can change a
// DiffResult's value. Two keys with the same string form are treated as the
// same cache slot; there is no content-comparison fallback on a hash
// collision (spec §4.9 invariant) — it is simply the key, not a hint.
type Key struct {
	HostID              string
	ConfigID            string
	RootSig             string
	InputHashBefore     string
	InputHashAfter      string
	RedactorFingerprint digest.Digest
}

// String renders the key as the cache's on-disk/in-memory lookup string. It
// is itself content-addressed: identical field values always render to the
// identical string, across processes and runs.
func (k Key) String() string {
	return k.HostID + "\x00" + k.ConfigID + "\x00" + k.RootSig + "\x00" +
		k.InputHashBefore + "\x00" + k.InputHashAfter + "\x00" + k.RedactorFingerprint.String()
}

// HashInput computes the content hash one side of a Key expects, using the
// same digest algorithm as internal/diff's redactor fingerprint so the whole
// cache keys on one consistent hash family.
func HashInput(content string) string {
	return digest.FromString(content).String()
}
