package variant

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests. The version suffix allows the
// algorithm to change without colliding with old digests.
const (
	DomainSnapshot = "saveload/snapshot/v1"
	DomainValue    = "saveload/value/v1"
)

// Digest computes SHA256(domain + 0x00 + data) as lowercase hex.
func Digest(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotDigest identifies a serialized snapshot blob.
func SnapshotDigest(blob []byte) string {
	return Digest(DomainSnapshot, blob)
}

// ValueDigest identifies a value by its canonical JSON form, so values that
// are Equal share a digest.
func ValueDigest(v Value) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ValueDigest: %w", err)
	}
	return Digest(DomainValue, data), nil
}
