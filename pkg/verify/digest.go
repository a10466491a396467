// Package verify checks downloaded repository files against their
// published checksums and detached PGP signatures.
package verify

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// DigestKind names a checksum algorithm used by Maven repositories.
type DigestKind string

const (
	MD5  DigestKind = "md5"
	SHA1 DigestKind = "sha1"
)

// DigestKindFor returns the algorithm a checksum filename carries, or
// false when the name is not a checksum file.
func DigestKindFor(filename string) (DigestKind, bool) {
	switch {
	case strings.HasSuffix(filename, ".md5"):
		return MD5, true
	case strings.HasSuffix(filename, ".sha1"):
		return SHA1, true
	default:
		return "", false
	}
}

// Digest computes the hex digest of data under kind.
func Digest(data []byte, kind DigestKind) string {
	switch kind {
	case MD5:
		sum := md5.Sum(data)
		return hex.EncodeToString(sum[:])
	case SHA1:
		sum := sha1.Sum(data)
		return hex.EncodeToString(sum[:])
	}
	return ""
}

// CheckDigest verifies data against the contents of a published
// checksum file. The expected value tolerates surrounding whitespace
// and the two common layouts: "hex" or "hex  filename", plus the
// "MD5(name)= hex" form some repositories emit. Comparison is
// case-insensitive.
func CheckDigest(data []byte, kind DigestKind, checksumFile []byte) error {
	expected := ParseChecksumFile(string(checksumFile), kind)
	if expected == "" {
		return fmt.Errorf("unreadable %s checksum file", kind)
	}
	actual := Digest(data, kind)
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("%s mismatch: computed %s, published %s", kind, actual, expected)
	}
	return nil
}

// ParseChecksumFile extracts the hex digest from the raw contents of a
// .md5 or .sha1 file.
func ParseChecksumFile(contents string, kind DigestKind) string {
	fields := strings.Fields(strings.TrimSpace(contents))
	if len(fields) == 0 {
		return ""
	}
	// "MD5(filename)= hexdigest" puts the digest second.
	if len(fields) > 1 && strings.HasPrefix(strings.ToLower(fields[0]), string(kind)+"(") {
		return fields[1]
	}
	return strings.TrimPrefix(fields[0], "\\")
}
