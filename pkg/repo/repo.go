// Package repo models Maven 2 repository layouts and scrapes their
// HTML directory indices for file listings.
package repo

import (
	"strings"

	"github.com/groboclown/mvn2get/pkg/maven"
)

// Kind distinguishes repositories that are download sources from
// repositories that only suppress downloads when they already hold an
// artifact.
type Kind int

const (
	Remote Kind = iota
	Local
)

// Repository is one configured repository. BaseURL always ends in "/".
type Repository struct {
	BaseURL string
	Kind    Kind
}

// New normalizes base into a Repository, appending the trailing slash
// if the configuration left it off.
func New(base string, kind Kind) Repository {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return Repository{BaseURL: base, Kind: kind}
}

// DirectoryURL returns the artifact directory for c under r:
// base + group-with-slashes + "/" + artifact + "/" + version + "/".
func (r Repository) DirectoryURL(c maven.Coordinate) string {
	return r.BaseURL + c.Path() + "/"
}

// FileURL returns the URL of one published file in c's directory.
func (r Repository) FileURL(c maven.Coordinate, filename string) string {
	return r.DirectoryURL(c) + filename
}

// verificationExtensions are the sibling files that accompany every
// published content file: checksums, the detached signature, and the
// signature's own checksums.
var verificationExtensions = []string{".md5", ".sha1", ".asc", ".asc.md5", ".asc.sha1"}

// garbageSuffixes are checksum-of-checksum publications that are never
// real artifact files.
var garbageSuffixes = []string{
	".md5.md5", ".md5.sha1", ".sha1.md5", ".sha1.sha1",
	".asc.asc", ".md5.asc", ".sha1.asc",
	".asc.asc.md5", ".asc.asc.sha1",
	".md5.asc.md5", ".md5.asc.sha1",
	".sha1.asc.md5", ".sha1.asc.sha1",
}

// ValidFilename reports whether name could be a published artifact
// file rather than index garbage.
func ValidFilename(name string) bool {
	for _, suffix := range garbageSuffixes {
		if strings.HasSuffix(name, suffix) {
			return false
		}
	}
	return true
}

// IsVerificationFile reports whether name is a checksum or signature
// sibling rather than a content file.
func IsVerificationFile(name string) bool {
	return strings.HasSuffix(name, ".md5") ||
		strings.HasSuffix(name, ".sha1") ||
		strings.HasSuffix(name, ".asc")
}
