package maven

import (
	"fmt"
	"strings"
)

// Coordinate identifies an artifact within a Maven 2 repository.
//
// Classifier and Packaging refine which published file is wanted but do
// not participate in identity: two coordinates with the same group,
// artifact, and version resolve to the same repository directory.
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Packaging  string
}

// GroupRewrite is one entry of the mislabeled-artifact-group table.
// Artifacts published with a bogus group are rewritten to NewGroup,
// and NewArtifactPrefix is prepended to the artifact id.
type GroupRewrite struct {
	NewGroup          string
	NewArtifactPrefix string
}

// ParseCoordinate parses "group:artifact:version[:classifier[:packaging]]".
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 || len(parts) > 5 {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q (expected group:artifact:version)", s)
	}
	c := Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2]}
	if len(parts) > 3 {
		c.Classifier = parts[3]
	}
	if len(parts) > 4 {
		c.Packaging = parts[4]
	}
	if c.Group == "" || c.Artifact == "" || c.Version == "" {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q (empty component)", s)
	}
	return c, nil
}

// ID returns the identity key "group:artifact:version" used for
// deduplication. Classifier and packaging are deliberately excluded.
func (c Coordinate) ID() string {
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

func (c Coordinate) String() string { return c.ID() }

// Path returns the repository-relative directory for the coordinate,
// without a trailing slash: "group/with/slashes/artifact/version".
func (c Coordinate) Path() string {
	return strings.ReplaceAll(c.Group, ".", "/") + "/" + c.Artifact + "/" + c.Version
}

// PomFilename returns the name of the coordinate's POM file.
func (c Coordinate) PomFilename() string {
	return c.Artifact + "-" + c.Version + ".pom"
}

// PrimaryFilename returns the name of the primary artifact file for the
// given packaging. Packaging "" defaults to jar; "bundle" and
// "maven-plugin" also publish jars.
func (c Coordinate) PrimaryFilename() string {
	name := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	return name + "." + packagingExtension(c.Packaging)
}

func packagingExtension(packaging string) string {
	switch packaging {
	case "", "jar", "bundle", "maven-plugin", "ejb":
		return "jar"
	default:
		return packaging
	}
}

// Canonicalize applies the mislabeled-artifact-group table. A table key
// rewrites the coordinate when it is a prefix of the group followed by
// a dot, or when it matches the artifact id of a group-less publication.
// The rewrite is applied at most once, before the first directory
// lookup.
func Canonicalize(c Coordinate, rewrites map[string]GroupRewrite) Coordinate {
	for prefix, r := range rewrites {
		if strings.HasPrefix(c.Group+".", prefix) || c.Artifact == prefix {
			c.Group = r.NewGroup
			if r.NewArtifactPrefix != "" && !strings.HasPrefix(c.Artifact, r.NewArtifactPrefix) {
				c.Artifact = r.NewArtifactPrefix + c.Artifact
			}
			return c
		}
	}
	return c
}
