package cli

import (
	"fmt"
	"strings"

	"github.com/groboclown/mvn2get/pkg/config"
	"github.com/groboclown/mvn2get/pkg/maven"
)

// parseArtifactArg turns one positional argument into a coordinate.
// Arguments are either gradle-style "group:artifact:version" notation
// (with optional classifier and packaging) or a full URL into one of
// the configured repositories.
func parseArtifactArg(arg string, cfg config.Config) (maven.Coordinate, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return coordinateFromURL(arg, cfg)
	}
	if strings.Count(arg, ":") >= 2 {
		return maven.ParseCoordinate(arg)
	}
	return maven.Coordinate{}, fmt.Errorf(
		"unknown artifact format %q: must be either a maven repo URL or group:artifact:version", arg)
}

// coordinateFromURL recovers a coordinate from a repository URL. The
// URL must start with a configured repository base; the remainder is
// group segments, artifact, and version, optionally followed by a
// .jar/.pom filename. Some indices (mvnrepository.com) keep the group
// dotted in a single segment, which is split apart here.
func coordinateFromURL(src string, cfg config.Config) (maven.Coordinate, error) {
	for _, base := range append(append([]string(nil), cfg.RemoteRepoURLs...), cfg.LocalRepoURLs...) {
		if !strings.HasPrefix(src, base) {
			continue
		}
		parts := strings.Split(strings.Trim(src[len(base):], "/"), "/")
		if n := len(parts); n > 0 && (strings.HasSuffix(parts[n-1], ".jar") || strings.HasSuffix(parts[n-1], ".pom")) {
			parts = parts[:n-1]
		}
		if len(parts) > 0 && strings.Contains(parts[0], ".") {
			parts = append(strings.Split(parts[0], "."), parts[1:]...)
		}
		if len(parts) < 3 {
			return maven.Coordinate{}, fmt.Errorf("cannot derive group:artifact:version from %q", src)
		}
		return maven.Coordinate{
			Group:    strings.Join(parts[:len(parts)-2], "."),
			Artifact: parts[len(parts)-2],
			Version:  parts[len(parts)-1],
		}, nil
	}
	return maven.Coordinate{}, fmt.Errorf("unknown source repository for %q", src)
}
