package maven

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
)

// POM is the parsed Project Object Model for one artifact. The zero
// value is not useful; build one with ParsePOM.
type POM struct {
	Coordinate   Coordinate
	Parent       *Coordinate
	Packaging    string
	Properties   map[string]string
	Management   []Dependency
	Dependencies []Dependency
	Licenses     []License
}

// Dependency is one dependency (or dependencyManagement) entry.
type Dependency struct {
	Group      string
	Artifact   string
	Version    string
	Scope      string
	Type       string
	Classifier string
	Optional   bool
}

// License is a declared license, by name, URL, or both.
type License struct {
	Name string
	URL  string
}

// ID returns "group:artifact:version" for the dependency.
func (d Dependency) ID() string {
	return d.Group + ":" + d.Artifact + ":" + d.Version
}

// Coordinate converts the dependency into an artifact coordinate.
func (d Dependency) Coordinate() Coordinate {
	return Coordinate{
		Group:      d.Group,
		Artifact:   d.Artifact,
		Version:    d.Version,
		Classifier: d.Classifier,
		Packaging:  d.Type,
	}
}

// SubstitutionLimit bounds the property fix-point iteration so that a
// self-referential property cannot spin forever.
const SubstitutionLimit = 32

// Known repair rules for POMs that are not well-formed XML. A handful
// of widely-used artifacts (plexus, portlet-api, aws-lambda-java-events)
// published files that no conforming parser accepts.
var pomRepairs = strings.NewReplacer(
	"&oslash;", "o",
	"&nbsp;", " ",
	`<project xsi:schemaLocation="http://maven.apache.org/POM/4.0.0 https://maven.apache.org/maven-v4_0_0.xsd">`,
	"<project>",
)

type pomProject struct {
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Packaging    string          `xml:"packaging"`
	Parent       *pomParent      `xml:"parent"`
	Properties   pomProperties   `xml:"properties"`
	Management   []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Licenses     []pomLicense    `xml:"licenses>license"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Type       string `xml:"type"`
	Classifier string `xml:"classifier"`
	Optional   string `xml:"optional"`
}

type pomLicense struct {
	Name string `xml:"name"`
	URL  string `xml:"url"`
}

// pomProperties collects the free-form children of <properties> into a
// name → value map.
type pomProperties struct {
	Entries map[string]string
}

func (p *pomProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if p.Entries == nil {
		p.Entries = make(map[string]string)
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			p.Entries[t.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// ParsePOM decodes a POM document. Unknown elements are ignored and
// missing optional children tolerated; the known invalid-XML artifacts
// are repaired before decoding.
func ParsePOM(data []byte) (*POM, error) {
	repaired := pomRepairs.Replace(string(data))

	dec := xml.NewDecoder(bytes.NewReader([]byte(repaired)))
	dec.Strict = false
	dec.CharsetReader = charset.NewReaderLabel

	var proj pomProject
	if err := dec.Decode(&proj); err != nil {
		return nil, fmt.Errorf("parsing pom: %w", err)
	}

	pom := &POM{
		Coordinate: Coordinate{
			Group:    strings.TrimSpace(proj.GroupID),
			Artifact: strings.TrimSpace(proj.ArtifactID),
			Version:  strings.TrimSpace(proj.Version),
		},
		Packaging:  strings.TrimSpace(proj.Packaging),
		Properties: proj.Properties.Entries,
	}
	if pom.Packaging == "" {
		pom.Packaging = "jar"
	}
	if pom.Properties == nil {
		pom.Properties = make(map[string]string)
	}

	if proj.Parent != nil {
		parent := Coordinate{
			Group:    strings.TrimSpace(proj.Parent.GroupID),
			Artifact: strings.TrimSpace(proj.Parent.ArtifactID),
			Version:  strings.TrimSpace(proj.Parent.Version),
		}
		// Coordinates missing a group or version inherit from the parent.
		if pom.Coordinate.Group == "" {
			pom.Coordinate.Group = parent.Group
		}
		if pom.Coordinate.Version == "" {
			pom.Coordinate.Version = parent.Version
		}
		pom.Parent = &parent
	}

	for _, d := range proj.Management {
		pom.Management = append(pom.Management, newDependency(d))
	}
	for _, d := range proj.Dependencies {
		pom.Dependencies = append(pom.Dependencies, newDependency(d))
	}
	for _, l := range proj.Licenses {
		lic := License{Name: strings.TrimSpace(l.Name), URL: strings.TrimSpace(l.URL)}
		if lic.Name != "" || lic.URL != "" {
			pom.Licenses = append(pom.Licenses, lic)
		}
	}

	return pom, nil
}

func newDependency(d pomDependency) Dependency {
	return Dependency{
		Group:      strings.TrimSpace(d.GroupID),
		Artifact:   strings.TrimSpace(d.ArtifactID),
		Version:    strings.TrimSpace(d.Version),
		Scope:      strings.TrimSpace(d.Scope),
		Type:       strings.TrimSpace(d.Type),
		Classifier: strings.TrimSpace(d.Classifier),
		Optional:   strings.TrimSpace(d.Optional) == "true",
	}
}

// BuiltinProperties returns the project.* values implied by the POM's
// own coordinates, including the legacy pom.* aliases.
func (p *POM) BuiltinProperties() map[string]string {
	props := map[string]string{
		"project.groupId":    p.Coordinate.Group,
		"project.artifactId": p.Coordinate.Artifact,
		"project.version":    p.Coordinate.Version,
		"pom.groupId":        p.Coordinate.Group,
		"pom.artifactId":     p.Coordinate.Artifact,
		"pom.version":        p.Coordinate.Version,
	}
	if p.Parent != nil {
		props["project.parent.groupId"] = p.Parent.Group
		props["project.parent.artifactId"] = p.Parent.Artifact
		props["project.parent.version"] = p.Parent.Version
	}
	return props
}

// EffectiveProperties merges the built-ins under the declared
// properties: an explicit <properties> entry wins over the implied
// project.* value.
func (p *POM) EffectiveProperties() map[string]string {
	props := p.BuiltinProperties()
	for k, v := range p.Properties {
		props[k] = v
	}
	return props
}

// MergeParent folds a resolved parent POM into p: properties,
// dependencyManagement, and licenses merge parent-first so the child's
// own entries override, and a still-missing group or version is taken
// from the parent. The environment is never consulted.
func (p *POM) MergeParent(parent *POM) {
	if parent == nil {
		return
	}
	if p.Coordinate.Group == "" {
		p.Coordinate.Group = parent.Coordinate.Group
	}
	if p.Coordinate.Version == "" {
		p.Coordinate.Version = parent.Coordinate.Version
	}
	for k, v := range parent.Properties {
		if _, ok := p.Properties[k]; !ok {
			p.Properties[k] = v
		}
	}
	p.Properties["project.parent.groupId"] = parent.Coordinate.Group
	p.Properties["project.parent.version"] = parent.Coordinate.Version
	// Child management entries precede the parent's; ManagedVersion
	// scans in order, so the child wins on conflicts.
	p.Management = append(p.Management, parent.Management...)
	if len(p.Licenses) == 0 {
		p.Licenses = parent.Licenses
	}
}

// ManagedVersion looks up the dependencyManagement version for a
// group/artifact pair. The first match wins.
func (p *POM) ManagedVersion(group, artifact string) (string, bool) {
	for _, m := range p.Management {
		if m.Group == group && m.Artifact == artifact && m.Version != "" {
			return m.Version, true
		}
	}
	return "", false
}

// Substitute replaces ${key} references in value from props, repeating
// until a fixed point or the substitution limit. The second return is
// false when an unresolvable ${...} reference remains; the token is
// left intact in that case.
func Substitute(value string, props map[string]string) (string, bool) {
	for i := 0; i < SubstitutionLimit; i++ {
		if !strings.Contains(value, "${") {
			return value, true
		}
		before := value
		for k, v := range props {
			value = strings.ReplaceAll(value, "${"+k+"}", v)
		}
		if value == before {
			return value, false
		}
	}
	return value, !strings.Contains(value, "${")
}

// SubstituteDependency applies property substitution to the coordinate
// fields of d. It reports false if any field still carries an
// unresolved reference.
func SubstituteDependency(d *Dependency, props map[string]string) bool {
	ok := true
	for _, f := range []*string{&d.Group, &d.Artifact, &d.Version, &d.Classifier} {
		v, resolved := Substitute(*f, props)
		*f = v
		ok = ok && resolved
	}
	return ok
}

// IsVersionRange reports whether v uses Maven range syntax such as
// "[1.0,2.0)". Ranges are not resolved by this tool.
func IsVersionRange(v string) bool {
	return strings.ContainsAny(v, "[]()")
}
