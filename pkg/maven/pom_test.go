package maven

import (
	"strings"
	"testing"
)

const basicPOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <groupId>com.example</groupId>
  <artifactId>my-app</artifactId>
  <version>1.0.0</version>

  <licenses>
    <license>
      <name>The Apache Software License, Version 2.0</name>
      <url>http://www.apache.org/licenses/LICENSE-2.0.txt</url>
    </license>
  </licenses>

  <properties>
    <spring.version>5.3.0</spring.version>
  </properties>

  <dependencies>
    <dependency>
      <groupId>org.springframework</groupId>
      <artifactId>spring-core</artifactId>
      <version>${spring.version}</version>
    </dependency>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
      <version>4.13</version>
      <scope>test</scope>
    </dependency>
    <dependency>
      <groupId>org.optional</groupId>
      <artifactId>optional-dep</artifactId>
      <version>1.0</version>
      <optional>true</optional>
    </dependency>
  </dependencies>
</project>`

func TestParsePOM(t *testing.T) {
	pom, err := ParsePOM([]byte(basicPOM))
	if err != nil {
		t.Fatalf("ParsePOM() failed: %v", err)
	}

	want := Coordinate{Group: "com.example", Artifact: "my-app", Version: "1.0.0"}
	if pom.Coordinate != want {
		t.Errorf("coordinate = %+v, want %+v", pom.Coordinate, want)
	}
	if pom.Packaging != "jar" {
		t.Errorf("packaging = %q, want jar default", pom.Packaging)
	}
	if len(pom.Dependencies) != 3 {
		t.Fatalf("got %d dependencies, want 3", len(pom.Dependencies))
	}
	if pom.Properties["spring.version"] != "5.3.0" {
		t.Errorf("properties = %v", pom.Properties)
	}
	if len(pom.Licenses) != 1 || pom.Licenses[0].Name != "The Apache Software License, Version 2.0" {
		t.Errorf("licenses = %+v", pom.Licenses)
	}
	if !pom.Dependencies[2].Optional {
		t.Error("optional flag not parsed")
	}
	if pom.Dependencies[1].Scope != "test" {
		t.Error("scope not parsed")
	}
}

func TestParsePOM_ParentInheritance(t *testing.T) {
	data := `<project>
  <parent>
    <groupId>org.example.parent</groupId>
    <artifactId>parent-pom</artifactId>
    <version>7</version>
  </parent>
  <artifactId>child</artifactId>
</project>`

	pom, err := ParsePOM([]byte(data))
	if err != nil {
		t.Fatalf("ParsePOM() failed: %v", err)
	}
	if pom.Parent == nil {
		t.Fatal("parent not parsed")
	}
	if pom.Coordinate.Group != "org.example.parent" {
		t.Errorf("group = %q, want inherited org.example.parent", pom.Coordinate.Group)
	}
	if pom.Coordinate.Version != "7" {
		t.Errorf("version = %q, want inherited 7", pom.Coordinate.Version)
	}
}

func TestParsePOM_RepairsKnownBadXML(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"oslash entity", `<project><groupId>dk.plexus</groupId><artifactId>x&oslash;y</artifactId><version>1</version></project>`},
		{"nbsp entity", `<project><groupId>javax.portlet</groupId><artifactId>portlet-api</artifactId><version>1&nbsp;</version></project>`},
		{
			"unbound xsi prefix",
			`<project xsi:schemaLocation="http://maven.apache.org/POM/4.0.0 https://maven.apache.org/maven-v4_0_0.xsd"><groupId>com.amazonaws</groupId><artifactId>aws-lambda-java-events</artifactId><version>2.2.7</version></project>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePOM([]byte(tt.data)); err != nil {
				t.Errorf("ParsePOM() failed on repairable input: %v", err)
			}
		})
	}
}

func TestParsePOM_Unparseable(t *testing.T) {
	if _, err := ParsePOM([]byte("<project><unclosed")); err == nil {
		t.Error("ParsePOM() accepted truncated XML")
	}
}

func TestSubstitute(t *testing.T) {
	props := map[string]string{
		"spring.version": "5.3.0",
		"indirect":       "${spring.version}",
		"self":           "${self}",
	}

	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"plain", "nothing here", "nothing here", true},
		{"direct", "${spring.version}", "5.3.0", true},
		{"embedded", "v${spring.version}-x", "v5.3.0-x", true},
		{"indirect", "${indirect}", "5.3.0", true},
		{"unknown", "${missing.key}", "${missing.key}", false},
		{"self-referential", "${self}", "${self}", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Substitute(tt.in, props)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Substitute(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSubstitute_Idempotent(t *testing.T) {
	props := map[string]string{"a": "x", "b": "${a}y"}
	first, ok := Substitute("${b}${a}", props)
	if !ok {
		t.Fatalf("substitution did not resolve: %q", first)
	}
	second, ok := Substitute(first, props)
	if !ok || second != first {
		t.Errorf("second pass changed the result: %q -> %q", first, second)
	}
}

func TestMergeParent(t *testing.T) {
	child, err := ParsePOM([]byte(`<project>
  <parent>
    <groupId>org.example</groupId>
    <artifactId>parent</artifactId>
    <version>2</version>
  </parent>
  <artifactId>child</artifactId>
  <properties><child.only>c</child.only><shared>child-wins</shared></properties>
  <dependencies>
    <dependency><groupId>org.dep</groupId><artifactId>lib</artifactId></dependency>
  </dependencies>
</project>`))
	if err != nil {
		t.Fatal(err)
	}
	parent, err := ParsePOM([]byte(`<project>
  <groupId>org.example</groupId>
  <artifactId>parent</artifactId>
  <version>2</version>
  <packaging>pom</packaging>
  <properties><shared>parent</shared><parent.only>p</parent.only></properties>
  <licenses><license><name>MIT License</name></license></licenses>
  <dependencyManagement>
    <dependencies>
      <dependency><groupId>org.dep</groupId><artifactId>lib</artifactId><version>9.9</version></dependency>
    </dependencies>
  </dependencyManagement>
</project>`))
	if err != nil {
		t.Fatal(err)
	}

	child.MergeParent(parent)

	if child.Properties["shared"] != "child-wins" {
		t.Errorf("child property overridden: %q", child.Properties["shared"])
	}
	if child.Properties["parent.only"] != "p" {
		t.Error("parent property not inherited")
	}
	if v, ok := child.ManagedVersion("org.dep", "lib"); !ok || v != "9.9" {
		t.Errorf("ManagedVersion = %q, %v", v, ok)
	}
	if len(child.Licenses) != 1 || child.Licenses[0].Name != "MIT License" {
		t.Errorf("licenses not inherited: %+v", child.Licenses)
	}
	if child.Properties["project.parent.version"] != "2" {
		t.Error("project.parent.version not recorded")
	}
}

func TestManagedVersion_ChildWins(t *testing.T) {
	pom := &POM{
		Management: []Dependency{
			{Group: "g", Artifact: "a", Version: "child"},
			{Group: "g", Artifact: "a", Version: "parent"},
		},
	}
	if v, _ := pom.ManagedVersion("g", "a"); v != "child" {
		t.Errorf("ManagedVersion = %q, want child entry to win", v)
	}
}

func TestIsVersionRange(t *testing.T) {
	for in, want := range map[string]bool{
		"1.0":       false,
		"[1.0,2.0)": true,
		"(,1.5]":    true,
		"1.0-rc1":   false,
	} {
		if got := IsVersionRange(in); got != want {
			t.Errorf("IsVersionRange(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestEffectiveProperties_BuiltinsAndOverrides(t *testing.T) {
	pom, err := ParsePOM([]byte(strings.ReplaceAll(basicPOM, "<spring.version>5.3.0</spring.version>",
		"<spring.version>5.3.0</spring.version><project.version>override</project.version>")))
	if err != nil {
		t.Fatal(err)
	}
	props := pom.EffectiveProperties()
	if props["project.groupId"] != "com.example" {
		t.Errorf("project.groupId = %q", props["project.groupId"])
	}
	if props["project.version"] != "override" {
		t.Errorf("declared property should override the builtin, got %q", props["project.version"])
	}
}
