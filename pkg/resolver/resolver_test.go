package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/groboclown/mvn2get/pkg/config"
	"github.com/groboclown/mvn2get/pkg/maven"
	"github.com/groboclown/mvn2get/pkg/problems"
	"github.com/groboclown/mvn2get/pkg/store"
	"github.com/groboclown/mvn2get/pkg/verify"
)

// mockRepo serves a Maven 2 layout over httptest, generating directory
// index pages from the registered files.
type mockRepo struct {
	t  *testing.T
	mu sync.Mutex

	files    map[string][]byte
	requests []string
	srv      *httptest.Server
}

func newMockRepo(t *testing.T) *mockRepo {
	m := &mockRepo{t: t, files: make(map[string][]byte)}
	m.srv = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.srv.Close)
	return m
}

func (m *mockRepo) url() string { return m.srv.URL + "/" }

func (m *mockRepo) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests = append(m.requests, r.URL.Path)
	m.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	if body, ok := m.files[path]; ok {
		if r.Method != http.MethodHead {
			_, _ = w.Write(body)
		}
		return
	}
	if strings.HasSuffix(path, "/") {
		var names []string
		m.mu.Lock()
		for f := range m.files {
			if strings.HasPrefix(f, path) && !strings.Contains(f[len(path):], "/") {
				names = append(names, f[len(path):])
			}
		}
		m.mu.Unlock()
		if len(names) == 0 {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "<html><body><pre>\n")
		fmt.Fprint(w, "<a href=\"../\">../</a>\n")
		for _, n := range names {
			fmt.Fprintf(w, "<a href=%q>%s</a>\n", n, n)
		}
		fmt.Fprint(w, "</pre></body></html>")
		return
	}
	http.NotFound(w, r)
}

func (m *mockRepo) requestPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}

// put registers a file plus its md5/sha1 checksum siblings.
func (m *mockRepo) put(dir, name string, body []byte) {
	m.files[dir+"/"+name] = body
	m.files[dir+"/"+name+".md5"] = []byte(verify.Digest(body, verify.MD5))
	m.files[dir+"/"+name+".sha1"] = []byte(verify.Digest(body, verify.SHA1))
}

// addArtifact publishes a coordinate with its POM and jar, checksums,
// and detached signature placeholders.
func (m *mockRepo) addArtifact(coord string, pom string, withSignatures bool) {
	c, err := maven.ParseCoordinate(coord)
	if err != nil {
		m.t.Fatalf("bad test coordinate %q: %v", coord, err)
	}
	dir := c.Path()
	m.put(dir, c.PomFilename(), []byte(pom))
	m.put(dir, c.PrimaryFilename(), []byte("jar bytes of "+coord))
	if withSignatures {
		m.files[dir+"/"+c.PomFilename()+".asc"] = []byte("pom signature")
		m.files[dir+"/"+c.PrimaryFilename()+".asc"] = []byte("jar signature")
	}
}

const apacheLicense = `<licenses><license>
  <name>The Apache Software License, Version 2.0</name>
  <url>http://www.apache.org/licenses/LICENSE-2.0.txt</url>
</license></licenses>`

func pomXML(coord, licenses string, deps ...string) string {
	c, _ := maven.ParseCoordinate(coord)
	var b strings.Builder
	fmt.Fprintf(&b, "<project>\n<groupId>%s</groupId>\n<artifactId>%s</artifactId>\n<version>%s</version>\n",
		c.Group, c.Artifact, c.Version)
	b.WriteString(licenses)
	if len(deps) > 0 {
		b.WriteString("<dependencies>\n")
		for _, d := range deps {
			dc, _ := maven.ParseCoordinate(d)
			fmt.Fprintf(&b, "<dependency><groupId>%s</groupId><artifactId>%s</artifactId><version>%s</version></dependency>\n",
				dc.Group, dc.Artifact, dc.Version)
		}
		b.WriteString("</dependencies>\n")
	}
	b.WriteString("</project>")
	return b.String()
}

func testConfig(t *testing.T, repoURLs ...string) config.Config {
	cfg := config.Default()
	cfg.OutDir = t.TempDir()
	cfg.CheckInLocal = false
	cfg.RemoteRepoURLs = repoURLs
	return cfg
}

func mustCoord(t *testing.T, s string) maven.Coordinate {
	c, err := maven.ParseCoordinate(s)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestResolve_SingleArtifact(t *testing.T) {
	m := newMockRepo(t)
	coord := "org.apache.logging.log4j:log4j-api:2.12.1"
	m.addArtifact(coord, pomXML(coord, apacheLicense), true)

	cfg := testConfig(t, m.url())
	r := New(cfg)
	if err := r.Resolve(context.Background(), []maven.Coordinate{mustCoord(t, coord)}); err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	if got := r.Ledger().Len(); got != 0 {
		t.Errorf("ledger has %d problems, want 0: %v", got, r.Ledger().All())
	}
	rec, ok := r.State(mustCoord(t, coord))
	if !ok || rec.Status != StatusResolved {
		t.Fatalf("record = %+v, want resolved", rec)
	}

	out := store.New(cfg.OutDir)
	for _, name := range []string{
		"log4j-api-2.12.1.jar", "log4j-api-2.12.1.jar.md5", "log4j-api-2.12.1.jar.sha1", "log4j-api-2.12.1.jar.asc",
		"log4j-api-2.12.1.pom", "log4j-api-2.12.1.pom.md5", "log4j-api-2.12.1.pom.sha1", "log4j-api-2.12.1.pom.asc",
	} {
		if !out.Has(name) {
			t.Errorf("expected %s to be persisted", name)
		}
	}
}

func TestResolve_RepositoryFallback(t *testing.T) {
	empty := newMockRepo(t)
	full := newMockRepo(t)
	coord := "com.example:lib:1.0"
	full.addArtifact(coord, pomXML(coord, apacheLicense), false)

	cfg := testConfig(t, empty.url(), full.url())
	r := New(cfg)
	if err := r.Resolve(context.Background(), []maven.Coordinate{mustCoord(t, coord)}); err != nil {
		t.Fatal(err)
	}

	rec, _ := r.State(mustCoord(t, coord))
	if rec.Status != StatusResolved {
		t.Fatalf("status = %v, want resolved", rec.Status)
	}
	if rec.Repo != full.url() {
		t.Errorf("resolved from %q, want second repository", rec.Repo)
	}

	// The first repository saw only the directory probe, never a file
	// request.
	for _, p := range empty.requestPaths() {
		if !strings.HasSuffix(p, "/") {
			t.Errorf("file request hit the empty repository: %s", p)
		}
	}
	if got := r.Ledger().Len(); got != 0 {
		t.Errorf("fallback recorded %d problems: %v", got, r.Ledger().All())
	}
}

func TestResolve_DigestMismatch(t *testing.T) {
	m := newMockRepo(t)
	coord := "com.example:corrupt:2.0"
	dep := "com.example:downstream:1.0"
	m.addArtifact(coord, pomXML(coord, apacheLicense, dep), false)
	// Corrupt the published jar checksum.
	c := mustCoord(t, coord)
	m.files[c.Path()+"/"+c.PrimaryFilename()+".sha1"] = []byte(strings.Repeat("0", 40))

	cfg := testConfig(t, m.url())
	cfg.Recursive = true
	r := New(cfg)
	if err := r.Resolve(context.Background(), []maven.Coordinate{c}); err != nil {
		t.Fatal(err)
	}

	rec, _ := r.State(c)
	if rec.Status != StatusFailed {
		t.Errorf("status = %v, want failed", rec.Status)
	}
	if store.New(cfg.OutDir).Has(c.PrimaryFilename()) {
		t.Error("corrupt jar was persisted")
	}

	found := false
	for _, p := range r.Ledger().All() {
		if p.Kind == problems.KindDigestMismatch {
			found = true
		}
	}
	if !found {
		t.Errorf("no digest_mismatch problem recorded: %v", r.Ledger().All())
	}

	// A failed coordinate must not expand its dependencies.
	if _, tracked := r.State(mustCoord(t, dep)); tracked {
		t.Error("dependencies expanded despite digest failure")
	}
}

func TestResolve_Transitive(t *testing.T) {
	m := newMockRepo(t)
	a, b, c := "org.tree:a:1.0", "org.tree:b:1.1", "org.tree:c:1.2"
	m.addArtifact(a, pomXML(a, apacheLicense, b), false)
	m.addArtifact(b, pomXML(b, apacheLicense, c), false)
	m.addArtifact(c, pomXML(c, apacheLicense), false)

	cfg := testConfig(t, m.url())
	cfg.Recursive = true
	r := New(cfg)
	if err := r.Resolve(context.Background(), []maven.Coordinate{mustCoord(t, a)}); err != nil {
		t.Fatal(err)
	}

	out := store.New(cfg.OutDir)
	for _, coord := range []string{a, b, c} {
		rec, ok := r.State(mustCoord(t, coord))
		if !ok || rec.Status != StatusResolved {
			t.Errorf("%s: record = %+v, want resolved", coord, rec)
		}
		if !out.Has(mustCoord(t, coord).PrimaryFilename()) {
			t.Errorf("%s: primary file not persisted", coord)
		}
	}
	if got := r.Ledger().Len(); got != 0 {
		t.Errorf("transitive resolution recorded %d problems: %v", got, r.Ledger().All())
	}
}

func TestResolve_Cycle(t *testing.T) {
	m := newMockRepo(t)
	a, b := "org.cycle:a:1.0", "org.cycle:b:1.0"
	m.addArtifact(a, pomXML(a, apacheLicense, b), false)
	m.addArtifact(b, pomXML(b, apacheLicense, a), false)

	cfg := testConfig(t, m.url())
	cfg.Recursive = true
	r := New(cfg)
	if err := r.Resolve(context.Background(), []maven.Coordinate{mustCoord(t, a)}); err != nil {
		t.Fatal(err)
	}

	for _, coord := range []string{a, b} {
		rec, ok := r.State(mustCoord(t, coord))
		if !ok || rec.Status != StatusResolved {
			t.Errorf("%s: record = %+v, want resolved", coord, rec)
		}
	}

	// Each artifact directory was listed exactly once: nothing was
	// processed twice.
	counts := make(map[string]int)
	for _, p := range m.requestPaths() {
		if strings.HasSuffix(p, "/") {
			counts[p]++
		}
	}
	for dir, n := range counts {
		if n > 1 {
			t.Errorf("directory %s listed %d times", dir, n)
		}
	}
}

func TestResolve_LicenseRejection(t *testing.T) {
	m := newMockRepo(t)
	a, b := "org.closed:a:1.0", "org.open:b:1.0"
	proprietary := `<licenses><license><name>Proprietary License</name><url>https://example.com/eula</url></license></licenses>`
	m.addArtifact(a, pomXML(a, proprietary, b), false)
	m.addArtifact(b, pomXML(b, apacheLicense), false)

	cfg := testConfig(t, m.url())
	cfg.Recursive = true
	cfg.AllowUnacceptableLicenses = false
	r := New(cfg)
	if err := r.Resolve(context.Background(), []maven.Coordinate{mustCoord(t, a)}); err != nil {
		t.Fatal(err)
	}

	out := store.New(cfg.OutDir)
	ca := mustCoord(t, a)
	if !out.Has(ca.PomFilename()) {
		t.Error("rejected artifact's POM must still persist for traversal")
	}
	if out.Has(ca.PrimaryFilename()) {
		t.Error("rejected artifact's jar persisted")
	}

	found := false
	for _, p := range r.Ledger().All() {
		if p.Kind == problems.KindLicenseRejected && p.Coordinate == a {
			found = true
		}
	}
	if !found {
		t.Errorf("no license_rejected problem: %v", r.Ledger().All())
	}

	// Its dependencies are still walked.
	rec, ok := r.State(mustCoord(t, b))
	if !ok || rec.Status != StatusResolved {
		t.Errorf("dependency of rejected artifact not resolved: %+v", rec)
	}
}

func TestResolve_NotFound(t *testing.T) {
	m := newMockRepo(t)
	cfg := testConfig(t, m.url())
	r := New(cfg)
	c := mustCoord(t, "org.missing:ghost:9.9")
	if err := r.Resolve(context.Background(), []maven.Coordinate{c}); err != nil {
		t.Fatal(err)
	}
	rec, _ := r.State(c)
	if rec.Status != StatusNotFound {
		t.Errorf("status = %v, want not found", rec.Status)
	}
	all := r.Ledger().All()
	if len(all) != 1 || all[0].Kind != problems.KindNotFound {
		t.Errorf("ledger = %v, want one not_found", all)
	}
}

func TestResolve_NonRecursiveReportsMissingDeps(t *testing.T) {
	m := newMockRepo(t)
	a, dep := "org.flat:a:1.0", "org.flat:dep:2.0"
	m.addArtifact(a, pomXML(a, apacheLicense, dep), false)

	cfg := testConfig(t, m.url())
	r := New(cfg)
	if err := r.Resolve(context.Background(), []maven.Coordinate{mustCoord(t, a)}); err != nil {
		t.Fatal(err)
	}

	if _, tracked := r.State(mustCoord(t, dep)); tracked {
		t.Error("dependency enqueued without recursive mode")
	}
	found := false
	for _, p := range r.Ledger().All() {
		if p.Kind == problems.KindMissingDependency && strings.Contains(p.Message, dep) {
			found = true
		}
	}
	if !found {
		t.Errorf("missing dependency not reported: %v", r.Ledger().All())
	}
}

func TestResolve_ManagedVersionFromParent(t *testing.T) {
	m := newMockRepo(t)
	parent := "org.fam:parent:3"
	child := "org.fam:child:3"
	lib := "org.fam:lib:5.5"

	parentPOM := `<project>
  <groupId>org.fam</groupId><artifactId>parent</artifactId><version>3</version>
  <packaging>pom</packaging>
  ` + apacheLicense + `
  <dependencyManagement><dependencies>
    <dependency><groupId>org.fam</groupId><artifactId>lib</artifactId><version>5.5</version></dependency>
  </dependencies></dependencyManagement>
</project>`
	childPOM := `<project>
  <parent><groupId>org.fam</groupId><artifactId>parent</artifactId><version>3</version></parent>
  <artifactId>child</artifactId>
  <dependencies>
    <dependency><groupId>org.fam</groupId><artifactId>lib</artifactId></dependency>
  </dependencies>
</project>`

	m.addArtifact(lib, pomXML(lib, apacheLicense), false)
	m.addArtifact(child, childPOM, false)
	mc, _ := maven.ParseCoordinate(parent)
	m.put(mc.Path(), mc.PomFilename(), []byte(parentPOM))

	cfg := testConfig(t, m.url())
	cfg.Recursive = true
	r := New(cfg)
	if err := r.Resolve(context.Background(), []maven.Coordinate{mustCoord(t, child)}); err != nil {
		t.Fatal(err)
	}

	rec, ok := r.State(mustCoord(t, lib))
	if !ok || rec.Status != StatusResolved {
		t.Errorf("managed dependency not resolved via parent: %+v (problems: %v)", rec, r.Ledger().All())
	}
	// The child inherits its parent's license, so nothing is rejected.
	for _, p := range r.Ledger().All() {
		if p.Kind == problems.KindLicenseRejected {
			t.Errorf("unexpected license rejection: %v", p)
		}
	}
}

func TestResolve_VersionRangeSkipped(t *testing.T) {
	m := newMockRepo(t)
	a := "org.range:a:1.0"
	pom := `<project>
  <groupId>org.range</groupId><artifactId>a</artifactId><version>1.0</version>
  ` + apacheLicense + `
  <dependencies>
    <dependency><groupId>org.range</groupId><artifactId>dep</artifactId><version>[1.0,2.0)</version></dependency>
  </dependencies>
</project>`
	m.addArtifact(a, pom, false)

	cfg := testConfig(t, m.url())
	cfg.Recursive = true
	r := New(cfg)
	if err := r.Resolve(context.Background(), []maven.Coordinate{mustCoord(t, a)}); err != nil {
		t.Fatal(err)
	}

	found := false
	for _, p := range r.Ledger().All() {
		if p.Kind == problems.KindVersionRange {
			found = true
		}
	}
	if !found {
		t.Errorf("version range not reported: %v", r.Ledger().All())
	}
}

func TestResolve_UnresolvedPropertySkipped(t *testing.T) {
	m := newMockRepo(t)
	a := "org.props:a:1.0"
	pom := `<project>
  <groupId>org.props</groupId><artifactId>a</artifactId><version>1.0</version>
  ` + apacheLicense + `
  <dependencies>
    <dependency><groupId>org.props</groupId><artifactId>dep</artifactId><version>${undeclared.version}</version></dependency>
  </dependencies>
</project>`
	m.addArtifact(a, pom, false)

	cfg := testConfig(t, m.url())
	cfg.Recursive = true
	r := New(cfg)
	if err := r.Resolve(context.Background(), []maven.Coordinate{mustCoord(t, a)}); err != nil {
		t.Fatal(err)
	}

	rec, _ := r.State(mustCoord(t, a))
	if rec.Status != StatusResolved {
		t.Errorf("status = %v, unresolved property must not fail the artifact", rec.Status)
	}
	found := false
	for _, p := range r.Ledger().All() {
		if p.Kind == problems.KindUnresolvedProperty {
			found = true
		}
	}
	if !found {
		t.Errorf("unresolved property not reported: %v", r.Ledger().All())
	}
}
