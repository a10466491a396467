package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/groboclown/mvn2get/pkg/fetch"
	"github.com/groboclown/mvn2get/pkg/maven"
	"github.com/groboclown/mvn2get/pkg/problems"
)

// loadPOM fetches and parses the POM for a coordinate without pulling
// the rest of its files. It is used for parent chains and imported
// BOMs. Results are cached for the life of the resolver, which also
// breaks parent-graph cycles. The bool reports whether the POM had to
// come from a remote repository (so the coordinate itself is still
// missing from the output).
func (r *Resolver) loadPOM(ctx context.Context, c maven.Coordinate) (*maven.POM, bool, error) {
	if cached, ok := r.pomCache[c.ID()]; ok {
		return cached.pom, cached.remote, cached.err
	}
	// Seed the cache before the fetch: a self-parenting POM chain must
	// not recurse forever.
	r.pomCache[c.ID()] = &cachedPOM{err: errCycle}

	pom, remote, err := r.fetchPOM(ctx, c)
	r.pomCache[c.ID()] = &cachedPOM{pom: pom, remote: remote, err: err}
	return pom, remote, err
}

type cachedPOM struct {
	pom    *maven.POM
	remote bool
	err    error
}

var errCycle = errors.New("pom parent cycle")

func (r *Resolver) fetchPOM(ctx context.Context, c maven.Coordinate) (*maven.POM, bool, error) {
	name := c.PomFilename()

	// Already persisted by an earlier coordinate.
	if r.store.Has(name) {
		data, err := r.store.Read(name)
		if err == nil {
			pom, err := r.parsePOM(c, "", data)
			return pom, false, err
		}
	}

	path := c.Path() + "/" + name
	if r.cfg.CheckInLocal {
		for _, lr := range r.locals {
			url := lr.BaseURL + path
			data, err := r.fetcher.Get(ctx, url)
			if err != nil {
				continue
			}
			pom, err := r.parsePOM(c, url, data)
			return pom, false, err
		}
	}
	for _, rr := range r.remotes {
		url := rr.BaseURL + path
		data, err := r.fetcher.Get(ctx, url)
		if err != nil {
			if !errors.Is(err, fetch.ErrNotFound) {
				r.sink.Debug("pom fetch failed: %s: %v", url, err)
			}
			continue
		}
		pom, err := r.parsePOM(c, url, data)
		return pom, true, err
	}
	return nil, false, fmt.Errorf("%w: pom for %s", fetch.ErrNotFound, c.ID())
}

func (r *Resolver) parsePOM(c maven.Coordinate, url string, data []byte) (*maven.POM, error) {
	pom, err := maven.ParsePOM(data)
	if err != nil {
		r.addProblem(problems.Problem{
			Kind:       problems.KindXMLParseError,
			Coordinate: c.ID(),
			URL:        url,
			Message:    fmt.Sprintf("failed to parse POM: %v", err),
		})
		return nil, err
	}
	// A POM missing its own coordinates inherits them from the
	// coordinate that asked for it.
	if pom.Coordinate.Group == "" {
		pom.Coordinate.Group = c.Group
	}
	if pom.Coordinate.Artifact == "" {
		pom.Coordinate.Artifact = c.Artifact
	}
	if pom.Coordinate.Version == "" {
		pom.Coordinate.Version = c.Version
	}
	return pom, nil
}

// effectivePOM folds the parent chain and imported BOMs into pom,
// returning the coordinates of parents that had to be fetched remotely
// so the resolver can download them as artifacts too.
func (r *Resolver) effectivePOM(ctx context.Context, pom *maven.POM) []maven.Coordinate {
	var missing []maven.Coordinate

	// Parent chain, nearest first. The chain is finite in practice, but
	// a cycle through the cache yields errCycle and stops the walk.
	child := pom
	for depth := 0; child.Parent != nil && depth < maxParentDepth; depth++ {
		pc := maven.Canonicalize(maven.Coordinate{
			Group:    child.Parent.Group,
			Artifact: child.Parent.Artifact,
			Version:  child.Parent.Version,
		}, r.cfg.MislabeledArtifactGroups)
		if pc.Group == "" || pc.Artifact == "" || pc.Version == "" {
			r.sink.Warn("%s declares an incomplete parent %s", pom.Coordinate.ID(), pc.ID())
			break
		}
		parent, remote, err := r.loadPOM(ctx, pc)
		if err != nil {
			if !errors.Is(err, errCycle) {
				r.addProblem(problems.Problem{
					Kind:        problems.KindMissingDependency,
					Coordinate:  pom.Coordinate.ID(),
					Message:     fmt.Sprintf("could not load declared parent %s: %v", pc.ID(), err),
					Recoverable: true,
				})
			}
			break
		}
		if remote && !r.isTracked(pc) {
			missing = append(missing, pc)
		}
		pom.MergeParent(parent)
		child = parent
	}

	// Import-scoped BOMs contribute their managed entries.
	props := pom.EffectiveProperties()
	for _, m := range pom.Management {
		if m.Scope != "import" || (m.Type != "pom" && m.Type != "") {
			continue
		}
		bom := m
		if !maven.SubstituteDependency(&bom, props) {
			r.addProblem(problems.Problem{
				Kind:        problems.KindUnresolvedProperty,
				Coordinate:  pom.Coordinate.ID(),
				Message:     fmt.Sprintf("unresolved property in imported BOM %s", bom.ID()),
				Recoverable: true,
			})
			continue
		}
		bc := maven.Canonicalize(bom.Coordinate(), r.cfg.MislabeledArtifactGroups)
		bc.Packaging = "pom"
		bomPOM, _, err := r.loadPOM(ctx, bc)
		if err != nil {
			r.addProblem(problems.Problem{
				Kind:        problems.KindMissingDependency,
				Coordinate:  pom.Coordinate.ID(),
				Message:     fmt.Sprintf("could not load imported BOM %s: %v", bc.ID(), err),
				Recoverable: true,
			})
			continue
		}
		pom.Management = append(pom.Management, bomPOM.Management...)
	}

	return missing
}

const maxParentDepth = 64

// effectiveDependencies resolves the dependency list of an
// effective POM into concrete coordinates for recursion. Only compile
// and runtime scopes feed recursion; managed entries are added when
// the configuration asks for them.
func (r *Resolver) effectiveDependencies(pom *maven.POM) []maven.Coordinate {
	props := pom.EffectiveProperties()

	candidates := pom.Dependencies
	if r.cfg.IncludeDepManagement {
		candidates = append([]maven.Dependency(nil), pom.Dependencies...)
		for _, m := range pom.Management {
			if m.Scope != "import" {
				candidates = append(candidates, m)
			}
		}
	}

	var out []maven.Coordinate
	seen := make(map[string]bool)
	for _, dep := range candidates {
		d := dep
		if d.Optional {
			r.sink.Debug("skipping optional dependency %s", d.ID())
			continue
		}
		switch d.Scope {
		case "test", "provided", "system", "import":
			r.sink.Debug("skipping %s-scope dependency %s", d.Scope, d.ID())
			continue
		}
		if !maven.SubstituteDependency(&d, props) {
			r.addProblem(problems.Problem{
				Kind:        problems.KindUnresolvedProperty,
				Coordinate:  pom.Coordinate.ID(),
				Message:     fmt.Sprintf("unresolved property in dependency %s", d.ID()),
				Recoverable: true,
			})
			continue
		}
		if d.Group == "" {
			d.Group = pom.Coordinate.Group
		}
		if d.Version == "" {
			if v, ok := pom.ManagedVersion(d.Group, d.Artifact); ok {
				d.Version, _ = maven.Substitute(v, props)
			}
		}
		if d.Version == "" {
			r.addProblem(problems.Problem{
				Kind:        problems.KindMissingDependency,
				Coordinate:  pom.Coordinate.ID(),
				Message:     fmt.Sprintf("no version for dependency %s:%s", d.Group, d.Artifact),
				Recoverable: true,
			})
			continue
		}
		if maven.IsVersionRange(d.Version) {
			r.addProblem(problems.Problem{
				Kind:        problems.KindVersionRange,
				Coordinate:  pom.Coordinate.ID(),
				Message:     fmt.Sprintf("version range %q on %s:%s is not supported", d.Version, d.Group, d.Artifact),
				Recoverable: true,
			})
			continue
		}
		c := maven.Canonicalize(d.Coordinate(), r.cfg.MislabeledArtifactGroups)
		if c.Group == "" || c.Artifact == "" {
			continue
		}
		if !seen[c.ID()] {
			seen[c.ID()] = true
			out = append(out, c)
		}
	}
	return out
}
