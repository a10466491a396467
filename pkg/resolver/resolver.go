// Package resolver walks the artifact dependency graph: it locates
// each coordinate's published files across the configured repositories,
// downloads and verifies them, persists them through the artifact
// store, and feeds newly-discovered dependencies back into its
// worklist.
//
// The graph is never materialised: a resolution map keyed by the
// identity coordinate plus a FIFO worklist is the canonical state, so
// cycles and diamond joins cost nothing. All state mutation happens on
// the goroutine that calls Resolve; only the per-coordinate file
// downloads fan out.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/groboclown/mvn2get/pkg/config"
	"github.com/groboclown/mvn2get/pkg/fetch"
	"github.com/groboclown/mvn2get/pkg/maven"
	"github.com/groboclown/mvn2get/pkg/problems"
	"github.com/groboclown/mvn2get/pkg/repo"
	"github.com/groboclown/mvn2get/pkg/store"
	"github.com/groboclown/mvn2get/pkg/verify"
)

// downloadWorkers bounds the parallel file downloads within a single
// coordinate. Resolution itself stays sequential.
const downloadWorkers = 4

// Status is the lifecycle state of one coordinate. Transitions are
// monotonic; the three terminal states are absorbing.
type Status int

const (
	StatusQueued Status = iota
	StatusInProgress
	StatusResolved
	StatusNotFound
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusInProgress:
		return "in progress"
	case StatusResolved:
		return "resolved"
	case StatusNotFound:
		return "not found"
	default:
		return "failed"
	}
}

// Record is the resolution outcome for one coordinate.
type Record struct {
	Status Status
	Repo   string   // repository the files came from
	Files  []string // filenames written to the output directory
	Reason string   // failure detail
}

// Resolver drives artifact resolution. Create one with New; a Resolver
// is good for a single Resolve call's lifetime of state.
type Resolver struct {
	cfg      config.Config
	fetcher  fetch.Fetcher
	store    *store.Store
	verifier verify.SignatureVerifier
	sink     EventSink
	ledger   *problems.Ledger
	license  LicensePolicy

	remotes []repo.Repository
	locals  []repo.Repository

	states   map[string]*Record
	queue    []maven.Coordinate
	pomCache map[string]*cachedPOM

	noPGP bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFetcher replaces the HTTP transport.
func WithFetcher(f fetch.Fetcher) Option {
	return func(r *Resolver) { r.fetcher = f }
}

// WithVerifier installs a signature verifier. Without one, signature
// checks report Skipped and no_pgp is effectively forced on.
func WithVerifier(v verify.SignatureVerifier) Option {
	return func(r *Resolver) { r.verifier = v }
}

// WithSink installs the event sink.
func WithSink(s EventSink) Option {
	return func(r *Resolver) { r.sink = s }
}

// New creates a Resolver for the given configuration.
func New(cfg config.Config, opts ...Option) *Resolver {
	r := &Resolver{
		cfg:      cfg,
		fetcher:  fetch.NewClient(),
		store:    store.New(cfg.OutDir),
		verifier: verify.NullVerifier{},
		sink:     NullSink{},
		ledger:   problems.NewLedger(),
		license: LicensePolicy{
			AcceptableURLs:  cfg.AcceptableLicenseURLs,
			AcceptableNames: cfg.AcceptableLicenseNames,
			AllowUnlisted:   cfg.AllowUnacceptableLicenses,
			AllowNone:       cfg.AllowNoLicense,
			RequireLicense:  cfg.RequireLicense,
		},
		states:   make(map[string]*Record),
		pomCache: make(map[string]*cachedPOM),
	}
	for _, u := range cfg.RemoteRepoURLs {
		r.remotes = append(r.remotes, repo.New(u, repo.Remote))
	}
	for _, u := range cfg.LocalRepoURLs {
		r.locals = append(r.locals, repo.New(u, repo.Local))
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, isNull := r.verifier.(verify.NullVerifier); isNull || cfg.NoPGP {
		r.noPGP = true
	}
	return r
}

// Ledger returns the resolver's problem ledger.
func (r *Resolver) Ledger() *problems.Ledger { return r.ledger }

// State returns the resolution record for a coordinate, if tracked.
func (r *Resolver) State(c maven.Coordinate) (Record, bool) {
	rec, ok := r.states[c.ID()]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Resolve processes the seed coordinates and, when the configuration
// is recursive, every transitive compile/runtime dependency, until the
// worklist drains. Files land in the output directory; failures land
// in the ledger. The error is non-nil only for cancellation.
func (r *Resolver) Resolve(ctx context.Context, seeds []maven.Coordinate) error {
	for _, s := range seeds {
		r.enqueue(maven.Canonicalize(s, r.cfg.MislabeledArtifactGroups))
	}

	for len(r.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := r.queue[0]
		r.queue = r.queue[1:]

		rec := r.states[c.ID()]
		if rec.Status != StatusQueued {
			continue
		}
		rec.Status = StatusInProgress
		r.sink.Info("%s", c.ID())
		r.resolveOne(ctx, c, rec)
	}
	return nil
}

func (r *Resolver) enqueue(c maven.Coordinate) bool {
	if _, ok := r.states[c.ID()]; ok {
		return false
	}
	r.states[c.ID()] = &Record{Status: StatusQueued}
	r.queue = append(r.queue, c)
	return true
}

func (r *Resolver) isTracked(c maven.Coordinate) bool {
	_, ok := r.states[c.ID()]
	return ok
}

func (r *Resolver) addProblem(p problems.Problem) {
	r.ledger.Add(p)
	r.sink.Problem(p)
}

// resolveOne runs the full pipeline for a single coordinate and leaves
// rec in a terminal state.
func (r *Resolver) resolveOne(ctx context.Context, c maven.Coordinate, rec *Record) {
	// Local probe: a repository that already holds the primary file
	// suppresses the download, but the POM is still read so recursion
	// stays transitive across local and remote artifacts.
	if r.cfg.CheckInLocal && r.localHit(ctx, c, rec) {
		return
	}

	chosen, listing, pom, pomData := r.findRepository(ctx, c, rec)
	if rec.Status != StatusInProgress {
		return
	}
	if chosen == nil {
		rec.Status = StatusNotFound
		r.addProblem(problems.Problem{
			Kind:       problems.KindNotFound,
			Coordinate: c.ID(),
			Message:    fmt.Sprintf("did not find any artifact in %d repositories", len(r.remotes)),
		})
		return
	}
	r.sink.Debug("found %s under %s; no more download attempts", c.ID(), chosen.BaseURL)

	files := r.download(ctx, c, *chosen, listing, pom, pomData, rec)
	if rec.Status != StatusInProgress {
		return
	}

	if !r.verifyFiles(c, pom, files, rec) {
		return
	}

	missingParents := r.effectivePOM(ctx, pom)
	decision := r.license.Evaluate(pom.Licenses)
	r.reportLicense(c, decision)

	persisted := r.persist(c, files, decision, rec)

	rec.Status = StatusResolved
	rec.Repo = chosen.BaseURL
	rec.Files = persisted

	r.expand(pom, missingParents)
}

// localHit probes the local repositories for the coordinate's primary
// file. On a hit the coordinate resolves without downloads.
func (r *Resolver) localHit(ctx context.Context, c maven.Coordinate, rec *Record) bool {
	for _, lr := range r.locals {
		url := lr.FileURL(c, c.PrimaryFilename())
		r.sink.Progress("checking local " + url)
		if err := r.fetcher.Head(ctx, url); err != nil {
			continue
		}
		r.sink.Info("%s - found in local repository %s", c.ID(), lr.BaseURL)
		rec.Status = StatusResolved
		rec.Repo = lr.BaseURL

		pom, _, err := r.loadPOM(ctx, c)
		if err == nil {
			missing := r.effectivePOM(ctx, pom)
			r.expand(pom, missing)
		}
		return true
	}
	return false
}

// findRepository walks the remote list in order and picks the first
// repository whose index lists the mandatory files. The POM is fetched
// and parsed as part of the check, since the primary filename depends
// on its packaging.
func (r *Resolver) findRepository(ctx context.Context, c maven.Coordinate, rec *Record) (*repo.Repository, repo.Listing, *maven.POM, []byte) {
	for i := range r.remotes {
		rr := r.remotes[i]
		dir := rr.DirectoryURL(c)
		r.sink.Info("%s", dir)
		r.sink.Progress("listing " + dir)

		listing, err := repo.ListFiles(ctx, r.fetcher, dir)
		if err != nil {
			if !errors.Is(err, repo.ErrNotListed) {
				r.addProblem(problems.Problem{
					Kind:        problems.KindHTTPError,
					Coordinate:  c.ID(),
					URL:         dir,
					Message:     err.Error(),
					Recoverable: true,
				})
			}
			continue
		}
		if !listing.Contains(c.PomFilename()) {
			r.sink.Debug("%s does not list %s", dir, c.PomFilename())
			continue
		}

		pomURL := rr.FileURL(c, c.PomFilename())
		pomData, err := r.fetcher.Get(ctx, pomURL)
		if err != nil {
			r.addProblem(problems.Problem{
				Kind:        problems.KindHTTPError,
				Coordinate:  c.ID(),
				URL:         pomURL,
				Message:     fmt.Sprintf("failed to download: %v", err),
				Recoverable: true,
			})
			continue
		}
		pom, err := r.parsePOM(c, pomURL, pomData)
		if err != nil {
			rec.Status = StatusFailed
			rec.Reason = "unparseable POM"
			return nil, repo.Listing{}, nil, nil
		}

		primary := maven.Coordinate{
			Group: c.Group, Artifact: c.Artifact, Version: c.Version,
			Classifier: c.Classifier, Packaging: pom.Packaging,
		}.PrimaryFilename()
		if pom.Packaging != "pom" && !listing.Contains(primary) {
			r.sink.Debug("%s does not list primary file %s", dir, primary)
			continue
		}
		return &rr, listing, pom, pomData
	}
	return nil, repo.Listing{}, nil, nil
}

// download pulls every listed file plus the guessed verification
// siblings. A failed mandatory file fails the coordinate; everything
// else is best-effort.
func (r *Resolver) download(ctx context.Context, c maven.Coordinate, rr repo.Repository, listing repo.Listing, pom *maven.POM, pomData []byte, rec *Record) map[string][]byte {
	mandatory := r.mandatoryFiles(c, pom)

	files := map[string][]byte{c.PomFilename(): pomData}
	var mu sync.Mutex
	var failedMandatory []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadWorkers)

	fetchOne := func(name string, required bool) {
		g.Go(func() error {
			url := rr.FileURL(c, name)
			r.sink.Progress("downloading " + url)
			data, err := r.fetcher.Get(gctx, url)
			if err != nil {
				if mandatory[name] {
					r.addProblem(problems.Problem{
						Kind:       kindForFetchError(err),
						Coordinate: c.ID(),
						URL:        url,
						Message:    fmt.Sprintf("failed to download: %v", err),
					})
					mu.Lock()
					failedMandatory = append(failedMandatory, name)
					mu.Unlock()
				} else if required && !errors.Is(err, fetch.ErrNotFound) {
					r.addProblem(problems.Problem{
						Kind:        problems.KindHTTPError,
						Coordinate:  c.ID(),
						URL:         url,
						Message:     fmt.Sprintf("failed to download: %v", err),
						Recoverable: true,
					})
				} else {
					r.sink.Debug("no %s at %s", name, url)
				}
				return nil
			}
			mu.Lock()
			files[name] = data
			mu.Unlock()
			return nil
		})
	}

	for _, name := range listing.Required {
		if name != c.PomFilename() {
			fetchOne(name, true)
		}
	}
	for _, name := range listing.Guessed {
		fetchOne(name, false)
	}
	_ = g.Wait()

	if len(failedMandatory) > 0 {
		rec.Status = StatusFailed
		rec.Reason = "failed to download " + strings.Join(failedMandatory, ", ")
		return nil
	}
	return files
}

func kindForFetchError(err error) problems.Kind {
	if errors.Is(err, fetch.ErrNotFound) {
		return problems.KindNotFound
	}
	return problems.KindHTTPError
}

// mandatoryFiles returns the set of filenames whose absence or
// corruption fails the coordinate: the POM, and the primary artifact
// for any packaging other than pom.
func (r *Resolver) mandatoryFiles(c maven.Coordinate, pom *maven.POM) map[string]bool {
	m := map[string]bool{c.PomFilename(): true}
	if pom.Packaging != "pom" {
		primary := maven.Coordinate{
			Group: c.Group, Artifact: c.Artifact, Version: c.Version,
			Classifier: c.Classifier, Packaging: pom.Packaging,
		}
		m[primary.PrimaryFilename()] = true
	}
	return m
}

// verifyFiles applies digest and signature checks to every downloaded
// content file. Files that fail verification are removed from the map
// so they are never persisted; a mandatory failure fails the whole
// coordinate and reports false.
func (r *Resolver) verifyFiles(c maven.Coordinate, pom *maven.POM, files map[string][]byte, rec *Record) bool {
	mandatory := r.mandatoryFiles(c, pom)
	var rejected []string
	failed := false

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.HasSuffix(name, ".md5") || strings.HasSuffix(name, ".sha1") {
			continue
		}
		data := files[name]

		ok := r.checkDigests(c, name, data, files, mandatory[name])
		if ok && !strings.HasSuffix(name, ".asc") {
			ok = r.checkSignature(c, name, data, files, mandatory[name])
		}
		if !ok {
			rejected = append(rejected, name)
			if mandatory[name] {
				failed = true
			}
		}
	}

	for _, name := range rejected {
		delete(files, name)
		// The siblings of a bad file are worthless on their own.
		for _, ext := range []string{".md5", ".sha1", ".asc", ".asc.md5", ".asc.sha1"} {
			delete(files, name+ext)
		}
	}

	if failed {
		rec.Status = StatusFailed
		rec.Reason = "verification failed"
		return false
	}
	return true
}

func (r *Resolver) checkDigests(c maven.Coordinate, name string, data []byte, files map[string][]byte, isMandatory bool) bool {
	ok := true
	for _, kind := range []verify.DigestKind{verify.MD5, verify.SHA1} {
		r.sink.Progress(fmt.Sprintf("verify %s %s", kind, name))
		sibling, present := files[name+"."+string(kind)]
		if !present {
			// Signature files frequently publish without checksums.
			if strings.HasSuffix(name, ".asc") {
				r.sink.Debug("  !> %s has no %s file", name, kind)
			} else {
				r.sink.Warn("  !> %s has no %s file", name, kind)
			}
			continue
		}
		if err := verify.CheckDigest(data, kind, sibling); err != nil {
			r.addProblem(problems.Problem{
				Kind:        problems.KindDigestMismatch,
				Coordinate:  c.ID(),
				URL:         name,
				Message:     err.Error(),
				Recoverable: !isMandatory,
			})
			ok = false
		}
	}
	return ok
}

func (r *Resolver) checkSignature(c maven.Coordinate, name string, data []byte, files map[string][]byte, isMandatory bool) bool {
	sig, present := files[name+".asc"]
	if !present || r.noPGP {
		return true
	}
	r.sink.Progress("verify pgp " + name)
	switch verdict := r.verifier.Verify(data, sig, r.cfg.PGPKeyServers); verdict {
	case verify.Valid:
		r.sink.Info("  ~> PGP signature valid for %s", name)
		return true
	case verify.Skipped:
		r.sink.Debug("  - skipped PGP signature checking of %s", name)
		return true
	case verify.KeyNotFound:
		r.addProblem(problems.Problem{
			Kind:        problems.KindSignatureKeyMissing,
			Coordinate:  c.ID(),
			URL:         name,
			Message:     fmt.Sprintf("PGP signature could not be validated for %s: %s", name, verdict),
			Recoverable: !isMandatory,
		})
		return false
	default:
		r.addProblem(problems.Problem{
			Kind:        problems.KindSignatureInvalid,
			Coordinate:  c.ID(),
			URL:         name,
			Message:     fmt.Sprintf("PGP signature validation failed for %s: %s", name, verdict),
			Recoverable: !isMandatory,
		})
		return false
	}
}

func (r *Resolver) reportLicense(c maven.Coordinate, d Decision) {
	if d.Acceptable {
		return
	}
	if d.Allowed {
		// Tolerated by configuration; note it without failing the run.
		r.sink.Warn("%s - %s", c.ID(), d.Detail)
		return
	}
	r.addProblem(problems.Problem{
		Kind:       problems.KindLicenseRejected,
		Coordinate: c.ID(),
		Message:    d.Detail,
	})
}

// persist writes the verified files into the output store. A license
// rejection keeps everything but the POM off disk; the POM itself
// always persists because dependency expansion needs it.
func (r *Resolver) persist(c maven.Coordinate, files map[string][]byte, d Decision, rec *Record) []string {
	if !r.cfg.DoRemoteDownload {
		r.sink.Debug("remote download disabled; not persisting %s", c.ID())
		return nil
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var persisted []string
	for _, name := range names {
		if !d.Allowed && name != c.PomFilename() {
			continue
		}
		if err := r.store.Write(name, files[name], r.cfg.Overwrite); err != nil {
			r.sink.Warn("could not persist %s: %v", name, err)
			rec.Reason = err.Error()
			continue
		}
		persisted = append(persisted, name)
	}
	return persisted
}

// expand enqueues the effective dependencies (and any parents that are
// not yet on disk). Without recursion the dependencies are reported as
// missing instead.
func (r *Resolver) expand(pom *maven.POM, missingParents []maven.Coordinate) {
	deps := append(missingParents, r.effectiveDependencies(pom)...)
	for _, d := range deps {
		if r.cfg.Recursive {
			if r.enqueue(d) {
				r.sink.Info("downloading required dependency %s from %s", d.ID(), pom.Coordinate.ID())
			}
			continue
		}
		if !r.isTracked(d) && !r.store.Has(d.PomFilename()) {
			r.addProblem(problems.Problem{
				Kind:        problems.KindMissingDependency,
				Coordinate:  pom.Coordinate.ID(),
				Message:     fmt.Sprintf("requires missing dependency %s", d.ID()),
				Recoverable: true,
			})
		}
	}
}
