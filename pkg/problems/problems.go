// Package problems accumulates the structured issues discovered while
// resolving artifacts. The ledger lives for the whole process and is
// queried at shutdown for the exit code and the optional problem file.
package problems

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Kind is a machine-readable problem category.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindHTTPError           Kind = "http_error"
	KindXMLParseError       Kind = "xml_parse_error"
	KindDigestMismatch      Kind = "digest_mismatch"
	KindSignatureInvalid    Kind = "signature_invalid"
	KindSignatureKeyMissing Kind = "signature_key_missing"
	KindUnresolvedProperty  Kind = "unresolved_property"
	KindLicenseRejected     Kind = "license_rejected"
	KindVersionRange        Kind = "version_range_unsupported"
	KindMissingDependency   Kind = "missing_dependency"
)

// Problem is one recorded issue. Recoverable problems let the resolver
// continue with the coordinate; unrecoverable ones mark a coordinate
// that failed or was not found, a POM that could not be parsed, or
// files that the license policy kept off disk.
type Problem struct {
	Kind        Kind   `json:"kind"`
	Coordinate  string `json:"coordinate,omitempty"`
	URL         string `json:"url,omitempty"`
	Message     string `json:"msg"`
	Recoverable bool   `json:"recoverable"`
}

func (p Problem) String() string {
	var b strings.Builder
	if !p.Recoverable {
		b.WriteString("VIOLATION ")
	}
	if p.Coordinate != "" {
		b.WriteString(p.Coordinate)
		b.WriteString(" - ")
	}
	b.WriteString(p.Message)
	if p.URL != "" {
		b.WriteString(" (")
		b.WriteString(p.URL)
		b.WriteString(")")
	}
	return b.String()
}

// Ledger is a thread-safe append-only collection of problems. A
// (kind, coordinate, url) triple is recorded at most once.
type Ledger struct {
	mu       sync.Mutex
	problems []Problem
	seen     map[string]bool
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{seen: make(map[string]bool)}
}

// Add records a problem unless its (kind, coordinate, url) triple is
// already present.
func (l *Ledger) Add(p Problem) {
	key := string(p.Kind) + "\x00" + p.Coordinate + "\x00" + p.URL
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[key] {
		return
	}
	l.seen[key] = true
	l.problems = append(l.problems, p)
}

// All returns a copy of the recorded problems in insertion order.
func (l *Ledger) All() []Problem {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Problem, len(l.problems))
	copy(out, l.problems)
	return out
}

// Len returns the number of recorded problems.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.problems)
}

// WriteFile appends the ledger to path. A ".json" path gets a JSON
// array; anything else gets one problem per line.
func (l *Ledger) WriteFile(path string) error {
	all := l.All()
	if len(all) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening problem file: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".json") {
		return json.NewEncoder(f).Encode(all)
	}
	for _, p := range all {
		if _, err := fmt.Fprintln(f, p.String()); err != nil {
			return err
		}
	}
	return nil
}
