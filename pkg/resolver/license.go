package resolver

import (
	"strings"

	"github.com/groboclown/mvn2get/pkg/maven"
)

// LicensePolicy decides whether an artifact's declared licenses allow
// its files to be persisted.
type LicensePolicy struct {
	AcceptableURLs  []string
	AcceptableNames []string
	AllowUnlisted   bool // keep artifacts whose licenses match nothing
	AllowNone       bool // keep artifacts that declare no license
	RequireLicense  bool // a missing license is always a rejection
}

// Decision is the policy outcome for one artifact.
type Decision struct {
	Allowed    bool
	Acceptable bool   // at least one declared license matched the whitelist
	Detail     string // human-readable reason when not acceptable
}

// Evaluate applies the policy to the declared licenses of an effective
// POM. URLs match by case-insensitive equality; names match when the
// declared name contains a whitelisted name, case-insensitively, after
// collapsing runs of whitespace. A name is only consulted when the
// declared URL matched nothing.
func (p LicensePolicy) Evaluate(licenses []maven.License) Decision {
	if len(licenses) == 0 {
		allowed := p.AllowNone && !p.RequireLicense
		return Decision{Allowed: allowed, Detail: "no license declared"}
	}

	var unacceptable []string
	acceptable := 0
	for _, lic := range licenses {
		if p.urlAcceptable(lic.URL) || p.nameAcceptable(lic.Name) {
			acceptable++
			continue
		}
		unacceptable = append(unacceptable, lic.Name+" ("+lic.URL+")")
	}

	if acceptable > 0 {
		return Decision{Allowed: true, Acceptable: true}
	}
	return Decision{
		Allowed: p.AllowUnlisted,
		Detail:  "not an acceptable license: " + strings.Join(unacceptable, ", "),
	}
}

func (p LicensePolicy) urlAcceptable(url string) bool {
	if url == "" {
		return false
	}
	for _, ok := range p.AcceptableURLs {
		if strings.EqualFold(url, ok) {
			return true
		}
	}
	return false
}

func (p LicensePolicy) nameAcceptable(name string) bool {
	if name == "" {
		return false
	}
	collapsed := strings.ToLower(strings.Join(strings.Fields(name), " "))
	for _, ok := range p.AcceptableNames {
		if strings.Contains(collapsed, strings.ToLower(strings.Join(strings.Fields(ok), " "))) {
			return true
		}
	}
	return false
}
