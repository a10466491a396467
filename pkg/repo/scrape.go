package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/groboclown/mvn2get/pkg/fetch"
)

// ErrNotListed is returned by ListFiles when the directory does not
// exist on the repository (404 or an empty index body) or its index
// names no files.
var ErrNotListed = errors.New("directory not listed")

// Listing is the set of files published in one artifact directory.
// Required holds files the index actually named; Guessed holds
// verification siblings that were not listed but may still exist, since
// some repositories omit checksums and signatures from their indices.
type Listing struct {
	Required []string
	Guessed  []string
}

// Contains reports whether name was listed in the index.
func (l Listing) Contains(name string) bool {
	for _, f := range l.Required {
		if f == name {
			return true
		}
	}
	return false
}

// ListFiles fetches dirURL and extracts the published filenames from
// the HTML index. Hrefs are resolved to bare names: absolute URLs that
// begin with dirURL keep only the part after it and other absolute URLs
// are discarded, leading ':' and '/' characters are stripped, and
// subdirectories, parent links, and checksum-of-checksum garbage are
// discarded.
func ListFiles(ctx context.Context, f fetch.Fetcher, dirURL string) (Listing, error) {
	body, err := f.Get(ctx, dirURL)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			return Listing{}, ErrNotListed
		}
		return Listing{}, fmt.Errorf("listing %s: %w", dirURL, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Listing{}, ErrNotListed
	}

	names := extractNames(body, dirURL)
	if len(names) == 0 {
		return Listing{}, ErrNotListed
	}

	listing := Listing{Required: names}
	listed := make(map[string]bool, len(names))
	for _, n := range names {
		listed[n] = true
	}
	guessed := make(map[string]bool)
	for _, n := range names {
		if IsVerificationFile(n) {
			continue
		}
		for _, ext := range verificationExtensions {
			sibling := n + ext
			if !listed[sibling] && !guessed[sibling] {
				guessed[sibling] = true
				listing.Guessed = append(listing.Guessed, sibling)
			}
		}
	}
	sort.Strings(listing.Guessed)
	return listing, nil
}

func extractNames(body []byte, dirURL string) []string {
	var names []string
	seen := make(map[string]bool)

	tokens := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch tokens.Next() {
		case html.ErrorToken:
			return names
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := tokens.Token()
			if tok.Data != "a" {
				continue
			}
			for _, attr := range tok.Attr {
				if attr.Key != "href" {
					continue
				}
				if name, ok := hrefToName(attr.Val, dirURL); ok && !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
	}
}

func hrefToName(href, dirURL string) (string, bool) {
	if href == "" {
		return "", false
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		// An absolute link only names a file when it points back into
		// this directory; anything else is navigation.
		if !strings.HasPrefix(href, dirURL) {
			return "", false
		}
		href = href[len(dirURL):]
	}
	// Some repositories put junk in front of the link.
	href = strings.TrimLeft(href, "/:")
	if href == "" || strings.HasPrefix(href, "..") {
		return "", false
	}
	if strings.HasSuffix(href, "/") || strings.Contains(href, "/") || strings.Contains(href, "?") {
		return "", false
	}
	if !ValidFilename(href) {
		return "", false
	}
	return href, true
}
