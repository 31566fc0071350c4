// Package common provides shared utilities across the application.
package common

import (
	"fmt"
	"net/url"
	"strings"
)

// LinkedInKind identifies the kind of LinkedIn page a URL points at.
type LinkedInKind string

const (
	// LinkedInKindProfile is a member profile page (/in/<slug>)
	LinkedInKindProfile LinkedInKind = "profile"
	// LinkedInKindCompany is a company page (/company/<slug>)
	LinkedInKindCompany LinkedInKind = "company"
	// LinkedInKindSchool is a school page (/school/<slug>)
	LinkedInKindSchool LinkedInKind = "school"
)

// pathSegmentToKind maps the first URL path segment to a page kind.
var pathSegmentToKind = map[string]LinkedInKind{
	"in":      LinkedInKindProfile,
	"company": LinkedInKindCompany,
	"school":  LinkedInKindSchool,
}

// LinkedInRef represents a parsed LinkedIn page reference.
// Format: https://linkedin.com/<segment>/<slug> (e.g., "/in/janesmith",
// "/company/initech")
type LinkedInRef struct {
	// Kind is the page kind (profile, company, school)
	Kind LinkedInKind
	// Slug is the public identifier from the URL path (e.g., "janesmith")
	Slug string
	// Raw is the original URL string
	Raw string
}

// NormalizeURL produces the canonical form of a URL used for storage and
// duplicate detection:
//   - scheme and host lowercased
//   - leading "www." stripped from the host
//   - trailing slash stripped from the path
//   - query string and fragment dropped
//
// Path case is preserved. The operation is idempotent: normalizing an
// already normalized URL returns it unchanged.
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("url is empty")
	}

	// Accept scheme-less input ("www.linkedin.com/in/x") by assuming https
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("url %q has unsupported scheme %q", raw, u.Scheme)
	}

	host := strings.ToLower(u.Host)
	// Strip every leading "www." so the result is stable under repeated
	// normalization. A bare "www.<tld>" host is kept as-is since stripping
	// would leave no registrable domain.
	for strings.HasPrefix(host, "www.") && strings.Contains(host[4:], ".") {
		host = host[4:]
	}

	path := u.EscapedPath()
	for strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}

	return scheme + "://" + host + path, nil
}

// ParseLinkedInURL parses and validates a LinkedIn page URL.
// Accepted forms:
//   - "https://www.linkedin.com/in/janesmith/" -> Kind=profile, Slug="janesmith"
//   - "http://linkedin.com/company/initech"    -> Kind=company, Slug="initech"
//   - "au.linkedin.com/in/janesmith"           -> Kind=profile, Slug="janesmith"
//
// Query strings, fragments and trailing slashes are ignored. URLs on other
// hosts, or LinkedIn URLs that are not profile/company/school pages, are
// rejected.
func ParseLinkedInURL(raw string) (LinkedInRef, error) {
	normalized, err := NormalizeURL(raw)
	if err != nil {
		return LinkedInRef{}, err
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return LinkedInRef{}, fmt.Errorf("invalid url %q: %w", raw, err)
	}

	if !IsLinkedInHost(u.Host) {
		return LinkedInRef{}, fmt.Errorf("url %q is not a linkedin.com address", raw)
	}

	segments := []string{}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) < 2 {
		return LinkedInRef{}, fmt.Errorf("url %q is missing the page identifier", raw)
	}

	kind, ok := pathSegmentToKind[segments[0]]
	if !ok {
		return LinkedInRef{}, fmt.Errorf("url %q is not a profile, company or school page", raw)
	}

	slug, err := url.PathUnescape(segments[1])
	if err != nil || slug == "" {
		return LinkedInRef{}, fmt.Errorf("url %q has an invalid page identifier", raw)
	}

	return LinkedInRef{
		Kind: kind,
		Slug: slug,
		Raw:  raw,
	}, nil
}

// IsLinkedInHost reports whether the host (possibly with a regional
// subdomain such as "au.linkedin.com") belongs to linkedin.com.
func IsLinkedInHost(host string) bool {
	host = strings.ToLower(host)
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	return host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com")
}

// CanonicalURL returns the canonical storage URL for the reference.
// Example: Kind=profile, Slug="janesmith" -> "https://linkedin.com/in/janesmith"
func (r LinkedInRef) CanonicalURL() string {
	if r.Slug == "" {
		return ""
	}
	segment := "in"
	switch r.Kind {
	case LinkedInKindCompany:
		segment = "company"
	case LinkedInKindSchool:
		segment = "school"
	}
	return "https://linkedin.com/" + segment + "/" + url.PathEscape(r.Slug)
}

// String returns the canonical URL form of the reference.
func (r LinkedInRef) String() string {
	return r.CanonicalURL()
}

// ValidateProfileURL checks that the given string is a LinkedIn member
// profile URL. Returns the parsed reference on success.
func ValidateProfileURL(raw string) (LinkedInRef, error) {
	ref, err := ParseLinkedInURL(raw)
	if err != nil {
		return LinkedInRef{}, err
	}
	if ref.Kind != LinkedInKindProfile {
		return LinkedInRef{}, fmt.Errorf("url %q is a %s page, expected a profile (/in/) page", raw, ref.Kind)
	}
	return ref, nil
}

// ValidateCompanyURL checks that the given string is a LinkedIn company
// page URL. Returns the parsed reference on success.
func ValidateCompanyURL(raw string) (LinkedInRef, error) {
	ref, err := ParseLinkedInURL(raw)
	if err != nil {
		return LinkedInRef{}, err
	}
	if ref.Kind != LinkedInKindCompany && ref.Kind != LinkedInKindSchool {
		return LinkedInRef{}, fmt.Errorf("url %q is a %s page, expected a company (/company/) page", raw, ref.Kind)
	}
	return ref, nil
}
