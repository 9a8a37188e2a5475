// Package version models an IP's semantic version and the version requests
// dependencies declare against it (spec §3, §4.C, §4.D).
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a concrete Major.Minor.Patch triple.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less orders versions ascending by (Major, Minor, Patch).
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

func (v Version) Equal(other Version) bool { return v == other }

// Parse accepts "M.m.p", "M.m", or "M" (spec §4.C), filling omitted
// components with zero.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version component %q in %q", p, s)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Precision records how many components a VersionRequest pinned, since
// "1.2" and "1.2.0" are different requests (the former matches any patch).
type Precision int

const (
	Major Precision = iota
	MajorMinor
	MajorMinorPatch
)

// Request is a dependency's requested version (spec §4.C): a caret-style
// floor over the components the user specified, or the special "dev"
// request meaning "use whatever is at the working directory"
// (original_source's AnyVersion::Dev, not present in spec.md's distillation
// but preserved here — see SPEC_FULL.md's supplemented-features list).
type Request struct {
	Dev       bool
	Precision Precision
	Version   Version
}

func (r Request) String() string {
	if r.Dev {
		return "dev"
	}
	switch r.Precision {
	case Major:
		return strconv.Itoa(r.Version.Major)
	case MajorMinor:
		return fmt.Sprintf("%d.%d", r.Version.Major, r.Version.Minor)
	default:
		return r.Version.String()
	}
}

// ParseRequest parses a dependency version request (spec §4.C): "M.m.p",
// "M.m", "M", or the literal "dev".
func ParseRequest(s string) (Request, error) {
	if s == "dev" {
		return Request{Dev: true}, nil
	}
	parts := strings.Split(s, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return Request{}, fmt.Errorf("invalid version request %q", s)
	}
	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Request{}, fmt.Errorf("invalid version request component %q in %q", p, s)
		}
		nums[i] = n
	}
	precision := [...]Precision{Major, MajorMinor, MajorMinorPatch}[len(parts)-1]
	return Request{
		Precision: precision,
		Version:   Version{Major: nums[0], Minor: nums[1], Patch: nums[2]},
	}, nil
}

// Compatible reports whether v satisfies r (spec §3): v.Major must equal
// r.Version.Major, and when that major is nonzero, (v.Minor, v.Patch) must
// be >= (r.Version.Minor, r.Version.Patch) lexicographically — a caret
// requirement, the request names a floor within the same major, not an
// exact version. When the major is zero there is no stable API across
// minor bumps, so minor must match exactly instead. Omitted components in
// r (per its Precision) are already zero-filled by ParseRequest, which is
// what makes Major- and MajorMinor-precision requests fall out of the same
// formula as a wildcard over the unpinned components. Dev requests are
// satisfied only by resolving against the working IP directly, never by a
// catalog version, so Compatible always returns false for them here.
func Compatible(v Version, r Request) bool {
	if r.Dev {
		return false
	}
	if v.Major != r.Version.Major {
		return false
	}
	if r.Version.Major == 0 {
		return v.Minor == r.Version.Minor
	}
	if v.Minor != r.Version.Minor {
		return v.Minor > r.Version.Minor
	}
	return v.Patch >= r.Version.Patch
}

// Highest returns the first version in a descending-sorted list that is
// compatible with r (spec §4.D "Version selection"), and false if none is.
func Highest(descending []Version, r Request) (Version, bool) {
	for _, v := range descending {
		if Compatible(v, r) {
			return v, true
		}
	}
	return Version{}, false
}
