// Package version provides dotted numeric version parsing and comparison.
//
// It covers the shapes found in project files and build tool requirements:
// one to four numeric components, e.g. "5", "3.16", "1.2.3" or "1.0.0.4".
//
// Example:
//
//	v, err := version.Parse("1.2.3")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(v.Major, v.Minor, v.Patch) // 1 2 3
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a dotted numeric version.
type Version struct {
	// Major version number
	Major int

	// Minor version number
	Minor int

	// Patch version number
	Patch int

	// Tweak is the optional fourth component
	Tweak int

	// Components is the number of components present in the source string
	Components int

	// originalString preserves the original version string
	originalString string
}

// String returns the string representation of the version.
func (v *Version) String() string {
	if v.originalString != "" {
		return v.originalString
	}
	return v.format()
}

// format renders only the components that were present.
func (v *Version) format() string {
	parts := []int{v.Major, v.Minor, v.Patch, v.Tweak}
	n := v.Components
	if n < 1 {
		n = 1
	}
	if n > len(parts) {
		n = len(parts)
	}
	strs := make([]string, n)
	for i := 0; i < n; i++ {
		strs[i] = strconv.Itoa(parts[i])
	}
	return strings.Join(strs, ".")
}

// Parse parses a dotted numeric version string.
//
// Returns an error if the string is empty, has more than four components
// or contains a non-numeric component.
func Parse(s string) (*Version, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("version string cannot be empty")
	}

	numbers := strings.Split(trimmed, ".")
	if len(numbers) > 4 {
		return nil, fmt.Errorf("invalid version format: %q", s)
	}

	values := make([]int, 4)
	for i, n := range numbers {
		value, err := strconv.Atoi(n)
		if err != nil || value < 0 {
			return nil, fmt.Errorf("invalid version component %d in %q: %q", i+1, s, n)
		}
		values[i] = value
	}

	return &Version{
		Major:          values[0],
		Minor:          values[1],
		Patch:          values[2],
		Tweak:          values[3],
		Components:     len(numbers),
		originalString: trimmed,
	}, nil
}

// MustParse parses a version string and panics on error.
// Use this only when you know the version string is valid.
func MustParse(s string) *Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or 1. Missing components compare as zero.
func (v *Version) Compare(other *Version) int {
	a := []int{v.Major, v.Minor, v.Patch, v.Tweak}
	b := []int{other.Major, other.Minor, other.Patch, other.Tweak}
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// LessThan reports whether v sorts before other.
func (v *Version) LessThan(other *Version) bool {
	return v.Compare(other) < 0
}

// MajorString returns the first component as written, or "" when s does
// not start with a numeric component. Used for library compatibility
// versions, so "2.1.0" yields "2" and "3.x" yields "3".
func MajorString(s string) string {
	head, _, _ := strings.Cut(strings.TrimSpace(s), ".")
	if _, err := strconv.Atoi(head); err != nil {
		return ""
	}
	return head
}

// Max returns the greater of two versions, preferring a when equal.
func Max(a, b *Version) *Version {
	if a == nil {
		return b
	}
	if b == nil || a.Compare(b) >= 0 {
		return a
	}
	return b
}
