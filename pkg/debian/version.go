// Package debian orders package versions the way dpkg does.
package debian

import (
	"pault.ag/go/debian/version"
)

// parseVersion never fails. Strings that do not parse, typically because of
// a bad epoch, are compared with epoch 0 and the whole input as upstream
// version so the ordering stays total.
func parseVersion(s string) version.Version {
	v, err := version.Parse(s)
	if err != nil {
		return version.Version{Version: s}
	}
	return v
}

// CompareVersions returns -1, 0 or 1 as a is older than, equal to, or newer
// than b. The empty string stands for "no version" and sorts before
// everything else.
func CompareVersions(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}

	c := version.Compare(parseVersion(a), parseVersion(b))
	switch {
	case c < 0:
		return -1
	case c > 0:
		return 1
	}
	return 0
}

// IsNewer reports whether a is strictly newer than b
func IsNewer(a, b string) bool {
	return CompareVersions(a, b) > 0
}

// IsAtLeast reports whether a is newer than or equal to b
func IsAtLeast(a, b string) bool {
	return CompareVersions(a, b) >= 0
}
