// Package validation provides version-string helpers for feed rendering.
package validation

import (
	"github.com/hashicorp/go-version"
)

// NormalizeVersion parses a version string and returns its canonical semver
// form (e.g. "v1.2.0" → "1.2.0"). Version rows are written by the publishing
// pipeline, which is outside this service, so strings that do not parse are
// returned unchanged rather than rejected.
func NormalizeVersion(versionStr string) string {
	v, err := version.NewVersion(versionStr)
	if err != nil {
		return versionStr
	}
	return v.String()
}

// IsValidSemver reports whether a version string parses as semantic
// versioning.
func IsValidSemver(versionStr string) bool {
	_, err := version.NewVersion(versionStr)
	return err == nil
}
