// Package match implements the rule that assigns release assets to the
// packages of the publish matrix.
package match

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/plume-bot/plume-bot/models"
)

// Normalize folds the separator characters the index treats as
// interchangeable in distribution file names, so "plume-core" and
// "plume_core" select the same assets.
func Normalize(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// Matches reports whether an asset file belongs to the given package at
// the given version. The file name must be the package name (with - and _
// interchangeable) followed by "-" and the version, and the version must
// lead with a digit.
func Matches(pkg models.PackageSpec, version, asset string) bool {
	if IsChecksumFile(asset) {
		return false
	}
	if version == "" || version[0] < '0' || version[0] > '9' {
		return false
	}

	name := pkg.Pattern
	if name == "" {
		name = pkg.Name
	}

	prefix := Normalize(name) + "-"
	normalized := Normalize(asset)
	if !strings.HasPrefix(normalized, prefix) {
		return false
	}

	rest := strings.TrimPrefix(normalized, prefix)
	if !strings.HasPrefix(rest, version) {
		return false
	}

	// The version must be complete: "plume-core-1.2" must not capture a
	// 1.20.0 distribution.
	rest = strings.TrimPrefix(rest, version)
	return strings.HasPrefix(rest, ".") || strings.HasPrefix(rest, "-")
}

// IsChecksumFile reports whether an asset is a checksum companion rather
// than a distribution file.
func IsChecksumFile(asset string) bool {
	return strings.HasSuffix(asset, ".sha256") || asset == "checksums.txt"
}

// Partition assigns every distribution asset of a release to at most one
// package. Assets matching no package (repository tarballs, checksum
// companions) are left out; an asset claimed by more than one package is
// an error in the matrix.
func Partition(specs []models.PackageSpec, version string, assets []string) (map[string][]string, error) {

	byPackage := map[string][]string{}
	owner := map[string]string{}

	for _, pkg := range specs {
		for _, asset := range assets {
			if !Matches(pkg, version, asset) {
				continue
			}
			if prev, taken := owner[asset]; taken {
				return nil, errors.Errorf("asset %s claimed by both %s and %s", asset, prev, pkg.Name)
			}
			owner[asset] = pkg.Name
			byPackage[pkg.Name] = append(byPackage[pkg.Name], asset)
		}
	}

	return byPackage, nil
}
