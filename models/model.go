package models

// PackageSpec is one entry of the publish matrix, read from
// config/packages.yaml.
type PackageSpec struct {
	Name     string
	Pattern  string
	Optional bool
	Backends []string
}

// Distribution is a single release asset selected for a package.
type Distribution struct {
	AssetName string
	URL       string
	Size      int64
	LocalPath string
	Sha256    string
}

// Package carries the publish state of one matrix entry for one release.
type Package struct {
	Name             string
	ReleaseTag       string
	Version          string
	PublishedVersion string
	Description      string
	Optional         bool
	Distributions    []Distribution
}
