package index

import (
	"fmt"

	"github.com/blang/semver"
	"github.com/pelletier/go-toml/v2"

	"github.com/plume-bot/plume-bot/models"
)

// Manifest is the per-package upload metadata sent alongside the
// distribution files.
type Manifest struct {
	Package     string         `toml:"package"`
	Version     string         `toml:"version"`
	Description string         `toml:"description,omitempty"`
	Files       []ManifestFile `toml:"files"`
}

type ManifestFile struct {
	Name   string `toml:"name"`
	Sha256 string `toml:"sha256"`
	Size   int64  `toml:"size"`
}

// BuildManifest assembles the upload manifest for a planned package.
func BuildManifest(pkg *models.Package) *Manifest {
	m := &Manifest{
		Package:     pkg.Name,
		Version:     pkg.Version,
		Description: pkg.Description,
	}
	for _, dist := range pkg.Distributions {
		m.Files = append(m.Files, ManifestFile{
			Name:   dist.AssetName,
			Sha256: dist.Sha256,
			Size:   dist.Size,
		})
	}
	return m
}

// Render serializes the manifest as TOML.
func (m *Manifest) Render() ([]byte, error) {
	return toml.Marshal(m)
}

// Lint checks a manifest before anything is uploaded.
func (m *Manifest) Lint() error {
	errs := []string{}

	if m.Package == "" {
		errs = append(errs, "missing package name")
	}
	if _, err := semver.Make(m.Version); err != nil {
		errs = append(errs, fmt.Sprintf("version %q is not semver", m.Version))
	}
	if len(m.Files) == 0 {
		errs = append(errs, "no distribution files")
	}
	for _, f := range m.Files {
		if len(f.Sha256) != 64 {
			errs = append(errs, fmt.Sprintf("bad sha256 for %s", f.Name))
		}
		if f.Size <= 0 {
			errs = append(errs, fmt.Sprintf("bad size for %s", f.Name))
		}
	}

	if len(errs) > 0 {
		e := ""
		for _, msg := range errs {
			e += msg + "\n"
		}
		return fmt.Errorf("manifest lint failed for %s: \n%v", m.Package, e)
	}
	return nil
}
