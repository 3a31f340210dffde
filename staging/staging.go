// Package staging moves the selected distributions of one package into a
// per-package directory and records a receipt so the same version is
// never published twice.
package staging

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/plume-bot/plume-bot/models"
)

type Stager struct {
	Root string
}

// Receipt records what was staged for one package version. A matching
// receipt on a later run means the version is already handled.
type Receipt struct {
	Package string
	Version string
	Files   map[string]string
}

// Dir returns the staging directory of a package, creating it if needed.
func (s *Stager) Dir(pkg string) (string, error) {
	dir := filepath.Join(s.Root, pkg)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	return dir, nil
}

// Stage copies the selected distributions into the package directory.
// The returned bool is true when an identical receipt already exists, so
// the version was fully published by an earlier run. The receipt itself
// is only written by Commit, after the uploads went through.
func (s *Stager) Stage(pkg, version string, dists []models.Distribution) (*Receipt, bool, error) {

	dir, err := s.Dir(pkg)
	if err != nil {
		return nil, false, err
	}

	receipt := &Receipt{
		Package: pkg,
		Version: version,
		Files:   map[string]string{},
	}
	for _, dist := range dists {
		receipt.Files[dist.AssetName] = dist.Sha256
	}

	prev, err := s.loadReceipt(dir)
	if err != nil {
		return nil, false, err
	}
	if prev != nil && prev.Version == version {
		if !sameFiles(prev.Files, receipt.Files) {
			return nil, false, errors.Errorf("%s %s was already staged with different checksums", pkg, version)
		}
		return prev, true, nil
	}

	for _, dist := range dists {
		if err := copyFile(dist.LocalPath, filepath.Join(dir, dist.AssetName)); err != nil {
			return nil, false, errors.Wrapf(err, "staging %s", dist.AssetName)
		}
	}

	return receipt, false, nil
}

// Commit records the receipt of a fully uploaded package version.
func (s *Stager) Commit(receipt *Receipt) error {
	dir, err := s.Dir(receipt.Package)
	if err != nil {
		return err
	}
	return s.writeReceipt(dir, receipt)
}

func (s *Stager) loadReceipt(dir string) (*Receipt, error) {
	raw, err := ioutil.ReadFile(filepath.Join(dir, "receipt.yaml"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r := &Receipt{}
	if err := yaml.Unmarshal(raw, r); err != nil {
		return nil, errors.Wrap(err, "unreadable receipt")
	}
	return r, nil
}

func (s *Stager) writeReceipt(dir string, r *Receipt) error {
	raw, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(filepath.Join(dir, "receipt.yaml"), raw, 0644)
}

func sameFiles(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for name, sha := range a {
		if b[name] != sha {
			return false
		}
	}
	return true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dst)
		return fmt.Errorf("copying %s: %v", src, err)
	}
	return nil
}
