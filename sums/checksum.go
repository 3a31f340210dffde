// Package sums resolves the sha256 of every distribution file, preferring
// the checksum companions published with the release over local hashing.
package sums

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	ghApi "github.com/google/go-github/v32/github"

	"github.com/plume-bot/plume-bot/log"
	"github.com/plume-bot/plume-bot/match"
	"github.com/plume-bot/plume-bot/release"
)

type Service struct {
	downloader *release.Downloader
	org        string
	repo       string
	tag        string
	checksums  []Checksum
}

type Checksum struct {
	AssetName string
	SHA       string
}

// NewService preloads the checksums.txt and per-asset .sha256 companions
// of a release.
func NewService(ctx context.Context, downloader *release.Downloader, org, repo, tag string, assets []*ghApi.ReleaseAsset) *Service {
	s := &Service{
		downloader: downloader,
		org:        org,
		repo:       repo,
		tag:        tag,
	}
	s.preLoadFromAssets(ctx, assets)
	return s
}

// Sum returns the published checksum for an asset, falling back to
// hashing the downloaded file when the release shipped none.
func (s *Service) Sum(ctx context.Context, assetName, localPath string) (string, error) {

	for _, checksum := range s.checksums {
		if strings.Contains(checksum.AssetName, assetName) {
			log.G(ctx).Debugf("Found sha %s for %s in %s", checksum.SHA, assetName, checksum.AssetName)
			return checksum.SHA, nil
		}
	}
	log.G(ctx).Debugf("Falling back to calculating SHA for %s", assetName)
	return FileSum(localPath)
}

// Verify hashes a staged file and compares against the published checksum.
func (s *Service) Verify(ctx context.Context, assetName, localPath, want string) error {
	got, err := FileSum(localPath)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("checksum mismatch for %s: release says %s, file is %s", assetName, want, got)
	}
	return nil
}

// FileSum computes the sha256 of a local file.
func FileSum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error while opening package to calculate shasum: %v", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("error while calculating shasum of package: %v", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func (s *Service) preLoadFromAssets(ctx context.Context, assets []*ghApi.ReleaseAsset) {
	checksums := ""

	for _, asset := range assets {
		if !match.IsChecksumFile(asset.GetName()) {
			continue
		}
		content, err := s.load(ctx, asset)
		if err != nil {
			log.G(ctx).Errorf("Could not download checksums: %v", err)
			continue
		}

		if strings.HasSuffix(asset.GetName(), ".sha256") {
			// content may be either "sha assetname" or just "sha"
			// - postfixing with the asset name keeps the second field stable
			checksums += fmt.Sprintf("%s %s\n", strings.Trim(content, "\n"), strings.TrimSuffix(asset.GetName(), ".sha256"))
		} else {
			checksums += content
		}
	}

	s.checksums = ParseChecksums(checksums)
}

func (s *Service) load(ctx context.Context, asset *ghApi.ReleaseAsset) (string, error) {
	path, err := s.downloader.Fetch(ctx, s.org, s.repo, s.tag, asset.GetName(), asset.GetBrowserDownloadURL())
	if err != nil {
		return "", err
	}
	reader, err := s.downloader.Open(path)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	raw, err := ioutil.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ParseChecksums reads "sha filename" lines in the format produced by
// sha256sum and the common release tooling.
func ParseChecksums(text string) []Checksum {
	cs := []Checksum{}

	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if line == "" {
			continue
		}
		x := strings.Fields(strings.TrimSpace(line))
		if len(x) < 2 {
			continue
		}
		cs = append(cs, Checksum{
			SHA:       x[0],
			AssetName: strings.TrimPrefix(x[1], "*"),
		})
	}
	return cs
}
