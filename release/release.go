// Package release reads the published release of the toolkit repository
// and resolves the distribution assets attached to it.
package release

import (
	"context"
	"strings"

	"github.com/blang/semver"
	"github.com/gobuffalo/envy"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	ghApi "github.com/google/go-github/v32/github"

	"github.com/plume-bot/plume-bot/log"
)

// Source is the GitHub repository the release workflow runs against.
type Source struct {
	Client *ghApi.Client
	Org    string
	Repo   string
}

// CreateClient builds an authenticated GitHub client from GITHUB_TOKEN.
func CreateClient(ctx context.Context) (*ghApi.Client, string, error) {
	githubToken, err := envy.MustGet("GITHUB_TOKEN")
	if err != nil {
		return nil, "", errors.Wrap(err, "getting Github token")
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: githubToken},
	)
	tc := oauth2.NewClient(ctx, ts)

	return ghApi.NewClient(tc), githubToken, nil
}

// GetRelease fetches the release for tag, or the newest published release
// when tag is empty. Draft releases are never returned.
func (s *Source) GetRelease(ctx context.Context, tag string) (*ghApi.RepositoryRelease, error) {
	if tag != "" {
		release, _, err := s.Client.Repositories.GetReleaseByTag(ctx, s.Org, s.Repo, tag)
		if err != nil {
			return nil, errors.Wrapf(err, "release %s not found in %s/%s", tag, s.Org, s.Repo)
		}
		return release, nil
	}

	releaseList, _, err := s.Client.Repositories.ListReleases(ctx, s.Org, s.Repo, &ghApi.ListOptions{})
	if err != nil {
		return nil, err
	}
	for _, release := range releaseList {
		if release.GetDraft() {
			continue
		}
		return release, nil
	}
	return nil, errors.Errorf("no published release in %s/%s", s.Org, s.Repo)
}

// ListAssets returns every asset of the release, following pagination.
func (s *Source) ListAssets(ctx context.Context, release *ghApi.RepositoryRelease) ([]*ghApi.ReleaseAsset, error) {

	var assetList []*ghApi.ReleaseAsset
	opt := &ghApi.ListOptions{PerPage: 100}
	for {
		assets, resp, err := s.Client.Repositories.ListReleaseAssets(ctx, s.Org, s.Repo, release.GetID(), opt)
		if err != nil {
			return nil, err
		}
		assetList = append(assetList, assets...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return assetList, nil
}

// Version derives the index version from a release tag. The tag may carry
// a leading v or a "project-" prefix from older release tooling.
func Version(tag, project string) string {
	cleanVersion := strings.Replace(tag, "v", "", 1)
	cleanVersion = strings.Replace(cleanVersion, project+"-", "", 1)
	cleanVersion = strings.Replace(cleanVersion, project+"/", "", 1)
	cleanVersion = strings.Replace(cleanVersion, project, "", 1)
	return cleanVersion
}

// CheckVersion validates that a derived version is publishable. A
// prerelease version is only allowed on a release marked prerelease.
func CheckVersion(ctx context.Context, version string, prerelease bool) error {
	v, err := semver.Make(version)
	if err != nil {
		return errors.Wrapf(err, "version %q is not semver", version)
	}
	if len(v.Pre) > 0 && !prerelease {
		log.G(ctx).Warnf("Version %s has prerelease components on a final release", version)
		return errors.Errorf("prerelease version %s on a release not marked prerelease", version)
	}
	return nil
}
