// Package publish drives the release: resolve assets for every package of
// the matrix, plan, and upload. Packages are handled independently, a
// failing package never stops the others.
package publish

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	ghApi "github.com/google/go-github/v32/github"

	"github.com/plume-bot/plume-bot/index"
	"github.com/plume-bot/plume-bot/log"
	"github.com/plume-bot/plume-bot/match"
	"github.com/plume-bot/plume-bot/models"
	"github.com/plume-bot/plume-bot/printer"
	"github.com/plume-bot/plume-bot/release"
	"github.com/plume-bot/plume-bot/staging"
	"github.com/plume-bot/plume-bot/sums"
)

type Publisher struct {
	Source      *release.Source
	Index       *index.Client
	Downloader  *release.Downloader
	Stager      *staging.Stager
	Description string
}

// Result is the isolated outcome of one matrix entry.
type Result struct {
	Package  string
	Uploaded int
	Skipped  bool
	Err      error
}

// Run publishes one release across the package matrix. With apply false
// only the plan table is printed. The returned error covers run-level
// failures (release not found, bad version); per-package failures are in
// the results.
func (p *Publisher) Run(ctx context.Context, specs []models.PackageSpec, tag string, apply bool) ([]Result, error) {

	rel, err := p.Source.GetRelease(ctx, tag)
	if err != nil {
		return nil, err
	}

	version := release.Version(rel.GetTagName(), p.Source.Repo)
	if err := release.CheckVersion(ctx, version, rel.GetPrerelease()); err != nil {
		return nil, err
	}
	log.G(ctx).Infof("## Publishing %s/%s release %s as version %s: %s", p.Source.Org, p.Source.Repo, rel.GetTagName(), version, rel.GetHTMLURL())

	assets, err := p.Source.ListAssets(ctx, rel)
	if err != nil {
		return nil, err
	}

	packages, err := p.plan(ctx, specs, rel, version, assets)
	if err != nil {
		return nil, err
	}

	printer.Table(packages)

	checksums := sums.NewService(ctx, p.Downloader, p.Source.Org, p.Source.Repo, rel.GetTagName(), assets)

	if apply {
		if err := p.Index.ExchangeToken(ctx); err != nil {
			return nil, errors.Wrap(err, "trusted publishing token exchange")
		}
	}

	results := make([]Result, len(packages))
	var wg sync.WaitGroup
	for i, pkg := range packages {
		wg.Add(1)
		go func(i int, pkg *models.Package) {
			defer wg.Done()
			pctx := log.WithLogger(ctx, log.G(ctx).WithField("package", pkg.Name))
			results[i] = p.publishOne(pctx, pkg, checksums, apply)
		}(i, pkg)
	}
	wg.Wait()

	return results, nil
}

func (p *Publisher) plan(ctx context.Context, specs []models.PackageSpec, rel *ghApi.RepositoryRelease, version string, assets []*ghApi.ReleaseAsset) ([]*models.Package, error) {

	names := make([]string, 0, len(assets))
	byName := map[string]*ghApi.ReleaseAsset{}
	for _, asset := range assets {
		names = append(names, asset.GetName())
		byName[asset.GetName()] = asset
	}

	partition, err := match.Partition(specs, version, names)
	if err != nil {
		return nil, err
	}

	packages := []*models.Package{}
	for _, spec := range specs {
		pkg := &models.Package{
			Name:        spec.Name,
			ReleaseTag:  rel.GetTagName(),
			Version:     version,
			Description: p.Description,
			Optional:    spec.Optional,
		}

		currentVersion, err := p.Index.PublishedVersion(ctx, spec.Name)
		if err != nil {
			log.G(ctx).Warn(errors.Wrap(err, "Could not find published version"))
		} else {
			pkg.PublishedVersion = currentVersion
		}

		for _, assetName := range partition[spec.Name] {
			asset := byName[assetName]
			pkg.Distributions = append(pkg.Distributions, models.Distribution{
				AssetName: assetName,
				URL:       asset.GetBrowserDownloadURL(),
				Size:      int64(asset.GetSize()),
			})
		}

		packages = append(packages, pkg)
	}
	return packages, nil
}

func (p *Publisher) publishOne(ctx context.Context, pkg *models.Package, checksums *sums.Service, apply bool) Result {

	result := Result{Package: pkg.Name}

	switch printer.Status(pkg) {
	case "Up to date":
		log.G(ctx).Infof("Already published: %s %s", pkg.Name, pkg.Version)
		result.Skipped = true
		return result
	case "No assets (optional)":
		log.G(ctx).Infof("No distributions for optional package: %s", pkg.Name)
		result.Skipped = true
		return result
	case "Missing assets":
		result.Err = errors.Errorf("no distributions for %s %s in the release", pkg.Name, pkg.Version)
		return result
	}

	if !apply {
		log.G(ctx).Infof("Plan only, would publish %s %s (%d files)", pkg.Name, pkg.Version, len(pkg.Distributions))
		result.Skipped = true
		return result
	}

	for i := range pkg.Distributions {
		dist := &pkg.Distributions[i]

		path, err := p.Downloader.Fetch(ctx, p.Source.Org, p.Source.Repo, pkg.ReleaseTag, dist.AssetName, dist.URL)
		if err != nil {
			result.Err = errors.Wrapf(err, "downloading %s", dist.AssetName)
			return result
		}
		dist.LocalPath = path

		sha, err := checksums.Sum(ctx, dist.AssetName, path)
		if err != nil {
			result.Err = errors.Wrapf(err, "resolving checksum of %s", dist.AssetName)
			return result
		}
		dist.Sha256 = sha

		if err := checksums.Verify(ctx, dist.AssetName, path, sha); err != nil {
			result.Err = err
			return result
		}
	}

	receipt, done, err := p.Stager.Stage(pkg.Name, pkg.Version, pkg.Distributions)
	if err != nil {
		result.Err = err
		return result
	}
	if done {
		log.G(ctx).Infof("Receipt found, %s %s already staged and published", pkg.Name, pkg.Version)
		result.Skipped = true
		return result
	}

	manifest := index.BuildManifest(pkg)
	if err := manifest.Lint(); err != nil {
		result.Err = err
		return result
	}

	for _, file := range manifest.Files {
		dist := distribution(pkg, file.Name)
		if err := p.Index.Upload(ctx, manifest, file, dist.LocalPath); err != nil {
			result.Err = err
			return result
		}
		result.Uploaded++
	}

	if err := p.Stager.Commit(receipt); err != nil {
		result.Err = errors.Wrapf(err, "writing receipt for %s", pkg.Name)
		return result
	}

	log.G(ctx).Infof("Published %s %s (%d files)", pkg.Name, pkg.Version, result.Uploaded)
	return result
}

func distribution(pkg *models.Package, assetName string) *models.Distribution {
	for i := range pkg.Distributions {
		if pkg.Distributions[i].AssetName == assetName {
			return &pkg.Distributions[i]
		}
	}
	return nil
}
