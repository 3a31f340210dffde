package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/gobuffalo/envy"

	"github.com/plume-bot/plume-bot/index"
	"github.com/plume-bot/plume-bot/log"
	"github.com/plume-bot/plume-bot/models"
	"github.com/plume-bot/plume-bot/publish"
	"github.com/plume-bot/plume-bot/release"
	"github.com/plume-bot/plume-bot/staging"
)

// Single-package publisher, invoked once per entry by the CI matrix so
// each package keeps its own isolated job outcome.

const tmpDir = "/tmp/plume-bot"

func main() {
	var verbose bool
	var githubPath string
	var pkgName string
	var releaseTag string
	var apply bool

	app := cli.NewApp()
	app.Version = "0.0.1"

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:        "apply, a",
			Usage:       "Apply the planned uploads",
			Destination: &apply,
		}, cli.StringFlag{
			Name:        "project, p",
			Usage:       "github url of the toolkit repository",
			Destination: &githubPath,
			Required:    true,
		}, cli.StringFlag{
			Name:        "package",
			Usage:       "Package to publish",
			Destination: &pkgName,
			Required:    true,
		}, cli.StringFlag{
			Name:        "release",
			Usage:       "Release tag to publish",
			Destination: &releaseTag,
		}, cli.BoolFlag{
			Name:        "verbose",
			Usage:       "Full debug log",
			Destination: &verbose,
		},
	}

	app.Action = func(c *cli.Context) error {
		ctx := context.Background()

		if verbose {
			log.G(ctx).Logger.SetLevel(logrus.DebugLevel)
		}

		for _, dir := range []string{tmpDir + "/cache", tmpDir + "/staging"} {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return err
			}
		}

		org, repo, err := parseProject(githubPath)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}

		client, githubToken, err := release.CreateClient(ctx)
		if err != nil {
			return err
		}

		indexURL := envy.Get("INDEX_URL", "https://index.plume-toolkit.dev")
		identityToken := envy.Get("INDEX_IDENTITY_TOKEN", "")

		spec := models.PackageSpec{
			Name: pkgName,
		}
		log.G(ctx).Infof("%v", spec)

		publisher := &publish.Publisher{
			Source: &release.Source{
				Client: client,
				Org:    org,
				Repo:   repo,
			},
			Index:      index.NewClient(indexURL, identityToken),
			Downloader: &release.Downloader{Dir: tmpDir + "/cache", GithubToken: githubToken},
			Stager:     &staging.Stager{Root: tmpDir + "/staging"},
		}

		results, err := publisher.Run(ctx, []models.PackageSpec{spec}, releaseTag, apply)
		if err != nil {
			return err
		}
		if results[0].Err != nil {
			return cli.NewExitError(results[0].Err.Error(), 1)
		}
		return nil
	}

	err := app.Run(os.Args)
	if err != nil {
		log.L.Fatal(err)
	}
}

// parseProject pulls org and repo out of the --project url. Values
// without a scheme ("github.com/org/repo") parse with an empty Path, so
// the segments are checked rather than indexed blindly.
func parseProject(githubPath string) (string, string, error) {
	u, err := url.Parse(githubPath)
	if err != nil {
		return "", "", err
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if u.Host == "" || len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("project url %q must look like https://github.com/<org>/<repo>", githubPath)
	}
	return parts[0], parts[1], nil
}
