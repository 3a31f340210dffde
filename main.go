package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/gobuffalo/envy"

	"github.com/plume-bot/plume-bot/config"
	"github.com/plume-bot/plume-bot/index"
	"github.com/plume-bot/plume-bot/log"
	"github.com/plume-bot/plume-bot/notes"
	"github.com/plume-bot/plume-bot/publish"
	"github.com/plume-bot/plume-bot/release"
	"github.com/plume-bot/plume-bot/staging"
)

const tmpDir = "/tmp/plume-bot"

func init() {
	mkDir()
}

func mkDir() {
	for _, dir := range []string{tmpDir, tmpDir + "/cache", tmpDir + "/staging"} {
		err := os.MkdirAll(dir, os.ModePerm)
		if err == nil || os.IsExist(err) {
			continue
		} else {
			panic(err)
		}
	}
}

func main() {

	var clean bool
	var apply bool
	var verbose bool
	var target string
	var releaseTag string

	app := cli.NewApp()
	app.Version = "0.0.1"

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:        "apply, a",
			Usage:       "Apply the planned uploads",
			Destination: &apply,
		}, cli.StringFlag{
			Name:        "target",
			Usage:       "Target only one package",
			Destination: &target,
		}, cli.StringFlag{
			Name:        "release",
			Usage:       "Release tag to publish (default: newest published release)",
			Destination: &releaseTag,
		}, cli.BoolFlag{
			Name:        "verbose",
			Usage:       "Full debug log",
			Destination: &verbose,
		}, cli.BoolFlag{
			Name:        "clean, c",
			Usage:       "Clear the download and staging cache",
			Destination: &clean,
		},
	}

	app.Action = func(c *cli.Context) error {

		if verbose {
			log.L.Logger.SetLevel(logrus.DebugLevel)
		}

		if clean {
			clearDir(tmpDir + "/cache")
			clearDir(tmpDir + "/staging")
		}

		ctx := context.Background()

		specs, err := config.LoadPackages("config/packages.yaml", target)
		if err != nil {
			return err
		}
		tool, err := config.LoadTool("plume.toml", specs)
		if err != nil {
			return err
		}

		description, err := notes.Compose(tool.Notes)
		if err != nil {
			return err
		}

		client, githubToken, err := release.CreateClient(ctx)
		if err != nil {
			return err
		}

		indexURL := envy.Get("INDEX_URL", "https://index.plume-toolkit.dev")
		identityToken := envy.Get("INDEX_IDENTITY_TOKEN", "")

		publisher := &publish.Publisher{
			Source: &release.Source{
				Client: client,
				Org:    "plume-toolkit",
				Repo:   "plume",
			},
			Index:       index.NewClient(indexURL, identityToken),
			Downloader:  &release.Downloader{Dir: tmpDir + "/cache", GithubToken: githubToken},
			Stager:      &staging.Stager{Root: tmpDir + "/staging"},
			Description: description,
		}

		results, err := publisher.Run(ctx, specs, releaseTag, apply)
		if err != nil {
			return err
		}

		failed := 0
		for _, result := range results {
			if result.Err != nil {
				log.G(ctx).Warnf("Failed %s: %v", result.Package, result.Err)
				failed++
			}
		}
		if failed > 0 {
			return cli.NewExitError(fmt.Sprintf("%d of %d packages failed", failed, len(results)), 1)
		}
		return nil
	}

	err := app.Run(os.Args)
	if err != nil {
		log.L.Fatal(err)
	}
}

func clearDir(dir string) error {
	log.L.Debugf("Cleaning: %s", dir)
	names, err := ioutil.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range names {
		file := path.Join(dir, entry.Name())
		log.L.Debugf(" - deleting: %s", file)
		os.RemoveAll(file)
	}
	return nil
}
