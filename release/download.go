package release

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/plume-bot/plume-bot/log"
)

// Downloader fetches release assets through an on-disk cache so that a
// replanned run never downloads the same distribution twice.
type Downloader struct {
	Dir         string
	GithubToken string
}

// Fetch downloads an asset and returns the local file path.
func (d *Downloader) Fetch(ctx context.Context, org, repo, tag, assetName, url string) (string, error) {

	path := fmt.Sprintf("%s/%s-%s-%s-%s", d.Dir, org, repo, tag, assetName)

	if info, err := os.Stat(path); err == nil {
		log.G(ctx).Debugf("Getting from cache: %s (%s)", url, humanize.Bytes(uint64(info.Size())))
		return path, nil
	}

	log.G(ctx).Debugf("Downloading: %s to %s", url, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	// Only add auth header if the asset is on github
	if strings.HasPrefix(url, "https://github.com/") {
		req.Header.Set("Authorization", "token "+d.GithubToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: %s", url, resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		os.Remove(path)
		return "", err
	}
	log.G(ctx).Debugf("Downloaded %s", humanize.Bytes(uint64(written)))
	return path, nil
}

// Open returns the cached content of a previously fetched asset.
func (d *Downloader) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return f, nil
}
