// Package index is the client for the package index the toolkit releases
// to. Authentication uses trusted publishing: the CI identity token is
// exchanged for a short-lived upload token, no static secret exists.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/plume-bot/plume-bot/log"
)

type Client struct {
	BaseURL       string
	IdentityToken string
	HTTP          *http.Client

	uploadToken string
}

func NewClient(baseURL, identityToken string) *Client {
	return &Client{
		BaseURL:       baseURL,
		IdentityToken: identityToken,
		HTTP:          http.DefaultClient,
	}
}

type versionResponse struct {
	Name   string `json:"name"`
	Latest string `json:"latest"`
}

// PublishedVersion returns the newest version of a package known to the
// index, or "" when the package has never been published.
func (c *Client) PublishedVersion(ctx context.Context, pkg string) (string, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/simple/%s/meta.json", c.BaseURL, pkg), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("index returned %s for %s", resp.Status, pkg)
	}

	v := versionResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return "", errors.Wrapf(err, "decoding index metadata for %s", pkg)
	}
	return v.Latest, nil
}

// Upload sends one distribution file. The index answers 409 when the
// exact file already exists, which is not an error here: re-running a
// partially failed release must succeed for the files published earlier.
func (c *Client) Upload(ctx context.Context, manifest *Manifest, file ManifestFile, path string) error {

	if c.uploadToken == "" {
		return errors.New("no upload token, call ExchangeToken first")
	}

	body, contentType, err := uploadBody(manifest, file, path)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload/", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.uploadToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		log.G(ctx).Infof("Uploaded %s", file.Name)
		return nil
	case http.StatusConflict:
		log.G(ctx).Infof("Already published, skipping: %s", file.Name)
		return nil
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("uploading %s: %s: %s", file.Name, resp.Status, raw)
	}
}

func uploadBody(manifest *Manifest, file ManifestFile, path string) (io.Reader, string, error) {

	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	rendered, err := manifest.Render()
	if err != nil {
		return nil, "", err
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fields := map[string]string{
		"name":          manifest.Package,
		"version":       manifest.Version,
		"sha256_digest": file.Sha256,
		"description":   manifest.Description,
	}
	for field, value := range fields {
		if err := w.WriteField(field, value); err != nil {
			return nil, "", err
		}
	}

	meta, err := w.CreateFormFile("manifest", "manifest.toml")
	if err != nil {
		return nil, "", err
	}
	if _, err := meta.Write(rendered); err != nil {
		return nil, "", err
	}

	part, err := w.CreateFormFile("content", filepath.Base(file.Name))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}
