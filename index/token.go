package index

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/plume-bot/plume-bot/log"
)

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// ExchangeToken trades the CI identity token for a short-lived upload
// token. The index verifies the identity token against the repository's
// trusted publisher registration.
func (c *Client) ExchangeToken(ctx context.Context) error {

	if c.IdentityToken == "" {
		return errors.New("no identity token in environment")
	}

	form := url.Values{}
	form.Set("token", c.IdentityToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("token exchange failed: %s: %s", resp.Status, raw)
	}

	t := tokenResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return errors.Wrap(err, "decoding token response")
	}
	if t.Token == "" {
		return errors.New("token exchange returned an empty token")
	}

	c.uploadToken = t.Token
	log.G(ctx).Debugf("Upload token obtained, expires in %ds", t.ExpiresIn)
	return nil
}
