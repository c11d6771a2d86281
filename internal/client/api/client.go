// Package api implements the HTTP client for the one-time secret server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/onetimesecret/internal/common"
	"github.com/dmitrijs2005/onetimesecret/internal/server/rest"
	"github.com/dmitrijs2005/onetimesecret/internal/timex"
)

// Client talks to the server's JSON API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient validates baseURL and returns a ready Client. timeout bounds
// every request issued through the client.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server address %q: scheme must be http or https", baseURL)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// GenerateSecret stores a passphrase-protected secret and returns its lookup
// key. A zero ttl leaves expiry to the server default.
func (c *Client) GenerateSecret(ctx context.Context, secret string, passphrase string, ttl time.Duration) (string, error) {

	req := rest.GenerateRequest{Secret: secret, Passphrase: passphrase, TTL: timex.Duration{Duration: ttl}}

	var resp rest.GenerateResponse
	if err := c.postJSON(ctx, "/api/generate", req, http.StatusCreated, &resp); err != nil {
		return "", err
	}
	return resp.SecretKey, nil
}

// GetSecret retrieves and consumes the secret stored under lookupKey.
// A miss maps to common.ErrorSecretNotFound and a wrong passphrase to
// common.ErrorInvalidPassphrase so callers can tell the cases apart.
func (c *Client) GetSecret(ctx context.Context, lookupKey string, passphrase string) (string, error) {

	req := rest.PassphraseRequest{Passphrase: passphrase}

	var resp rest.SecretResponse
	if err := c.postJSON(ctx, "/api/secrets/"+url.PathEscape(lookupKey), req, http.StatusOK, &resp); err != nil {
		return "", err
	}
	return resp.Secret, nil
}

// Ping checks server reachability.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/ping", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, wantStatus int, out any) error {

	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return c.apiError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// apiError converts a non-success response into a sentinel error where the
// status code has a defined meaning, falling back to the server's message.
func (c *Client) apiError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return common.ErrorSecretNotFound
	case http.StatusForbidden:
		return common.ErrorInvalidPassphrase
	}

	var e struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
