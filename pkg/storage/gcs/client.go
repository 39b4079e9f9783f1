// Package gcs is a small Cloud Storage JSON API client for product images: upload,
// delete and a bucket reachability check.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	defaultAPIBase = "https://storage.googleapis.com"
	requestTimeout = 30 * time.Second
	pingTimeout    = 5 * time.Second
	// product images are immutable: every upload gets a fresh object name.
	imageCacheControl = "public, max-age=31536000, immutable"
)

var errNotInitialized = errors.New("gcs client not initialized")

type Client struct {
	http       *http.Client
	bucket     string
	apiBase    string
	publicBase string
	tokens     *tokenSource
}

// NewClient picks credentials in order: inline JSON, a credentials file, then the
// GCE metadata server. The bucket must answer a list call before NewClient returns.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	bucket := strings.TrimSpace(cfg.BucketName)
	if bucket == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	httpClient := &http.Client{Timeout: requestTimeout}

	creds := gcp.CredentialsJSON
	if creds == "" && gcp.ApplicationCredentials != "" {
		raw, err := os.ReadFile(gcp.ApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("read gcp credentials: %w", err)
		}
		creds = string(raw)
	}
	tokens := metadataTokens(httpClient)
	if creds != "" {
		var err error
		if tokens, err = serviceAccountTokens(httpClient, creds); err != nil {
			return nil, err
		}
	}

	c := &Client{
		http:       httpClient,
		bucket:     bucket,
		apiBase:    defaultAPIBase,
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		tokens:     tokens,
	}
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", bucket), "gcs client initialized")
	}
	return c, nil
}

// Close exists so the client can sit in the API's shutdown list.
func (c *Client) Close() error { return nil }

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokens == nil {
		return errNotInitialized
	}
	if c.bucket == "" {
		return errors.New("gcs bucket not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	return c.call(ctx, http.MethodGet, c.objectsURL("storage", "", url.Values{"maxResults": {"1"}}), "", nil, http.StatusOK)
}

// Upload stores body under object and returns its public URL.
func (c *Client) Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error) {
	if c == nil || c.tokens == nil {
		return "", errNotInitialized
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return "", errors.New("object name is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	query := url.Values{
		"uploadType": {"media"},
		"name":       {object},
	}
	if err := c.call(ctx, http.MethodPost, c.objectsURL("upload", "", query), contentType, body, http.StatusOK, http.StatusCreated); err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	if err := c.setCacheControl(ctx, object); err != nil {
		return "", err
	}
	return c.PublicURL(object), nil
}

func (c *Client) setCacheControl(ctx context.Context, object string) error {
	body := strings.NewReader(`{"cacheControl":"` + imageCacheControl + `"}`)
	if err := c.call(ctx, http.MethodPatch, c.objectsURL("storage", object, nil), "application/json", body, http.StatusOK); err != nil {
		return fmt.Errorf("set cache control on %s: %w", object, err)
	}
	return nil
}

// DeleteObject removes object; a missing object counts as deleted.
func (c *Client) DeleteObject(ctx context.Context, object string) error {
	if c == nil || c.tokens == nil {
		return errNotInitialized
	}
	err := c.call(ctx, http.MethodDelete, c.objectsURL("storage", object, nil), "", nil,
		http.StatusOK, http.StatusNoContent, http.StatusNotFound)
	if err != nil {
		return fmt.Errorf("delete %s: %w", object, err)
	}
	return nil
}

// PublicURL is the browser-facing address of object.
func (c *Client) PublicURL(object string) string {
	base := c.publicBase
	if base == "" {
		base = defaultAPIBase
	}
	return base + "/" + c.bucket + "/" + object
}

// objectsURL builds <base>/<api>/storage/v1/b/<bucket>/o[/<object>], where api is
// "storage" for metadata calls and "upload" for media uploads.
func (c *Client) objectsURL(api, object string, query url.Values) string {
	base := strings.TrimRight(c.apiBase, "/")
	if base == "" {
		base = defaultAPIBase
	}
	prefix := "/storage/v1/b/"
	if api == "upload" {
		prefix = "/upload/storage/v1/b/"
	}
	u := base + prefix + url.PathEscape(c.bucket) + "/o"
	if object != "" {
		u += "/" + url.PathEscape(object)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// call sends one authorized request and fails unless the status is in want.
func (c *Client) call(ctx context.Context, method, u, contentType string, body io.Reader, want ...int) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	for _, code := range want {
		if resp.StatusCode == code {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(detail)); msg != "" {
		return fmt.Errorf("%s %s: %s: %s", method, req.URL.Path, resp.Status, msg)
	}
	return fmt.Errorf("%s %s: %s", method, req.URL.Path, resp.Status)
}
