// Package prisoner resolves prisoner identities against prisoner search.
package prisoner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"bookerregistry/internal/booker/models"
	"bookerregistry/pkg/platform/circuit"
	"bookerregistry/pkg/platform/sentinel"
)

// Client calls the prisoner search service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuit.Breaker
}

// NewClient creates a prisoner search client. The http.Client carries the
// timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

// WithBreaker fails calls fast with sentinel.ErrUnavailable while b is open.
func (c *Client) WithBreaker(b *circuit.Breaker) *Client {
	c.breaker = b
	return c
}

// GetPrisoner returns the prisoner's identity. A 404 is sentinel.ErrNotFound;
// transport failures and other statuses wrap sentinel.ErrUnavailable.
func (c *Client) GetPrisoner(ctx context.Context, prisonerID string) (*models.Prisoner, error) {
	if c.breaker == nil {
		return c.fetch(ctx, prisonerID)
	}
	if !c.breaker.Allow() {
		return nil, fmt.Errorf("prisoner search circuit %s open: %w", c.breaker.Name(), sentinel.ErrUnavailable)
	}
	p, err := c.fetch(ctx, prisonerID)
	if errors.Is(err, sentinel.ErrUnavailable) {
		c.breaker.RecordFailure()
	} else {
		c.breaker.RecordSuccess()
	}
	return p, err
}

func (c *Client) fetch(ctx context.Context, prisonerID string) (*models.Prisoner, error) {
	endpoint := c.baseURL + "/prisoner/" + url.PathEscape(prisonerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build prisoner request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prisoner request: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, sentinel.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("prisoner request: %w: status %d", sentinel.ErrUnavailable, resp.StatusCode)
	}

	var p models.Prisoner
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode prisoner: %w: %w", sentinel.ErrUnavailable, err)
	}
	return &p, nil
}
