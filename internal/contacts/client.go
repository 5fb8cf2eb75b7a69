// Package contacts looks up a prisoner's approved social contacts in the
// contact registry.
package contacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"bookerregistry/internal/booker/models"
	"bookerregistry/pkg/platform/sentinel"
)

// Lookup returns the contacts registered for a prisoner.
type Lookup interface {
	GetContacts(ctx context.Context, prisonerID string) ([]models.Contact, error)
}

// Client calls the contact registry over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	group      singleflight.Group
}

// NewClient creates a contact registry client. The http.Client carries the
// timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

type contactDTO struct {
	PersonID    int64  `json:"personId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
}

// GetContacts fetches the prisoner's contacts. Concurrent calls for the same
// prisoner share one upstream request. A 404 is sentinel.ErrNotFound.
func (c *Client) GetContacts(ctx context.Context, prisonerID string) ([]models.Contact, error) {
	v, err, _ := c.group.Do(prisonerID, func() (any, error) {
		return c.fetch(ctx, prisonerID)
	})
	if err != nil {
		return nil, err
	}
	shared := v.([]models.Contact)
	return append([]models.Contact(nil), shared...), nil
}

func (c *Client) fetch(ctx context.Context, prisonerID string) ([]models.Contact, error) {
	endpoint := c.baseURL + "/prisoners/" + url.PathEscape(prisonerID) + "/contacts"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build contacts request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contacts request: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, sentinel.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("contacts request: %w: status %d", sentinel.ErrUnavailable, resp.StatusCode)
	}

	var dtos []contactDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	out := make([]models.Contact, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, toContact(d))
	}
	return out, nil
}

// toContact keeps contacts with an unparseable date of birth but drops the
// date, so they can never match a candidate.
func toContact(d contactDTO) models.Contact {
	contact := models.Contact{PersonID: d.PersonID, FirstName: d.FirstName, LastName: d.LastName}
	if d.DateOfBirth != "" {
		if dob, err := time.Parse(time.DateOnly, d.DateOfBirth); err == nil {
			contact.DateOfBirth = &dob
		}
	}
	return contact
}
