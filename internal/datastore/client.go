// Package datastore deletes entries through the external datastore HTTP API.
package datastore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sungwon/erasure-bridge/internal/metrics"
)

const (
	// DefaultBaseURL is the public datastore API host.
	DefaultBaseURL = "https://apis.roblox.com"

	// DefaultScope applies when a rule does not name one.
	DefaultScope = "global"

	apiKeyHeader = "x-api-key"
)

// DeleteRequest addresses one datastore entry.
type DeleteRequest struct {
	UniverseID    string
	DatastoreName string
	Scope         string
	EntryKey      string
}

// Client issues delete calls against the datastore API.
type Client struct {
	baseURL string
	client  HTTPClient
}

// NewClient creates a Client for baseURL. An empty baseURL uses
// DefaultBaseURL.
func NewClient(baseURL string, client HTTPClient) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: baseURL, client: client}
}

// DeleteEntry deletes one entry using apiKey. It returns ErrMissingAPIKey
// without calling out when apiKey is empty, an *APIError for non-2xx
// responses, and a wrapped transport error otherwise.
func (c *Client) DeleteEntry(ctx context.Context, apiKey string, req DeleteRequest) error {
	if apiKey == "" {
		return ErrMissingAPIKey
	}

	start := time.Now()
	resp, err := c.client.Do(ctx, &HTTPRequest{
		Method: http.MethodDelete,
		URL:    c.entryURL(req),
		Headers: map[string]string{
			apiKeyHeader:   apiKey,
			"Content-Type": "application/json",
		},
	})
	if err != nil {
		metrics.DatastoreRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("datastore: delete request: %w", err)
	}
	metrics.DatastoreRequestDuration.WithLabelValues(strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if ae := ClassifyHTTPError(resp.StatusCode, resp.Status, string(resp.Body)); ae != nil {
		return ae
	}
	return nil
}

func (c *Client) entryURL(req DeleteRequest) string {
	scope := req.Scope
	if scope == "" {
		scope = DefaultScope
	}
	q := url.Values{}
	q.Set("datastoreName", req.DatastoreName)
	q.Set("scope", scope)
	q.Set("entryKey", req.EntryKey)

	return fmt.Sprintf("%s/datastores/v1/universes/%s/standard-datastores/datastore/entries/entry?%s",
		c.baseURL, url.PathEscape(req.UniverseID), q.Encode())
}
