package datastore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

// funcHTTPClient adapts a function to HTTPClient.
type funcHTTPClient func(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error)

func (f funcHTTPClient) Do(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	return f(ctx, req)
}

func TestDeleteEntry_RequestShape(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewHTTPClient(5*time.Second))
	err := c.DeleteEntry(context.Background(), "key-1", DeleteRequest{
		UniverseID:    "555",
		DatastoreName: "PlayerData",
		EntryKey:      "user_42_data",
	})
	if err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}

	if got.Method != http.MethodDelete {
		t.Errorf("method = %s, want DELETE", got.Method)
	}
	if want := "/datastores/v1/universes/555/standard-datastores/datastore/entries/entry"; got.URL.Path != want {
		t.Errorf("path = %s, want %s", got.URL.Path, want)
	}
	if h := got.Header.Get("x-api-key"); h != "key-1" {
		t.Errorf("x-api-key = %q, want key-1", h)
	}
	q := got.URL.Query()
	if q.Get("datastoreName") != "PlayerData" {
		t.Errorf("datastoreName = %q", q.Get("datastoreName"))
	}
	if q.Get("scope") != "global" {
		t.Errorf("scope = %q, want global default", q.Get("scope"))
	}
	if q.Get("entryKey") != "user_42_data" {
		t.Errorf("entryKey = %q", q.Get("entryKey"))
	}
}

func TestDeleteEntry_EscapesQueryValues(t *testing.T) {
	var rawQuery string
	c := NewClient("https://example.test", funcHTTPClient(func(_ context.Context, req *HTTPRequest) (*HTTPResponse, error) {
		u, err := url.Parse(req.URL)
		if err != nil {
			t.Fatalf("parse url: %v", err)
		}
		rawQuery = u.RawQuery
		return &HTTPResponse{StatusCode: 200}, nil
	}))

	err := c.DeleteEntry(context.Background(), "k", DeleteRequest{
		UniverseID: "1", DatastoreName: "a&b", Scope: "eu west", EntryKey: "x=y",
	})
	if err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	q, _ := url.ParseQuery(rawQuery)
	if q.Get("datastoreName") != "a&b" || q.Get("scope") != "eu west" || q.Get("entryKey") != "x=y" {
		t.Errorf("query not escaped correctly: %s", rawQuery)
	}
}

func TestDeleteEntry_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"INSUFFICIENT_SCOPE"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, NewHTTPClient(5*time.Second)).
		DeleteEntry(context.Background(), "k", DeleteRequest{UniverseID: "1", DatastoreName: "d", EntryKey: "e"})

	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if ae.StatusCode != 403 || ae.StatusText != "Forbidden" {
		t.Errorf("unexpected status %d %q", ae.StatusCode, ae.StatusText)
	}
	if !strings.Contains(ae.Body, "INSUFFICIENT_SCOPE") {
		t.Errorf("body = %q", ae.Body)
	}
	if !ae.Permanent {
		t.Error("403 should be permanent")
	}
}

func TestDeleteEntry_MissingAPIKey(t *testing.T) {
	called := false
	c := NewClient("", funcHTTPClient(func(context.Context, *HTTPRequest) (*HTTPResponse, error) {
		called = true
		return &HTTPResponse{StatusCode: 200}, nil
	}))

	err := c.DeleteEntry(context.Background(), "", DeleteRequest{UniverseID: "1"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if called {
		t.Error("no request should be sent without an api key")
	}
}

func TestDeleteEntry_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	err := NewClient(srv.URL, NewHTTPClient(50*time.Millisecond)).
		DeleteEntry(context.Background(), "k", DeleteRequest{UniverseID: "1"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var ae *APIError
	if errors.As(err, &ae) {
		t.Errorf("timeout should be a transport error, got APIError %v", ae)
	}
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c := NewClient("", nil)
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
}
