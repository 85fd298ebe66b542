// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const rangeCBFDA = "C5EE3B7B4F8B14B8C46F7CE2A32A58E3E61:3\r\n" +
	"C6008F9CAB4083784EA22229C5A85DDA33A:251682\r\n" +
	"C6156BFD6CB08BBE2AF2A4E4F6DFAD4EFA0:0\r\n"

func newTestClient(t *testing.T, server *httptest.Server, cfg ClientConfig) *Client {
	t.Helper()

	cfg.Endpoint = server.URL + "/range"
	cfg.HTTPClient = server.Client()
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("Should not fail creating client: %s", err)
	}
	return client
}

func TestClient_Range(t *testing.T) {
	var requests int32
	var path, padding string
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		path = r.URL.Path
		padding = r.Header.Get("Add-Padding")
		_, _ = fmt.Fprint(w, rangeCBFDA)
	}))
	defer server.Close()

	client := newTestClient(t, server, ClientConfig{Padding: true})
	set, err := client.Range(context.Background(), "cbfda")
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	if requests != 1 {
		t.Errorf("Should make exactly one request, made %d", requests)
	}

	if path != "/range/CBFDA" {
		t.Errorf("Request path: %s, want: %s", path, "/range/CBFDA")
	}

	if padding != "true" {
		t.Errorf("Add-Padding header should be set")
	}

	if len(set) != 2 {
		t.Errorf("Padded entries should be dropped, got %d entries", len(set))
	}

	if set["C6008F9CAB4083784EA22229C5A85DDA33A"] != 251682 {
		t.Errorf("Count: %d, want: %d", set["C6008F9CAB4083784EA22229C5A85DDA33A"], 251682)
	}
}

func TestNewClient_KeepsCallerHTTPClient(t *testing.T) {
	hc := &http.Client{}
	client, err := NewClient(ClientConfig{Timeout: 2 * time.Second, HTTPClient: hc})
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	if hc.Timeout != 0 {
		t.Errorf("Caller's client should not be modified, timeout: %v", hc.Timeout)
	}

	if client.http.HTTPClient == hc || client.http.HTTPClient.Timeout != 2*time.Second {
		t.Errorf("Client should use a copy with the configured timeout, got: %v", client.http.HTTPClient.Timeout)
	}
}

func TestClient_Range_InvalidPrefix(t *testing.T) {
	client, err := NewClient(ClientConfig{})
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	for _, prefix := range []string{"", "CBFD", "CBFDAC", "XYZ12"} {
		if _, err = client.Range(context.Background(), prefix); !errors.Is(err, ErrInvalidPrefix) {
			t.Errorf("Range(%q) should fail with ErrInvalidPrefix, got: %v", prefix, err)
		}
	}
}

func TestNewClient_RequiresTLS(t *testing.T) {
	cases := []string{"http://api.pwnedpasswords.com/range", "ftp://example.com/range", "https://"}

	for _, endpoint := range cases {
		if _, err := NewClient(ClientConfig{Endpoint: endpoint}); !errors.Is(err, ErrInsecureEndpoint) {
			t.Errorf("NewClient(%q) should fail with ErrInsecureEndpoint, got: %v", endpoint, err)
		}
	}
}

func TestClient_Range_UpstreamStatus(t *testing.T) {
	cases := []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusServiceUnavailable}

	for _, status := range cases {
		server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		client := newTestClient(t, server, ClientConfig{})
		_, err := client.Range(context.Background(), "CBFDA")

		var ue *UpstreamError
		if !errors.As(err, &ue) {
			t.Errorf("Status %d should be an UpstreamError, got: %v", status, err)
		} else if ue.StatusCode != status {
			t.Errorf("StatusCode: %d, want: %d", ue.StatusCode, status)
		}

		if IsNetworkError(err) {
			t.Errorf("Status %d should not be a NetworkError", status)
		}

		server.Close()
	}
}

func TestClient_Range_Malformed(t *testing.T) {
	cases := []string{
		"this is not a range response",
		"C6008F9CAB4083784EA22229C5A85DDA33A\r\n",
		"C6008F9CAB4083784EA22229C5A85DDA33A:many\r\n",
		"<html><body>maintenance</body></html>",
	}

	for _, body := range cases {
		server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, body)
		}))

		client := newTestClient(t, server, ClientConfig{})
		_, err := client.Range(context.Background(), "CBFDA")
		if !IsUpstreamError(err) || !errors.Is(err, ErrMalformedRange) {
			t.Errorf("Body %q should fail as malformed, got: %v", body, err)
		}

		server.Close()
	}
}

func TestClient_Range_ConnectionRefused(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(t, server, ClientConfig{})
	server.Close()

	_, err := client.Range(context.Background(), "CBFDA")
	if !IsNetworkError(err) {
		t.Errorf("Closed server should be a NetworkError, got: %v", err)
	}
}

func TestClient_Range_Timeout(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(t, server, ClientConfig{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := client.Range(context.Background(), "CBFDA")
	if !IsNetworkError(err) {
		t.Errorf("Timeout should be a NetworkError, got: %v", err)
	}

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Request should be bounded by the timeout, took %v", elapsed)
	}
}

func TestClient_Range_Cancelled(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(t, server, ClientConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := client.Range(ctx, "CBFDA")
	if !IsNetworkError(err) || !errors.Is(err, context.Canceled) {
		t.Errorf("Cancellation should be a NetworkError wrapping context.Canceled, got: %v", err)
	}
}

func TestParseRange(t *testing.T) {
	set, err := parseRange(strings.NewReader("c6008f9cab4083784ea22229c5a85dda33a:7\n\n"))
	if err != nil {
		t.Fatalf("Should not fail: %s", err)
	}

	if set["C6008F9CAB4083784EA22229C5A85DDA33A"] != 7 {
		t.Errorf("Suffixes should be upper-cased, got %v", set)
	}
}
