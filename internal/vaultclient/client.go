// Package vaultclient sends encrypted payloads to the vault server over
// HTTP.
package vaultclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vitalvault/vitalvault/internal/models"
)

// PayloadKind tags health-export payloads in the vault.
const PayloadKind = "health-export"

// StoreResult is the vault's receipt for a stored payload.
type StoreResult struct {
	URI         string `json:"uri"`
	ContentHash string `json:"content_hash"`
	Size        int64  `json:"size"`
}

// ListItem describes one stored payload without its data.
type ListItem struct {
	URI         string            `json:"uri"`
	ContentHash string            `json:"content_hash"`
	Kind        string            `json:"kind"`
	Size        int64             `json:"size"`
	Tags        map[string]string `json:"tags,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// storeRequest mirrors the server's store handler input without importing
// the server package (which would pull in pgx and chi).
type storeRequest struct {
	Identity string            `json:"identity"`
	Kind     string            `json:"kind"`
	Tags     map[string]string `json:"tags,omitempty"`
	Data     string            `json:"data"` // base64 ciphertext
}

type retrieveResponse struct {
	URI  string `json:"uri"`
	Data string `json:"data"` // base64 ciphertext
}

// Client talks to the vault server.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
}

// New creates a vault client for the given server URL.
func New(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Store encrypts the payload with the identity key and uploads it. Retries
// up to 3 times with exponential backoff on failure.
func (c *Client) Store(ctx context.Context, payload *models.Payload, identityAddr string, key []byte) (*StoreResult, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	sealed, err := seal(key, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypting payload: %w", err)
	}

	m := payload.Manifest
	req := storeRequest{
		Identity: identityAddr,
		Kind:     PayloadKind,
		Tags: map[string]string{
			"schema_version": m.Version,
			"tier":           string(m.Completeness.Tier),
			"score":          strconv.Itoa(m.Completeness.Score),
			"range_start":    m.DateRange.Start.Format(time.RFC3339),
			"range_end":      m.DateRange.End.Format(time.RFC3339),
		},
		Data: base64.StdEncoding.EncodeToString(sealed),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling store request: %w", err)
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			}
		}

		result, err := c.postStore(ctx, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}

func (c *Client) postStore(ctx context.Context, body []byte) (*StoreResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.serverURL+"/api/v1/vault/store", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("store failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result StoreResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding store response: %w", err)
	}
	return &result, nil
}

// List returns the stored payloads for an identity, optionally filtered by
// kind.
func (c *Client) List(ctx context.Context, identityAddr, kindFilter string) ([]ListItem, error) {
	q := url.Values{"identity": {identityAddr}}
	if kindFilter != "" {
		q.Set("kind", kindFilter)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.serverURL+"/api/v1/vault/list?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("listing vault: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list failed (status %d): %s", resp.StatusCode, body)
	}

	var items []ListItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding list response: %w", err)
	}
	return items, nil
}

// Retrieve downloads and decrypts a stored payload by URI.
func (c *Client) Retrieve(ctx context.Context, uri string, key []byte) (*models.Payload, error) {
	q := url.Values{"uri": {uri}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.serverURL+"/api/v1/vault/retrieve?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("retrieving payload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("retrieve failed (status %d): %s", resp.StatusCode, body)
	}

	var rr retrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("decoding retrieve response: %w", err)
	}

	sealed, err := base64.StdEncoding.DecodeString(rr.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding ciphertext: %w", err)
	}

	plaintext, err := open(key, sealed)
	if err != nil {
		return nil, err
	}

	var payload models.Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	return &payload, nil
}
