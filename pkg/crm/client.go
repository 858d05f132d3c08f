// Skiff - Async conversational agent runtime
// License: MIT
//
// Copyright (c) 2026 Skiff contributors

// Package crm provides a small client for the customer record service.
// The client is constructed once and injected into the tools that need
// it; there is no package-level state.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Customer struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a CRM client. Passing a nil httpClient uses a
// default with a 15s timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// LookupByPhone finds the customer attached to a phone number.
func (c *Client) LookupByPhone(ctx context.Context, phone string) (*Customer, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone is required")
	}
	var customer Customer
	if err := c.get(ctx, "/v1/customers/by-phone/"+url.PathEscape(phone), &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// Search finds customers matching a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]Customer, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	var result struct {
		Customers []Customer `json:"customers"`
	}
	if err := c.get(ctx, "/v1/customers?q="+url.QueryEscape(query), &result); err != nil {
		return nil, err
	}
	return result.Customers, nil
}

// AppendNote adds a note to a customer record.
func (c *Client) AppendNote(ctx context.Context, customerID, note string) error {
	if customerID == "" {
		return fmt.Errorf("customer ID is required")
	}
	payload, err := json.Marshal(map[string]string{"note": note})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/customers/"+url.PathEscape(customerID)+"/notes",
		strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("crm returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("crm returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

var ErrNotFound = fmt.Errorf("customer not found")
