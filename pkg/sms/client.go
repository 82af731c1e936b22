// Package sms provides a simple client for sending text messages through an
// HTTP SMS gateway.
package sms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Client represents an SMS gateway client.
type Client struct {
	gatewayURL string
	apiKey     string
	from       string
	client     *http.Client
}

// NewClient creates a new SMS Client for the given gateway.
func NewClient(gatewayURL, apiKey, from string) *Client {
	return &Client{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		from:       from,
		client:     &http.Client{},
	}
}

// sendMessageRequest is the gateway's send payload.
type sendMessageRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
	Text string `json:"text"`
}

// Send posts a text message to the gateway and returns an error if the
// request fails or the gateway responds with a non-200 status.
func (c *Client) Send(to, text string) error {
	reqBody := sendMessageRequest{
		To:   to,
		From: c.from,
		Text: text,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.gatewayURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sms gateway error: %s", resp.Status)
	}

	return nil
}
