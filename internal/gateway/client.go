package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Client talks to the messaging provider over HTTP. One shared instance
// fronts all sends so the rate limiter applies across sweeps, workers and
// the enrollment fast path.
type Client struct {
	url     string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(url, apiKey string, timeout time.Duration, ratePerSec int) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if ratePerSec <= 0 {
		ratePerSec = 10
	}
	return &Client{
		url:     url,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
	}
}

type sendRequest struct {
	To        string `json:"to"`
	Body      string `json:"body"`
	RequestID string `json:"request_id"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

func (c *Client) Send(ctx context.Context, address, text string) (*SendResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(sendRequest{
		To:        address,
		Body:      text,
		RequestID: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code := body.Code
		if code == "" {
			code = fmt.Sprintf("http_%d", resp.StatusCode)
		}
		return nil, &Error{Code: code, Message: body.Message}
	}

	return &SendResult{ProviderMessageID: body.MessageID}, nil
}
