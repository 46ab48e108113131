// Package paypal brokers the PayPal Orders v2 REST API: client-credential
// token exchange, order creation, and capture.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SandboxAPIBase = "https://api-m.sandbox.paypal.com"
	LiveAPIBase    = "https://api-m.paypal.com"
)

type Config struct {
	ClientID string
	Secret   string
	APIBase  string
}

// ConfigFromEnv reads PayPal credentials from the environment. PAYPAL_MODE
// picks sandbox (default) or live; PAYPAL_API_BASE overrides both.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		ClientID: os.Getenv("PAYPAL_CLIENT_ID"),
		Secret:   os.Getenv("PAYPAL_SECRET"),
		APIBase:  os.Getenv("PAYPAL_API_BASE"),
	}
	if cfg.APIBase == "" {
		if os.Getenv("PAYPAL_MODE") == "live" {
			cfg.APIBase = LiveAPIBase
		} else {
			cfg.APIBase = SandboxAPIBase
		}
	}
	if cfg.ClientID == "" || cfg.Secret == "" {
		return Config{}, fmt.Errorf("paypal configuration missing")
	}
	return cfg, nil
}

// APIError carries a non-2xx provider response. The body is kept verbatim
// for diagnosis.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal API error (%d): %s", e.Status, e.Body)
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// LineItem is one purchasable line of a remote order.
type LineItem struct {
	Name      string
	UnitPrice float64
}

// AccessToken exchanges the service credentials for a bearer token.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.APIBase+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("paypal auth failed: %w", err)
	}

	var auth struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &auth); err != nil {
		return "", fmt.Errorf("failed to parse paypal auth response: %w", err)
	}
	if auth.AccessToken == "" {
		return "", fmt.Errorf("paypal returned empty access token")
	}
	return auth.AccessToken, nil
}

// CreateOrder submits a CAPTURE-intent order. PayPal enforces that the
// item_total breakdown equals the overall amount, so total must be the
// exact sum of the line prices.
func (c *Client) CreateOrder(ctx context.Context, accessToken string, items []LineItem, total float64) (string, error) {
	lines := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		lines = append(lines, map[string]interface{}{
			"name":     item.Name,
			"quantity": "1",
			"unit_amount": map[string]string{
				"currency_code": "USD",
				"value":         amount(item.UnitPrice),
			},
			"category": "DIGITAL_GOODS",
		})
	}

	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"amount": map[string]interface{}{
					"currency_code": "USD",
					"value":         amount(total),
					"breakdown": map[string]interface{}{
						"item_total": map[string]string{
							"currency_code": "USD",
							"value":         amount(total),
						},
					},
				},
				"items": lines,
			},
		},
		"application_context": map[string]string{
			"brand_name":          "Template Marketplace",
			"shipping_preference": "NO_SHIPPING",
		},
	}

	body, err := c.postJSON(ctx, accessToken, "/v2/checkout/orders", payload)
	if err != nil {
		return "", err
	}

	var order struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &order); err != nil {
		return "", fmt.Errorf("failed to parse paypal order response: %w", err)
	}
	if order.ID == "" {
		return "", fmt.Errorf("paypal returned empty order id")
	}
	return order.ID, nil
}

// CaptureResult is the subset of the capture response the storefront needs.
type CaptureResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CaptureOrder finalizes fund transfer for a previously created remote
// order.
func (c *Client) CaptureOrder(ctx context.Context, accessToken, orderID string) (*CaptureResult, error) {
	body, err := c.postJSON(ctx, accessToken, "/v2/checkout/orders/"+orderID+"/capture", nil)
	if err != nil {
		return nil, err
	}

	var result CaptureResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse paypal capture response: %w", err)
	}
	return &result, nil
}

func (c *Client) postJSON(ctx context.Context, accessToken, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBase+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach paypal: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
