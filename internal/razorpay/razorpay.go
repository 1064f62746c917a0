package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Client talks to the Razorpay REST API and verifies gateway signatures.
type Client struct {
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
	httpClient    *http.Client
}

// Order is the gateway-side order created for an internal order's total.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func NewClient(keyID, keySecret, webhookSecret string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 1 * time.Second
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.Logger = nil

	return &Client{
		baseURL:       defaultBaseURL,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		httpClient:    rc.StandardClient(),
	}
}

// SetBaseURL points the client at a different gateway endpoint (tests).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// CreateOrder opens a gateway order for the given amount in minor units.
// The receipt ties the gateway order back to the internal order id.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*Order, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &order, nil
}

// VerifyPaymentSignature checks the signed receipt the client app submits
// after checkout: HMAC-SHA256(order_id + "|" + payment_id, key_secret), hex.
func (c *Client) VerifyPaymentSignature(providerOrderID, providerPaymentID, signature string) bool {
	expected := hmacHex([]byte(providerOrderID+"|"+providerPaymentID), []byte(c.keySecret))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the server-to-server event signature. The
// HMAC covers the raw request bytes, so the body must not be parsed first.
func (c *Client) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	expected := hmacHex(rawBody, []byte(c.webhookSecret))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func hmacHex(message, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
