// Package stripe is a minimal client for the Stripe payment-intents API.
// Only the calls the deposit flow needs are implemented: creating a customer,
// creating an intent, and re-retrieving it for server-side verification.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/logger"
)

const defaultBaseURL = "https://api.stripe.com"

// StatusSucceeded is the only intent status that may trigger a ledger effect.
const StatusSucceeded = "succeeded"

// Intent is the subset of a Stripe payment intent the deposit flow reads.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Customer is the subset of a Stripe customer the deposit flow reads.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Client calls the Stripe REST API with a secret key.
type Client struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewClient creates a Stripe client. An empty baseURL selects the production
// API host; tests point it at a local server. An empty secretKey leaves the
// client unconfigured and every call fails with a gateway-unavailable error.
func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether a secret key is present.
func (c *Client) Configured() bool {
	return c.secretKey != ""
}

// CreateCustomer creates a provider-side customer record so repeated deposits
// from the same user share one payment profile.
func (c *Client) CreateCustomer(ctx context.Context, email string) (string, error) {
	if !c.Configured() {
		return "", apperrors.ErrGatewayUnavailable
	}

	form := url.Values{}
	form.Set("email", email)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/customers", strings.NewReader(form.Encode()))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrGatewayError, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	body, err := c.doRaw(req)
	if err != nil {
		return "", err
	}

	var customer Customer
	if err := json.Unmarshal(body, &customer); err != nil {
		return "", apperrors.Wrap(apperrors.ErrGatewayError, err)
	}
	return customer.ID, nil
}

// CreateIntent creates a payment intent for the given amount in minor units,
// attached to the given customer when one is known.
func (c *Client) CreateIntent(ctx context.Context, amount int64, currency, customerID string) (*Intent, error) {
	if !c.Configured() {
		return nil, apperrors.ErrGatewayUnavailable
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", strings.ToLower(currency))
	if customerID != "" {
		form.Set("customer", customerID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGatewayError, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	return c.do(req)
}

// RetrieveIntent fetches the current provider-side state of an intent. This
// is the server-side verification step: deposit confirmation must never trust
// a client-supplied intent status.
func (c *Client) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	if !c.Configured() {
		return nil, apperrors.ErrGatewayUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/payment_intents/"+url.PathEscape(intentID), nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGatewayError, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Intent, error) {
	body, err := c.doRaw(req)
	if err != nil {
		return nil, err
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGatewayError, err)
	}
	return &intent, nil
}

func (c *Client) doRaw(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrGatewayError, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The raw body may include account details; log it, never return it.
		logger.Get().Errorw("stripe request failed",
			"status", resp.StatusCode,
			"path", req.URL.Path,
			"body", string(body),
		)
		return nil, apperrors.Wrap(apperrors.ErrGatewayError,
			fmt.Errorf("stripe: %s returned %d", req.URL.Path, resp.StatusCode))
	}
	return body, nil
}
