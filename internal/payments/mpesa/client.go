// Package mpesa implements the Safaricom Daraja STK push flow: OAuth token
// exchange, push initiation, synchronous status query, and callback
// validation.
package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"budgetwise/internal/config"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/logger"
)

const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"
)

// Client calls the Daraja API for a single shortcode.
type Client struct {
	cfg     config.MpesaConfig
	baseURL string
	client  *http.Client
}

// NewClient creates a Daraja client. An empty baseURL selects the sandbox or
// production host from cfg.Environment; tests point it at a local server.
func NewClient(cfg config.MpesaConfig, baseURL string) *Client {
	if baseURL == "" {
		if cfg.Environment == "production" {
			baseURL = productionBaseURL
		} else {
			baseURL = sandboxBaseURL
		}
	}
	return &Client{
		cfg:     cfg,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether the minimum credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// NormalizePhone rewrites a Kenyan MSISDN to the 254XXXXXXXXX form the
// provider requires: a leading 0 or +254 becomes 254.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	switch {
	case strings.HasPrefix(phone, "+254"):
		return "254" + phone[4:]
	case strings.HasPrefix(phone, "0"):
		return "254" + phone[1:]
	}
	return phone
}

// timestamp returns the request timestamp in the provider's YYYYMMDDHHMMSS
// format. It is part of the provider's replay window, so it must be generated
// fresh for every request, never cached.
func timestamp() string {
	return time.Now().Format("20060102150405")
}

// password derives the STK password for a request timestamp:
// base64(shortcode + passkey + timestamp).
func (c *Client) password(ts string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.Shortcode + c.cfg.Passkey + ts))
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// AccessToken obtains a short-lived bearer token via the client-credentials
// exchange. Tokens are fetched per call; the provider's expiry window is
// short enough that caching is not worth the staleness risk.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", apperrors.ErrGatewayUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrGatewayError, err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrGatewayError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Wrap(apperrors.ErrGatewayError,
			fmt.Errorf("mpesa oauth returned %d", resp.StatusCode))
	}

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.Wrap(apperrors.ErrGatewayError, err)
	}
	if out.AccessToken == "" {
		return "", apperrors.Wrap(apperrors.ErrGatewayError,
			fmt.Errorf("mpesa oauth returned empty token"))
	}
	return out.AccessToken, nil
}

// STKPushRequest carries the caller-facing parameters of a push payment.
// Amount is in whole KES, the provider's integer currency unit.
type STKPushRequest struct {
	PhoneNumber      string
	Amount           int64
	CallbackURL      string
	AccountReference string
	Description      string
}

// STKPushResponse is the provider's acknowledgement of an initiated push.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type stkPushPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// InitiateSTKPush prompts the user's phone to approve the payment.
func (c *Client) InitiateSTKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	ts := timestamp()
	payload := stkPushPayload{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          c.password(ts),
		Timestamp:         ts,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            req.Amount,
		PartyA:            NormalizePhone(req.PhoneNumber),
		PartyB:            c.cfg.Shortcode,
		PhoneNumber:       NormalizePhone(req.PhoneNumber),
		CallBackURL:       req.CallbackURL,
		AccountReference:  req.AccountReference,
		TransactionDesc:   req.Description,
	}

	var out STKPushResponse
	if err := c.post(ctx, token, "/mpesa/stkpush/v1/processrequest", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StatusResponse is the provider's answer to a push status query.
type StatusResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

type statusPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// QueryStatus polls the outcome of a push for clients that cannot rely on
// callback delivery.
func (c *Client) QueryStatus(ctx context.Context, checkoutRequestID string) (*StatusResponse, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	ts := timestamp()
	payload := statusPayload{
		BusinessShortCode: c.cfg.Shortcode,
		Password:          c.password(ts),
		Timestamp:         ts,
		CheckoutRequestID: checkoutRequestID,
	}

	var out StatusResponse
	if err := c.post(ctx, token, "/mpesa/stkpushquery/v1/query", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, token, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrGatewayError, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrGatewayError, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrGatewayError, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Provider rejections can echo credentials; log, never return.
		logger.Get().Errorw("mpesa request failed",
			"status", resp.StatusCode,
			"path", path,
			"body", string(respBody),
		)
		return apperrors.Wrap(apperrors.ErrGatewayError,
			fmt.Errorf("mpesa: %s returned %d", path, resp.StatusCode))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return apperrors.Wrap(apperrors.ErrGatewayError, err)
	}
	return nil
}
