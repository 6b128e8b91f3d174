package mpesa

import (
	"crypto/subtle"
	"fmt"
	"math"
)

// CallbackEnvelope mirrors the provider's asynchronous result payload:
// {Body:{stkCallback:{ResultCode, ResultDesc, CallbackMetadata:{Item:[...]}}}}.
type CallbackEnvelope struct {
	Body CallbackBody `json:"Body"`
}

// CallbackBody wraps the stkCallback element.
type CallbackBody struct {
	StkCallback StkCallback `json:"stkCallback"`
}

// StkCallback is the terminal result of a push attempt. ResultCode 0 means
// the customer approved and the payment settled.
type StkCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

// CallbackMetadata holds the name/value items present on successful results.
type CallbackMetadata struct {
	Item []CallbackItem `json:"Item"`
}

// CallbackItem is one metadata entry. Values are numbers or strings depending
// on the name.
type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// Succeeded reports whether the push settled.
func (c *CallbackEnvelope) Succeeded() bool {
	return c.Body.StkCallback.ResultCode == 0
}

// CheckoutRequestID returns the reference that ties the callback to the
// pending deposit it resolves.
func (c *CallbackEnvelope) CheckoutRequestID() string {
	return c.Body.StkCallback.CheckoutRequestID
}

func (c *CallbackEnvelope) metadataValue(name string) interface{} {
	if c.Body.StkCallback.CallbackMetadata == nil {
		return nil
	}
	for _, item := range c.Body.StkCallback.CallbackMetadata.Item {
		if item.Name == name {
			return item.Value
		}
	}
	return nil
}

// Amount extracts the settled amount in whole KES from the metadata.
func (c *CallbackEnvelope) Amount() int64 {
	switch v := c.metadataValue("Amount").(type) {
	case float64:
		return int64(math.Round(v))
	case string:
		var n float64
		if _, err := fmt.Sscanf(v, "%f", &n); err == nil {
			return int64(math.Round(n))
		}
	}
	return 0
}

// Receipt extracts the provider receipt number from the metadata.
func (c *CallbackEnvelope) Receipt() string {
	if v, ok := c.metadataValue("MpesaReceiptNumber").(string); ok {
		return v
	}
	return ""
}

// Phone extracts the paying MSISDN from the metadata. The provider sends it
// as a JSON number, so it is reformatted without a decimal part.
func (c *CallbackEnvelope) Phone() string {
	switch v := c.metadataValue("PhoneNumber").(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}

// ValidateCallback checks an inbound notification before any trust is placed
// in it. The provider does not sign callbacks; the registered callback URL
// carries a per-deployment secret segment instead, so authenticity means the
// caller knew the full URL. Shape is checked on top: a callback without a
// checkout request id cannot be matched to a deposit and is rejected.
func ValidateCallback(configuredSecret, providedSecret string, env *CallbackEnvelope) bool {
	if configuredSecret == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(configuredSecret), []byte(providedSecret)) != 1 {
		return false
	}
	return env != nil && env.CheckoutRequestID() != ""
}
