package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"budgetwise/internal/config"
	"budgetwise/internal/testutil"
)

func testConfig() config.MpesaConfig {
	return config.MpesaConfig{
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		Shortcode:      "174379",
		Passkey:        "passkey",
		Environment:    "sandbox",
	}
}

func tokenHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Helper()
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ck" || pass != "cs" {
			t.Errorf("expected basic auth ck:cs, got %s:%s", user, pass)
		}
		if r.URL.Query().Get("grant_type") != "client_credentials" {
			t.Errorf("expected client_credentials grant, got %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok123",
			"expires_in":   "3599",
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"0712345678", "254712345678"},
		{"+254712345678", "254712345678"},
		{"254712345678", "254712345678"},
		{"0112345678", "254112345678"},
		{" 0712345678 ", "254712345678"},
	}
	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAccessToken(t *testing.T) {
	t.Run("fetches_token", func(t *testing.T) {
		srv := httptest.NewServer(tokenHandler(t))
		defer srv.Close()

		client := NewClient(testConfig(), srv.URL)
		token, err := client.AccessToken(context.Background())
		testutil.AssertNoError(t, err)
		if token != "tok123" {
			t.Errorf("expected tok123, got %q", token)
		}
	})

	t.Run("unconfigured", func(t *testing.T) {
		client := NewClient(config.MpesaConfig{}, "http://unused")
		_, err := client.AccessToken(context.Background())
		testutil.AssertAppError(t, err, "GATEWAY_UNAVAILABLE")
	})

	t.Run("provider_error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := NewClient(testConfig(), srv.URL)
		_, err := client.AccessToken(context.Background())
		testutil.AssertAppError(t, err, "GATEWAY_ERROR")
	})

	t.Run("empty_token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{})
		}))
		defer srv.Close()

		client := NewClient(testConfig(), srv.URL)
		_, err := client.AccessToken(context.Background())
		testutil.AssertAppError(t, err, "GATEWAY_ERROR")
	})
}

func TestInitiateSTKPush(t *testing.T) {
	var captured stkPushPayload

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", tokenHandler(t))
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok123" {
			t.Errorf("expected bearer token, got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("failed to decode push payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(STKPushResponse{
			MerchantRequestID: "mr_1",
			CheckoutRequestID: "ws_CO_1",
			ResponseCode:      "0",
			CustomerMessage:   "Success. Request accepted for processing",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(testConfig(), srv.URL)
	resp, err := client.InitiateSTKPush(context.Background(), STKPushRequest{
		PhoneNumber:      "0712345678",
		Amount:           100,
		CallbackURL:      "https://example.com/api/mpesa/callback/secret",
		AccountReference: "BW-abc",
		Description:      "Wallet deposit",
	})
	testutil.AssertNoError(t, err)
	if resp.CheckoutRequestID != "ws_CO_1" {
		t.Errorf("expected ws_CO_1, got %s", resp.CheckoutRequestID)
	}

	if captured.PhoneNumber != "254712345678" || captured.PartyA != "254712345678" {
		t.Errorf("expected normalized phone on the wire, got PhoneNumber=%s PartyA=%s",
			captured.PhoneNumber, captured.PartyA)
	}
	if captured.BusinessShortCode != "174379" || captured.PartyB != "174379" {
		t.Errorf("expected shortcode as business and receiving party, got %s/%s",
			captured.BusinessShortCode, captured.PartyB)
	}
	if captured.TransactionType != "CustomerPayBillOnline" {
		t.Errorf("unexpected transaction type %s", captured.TransactionType)
	}
	if captured.Amount != 100 {
		t.Errorf("expected amount 100, got %d", captured.Amount)
	}

	if !regexp.MustCompile(`^\d{14}$`).MatchString(captured.Timestamp) {
		t.Errorf("expected 14-digit timestamp, got %q", captured.Timestamp)
	}
	wantPassword := base64.StdEncoding.EncodeToString([]byte("174379" + "passkey" + captured.Timestamp))
	if captured.Password != wantPassword {
		t.Errorf("password does not match base64(shortcode+passkey+timestamp)")
	}
	if captured.CallBackURL != "https://example.com/api/mpesa/callback/secret" {
		t.Errorf("unexpected callback URL %q", captured.CallBackURL)
	}
}

func TestQueryStatus(t *testing.T) {
	var captured statusPayload

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", tokenHandler(t))
	mux.HandleFunc("/mpesa/stkpushquery/v1/query", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("failed to decode query payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(StatusResponse{
			CheckoutRequestID: captured.CheckoutRequestID,
			ResultCode:        "0",
			ResultDesc:        "The service request is processed successfully.",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(testConfig(), srv.URL)
	status, err := client.QueryStatus(context.Background(), "ws_CO_42")
	testutil.AssertNoError(t, err)
	if status.ResultCode != "0" {
		t.Errorf("expected result code 0, got %s", status.ResultCode)
	}
	if captured.CheckoutRequestID != "ws_CO_42" {
		t.Errorf("expected checkout id on the wire, got %s", captured.CheckoutRequestID)
	}
	if captured.Password == "" || captured.Timestamp == "" {
		t.Error("expected derived password and timestamp on the query")
	}
}

func TestBaseURLSelection(t *testing.T) {
	cfg := testConfig()
	if c := NewClient(cfg, ""); c.baseURL != sandboxBaseURL {
		t.Errorf("expected sandbox host, got %s", c.baseURL)
	}
	cfg.Environment = "production"
	if c := NewClient(cfg, ""); c.baseURL != productionBaseURL {
		t.Errorf("expected production host, got %s", c.baseURL)
	}
}
