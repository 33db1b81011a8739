package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth string
	var gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]interface{}{
				"reference":         "ref-123",
				"access_code":       "code-123",
				"authorization_url": "https://checkout.paystack.com/code-123",
			},
		})
	}))
	defer server.Close()

	client := NewClient("sk_test_abc", server.URL, "https://app.example.com/callback")

	resp, err := client.Initialize(context.Background(), "viewer@example.com", 600, map[string]interface{}{"plan_id": 2})
	require.NoError(t, err)

	assert.Equal(t, "/transaction/initialize", gotPath)
	assert.Equal(t, "Bearer sk_test_abc", gotAuth)
	// Tutar kobo cinsinden gönderilir
	assert.EqualValues(t, 60000, gotBody["amount"])
	assert.Equal(t, "viewer@example.com", gotBody["email"])
	assert.Equal(t, "https://app.example.com/callback", gotBody["callback_url"])

	assert.Equal(t, "ref-123", resp.Reference)
	assert.Equal(t, "code-123", resp.AccessCode)
	assert.Equal(t, "https://checkout.paystack.com/code-123", resp.AuthorizationURL)
}

func TestVerifyConvertsKoboToMajorUnit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ref-123", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Verification successful",
			"data": map[string]interface{}{
				"status":   "success",
				"amount":   60000,
				"currency": "NGN",
				"authorization": map[string]interface{}{
					"authorization_code": "AUTH_xyz",
					"card_type":          "visa",
					"last4":              "4081",
					"exp_month":          "12",
					"exp_year":           "2030",
					"bank":               "TEST BANK",
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient("sk_test_abc", server.URL, "")

	resp, err := client.Verify(context.Background(), "ref-123")
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 600.0, resp.Amount)
	assert.Equal(t, "NGN", resp.Currency)
	assert.Equal(t, "AUTH_xyz", resp.Authorization.AuthorizationCode)
	assert.Equal(t, "4081", resp.Authorization.Last4)
}

func TestChargeAuthorization(t *testing.T) {
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/charge_authorization", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Charge attempted",
			"data": map[string]interface{}{
				"reference": "renew-ref",
				"status":    "success",
			},
		})
	}))
	defer server.Close()

	client := NewClient("sk_test_abc", server.URL, "")

	resp, err := client.ChargeAuthorization(context.Background(), "AUTH_xyz", "viewer@example.com", 500, nil)
	require.NoError(t, err)

	assert.Equal(t, "AUTH_xyz", gotBody["authorization_code"])
	assert.EqualValues(t, 50000, gotBody["amount"])
	assert.Equal(t, "renew-ref", resp.Reference)
	assert.Equal(t, "success", resp.Status)
}

func TestAPIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Invalid key",
		})
	}))
	defer server.Close()

	client := NewClient("sk_test_bad", server.URL, "")

	_, err := client.Initialize(context.Background(), "viewer@example.com", 600, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid key")
}

func TestEnvelopeStatusFalseIsError(t *testing.T) {
	// HTTP 200 olsa bile zarf status=false ise hata sayılır
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Transaction not found",
		})
	}))
	defer server.Close()

	client := NewClient("sk_test_abc", server.URL, "")

	_, err := client.Verify(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transaction not found")
}

func TestMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway timeout</html>"))
	}))
	defer server.Close()

	client := NewClient("sk_test_abc", server.URL, "")

	_, err := client.Verify(context.Background(), "ref-123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestDefaultBaseURL(t *testing.T) {
	client := NewClient("sk_test_abc", "", "")
	assert.Equal(t, "https://api.paystack.co", client.baseURL)
}
