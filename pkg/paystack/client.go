package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.paystack.co"

// Client Paystack API'sine erişen ince HTTP istemcisidir. Tutarlar API'ye
// kobo cinsinden (x100) gönderilir, cevaplarda tekrar ana birime çevrilir.
type Client struct {
	secretKey   string
	baseURL     string
	callbackURL string
	client      *http.Client
}

func NewClient(secretKey, baseURL, callbackURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		secretKey:   secretKey,
		baseURL:     baseURL,
		callbackURL: callbackURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type InitializeResponse struct {
	Reference        string `json:"reference"`
	AccessCode       string `json:"access_code"`
	AuthorizationURL string `json:"authorization_url"`
}

type Authorization struct {
	AuthorizationCode string `json:"authorization_code"`
	CardType          string `json:"card_type"`
	Last4             string `json:"last4"`
	ExpMonth          string `json:"exp_month"`
	ExpYear           string `json:"exp_year"`
	Bank              string `json:"bank"`
	AccountName       string `json:"account_name"`
}

type VerifyResponse struct {
	Status        string                 `json:"status"`
	Amount        float64                `json:"amount"`
	Currency      string                 `json:"currency"`
	Metadata      map[string]interface{} `json:"metadata"`
	Authorization Authorization          `json:"authorization"`
}

type ChargeResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// apiEnvelope Paystack'in standart cevap zarfı.
type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) Initialize(ctx context.Context, email string, amount float64, metadata map[string]interface{}) (*InitializeResponse, error) {
	body := map[string]interface{}{
		"email":        email,
		"amount":       int64(amount * 100),
		"currency":     "NGN",
		"metadata":     metadata,
		"callback_url": c.callbackURL,
	}

	var out InitializeResponse
	if err := c.post(ctx, "/transaction/initialize", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResponse, error) {
	var out struct {
		Status        string                 `json:"status"`
		Amount        int64                  `json:"amount"`
		Currency      string                 `json:"currency"`
		Metadata      map[string]interface{} `json:"metadata"`
		Authorization Authorization          `json:"authorization"`
	}
	if err := c.get(ctx, "/transaction/verify/"+reference, &out); err != nil {
		return nil, err
	}

	return &VerifyResponse{
		Status:        out.Status,
		Amount:        float64(out.Amount) / 100,
		Currency:      out.Currency,
		Metadata:      out.Metadata,
		Authorization: out.Authorization,
	}, nil
}

func (c *Client) ChargeAuthorization(ctx context.Context, authorizationCode, email string, amount float64, metadata map[string]interface{}) (*ChargeResponse, error) {
	body := map[string]interface{}{
		"authorization_code": authorizationCode,
		"email":              email,
		"amount":             int64(amount * 100),
		"currency":           "NGN",
		"metadata":           metadata,
	}

	var out ChargeResponse
	if err := c.post(ctx, "/transaction/charge_authorization", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshaling request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("paystack request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading paystack response: %v", err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("malformed paystack response: %v", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("paystack API error: %s", envelope.Message)
	}
	if !envelope.Status {
		return fmt.Errorf("paystack API error: %s", envelope.Message)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("malformed paystack response data: %v", err)
		}
	}
	return nil
}
