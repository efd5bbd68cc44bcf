package external

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentClient struct {
	baseURL    string
	teamSlug   string
	password   string
	provider   string
	httpClient *http.Client
}

type PaymentConfig struct {
	BaseURL  string
	TeamSlug string
	Password string
	Provider string
	Timeout  time.Duration
}

type ChargeRequest struct {
	TeamSlug    string `json:"teamSlug"`
	Token       string `json:"token"`
	Amount      string `json:"amount"`
	OrderID     string `json:"orderId"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
}

type ChargeResponse struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Status    string `json:"status"`
}

type CancelRequest struct {
	TeamSlug  string `json:"teamSlug"`
	Token     string `json:"token"`
	PaymentID string `json:"paymentId"`
	Reason    string `json:"reason,omitempty"`
}

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PaymentClient{
		baseURL:  cfg.BaseURL,
		teamSlug: cfg.TeamSlug,
		password: cfg.Password,
		provider: cfg.Provider,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Provider is the gateway name recorded on payment rows.
func (pc *PaymentClient) Provider() string {
	return pc.provider
}

func (pc *PaymentClient) generateToken(params map[string]string) string {
	params["TeamSlug"] = pc.teamSlug
	params["Password"] = pc.password

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tokenString string
	for _, key := range keys {
		tokenString += params[key]
	}

	hash := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(hash[:])
}

// Charge captures a payment synchronously and returns the gateway's payment
// reference. The settlement engine calls this before opening its transaction.
func (pc *PaymentClient) Charge(amount decimal.Decimal, orderID, description string) (*ChargeResponse, error) {
	amountStr := amount.StringFixed(2)
	token := pc.generateToken(map[string]string{
		"Amount":   amountStr,
		"Currency": "KZT",
		"OrderId":  orderID,
	})

	req := ChargeRequest{
		TeamSlug:    pc.teamSlug,
		Token:       token,
		Amount:      amountStr,
		OrderID:     orderID,
		Currency:    "KZT",
		Description: description,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	resp, err := pc.httpClient.Post(pc.baseURL+"/api/v1/charge", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("charge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("charge request returned status %d", resp.StatusCode)
	}

	var result ChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode charge response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("charge declined: status %s", result.Status)
	}

	return &result, nil
}

// CancelPayment reverses a captured charge. Best-effort: used when settlement
// loses the expiry race after charging.
func (pc *PaymentClient) CancelPayment(paymentID, reason string) error {
	token := pc.generateToken(map[string]string{
		"PaymentId": paymentID,
	})

	req := CancelRequest{
		TeamSlug:  pc.teamSlug,
		Token:     token,
		PaymentID: paymentID,
		Reason:    reason,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal cancel request: %w", err)
	}

	resp, err := pc.httpClient.Post(pc.baseURL+"/api/v1/cancel", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("cancel request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cancel request returned status %d", resp.StatusCode)
	}

	return nil
}
