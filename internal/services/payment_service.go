package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// PaymentService talks to the payment provider and verifies its
// webhooks. Webhook payloads carry the tenant id in the order notes,
// which is how a provider callback gets re-bound to a tenant.
type PaymentService interface {
	CreatePaymentOrder(ctx context.Context, tenantID, orderID uuid.UUID, amount float64, currency string) (*PaymentOrder, error)
	VerifyWebhookSignature(rawBody []byte, signature string) bool
	ParseWebhookEvent(rawBody []byte) (*WebhookEvent, error)
}

type PaymentOrder struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
}

type WebhookEvent struct {
	ID       string    `json:"id"`
	Event    string    `json:"event"`
	TenantID uuid.UUID `json:"-"`
	OrderID  uuid.UUID `json:"-"`
	Amount   float64   `json:"-"`
}

type webhookPayload struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	Payload struct {
		Order struct {
			Entity struct {
				ID     string  `json:"id"`
				Amount float64 `json:"amount"`
				Notes  struct {
					TenantID string `json:"tenant_id"`
					OrderID  string `json:"order_id"`
				} `json:"notes"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

type paymentService struct {
	apiKey        string
	apiSecret     string
	webhookSecret string
	baseURL       string
	http          *http.Client
}

func NewPaymentService(apiKey, apiSecret, webhookSecret string) PaymentService {
	return &paymentService{
		apiKey:        apiKey,
		apiSecret:     apiSecret,
		webhookSecret: webhookSecret,
		baseURL:       "https://api.razorpay.com/v1",
		http:          &http.Client{},
	}
}

// CreatePaymentOrder registers an order with the provider. The tenant
// and order ids ride along in the notes so the webhook can find its way
// back to the right tenant.
func (s *paymentService) CreatePaymentOrder(ctx context.Context, tenantID, orderID uuid.UUID, amount float64, currency string) (*PaymentOrder, error) {
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if currency == "" {
		currency = "INR"
	}

	body := map[string]interface{}{
		"amount":   int64(amount * 100), // provider wants minor units
		"currency": currency,
		"receipt":  orderID.String(),
		"notes": map[string]string{
			"tenant_id": tenantID.String(),
			"order_id":  orderID.String(),
		},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/orders", bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.apiKey, s.apiSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("payment provider returned %d: %s", resp.StatusCode, respBody)
	}

	var order PaymentOrder
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifyWebhookSignature checks the provider's HMAC-SHA256 signature
// over the raw body. Constant-time comparison.
func (s *paymentService) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *paymentService) ParseWebhookEvent(rawBody []byte) (*WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, err
	}

	notes := payload.Payload.Order.Entity.Notes
	tenantID, err := uuid.Parse(notes.TenantID)
	if err != nil {
		return nil, errors.New("webhook payload has no tenant_id note")
	}
	orderID, err := uuid.Parse(notes.OrderID)
	if err != nil {
		return nil, errors.New("webhook payload has no order_id note")
	}

	return &WebhookEvent{
		ID:       payload.ID,
		Event:    payload.Event,
		TenantID: tenantID,
		OrderID:  orderID,
		Amount:   payload.Payload.Order.Entity.Amount / 100,
	}, nil
}
