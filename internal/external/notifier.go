package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bilet/internal/models"
)

// NotifierClient delivers purchase confirmations to the notification
// collaborator. Delivery is fire-and-forget: callers log failures and move on.
type NotifierClient struct {
	baseURL    string
	httpClient *http.Client
}

type NotifierConfig struct {
	BaseURL string
	Timeout time.Duration
}

type PurchaseConfirmation struct {
	UserEmail     string                  `json:"user_email"`
	UserName      string                  `json:"user_name"`
	EventTitle    string                  `json:"event_title"`
	EventVenue    string                  `json:"event_venue"`
	EventStartsAt time.Time               `json:"event_starts_at"`
	ReservationID int64                   `json:"reservation_id"`
	Amount        string                  `json:"amount"`
	Tickets       []models.TicketResponse `json:"tickets"`
}

func NewNotifierClient(cfg NotifierConfig) *NotifierClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &NotifierClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SendPurchaseConfirmation posts the confirmation payload. A non-2xx response
// is an error; the caller decides whether that matters.
func (nc *NotifierClient) SendPurchaseConfirmation(confirmation *PurchaseConfirmation) error {
	body, err := json.Marshal(confirmation)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation: %w", err)
	}

	resp, err := nc.httpClient.Post(nc.baseURL+"/api/v1/notifications/purchase", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("confirmation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("confirmation request returned status %d", resp.StatusCode)
	}

	return nil
}
