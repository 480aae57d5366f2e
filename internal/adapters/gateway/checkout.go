package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"campusticketing/internal/domain"
)

type hostedCheckout struct {
	baseURL string
	client  *http.Client
}

// NewHostedCheckout returns a CheckoutOpener that hands the order to the
// hosted gateway widget at baseURL. Open only starts the checkout; the
// gateway reports its outcome asynchronously through the payment session's
// callback endpoints.
func NewHostedCheckout(baseURL string, client *http.Client) domain.CheckoutOpener {
	if client == nil {
		client = http.DefaultClient
	}
	return &hostedCheckout{baseURL: baseURL, client: client}
}

type checkoutRequest struct {
	OrderID  string         `json:"order_id"`
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Key      string         `json:"key"`
	Prefill  domain.Prefill `json:"prefill"`
}

func (c *hostedCheckout) Open(ctx context.Context, order *domain.PaymentOrder, prefill domain.Prefill) error {
	body, err := json.Marshal(checkoutRequest{
		OrderID:  order.OrderID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Key:      order.GatewayKey,
		Prefill:  prefill,
	})
	if err != nil {
		return fmt.Errorf("failed to encode checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGatewayFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: gateway returned status %d", domain.ErrGatewayFailed, resp.StatusCode)
	}
	return nil
}
