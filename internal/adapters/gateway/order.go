package gateway

import (
	"encoding/json"
	"fmt"

	"campusticketing/internal/domain"
)

// orderDTO accepts both key spellings the backend has been seen to use.
type orderDTO struct {
	OrderID    string `json:"order_id"`
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	GatewayKey string `json:"gateway_key"`
	Key        string `json:"key"`
	Receipt    string `json:"receipt"`
}

// orderEnvelope accepts the nested {"order": {...}} shape.
type orderEnvelope struct {
	Order *orderDTO `json:"order"`
}

// NormalizeOrder decodes an order-creation response into one canonical
// PaymentOrder. The backend returns either a flat order object or one nested
// under an "order" key; both converge here so the payment state machine never
// sees the difference.
func NormalizeOrder(raw json.RawMessage) (*domain.PaymentOrder, error) {
	var env orderEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Order != nil {
		return fromDTO(env.Order)
	}

	var dto orderDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	return fromDTO(&dto)
}

func fromDTO(dto *orderDTO) (*domain.PaymentOrder, error) {
	order := &domain.PaymentOrder{
		OrderID:    dto.OrderID,
		Amount:     dto.Amount,
		Currency:   dto.Currency,
		GatewayKey: dto.GatewayKey,
		Receipt:    dto.Receipt,
	}
	if order.OrderID == "" {
		order.OrderID = dto.ID
	}
	if order.GatewayKey == "" {
		order.GatewayKey = dto.Key
	}
	if order.OrderID == "" {
		return nil, fmt.Errorf("order response is missing an order id")
	}
	if order.Amount <= 0 {
		return nil, fmt.Errorf("order response has invalid amount %d", order.Amount)
	}
	return order, nil
}
