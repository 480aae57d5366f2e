package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusticketing/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestHostedCheckoutOpen(t *testing.T) {
	var got checkoutRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	checkout := NewHostedCheckout(srv.URL, srv.Client())
	order := &domain.PaymentOrder{OrderID: "order_1", Amount: 500, Currency: "INR", GatewayKey: "key_1"}
	prefill := domain.Prefill{Name: "Asha Rao", Email: "asha@college.edu", Contact: "9999999999"}

	require.NoError(t, checkout.Open(context.Background(), order, prefill))
	require.Equal(t, "order_1", got.OrderID)
	require.Equal(t, int64(500), got.Amount)
	require.Equal(t, "key_1", got.Key)
	require.Equal(t, "Asha Rao", got.Prefill.Name)
}

func TestHostedCheckoutOpenFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	checkout := NewHostedCheckout(srv.URL, srv.Client())
	order := &domain.PaymentOrder{OrderID: "order_1", Amount: 500}

	err := checkout.Open(context.Background(), order, domain.Prefill{})
	require.ErrorIs(t, err, domain.ErrGatewayFailed)

	srv.Close()
	err = checkout.Open(context.Background(), order, domain.Prefill{})
	require.ErrorIs(t, err, domain.ErrGatewayFailed)
}
