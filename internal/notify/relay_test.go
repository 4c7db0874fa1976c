package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vecar-shop/internal/models"
)

func placedEvent() *models.OrderPlacedEvent {
	return &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC),
		},
		OrderID:       42,
		UserID:        "user-1",
		Total:         210000,
		PaymentMethod: models.PaymentMethodCash,
		PaymentStatus: models.PaymentStatusPending,
		Delivery: &models.DeliveryInfo{
			Type:     models.DeliveryTypeDelivery,
			Whatsapp: "+595991234567",
		},
		Items: []models.OrderLineData{
			{ProductID: "p1", Name: "Cubierta 175/70 R13", Quantity: 2, UnitPrice: 80000},
			{ProductID: "p2", Name: "Llanta R13", Quantity: 1, UnitPrice: 50000},
		},
	}
}

func TestSendOrderPlaced(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = map[string]string{}
		for k := range r.PostForm {
			got[k] = r.PostForm.Get(k)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	relay := NewRelay(server.URL, 2*time.Second, zap.NewNop())
	err := relay.SendOrderPlaced(context.Background(), placedEvent())
	require.NoError(t, err)

	assert.Equal(t, "42", got["orderId"])
	assert.Equal(t, "user-1", got["userId"])
	assert.Equal(t, models.PaymentMethodCash, got["paymentMethod"])
	assert.Equal(t, models.DeliveryTypeDelivery, got["deliveryOption"])
	assert.Equal(t, "+595991234567", got["whatsapp"])
	assert.Equal(t, "Cubierta 175/70 R13", got["product_1_name"])
	assert.Equal(t, "2", got["product_1_quantity"])
	assert.Equal(t, "Llanta R13", got["product_2_name"])
	assert.Contains(t, got["total"], "210")
}

func TestSendOrderPlacedRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	relay := NewRelay(server.URL, 2*time.Second, zap.NewNop())
	err := relay.SendOrderPlaced(context.Background(), placedEvent())
	assert.Error(t, err)
}

func TestSendOrderPlacedUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	relay := NewRelay(server.URL, time.Second, zap.NewNop())
	err := relay.SendOrderPlaced(context.Background(), placedEvent())
	assert.Error(t, err)
}

func TestSendOrderPlacedNoRelayConfigured(t *testing.T) {
	relay := NewRelay("", time.Second, zap.NewNop())
	err := relay.SendOrderPlaced(context.Background(), placedEvent())
	assert.NoError(t, err)
}

func TestSendOrderPlacedPickupOmitsDelivery(t *testing.T) {
	event := placedEvent()
	event.Delivery = &models.DeliveryInfo{Type: models.DeliveryTypePickup}

	form := buildOrderForm(event)
	assert.Equal(t, models.DeliveryTypePickup, form.Get("deliveryOption"))
	assert.Empty(t, form.Get("whatsapp"))
}
