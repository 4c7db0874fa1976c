// Package notify delivers order notifications to the staff mailbox through an
// external form relay. Delivery is best effort, a relay outage never blocks or
// fails a checkout.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"vecar-shop/internal/models"
	"vecar-shop/internal/util"
)

// Relay submits order summaries as form posts to the configured relay URL.
type Relay struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewRelay creates a relay targeting the given endpoint.
func NewRelay(relayURL string, timeout time.Duration, logger *zap.Logger) *Relay {
	return &Relay{
		url:    relayURL,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// SendOrderPlaced posts the order summary to the relay endpoint.
func (r *Relay) SendOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	if r.url == "" {
		return nil
	}

	form := buildOrderForm(event)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, strings.NewReader(form.Encode()))
	if err != nil {
		util.NotificationRelayTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		util.NotificationRelayTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		util.NotificationRelayTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("relay rejected submission: status %d", resp.StatusCode)
	}

	util.NotificationRelayTotal.WithLabelValues("sent").Inc()
	r.logger.Info("Order notification relayed",
		zap.Int64("order_id", event.OrderID),
		zap.String("total", util.FormatGuarani(event.Total)))
	return nil
}

// buildOrderForm flattens the order into the field layout the mailbox template
// expects: one block of order fields plus numbered product fields.
func buildOrderForm(event *models.OrderPlacedEvent) url.Values {
	form := url.Values{}
	form.Set("_subject", fmt.Sprintf("Nuevo pedido #%d", event.OrderID))
	form.Set("orderId", strconv.FormatInt(event.OrderID, 10))
	form.Set("userId", event.UserID)
	form.Set("total", util.FormatGuarani(event.Total))
	form.Set("paymentMethod", event.PaymentMethod)
	form.Set("paymentStatus", event.PaymentStatus)
	form.Set("date", util.FormatDate(event.Timestamp))

	if event.Delivery != nil {
		form.Set("deliveryOption", event.Delivery.Type)
		form.Set("whatsapp", event.Delivery.Whatsapp)
	}

	for i, item := range event.Items {
		n := i + 1
		form.Set(fmt.Sprintf("product_%d_name", n), item.Name)
		form.Set(fmt.Sprintf("product_%d_quantity", n), strconv.Itoa(item.Quantity))
		form.Set(fmt.Sprintf("product_%d_price", n), util.FormatGuarani(item.UnitPrice))
	}

	return form
}
