package venue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"atc/internal/md"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
)

// Client routes orders through the Alpaca trading API. The market center on
// the intent is advisory here; Alpaca handles its own routing, so the center
// is logged and carried on the client order ID side only.
type Client struct {
	client *alpaca.Client
}

func NewClient(apiKey, apiSecret, baseURL string) *Client {
	opts := alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	}
	return &Client{client: alpaca.NewClient(opts)}
}

func (c *Client) Submit(ctx context.Context, intent OrderIntent) (OrderRef, error) {
	qty := decimal.NewFromInt(int64(intent.Qty))
	limitPrice := decimal.NewFromFloat(intent.LimitPrice)
	req := alpaca.PlaceOrderRequest{
		Symbol:        intent.Symbol,
		Qty:           &qty,
		Side:          alpaca.Side(intent.Side),
		Type:          alpaca.Limit,
		TimeInForce:   alpaca.Day,
		LimitPrice:    &limitPrice,
		ClientOrderID: intent.ClientOrderID,
	}

	order, err := c.client.PlaceOrder(req)
	if err != nil {
		slog.Error("place order failed", "symbol", intent.Symbol, "side", intent.Side, "qty", intent.Qty, "limit", intent.LimitPrice, "center", intent.Center, "error", err)
		return OrderRef{}, err
	}

	slog.Info("place order success", "order_id", order.ID, "symbol", intent.Symbol, "side", intent.Side, "qty", intent.Qty, "limit", intent.LimitPrice, "center", intent.Center, "status", order.Status)
	return OrderRef{
		ID:            order.ID,
		ClientOrderID: order.ClientOrderID,
		Status:        string(order.Status),
	}, nil
}

func (c *Client) Cancel(ctx context.Context, orderID string) error {
	if err := c.client.CancelOrder(orderID); err != nil {
		slog.Error("cancel order failed", "order_id", orderID, "error", err)
		return err
	}
	slog.Info("cancel order sent", "order_id", orderID)
	return nil
}

func (c *Client) CancelReplace(ctx context.Context, orderID string, newPrice float64) error {
	limitPrice := decimal.NewFromFloat(newPrice)
	req := alpaca.ReplaceOrderRequest{LimitPrice: &limitPrice}
	order, err := c.client.ReplaceOrder(orderID, req)
	if err != nil {
		slog.Error("replace order failed", "order_id", orderID, "limit", newPrice, "error", err)
		return err
	}
	slog.Info("replace order sent", "order_id", orderID, "new_order_id", order.ID, "limit", newPrice)
	return nil
}

func (c *Client) CancelAll(ctx context.Context) error {
	if err := c.client.CancelAllOrders(); err != nil {
		slog.Error("cancel all orders failed", "error", err)
		return err
	}
	slog.Info("cancel all orders sent")
	return nil
}

// Position returns the signed position for a symbol; a 404 from the API
// means flat.
func (c *Client) Position(ctx context.Context, symbol string) (int, error) {
	pos, err := c.client.GetPosition(symbol)
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return 0, nil
		}
		return 0, fmt.Errorf("fetch position %s: %w", symbol, err)
	}
	return int(pos.Qty.IntPart()), nil
}

func (c *Client) OpenOrders(ctx context.Context) ([]OrderRef, error) {
	orders, err := c.client.GetOrders(alpaca.GetOrdersRequest{Status: "open"})
	if err != nil {
		return nil, fmt.Errorf("fetch open orders: %w", err)
	}
	refs := make([]OrderRef, 0, len(orders))
	for _, order := range orders {
		refs = append(refs, OrderRef{
			ID:            order.ID,
			ClientOrderID: order.ClientOrderID,
			Status:        string(order.Status),
		})
	}
	return refs, nil
}

// Account returns current equity and buying power.
func (c *Client) Account(ctx context.Context) (float64, float64, error) {
	acct, err := c.client.GetAccount()
	if err != nil {
		return 0, 0, fmt.Errorf("fetch account: %w", err)
	}
	equity, _ := acct.Equity.Float64()
	buyingPower, _ := acct.BuyingPower.Float64()
	return equity, buyingPower, nil
}

// StreamOrderUpdates subscribes to trade updates and forwards each one as an
// order update event. Blocks until ctx is cancelled.
func (c *Client) StreamOrderUpdates(ctx context.Context, handler func(md.OrderUpdateEvent)) error {
	return c.client.StreamTradeUpdates(ctx, func(tu alpaca.TradeUpdate) {
		handler(md.OrderUpdateEvent{
			OrderID:   tu.Order.ID,
			Symbol:    tu.Order.Symbol,
			Status:    tu.Event,
			Completes: terminalEvent(tu.Event),
			Time:      tu.At,
		})
	}, alpaca.StreamTradeUpdatesRequest{})
}

func terminalEvent(event string) bool {
	switch event {
	case "fill", "canceled", "rejected", "expired", "done_for_day":
		return true
	}
	return false
}
