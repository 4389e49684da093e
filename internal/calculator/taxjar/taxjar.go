package taxjar

import (
	"context"
	"errors"

	"github.com/smallbiznis/taxbridge/internal/calculator"
	"github.com/smallbiznis/taxbridge/internal/checkout"
	"github.com/smallbiznis/taxbridge/internal/config"
	taxjarapi "github.com/smallbiznis/taxbridge/internal/taxjar"
	"go.uber.org/zap"
)

// CalculatorName is the value tax provider records use to select this
// implementation.
const CalculatorName = "taxjar"

var ErrChannelDisabled = errors.New("channel_disabled")

// Calculator computes tax through the TaxJar API. Credentials are resolved
// per sales channel at call time so a config reload takes effect without a
// restart.
type Calculator struct {
	client   *taxjarapi.Client
	channels *config.ChannelConfigHolder
	log      *zap.Logger
}

func New(client *taxjarapi.Client, channels *config.ChannelConfigHolder, log *zap.Logger) *Calculator {
	return &Calculator{
		client:   client,
		channels: channels,
		log:      log.Named("calculator.taxjar"),
	}
}

func (c *Calculator) Name() string { return CalculatorName }

func (c *Calculator) Calculate(ctx context.Context, channelID string, items []calculator.RequestItem, cart *checkout.Cart) (calculator.Response, error) {
	if len(items) == 0 {
		return calculator.Response{}, calculator.ErrEmptyBatch
	}

	settings := c.channels.Get(channelID)
	if !settings.Enabled {
		return calculator.Response{}, ErrChannelDisabled
	}

	req := taxjarapi.OrderTaxRequest{
		LineItems: make([]taxjarapi.OrderLineItem, 0, len(items)),
	}
	if cart != nil && cart.Shipping != nil {
		req.Shipping = cart.Shipping.TotalPrice
	}
	for _, item := range items {
		req.LineItems = append(req.LineItems, taxjarapi.OrderLineItem{
			ID:        item.ID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
		})
	}

	result, err := c.client.TaxForOrder(ctx, credentials(settings), req)
	if err != nil {
		return calculator.Response{}, err
	}

	return calculator.Response{
		Amounts:     result.LineItemTaxes,
		ShippingTax: result.ShippingTax,
		Rate:        result.Rate,
	}, nil
}

func credentials(settings config.ChannelSettings) taxjarapi.Credentials {
	base := taxjarapi.LiveBaseURL
	if settings.Sandbox {
		base = taxjarapi.SandboxBaseURL
	}
	if settings.BaseURL != "" {
		base = settings.BaseURL
	}
	return taxjarapi.Credentials{BaseURL: base, Token: settings.ActiveToken()}
}
