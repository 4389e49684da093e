package taxjar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TaxJar API base URLs. Which one applies is a per-channel setting.
const (
	LiveBaseURL    = "https://api.taxjar.com/v2"
	SandboxBaseURL = "https://api.sandbox.taxjar.com/v2"
)

// Credentials select the endpoint and token for one request. They are passed
// per call because channels switch between live and sandbox independently.
type Credentials struct {
	BaseURL string
	Token   string
}

// APIError is a non-2xx answer from the TaxJar API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("taxjar: status %d: %s", e.StatusCode, e.Detail)
}

// Client is a thin TaxJar v2 API client covering the endpoints this service
// uses: order tax calculation and customer profile management.
type Client struct {
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		log:        log.Named("taxjar.client"),
	}
}

// OrderLineItem is one line of an order tax request.
type OrderLineItem struct {
	ID        string          `json:"id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
}

// OrderTaxRequest is the body of a POST /taxes call.
type OrderTaxRequest struct {
	Shipping  decimal.Decimal `json:"shipping"`
	LineItems []OrderLineItem `json:"line_items"`
}

// OrderTaxResult is the decoded answer of a POST /taxes call. LineItemTaxes
// is keyed by the request line item id. ShippingTax and Rate stay nil when
// the breakdown omitted them.
type OrderTaxResult struct {
	LineItemTaxes map[string]decimal.Decimal
	ShippingTax   *decimal.Decimal
	Rate          *decimal.Decimal
}

type taxForOrderResponse struct {
	Tax struct {
		Rate      *decimal.Decimal `json:"rate"`
		Breakdown *struct {
			Shipping *struct {
				TaxCollectable *decimal.Decimal `json:"tax_collectable"`
			} `json:"shipping"`
			LineItems []struct {
				ID             string           `json:"id"`
				TaxCollectable *decimal.Decimal `json:"tax_collectable"`
			} `json:"line_items"`
		} `json:"breakdown"`
	} `json:"tax"`
}

// TaxForOrder computes sales tax for one order batch.
func (c *Client) TaxForOrder(ctx context.Context, creds Credentials, req OrderTaxRequest) (OrderTaxResult, error) {
	var decoded taxForOrderResponse
	if err := c.do(ctx, creds, http.MethodPost, "/taxes", req, &decoded); err != nil {
		return OrderTaxResult{}, err
	}

	result := OrderTaxResult{
		LineItemTaxes: map[string]decimal.Decimal{},
		Rate:          decoded.Tax.Rate,
	}

	breakdown := decoded.Tax.Breakdown
	if breakdown == nil {
		return result, nil
	}

	if breakdown.Shipping != nil && breakdown.Shipping.TaxCollectable != nil {
		result.ShippingTax = breakdown.Shipping.TaxCollectable
	}
	for _, item := range breakdown.LineItems {
		if item.ID == "" || item.TaxCollectable == nil {
			continue
		}
		result.LineItemTaxes[item.ID] = *item.TaxCollectable
	}

	return result, nil
}

// ExemptRegion is one state a customer is exempt in.
type ExemptRegion struct {
	Country string `json:"country"`
	State   string `json:"state"`
}

// CustomerProfile is the body of customer create and update calls.
type CustomerProfile struct {
	CustomerID    string         `json:"customer_id"`
	ExemptionType string         `json:"exemption_type"`
	ExemptRegions []ExemptRegion `json:"exempt_regions"`
	Name          string         `json:"name"`
}

// CreateCustomer registers a new customer profile.
func (c *Client) CreateCustomer(ctx context.Context, creds Credentials, profile CustomerProfile) error {
	return c.do(ctx, creds, http.MethodPost, "/customers/", profile, nil)
}

// UpdateCustomer overwrites an existing customer profile.
func (c *Client) UpdateCustomer(ctx context.Context, creds Credentials, customerID string, profile CustomerProfile) error {
	return c.do(ctx, creds, http.MethodPut, "/customers/"+url.PathEscape(customerID), profile, nil)
}

func (c *Client) do(ctx context.Context, creds Credentials, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("taxjar: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, creds.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("taxjar: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.Token)
	// The upstream integration sends the token on both headers; kept so the
	// request shape stays byte-compatible.
	req.Header.Set("X-CSRF-Token", creds.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("taxjar: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("taxjar: read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail := decodeErrorDetail(raw)
		c.log.Debug("api call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("taxjar: decode response: %w", err)
	}
	return nil
}

func decodeErrorDetail(raw []byte) string {
	var body struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return "unknown error"
}
