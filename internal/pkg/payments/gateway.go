package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ShopForgeHQ/shopforge/internal/pkg/env"
	"github.com/google/uuid"
)

const defaultGatewayAPIBaseURL = "https://api.stripe.com"

// Write calls block up to 30s, session fetches run under a tighter 10s
// deadline because the fallback path sits on a user-facing request.
const (
	gatewayWriteTimeout = 30 * time.Second
	gatewayReadTimeout  = 10 * time.Second
)

// GatewayAPI is the payment gateway surface the services depend on.
type GatewayAPI interface {
	CreateCustomer(ctx context.Context, email, name string, userID uint) (*GatewayCustomer, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

// GatewayCustomer is the subset of the gateway customer object we consume.
type GatewayCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SessionLineItem is one priced line of a checkout session.
type SessionLineItem struct {
	Name       string
	UnitAmount int64 // minor units (cents)
	Quantity   int
}

// CheckoutSessionParams describes a session creation request.
type CheckoutSessionParams struct {
	Mode       string // "payment" or "subscription"
	CustomerID string
	SuccessURL string
	CancelURL  string
	LineItems  []SessionLineItem
	Metadata   map[string]string
}

// GatewayClient performs signed HTTP calls against the billing API.
type GatewayClient struct {
	SecretKey  string
	BaseURL    string
	HTTPClient *http.Client
}

// NewGatewayClientFromEnv builds a client from injected environment config.
func NewGatewayClientFromEnv() *GatewayClient {
	return &GatewayClient{
		SecretKey: strings.TrimSpace(env.GetEnv("GATEWAY_SECRET_KEY", "")),
		BaseURL:   strings.TrimRight(env.GetEnv("GATEWAY_API_BASE_URL", defaultGatewayAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: gatewayWriteTimeout,
		},
	}
}

func (c *GatewayClient) CreateCustomer(ctx context.Context, email, name string, userID uint) (*GatewayCustomer, error) {
	form := url.Values{}
	form.Set("email", strings.TrimSpace(email))
	form.Set("name", strings.TrimSpace(name))
	form.Set("metadata[user_id]", fmt.Sprintf("%d", userID))

	body, err := c.doPost(ctx, "/v1/customers", form)
	if err != nil {
		return nil, err
	}

	var out GatewayCustomer
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("gateway customer response missing id")
	}
	return &out, nil
}

func (c *GatewayClient) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	if params.Mode != "payment" && params.Mode != "subscription" {
		return nil, fmt.Errorf("unsupported checkout mode: %q", params.Mode)
	}
	if len(params.LineItems) == 0 {
		return nil, errors.New("checkout session requires at least one line item")
	}

	form := url.Values{}
	form.Set("mode", params.Mode)
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	if params.CustomerID != "" {
		form.Set("customer", params.CustomerID)
	}
	for i, item := range params.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", "eur")
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[price_data][unit_amount]", fmt.Sprintf("%d", item.UnitAmount))
		if params.Mode == "subscription" {
			form.Set(prefix+"[price_data][recurring][interval]", "month")
		}
		form.Set(prefix+"[quantity]", fmt.Sprintf("%d", item.Quantity))
	}
	for k, v := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	body, err := c.doPost(ctx, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}

	var out CheckoutSession
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("gateway session response missing id")
	}
	return &out, nil
}

func (c *GatewayClient) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, errors.New("session id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, gatewayReadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/checkout/sessions/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway session fetch failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out CheckoutSession
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GatewayClient) doPost(ctx context.Context, path string, form url.Values) ([]byte, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("GATEWAY_SECRET_KEY is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	// Gateway-side dedup for retried writes.
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway request %s failed: status=%d body=%s", path, resp.StatusCode, string(body))
	}
	return body, nil
}
