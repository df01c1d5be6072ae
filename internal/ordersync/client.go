// Package ordersync talks to the remote order service. Client is the
// request/response HTTP edge; Adapter turns session mutations into background
// calls with stale-result discard and a single-flight submission.
package ordersync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/quickbite/checkout-service/internal/checkout"
)

var (
	ErrRemoteUnavailable = errors.New("ordersync: remote order service unavailable")
	ErrRemoteRejected    = errors.New("ordersync: remote order service rejected the request")
)

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the remote order service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
}

func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("ordersync: invalid base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
			},
		},
	}, nil
}

type createDraftRequest struct {
	UserID string `json:"user_id"`
}

type createDraftResponse struct {
	OrderID string `json:"order_id"`
}

// CreateDraft opens a new draft order for the user and returns its id.
func (c *Client) CreateDraft(ctx context.Context, userID string) (string, error) {
	var out createDraftResponse
	if err := c.do(ctx, http.MethodPost, "/orders", createDraftRequest{UserID: userID}, &out); err != nil {
		return "", err
	}
	if out.OrderID == "" {
		return "", fmt.Errorf("%w: empty order id", ErrRemoteRejected)
	}
	return out.OrderID, nil
}

type selectionRequest struct {
	AddressID       string `json:"address_id,omitempty"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
}

// UpdateAddress persists the address selection. The service may return a
// re-priced tax amount for the new delivery location.
func (c *Client) UpdateAddress(ctx context.Context, orderID, addressID string) (checkout.SelectionAck, error) {
	var ack checkout.SelectionAck
	path := fmt.Sprintf("/orders/%s/address", url.PathEscape(orderID))
	err := c.do(ctx, http.MethodPut, path, selectionRequest{AddressID: addressID}, &ack)
	return ack, err
}

// UpdatePaymentMethod persists the payment method selection.
func (c *Client) UpdatePaymentMethod(ctx context.Context, orderID, methodID string) error {
	path := fmt.Sprintf("/orders/%s/payment-method", url.PathEscape(orderID))
	return c.do(ctx, http.MethodPut, path, selectionRequest{PaymentMethodID: methodID}, nil)
}

type promoRequest struct {
	Code string `json:"code"`
}

// ApplyPromoCode asks the service to validate a code. An invalid code is a
// normal result, not an error: the verdict comes back in PromoResult.
func (c *Client) ApplyPromoCode(ctx context.Context, orderID, code string) (checkout.PromoResult, error) {
	var res checkout.PromoResult
	path := fmt.Sprintf("/orders/%s/promo-code", url.PathEscape(orderID))
	err := c.do(ctx, http.MethodPost, path, promoRequest{Code: code}, &res)
	if err != nil {
		var rejection *rejectionError
		if errors.As(err, &rejection) {
			// 422 carries the structured rejection.
			return checkout.PromoResult{Valid: false, Reason: rejection.Message}, nil
		}
		return checkout.PromoResult{}, err
	}
	return res, nil
}

// Submit places the order and returns the confirmation.
func (c *Client) Submit(ctx context.Context, orderID string, req checkout.SubmitRequest) (checkout.Confirmation, error) {
	var conf checkout.Confirmation
	path := fmt.Sprintf("/orders/%s/submit", url.PathEscape(orderID))
	err := c.do(ctx, http.MethodPost, path, req, &conf)
	return conf, err
}

// rejectionError is a structured 4xx refusal from the service.
type rejectionError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *rejectionError) Error() string {
	return fmt.Sprintf("%v: %s (%s)", ErrRemoteRejected, e.Message, e.Code)
}

func (e *rejectionError) Unwrap() error { return ErrRemoteRejected }

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("ordersync: failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), &buf)
	if err != nil {
		return fmt.Errorf("ordersync: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("ordersync: failed to decode response: %w", err)
		}
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		rejection := &rejectionError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(rejection); err != nil || rejection.Message == "" {
			rejection.Message = fmt.Sprintf("request refused with status %d", resp.StatusCode)
		}
		return rejection
	default:
		return fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode)
	}
}
