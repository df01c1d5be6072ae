package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbite/checkout-service/internal/catalog"
	"github.com/quickbite/checkout-service/internal/checkout"
	"github.com/quickbite/checkout-service/internal/handler"
	"github.com/quickbite/checkout-service/internal/pricing"
	"github.com/quickbite/checkout-service/internal/transport"
)

// noopSync satisfies checkout.Sync without ever completing, which keeps the
// handler tests synchronous: the optimistic local state is what gets asserted.
type noopSync struct{}

func (noopSync) PushAddress(_, _ string, _ uint64, _ func(checkout.SelectionAck, error, uint64)) {}
func (noopSync) PushPaymentMethod(_, _ string, _ uint64, _ func(error, uint64))                  {}
func (noopSync) PushPromoCode(_, _ string, _ uint64, _ func(checkout.PromoResult, error, uint64)) {
}
func (noopSync) SubmitOrder(_ string, _ checkout.SubmitRequest, _ func(checkout.Confirmation, error)) bool {
	return true
}
func (noopSync) Close() {}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	p := catalog.NewStaticProvider()
	p.AddItem(catalog.Item{
		ID:        "item-pizza",
		Name:      "Pizza",
		BasePrice: decimal.RequireFromString("10.00"),
		AddOns:    []catalog.AddOn{{Name: "Extra Cheese", Price: decimal.RequireFromString("2.00")}},
	})
	p.SetAddresses("user-1", []catalog.Address{{ID: "addr-1", Label: "Home"}})
	p.SetPaymentMethods("user-1", []catalog.PaymentMethod{{ID: "pm-1", Kind: catalog.PaymentCard, Label: "Visa"}})
	p.SetDeliveryOptions([]catalog.DeliveryOption{
		{ID: "delivery-standard", Name: "Standard", Fee: decimal.RequireFromString("5.00"), Default: true},
	})

	begin := func(ctx context.Context, userID string) (string, checkout.Sync, error) {
		return "order-1", noopSync{}, nil
	}
	m := checkout.NewManager(p, begin, pricing.FallbackTaxRate, nil)

	srv := httptest.NewServer(transport.NewRouter(handler.NewCheckoutHandler(m)))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, checkout.View) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var view checkout.View
	if resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	}
	return resp, view
}

func beginSession(t *testing.T, srv *httptest.Server) checkout.View {
	t.Helper()
	resp, view := doJSON(t, http.MethodPost, srv.URL+"/checkout", `{"user_id":"user-1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, view.SessionID)
	return view
}

func TestCheckoutFlow(t *testing.T) {
	srv := newTestServer(t)
	view := beginSession(t, srv)
	base := srv.URL + "/checkout/" + view.SessionID

	assert.Equal(t, "delivery", view.Step)
	require.NotNil(t, view.DeliveryOption)
	assert.Equal(t, "delivery-standard", view.DeliveryOption.ID)

	// Add a configured item: $10 base + $2 addon, qty 3 = $36.00.
	resp, view := doJSON(t, http.MethodPost, base+"/items",
		`{"item_id":"item-pizza","config":{"quantity":3,"add_on_indices":[0]}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, view.Lines, 1)
	assert.True(t, view.Lines[0].LineTotal.Equal(decimal.RequireFromString("36.00")))
	assert.True(t, view.Summary.Total.Equal(decimal.RequireFromString("43.97")), "total: %s", view.Summary.Total)

	// Advancing without an address is a validation failure that does not move
	// the step.
	resp, _ = doJSON(t, http.MethodPost, base+"/advance", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp, view = doJSON(t, http.MethodGet, base+"/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "delivery", view.Step)

	resp, view = doJSON(t, http.MethodPut, base+"/address", `{"address_id":"addr-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, view.Address)

	resp, view = doJSON(t, http.MethodPost, base+"/advance", `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "payment", view.Step)

	resp, view = doJSON(t, http.MethodPut, base+"/payment-method", `{"payment_method_id":"pm-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, view = doJSON(t, http.MethodPost, base+"/advance", `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "review", view.Step)

	resp, view = doJSON(t, http.MethodPost, base+"/submit", `{}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "submitting", view.State)
}

func TestCheckoutHandler_ErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	view := beginSession(t, srv)
	base := srv.URL + "/checkout/" + view.SessionID

	tests := []struct {
		name       string
		method     string
		url        string
		body       string
		wantStatus int
	}{
		{
			name:       "unknown_session",
			method:     http.MethodGet,
			url:        srv.URL + "/checkout/nope/",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid_json",
			method:     http.MethodPut,
			url:        base + "/address",
			body:       `{bad`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown_address",
			method:     http.MethodPut,
			url:        base + "/address",
			body:       `{"address_id":"addr-unknown"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown_catalog_item",
			method:     http.MethodPost,
			url:        base + "/items",
			body:       `{"item_id":"item-unknown","config":{"quantity":1}}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "negative_tip",
			method:     http.MethodPut,
			url:        base + "/tip",
			body:       `{"amount":"-2.00"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown_line_item",
			method:     http.MethodPut,
			url:        base + "/items/nope",
			body:       `{"quantity":2}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "missing_user_id",
			method:     http.MethodPost,
			url:        srv.URL + "/checkout",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, tt.method, tt.url, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestCheckoutHandler_QuantityNoOpAndRemoval(t *testing.T) {
	srv := newTestServer(t)
	view := beginSession(t, srv)
	base := srv.URL + "/checkout/" + view.SessionID

	resp, view := doJSON(t, http.MethodPost, base+"/items",
		`{"item_id":"item-pizza","config":{"quantity":2}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	lineID := view.Lines[0].ID

	// Decrement below one leaves the quantity unchanged and succeeds.
	resp, view = doJSON(t, http.MethodPut, base+"/items/"+lineID, `{"quantity":0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, view.Lines[0].Quantity)

	resp, view = doJSON(t, http.MethodDelete, base+"/items/"+lineID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, view.Lines)
}

func TestCheckoutHandler_Discard(t *testing.T) {
	srv := newTestServer(t)
	view := beginSession(t, srv)
	base := srv.URL + "/checkout/" + view.SessionID

	resp, _ := doJSON(t, http.MethodDelete, base+"/", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, base+"/", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
