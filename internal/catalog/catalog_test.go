package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbite/checkout-service/internal/catalog"
)

func TestResolveDefaultDelivery(t *testing.T) {
	standard := catalog.DeliveryOption{ID: "standard", Name: "Standard", Fee: decimal.RequireFromString("5.00")}
	express := catalog.DeliveryOption{ID: "express", Name: "Express", Fee: decimal.RequireFromString("9.00"), Default: true}

	tests := []struct {
		name   string
		opts   []catalog.DeliveryOption
		wantID string
		wantOK bool
	}{
		{
			name:   "flagged_default_wins",
			opts:   []catalog.DeliveryOption{standard, express},
			wantID: "express",
			wantOK: true,
		},
		{
			name:   "first_option_when_none_flagged",
			opts:   []catalog.DeliveryOption{standard, {ID: "pickup", Name: "Pickup"}},
			wantID: "standard",
			wantOK: true,
		},
		{
			name:   "empty_list",
			opts:   nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := catalog.ResolveDefaultDelivery(tt.opts)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}

func TestStaticProvider(t *testing.T) {
	ctx := context.Background()
	p := catalog.NewStaticProvider()

	item := catalog.Item{ID: "item-1", Name: "Burger", BasePrice: decimal.RequireFromString("8.00")}
	p.AddItem(item)
	p.SetAddresses("user-1", []catalog.Address{{ID: "addr-1", Label: "Home"}})
	p.SetDefaults("user-1", catalog.Defaults{AddressID: "addr-1"})

	got, err := p.Item(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Burger", got.Name)

	_, err = p.Item(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)

	addrs, err := p.Addresses(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, addrs, 1)

	defaults, err := p.Defaults(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "addr-1", defaults.AddressID)

	// Unknown users still get empty defaults, not an error.
	defaults, err = p.Defaults(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, defaults.AddressID)
}
