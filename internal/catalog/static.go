package catalog

import (
	"context"
	"fmt"
	"sync"
)

// StaticProvider serves catalog data from memory. It backs local development
// and tests; in production the same data would come from the menu service.
type StaticProvider struct {
	mu             sync.RWMutex
	items          map[string]Item
	addresses      map[string][]Address // keyed by user ID
	deliveryOpts   []DeliveryOption
	paymentMethods map[string][]PaymentMethod
	defaults       map[string]Defaults
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		items:          make(map[string]Item),
		addresses:      make(map[string][]Address),
		paymentMethods: make(map[string][]PaymentMethod),
		defaults:       make(map[string]Defaults),
	}
}

func (p *StaticProvider) AddItem(item Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[item.ID] = item
}

func (p *StaticProvider) SetAddresses(userID string, addrs []Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addresses[userID] = addrs
}

func (p *StaticProvider) SetDeliveryOptions(opts []DeliveryOption) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deliveryOpts = opts
}

func (p *StaticProvider) SetPaymentMethods(userID string, methods []PaymentMethod) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paymentMethods[userID] = methods
}

func (p *StaticProvider) SetDefaults(userID string, d Defaults) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaults[userID] = d
}

func (p *StaticProvider) Item(_ context.Context, id string) (*Item, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	item, ok := p.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return &item, nil
}

func (p *StaticProvider) Addresses(_ context.Context, userID string) ([]Address, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Address(nil), p.addresses[userID]...), nil
}

func (p *StaticProvider) DeliveryOptions(_ context.Context) ([]DeliveryOption, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]DeliveryOption(nil), p.deliveryOpts...), nil
}

func (p *StaticProvider) PaymentMethods(_ context.Context, userID string) ([]PaymentMethod, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]PaymentMethod(nil), p.paymentMethods[userID]...), nil
}

func (p *StaticProvider) Defaults(_ context.Context, userID string) (*Defaults, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.defaults[userID]
	if !ok {
		// A user with no stored defaults still gets a session; the draft
		// starts with nothing selected except the resolved delivery option.
		return &Defaults{}, nil
	}
	return &d, nil
}
