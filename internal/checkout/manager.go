package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/quickbite/checkout-service/internal/catalog"
)

// BeginFunc opens an order draft on the remote service and returns its id
// together with the sync adapter bound to it. Wired from main as a closure
// over the ordersync client.
type BeginFunc func(ctx context.Context, userID string) (orderID string, sync Sync, err error)

// Manager creates and tracks checkout sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	catalog   catalog.Provider
	begin     BeginFunc
	taxRate   decimal.Decimal
	extraSink Sink
}

func NewManager(provider catalog.Provider, begin BeginFunc, taxRate decimal.Decimal, extraSink Sink) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		catalog:   provider,
		begin:     begin,
		taxRate:   taxRate,
		extraSink: extraSink,
	}
}

// Begin resolves the user's selectable lists and server-chosen defaults,
// opens a remote draft and starts a session seeded from the defaults.
func (m *Manager) Begin(ctx context.Context, userID string) (*Session, error) {
	addresses, err := m.catalog.Addresses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("manager: failed to load addresses: %w", err)
	}
	payments, err := m.catalog.PaymentMethods(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("manager: failed to load payment methods: %w", err)
	}
	deliveries, err := m.catalog.DeliveryOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("manager: failed to load delivery options: %w", err)
	}
	defaults, err := m.catalog.Defaults(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("manager: failed to load checkout defaults: %w", err)
	}

	orderID, syncAdapter, err := m.begin(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("manager: failed to open remote order draft: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		syncAdapter.Close()
		return nil, fmt.Errorf("manager: failed to generate session id: %w", err)
	}

	s := newSession(sessionSeed{
		id:         id.String(),
		userID:     userID,
		orderID:    orderID,
		catalog:    m.catalog,
		addresses:  addresses,
		payments:   payments,
		deliveries: deliveries,
		defaults:   *defaults,
		sync:       syncAdapter,
		extraSink:  m.extraSink,
		taxRate:    m.taxRate,
	})

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	log.Info().Str("session_id", s.id).Str("order_id", orderID).Str("user_id", userID).Msg("Checkout session started")
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Discard ends a session (navigation away) and forgets it. In-flight sync
// results for it are cancelled and ignored.
func (m *Manager) Discard(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Discard()
	log.Info().Str("session_id", id).Msg("Checkout session discarded")
	return nil
}
