package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/quickbite/checkout-service/internal/catalog"
	"github.com/quickbite/checkout-service/internal/checkout"
	"github.com/quickbite/checkout-service/internal/config"
	"github.com/quickbite/checkout-service/internal/handler"
	"github.com/quickbite/checkout-service/internal/ordersync"
	"github.com/quickbite/checkout-service/internal/transport"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "checkout-service").Logger()

	log.Info().Msg("Checkout service starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	client, err := ordersync.NewClient(ordersync.ClientConfig{
		BaseURL: cfg.OrderService.BaseURL,
		Timeout: cfg.OrderService.SubmitTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build order service client")
	}

	begin := func(ctx context.Context, userID string) (string, checkout.Sync, error) {
		orderID, err := client.CreateDraft(ctx, userID)
		if err != nil {
			return "", nil, err
		}
		adapter := ordersync.NewAdapter(client, ordersync.AdapterConfig{
			RequestTimeout: cfg.OrderService.RequestTimeout,
			SubmitTimeout:  cfg.OrderService.SubmitTimeout,
		})
		return orderID, adapter, nil
	}

	manager := checkout.NewManager(seedCatalog(), begin, cfg.Pricing.FallbackTaxRate, checkout.LogSink{})
	h := handler.NewCheckoutHandler(manager)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      transport.NewRouter(h),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

// seedCatalog builds the development menu. In production the provider would
// be backed by the menu service.
func seedCatalog() catalog.Provider {
	p := catalog.NewStaticProvider()

	p.AddItem(catalog.Item{
		ID:        "item-margherita",
		Name:      "Margherita Pizza",
		BasePrice: decimal.RequireFromString("10.00"),
		Variations: []catalog.Variation{
			{
				Name:     "Size",
				Required: true,
				Options: []catalog.Option{
					{Name: "Regular", Price: decimal.Zero},
					{Name: "Large", Price: decimal.RequireFromString("3.00")},
				},
			},
		},
		AddOns: []catalog.AddOn{
			{Name: "Extra Cheese", Price: decimal.RequireFromString("2.00")},
			{Name: "Olives", Price: decimal.RequireFromString("1.50")},
		},
	})
	p.AddItem(catalog.Item{
		ID:              "item-garlic-bread",
		Name:            "Garlic Bread",
		BasePrice:       decimal.RequireFromString("4.50"),
		DiscountPercent: 10,
	})

	p.SetDeliveryOptions([]catalog.DeliveryOption{
		{ID: "delivery-standard", Name: "Standard Delivery", Fee: decimal.RequireFromString("5.00"), Default: true},
		{ID: "delivery-express", Name: "Express Delivery", Fee: decimal.RequireFromString("9.00")},
		{ID: "delivery-pickup", Name: "Pickup", Fee: decimal.Zero},
	})

	p.SetAddresses("user-demo", []catalog.Address{
		{ID: "addr-home", Label: "Home", Street: "12 Rosemary Lane", City: "Springfield"},
		{ID: "addr-work", Label: "Work", Street: "400 Market St", City: "Springfield"},
	})
	p.SetPaymentMethods("user-demo", []catalog.PaymentMethod{
		{ID: "pm-visa", Kind: catalog.PaymentCard, Label: "Visa •••• 4242"},
		{ID: "pm-cash", Kind: catalog.PaymentCash, Label: "Cash on delivery"},
	})
	p.SetDefaults("user-demo", catalog.Defaults{
		AddressID:        "addr-home",
		DeliveryOptionID: "delivery-standard",
	})

	return p
}
