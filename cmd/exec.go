package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"

	"eventpass/config"
	"eventpass/handlers"
	"eventpass/internal/gateway"
	_ "eventpass/migrations"
	"eventpass/monitoring"
	"eventpass/services"
	"eventpass/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis. The store is the source of truth; a missing
	// mirror only degrades stats reads, so we keep going without it.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("redis unavailable, running without stats mirror", "error", err)
		} else {
			redisClient = client
			defer redisClient.Close()
		}
	}

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pn = pubnub.NewPubNub(pnConfig)
	}
	notifier := services.NewNotifier(pn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, err := gateway.NewMockProvider(&gateway.MockConfig{
		MerchantID:     "eventpass",
		Currency:       "USD",
		WebhookSecret:  cfg.PaymentWebhookSecret,
		PNPublishKey:   cfg.PubNubPublishKey,
		PNSubscribeKey: cfg.PubNubSubscribeKey,
		PNChannel:      "payment-settlements",
	})
	if err != nil {
		return err
	}
	defer provider.Close(ctx)

	// Initialize services
	store := services.NewPBStore(app)
	codec := services.NewQRCodec(cfg.QRSigningSecret)
	statsService := services.NewStatsService(store, redisClient)
	issuanceService := services.NewIssuanceService(store, codec, statsService, notifier)
	checkinService := services.NewCheckinService(store, codec, notifier)
	paymentService := services.NewPaymentService(
		redisClient,
		provider,
		utils.NewCircuitBreaker("payment-gateway"),
		cfg.PaymentSessionTTL,
	)

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(app, store, statsService)
	ticketHandler := handlers.NewTicketHandler(app, store, issuanceService, paymentService)
	checkinHandler := handlers.NewCheckinHandler(app, store, checkinService)
	paymentHandler := handlers.NewPaymentHandler(app, store, paymentService, provider)
	prefsHandler := handlers.NewPrefsHandler(app)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background tasks
	go paymentService.Run(ctx)

	if cfg.EnableMetrics {
		monitoring.NewMonitor(redisClient)
		go serveMetrics(cfg.MetricsPort)
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		go rebuildStatsMirror(ctx, store, statsService)

		// Event endpoints
		e.Router.POST("/api/v1/events", eventHandler.CreateEvent)
		e.Router.GET("/api/v1/events", eventHandler.ListEvents)
		e.Router.GET("/api/v1/events/{eventId}", eventHandler.GetEvent)
		e.Router.PATCH("/api/v1/events/{eventId}/capacity", eventHandler.SetCapacity)
		e.Router.GET("/api/v1/events/{eventId}/stats", eventHandler.GetEventStats)
		e.Router.GET("/api/v1/events/{eventId}/tickets", eventHandler.ListEventTickets)

		// Ticket endpoints
		e.Router.POST("/api/v1/events/join", ticketHandler.JoinEvent)
		e.Router.GET("/api/v1/tickets/mine", ticketHandler.MyTickets)

		// Check-in endpoints
		e.Router.POST("/api/v1/checkin/verify", checkinHandler.Verify)
		e.Router.POST("/api/v1/checkin/confirm", checkinHandler.Confirm)

		// Payment endpoints
		e.Router.POST("/api/v1/payment/session", paymentHandler.CreateSession)
		e.Router.GET("/api/v1/payment/{paymentId}/status", paymentHandler.CheckStatus)

		// Preference sync endpoints
		e.Router.GET("/api/v1/preferences", prefsHandler.GetPreferences)
		e.Router.PUT("/api/v1/preferences", prefsHandler.SyncPreferences)

		// Test endpoint for payment simulation
		if cfg.Environment == "development" {
			e.Router.POST("/api/v1/test/simulate-payment", paymentHandler.SimulatePayment)
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "degraded",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		setupEventHooks(app, redisClient)

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// rebuildStatsMirror reseeds the Redis stats mirror from the store on
// startup so reads do not serve stale counters after a restart.
func rebuildStatsMirror(ctx context.Context, store services.Store, stats *services.StatsService) {
	events, err := store.ListEvents(ctx)
	if err != nil {
		slog.Error("stats mirror rebuild: list events", "error", err)
		return
	}

	for _, event := range events {
		stats.RebuildMirror(ctx, event)
		monitoring.SetSoldSeats(event.ID, event.SoldSeats)
	}
	slog.Info("stats mirror rebuilt", "events", len(events))
}

func setupEventHooks(app *pocketbase.PocketBase, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}

	// Drop mirror keys when an event record is deleted so stale stats
	// never outlive the event.
	app.OnRecordDeleteRequest("events").BindFunc(func(e *core.RecordRequestEvent) error {
		ctx := e.Request.Context()
		eventID := e.Record.Id

		keys := []string{
			"event:stats:" + eventID,
			"event:attendees:" + eventID,
		}
		if err := redisClient.Del(ctx, keys...).Err(); err != nil {
			slog.Error("failed to drop event mirror keys", "eventID", eventID, "error", err)
			return nil // don't block the delete on mirror cleanup
		}
		return nil
	})
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	slog.Info("metrics server listening", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
