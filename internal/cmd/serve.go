package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuskart/campuskart/internal/auth"
	"github.com/campuskart/campuskart/internal/cache"
	"github.com/campuskart/campuskart/internal/catalog"
	"github.com/campuskart/campuskart/internal/chat"
	"github.com/campuskart/campuskart/internal/config"
	apihttp "github.com/campuskart/campuskart/internal/http"
	"github.com/campuskart/campuskart/internal/notify"
	"github.com/campuskart/campuskart/internal/orders"
	"github.com/campuskart/campuskart/internal/repository"
	"github.com/campuskart/campuskart/internal/ws"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	Long: `Start the server, which provides:
- the REST API for listings, orders, chat and notifications
- the /ws websocket for live chat
- the outbox worker that delivers order notifications`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Store == config.StoreMongo {
		if err := repository.RunMigrations(cfg.MongoURI, cfg.MongoDBName); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var redisClient *redis.Client
	productCache := cache.ProductCache(cache.NoopCache{})
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		productCache = cache.NewRedisCache(redisClient)
		log.Printf("Redis connected at %s", cfg.RedisAddr)
	}

	orderService := orders.NewService(store, productCache)
	catalogService := catalog.NewService(store, orderService, productCache)
	notifications := notify.NewService(store.Notifications)

	var sink notify.Sink = notifications
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafkaSink := notify.NewKafkaSink(cfg.NotifyTopic, brokers...)
		defer kafkaSink.Close()
		sink = kafkaSink

		consumer := notify.NewConsumer(notifications, cfg.NotifyTopic, brokers...)
		defer consumer.Close()
		go consumer.Run(ctx)
		log.Printf("notifications routed through Kafka topic %s", cfg.NotifyTopic)
	}
	go notify.NewOutboxPoller(store.Outbox, sink, cfg.OutboxInterval).Run(ctx)

	hub := ws.NewHub()
	var fanout ws.Fanout = ws.NewLocalBroadcaster(hub)
	if redisClient != nil {
		rb := ws.NewRedisBroadcaster(redisClient, hub)
		if err := rb.Subscribe(ctx); err != nil {
			return err
		}
		fanout = rb
	}
	chatService := chat.NewService(store, fanout)
	orderService.NotifyStatus(ws.NewStatusNotifier(fanout))

	router := apihttp.NewRouter(apihttp.RouterConfig{
		Tokens:         auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Products:       catalogService,
		Orders:         orderService,
		Chat:           chatService,
		Notifications:  notifications,
		Websocket:      ws.NewHandler(hub, chatService, cfg.Origins()),
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "campuskart"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("CampusKart starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
