package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/stayledger/internal/api"
	"github.com/punchamoorthee/stayledger/internal/catalog"
	"github.com/punchamoorthee/stayledger/internal/config"
	"github.com/punchamoorthee/stayledger/internal/events"
	"github.com/punchamoorthee/stayledger/internal/gateway"
	"github.com/punchamoorthee/stayledger/internal/service"
	"github.com/punchamoorthee/stayledger/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dbPool *pgxpool.Pool
	if cfg.NeedsPostgres() {
		dbPool, err = store.NewPool(ctx, cfg.DBSource)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v", err)
		}
		defer dbPool.Close()
	}

	kv, err := openKV(ctx, cfg, dbPool)
	if err != nil {
		log.Fatalf("Unable to open reservation store: %v", err)
	}
	reservations := store.NewReservationStore(kv, store.WithKey(cfg.StoreKey))

	listings, err := openCatalog(ctx, cfg, dbPool)
	if err != nil {
		log.Fatalf("Unable to open catalog: %v", err)
	}

	ledger := gateway.NewMemoryLedger(gateway.WithFriendbot(decimal.NewFromFloat(cfg.FriendbotAmount)))

	var publisher events.Publisher = events.Nop{}
	if cfg.RabbitURL != "" {
		p, err := events.NewAMQPPublisher(cfg.RabbitURL, cfg.BookingExchange)
		if err != nil {
			log.Fatalf("Unable to connect to broker: %v", err)
		}
		defer p.Close()
		publisher = p
		log.Printf("Publishing booking events to exchange %s", cfg.BookingExchange)
	}

	bookings := service.NewBookingService(reservations, ledger,
		service.WithPublisher(publisher),
		service.WithEarlyReviews(cfg.AllowEarlyReviews),
	)
	handler := api.NewHandler(bookings, listings, ledger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s store=%s catalog=%s)",
			cfg.Port, cfg.Env, cfg.StoreBackend, cfg.CatalogBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}

func openKV(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (store.KV, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		kv, err := store.NewPostgresKV(ctx, pool)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case config.BackendRedis:
		client, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return store.NewRedisKV(client), nil
	default:
		return store.NewMemoryKV(), nil
	}
}

func openCatalog(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (catalog.Catalog, error) {
	if cfg.CatalogBackend == config.BackendPostgres {
		if _, err := pool.Exec(ctx, catalog.Schema); err != nil {
			return nil, err
		}
		return catalog.NewPostgres(pool), nil
	}
	return catalog.NewMemory(catalog.SampleListings()...), nil
}
