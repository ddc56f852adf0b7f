package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // venue timezones resolve even on hosts without a zoneinfo database

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"

	"github.com/iliyamo/venue-conduction-board/internal/board"
	"github.com/iliyamo/venue-conduction-board/internal/cache"
	"github.com/iliyamo/venue-conduction-board/internal/conduction"
	"github.com/iliyamo/venue-conduction-board/internal/config" // Internal config loader
	"github.com/iliyamo/venue-conduction-board/internal/database"
	"github.com/iliyamo/venue-conduction-board/internal/handler"
	"github.com/iliyamo/venue-conduction-board/internal/middleware"
	"github.com/iliyamo/venue-conduction-board/internal/poller"
	"github.com/iliyamo/venue-conduction-board/internal/queue"
	"github.com/iliyamo/venue-conduction-board/internal/repository"
	"github.com/iliyamo/venue-conduction-board/internal/router" // Internal router setup
	"github.com/iliyamo/venue-conduction-board/internal/service"
	"github.com/iliyamo/venue-conduction-board/internal/subarea"
	"github.com/iliyamo/venue-conduction-board/internal/upstream"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	venue := pflag.String("venue", "", "venue to poll at startup (overrides VENUE_ID)")
	addr := pflag.String("addr", "", "listen address (overrides APP_PORT)")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("env: %v", err)
	}
	cfg := config.Load() // Load environment config
	if *venue != "" {
		cfg.VenueID = *venue
	}
	listen := ":" + cfg.Port // Address string with port
	if *addr != "" {
		listen = *addr
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	table, err := config.LoadSubareaTable(cfg.SubareaFile, cfg.VenuePrefix)
	if err != nil {
		log.Fatalf("subarea: %v", err)
	}
	builder := board.NewBuilder(subarea.New(table), loc)

	source, closeSource := openSource(cfg)
	defer closeSource()

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	var store poller.Store
	if cc := config.LoadBoardCacheConfig(); cc.Enabled && rdb != nil {
		store = cache.NewBoardStore(rdb, cc.Prefix, cc.TTL)
	}
	var publisher conduction.Publisher
	if cfg.AMQPURL != "" {
		publisher = service.NewConductionPublisher(cfg.AMQPURL)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := poller.New(source, builder, publisher, store, poller.Options{
		Interval:       cfg.PollInterval,
		Location:       loc,
		DoneTTL:        cfg.DoneTTL,
		ConfirmTimeout: cfg.ConfirmTTL,
	})
	if cfg.VenueID != "" {
		p.Start(ctx, cfg.VenueID)
	} else {
		log.Printf("no venue configured; waiting for PUT /v1/board/venue")
	}

	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartConductionConsumer(ctx, cfg.AMQPURL, cfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("conduction-consumer: stopped: %v", err)
			}
		}()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	router.RegisterRoutes(e) // Register application routes

	var limiter echo.MiddlewareFunc
	if rdb != nil {
		limiter = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	}
	router.RegisterBoard(e, handler.NewBoardHandler(ctx, p), limiter)

	go func() {
		log.Printf("listening on %s (env=%s, source=%s)", listen, cfg.Env, cfg.Source) // Print startup info
		if err := e.Start(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	p.Stop()
	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = e.Shutdown(shutdownCtx)

	log.Println("bye")
}

// openSource builds the system-of-record client selected by SOURCE.  The
// returned func releases its resources.
func openSource(cfg config.Config) (poller.Source, func()) {
	switch cfg.Source {
	case config.SourceSQL:
		db, err := database.Open(cfg.DBDriver, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		src, err := repository.NewSource(db, cfg.DBDriver)
		if err != nil {
			_ = db.Close()
			log.Fatalf("database: %v", err)
		}
		return src, func() { _ = db.Close() }
	default:
		client, err := upstream.New(upstream.Options{
			BaseURL:   cfg.UpstreamBaseURL,
			Token:     cfg.UpstreamToken,
			JWTSecret: cfg.UpstreamJWTSecret,
			Timeout:   cfg.UpstreamTimeout,
		})
		if err != nil {
			log.Fatalf("upstream: %v", err)
		}
		return client, func() {}
	}
}
