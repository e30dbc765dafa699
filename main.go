package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	rd "github.com/redis/go-redis/v9"

	"github.com/atelierhq/atelier/internal/mongo"
	"github.com/atelierhq/atelier/internal/procurement"
	"github.com/atelierhq/atelier/internal/redis"
	"github.com/atelierhq/atelier/pkg"
)

const (
	appNamespace = "PROCUREMENT"
	appName      = "procurement"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	seedCtx, cancelSeeds := context.WithCancel(ctx)
	defer cancelSeeds()

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	orderRepo := mongo.NewOrderRepo(db)
	itemRepo := mongo.NewItemRepo(db)

	repos := procurement.Repos{
		OrderRepo: orderRepo,
		ItemRepo:  itemRepo,
	}

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	pub, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	sub, err := pkg.NewNATSSubscriber(natsURL, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	catalogURL, _ := config.GetString("services.catalog.url")
	catalogClient := apt.NewServiceClient(catalogURL)
	supplierStates := procurement.NewSupplierStateCache(catalogClient, logger)
	supplierStatusSub := procurement.NewSupplierStatusSubscriber(sub, supplierStates, logger)

	// Best-effort save lock; the engine stays correct without it when Redis
	// is not configured.
	var locker procurement.OrderLocker
	redisURL, _ := config.GetString("redis.url")
	if redisURL != "" {
		opts, parseErr := rd.ParseURL(redisURL)
		if parseErr != nil {
			log.Fatalf("%s(%s) cannot parse redis url: %v", appName, appVersion, parseErr)
		}
		locker = redis.NewOrderLock(rd.NewClient(opts), 30*time.Second)
		logger.Info("Order save lock enabled")
	}

	engine := procurement.NewEngine(orderRepo, itemRepo, locker, logger)

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}

	subLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return sub.Close()
		},
	}

	hd := procurement.HandlerDeps{
		Engine:              engine,
		Repos:               repos,
		SupplierStatesCache: supplierStates,
		Publisher:           pub,
	}

	handler := procurement.NewHandler(hd, config, logger)

	// Setup demo seeding if enabled
	demoEnabled, _ := config.GetString("seeding.demo")
	var seedHooks apt.LifecycleHooks
	if demoEnabled == "true" {
		logger.Info("Demo seeding enabled for procurement service")
		seedHooks = apt.LifecycleHooks{
			OnStart: procurement.DemoSeedingFunc(seedCtx, repos, db, logger),
			OnStop: func(context.Context) error {
				cancelSeeds()
				return nil
			},
		}
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true, // Internal API service
	})
	stack = append(stack, middleware.InternalOnly())

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		supplierStatusSub,
		publisherLifecycle,
		subLifecycle,
	}
	if demoEnabled == "true" {
		lifecycles = append(lifecycles, seedHooks)
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
