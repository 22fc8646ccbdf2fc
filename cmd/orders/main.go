package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"order-saga/internal/api"
	"order-saga/internal/bus"
	"order-saga/internal/config"
	"order-saga/internal/kafka"
	"order-saga/internal/order"
	"order-saga/internal/postgres"
	"order-saga/internal/saga"
	pgstore "order-saga/internal/store/postgres"
)

const connectTimeout = 5 * time.Second

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("load config", zap.String("path", cfgPath), zap.Error(err))
	}
	if err := cfg.ValidateForOrders(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, status cache degraded", zap.Error(err))
	}

	if err := kafka.CheckConnectivity(ctx, cfg.Kafka.Brokers); err != nil {
		logger.Warn("kafka unreachable at startup", zap.Error(err))
	}

	pool, err := postgres.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	orderStore := pgstore.NewOrderStore(pool)
	if err := orderStore.EnsureSchema(ctx); err != nil {
		logger.Fatal("ensure schema", zap.Error(err))
	}

	producer, err := kafka.NewKafkaGoProducer(cfg.Kafka)
	if err != nil {
		logger.Fatal("init producer", zap.Error(err))
	}
	defer producer.Close()

	kbus := bus.NewKafka(producer, func(topic string) (kafka.Consumer, error) {
		return kafka.NewKafkaGoConsumer(cfg.Kafka, topic, cfg.Orders.GroupID)
	}, logger)
	defer kbus.Close()

	cache := order.NewStatusCache(redisClient, logger)
	service := order.NewService(orderStore, cache, logger)
	runner := saga.NewRunner(logger)
	coordinator := order.NewCoordinator(runner, service, kbus, order.CommandTopics{
		Inventory: cfg.Kafka.Topics.InventoryCommands,
		Customer:  cfg.Kafka.Topics.CustomerCommands,
	}, logger)

	consumer := order.NewConsumer(runner, logger)
	consumer.Subscribe(kbus, cfg.Kafka.Topics.InventoryEvents, cfg.Kafka.Topics.CustomerEvents)

	router := api.NewRouter()
	api.RegisterOrderRoutes(router, coordinator, service)

	srv := &http.Server{Addr: cfg.Orders.Addr, Handler: router}
	go func() {
		logger.Info("orders service listening", zap.String("addr", cfg.Orders.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
}
