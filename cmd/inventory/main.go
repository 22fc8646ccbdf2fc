package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"order-saga/internal/api"
	"order-saga/internal/bus"
	"order-saga/internal/config"
	"order-saga/internal/inventory"
	"order-saga/internal/kafka"
	"order-saga/internal/postgres"
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
	if err := cfg.ValidateForInventory(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := kafka.CheckConnectivity(ctx, cfg.Kafka.Brokers); err != nil {
		logger.Warn("kafka unreachable at startup", zap.Error(err))
	}

	pool, err := postgres.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	store := pgstore.NewInventoryStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("ensure schema", zap.Error(err))
	}

	producer, err := kafka.NewKafkaGoProducer(cfg.Kafka)
	if err != nil {
		logger.Fatal("init producer", zap.Error(err))
	}
	defer producer.Close()

	kbus := bus.NewKafka(producer, func(topic string) (kafka.Consumer, error) {
		return kafka.NewKafkaGoConsumer(cfg.Kafka, topic, cfg.Inventory.GroupID)
	}, logger)
	defer kbus.Close()

	service := inventory.NewService(store, logger)
	consumer := inventory.NewConsumer(service, kbus, cfg.Kafka.Topics.InventoryEvents, logger)
	consumer.Subscribe(kbus, cfg.Kafka.Topics.InventoryCommands)

	router := api.NewRouter()
	api.RegisterProductRoutes(router, service)

	srv := &http.Server{Addr: cfg.Inventory.Addr, Handler: router}
	go func() {
		logger.Info("inventory service listening", zap.String("addr", cfg.Inventory.Addr))
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
