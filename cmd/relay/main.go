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
	"order-saga/internal/relay"
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
	if err := cfg.ValidateForRelay(); err != nil {
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
		logger.Fatal("connect redis", zap.Error(err))
	}

	if err := kafka.CheckConnectivity(ctx, cfg.Kafka.Brokers); err != nil {
		logger.Warn("kafka unreachable at startup", zap.Error(err))
	}

	producer, err := kafka.NewKafkaGoProducer(cfg.Kafka)
	if err != nil {
		logger.Fatal("init producer", zap.Error(err))
	}
	defer producer.Close()

	kbus := bus.NewKafka(producer, func(topic string) (kafka.Consumer, error) {
		return kafka.NewKafkaGoConsumer(cfg.Kafka, topic, cfg.Relay.GroupID)
	}, logger)
	defer kbus.Close()

	topics := relay.Topics{
		Ingest:   cfg.Kafka.Topics.RelayIngest,
		Dispatch: cfg.Kafka.Topics.RelayDispatch,
		DLQ:      cfg.Kafka.Topics.RelayDLQ,
	}

	ingester := relay.NewIngester(kbus, topics.Ingest, redisClient, cfg.Relay.IngestInterval, logger)

	transformer, err := relay.NewTransformer(kbus, topics, redisClient, cfg.Relay.Workers, cfg.Relay.WorkDelay, logger)
	if err != nil {
		logger.Fatal("init transformer", zap.Error(err))
	}
	transformer.Start(context.Background())
	defer transformer.Stop()

	dispatcher := relay.NewDispatcher(redisClient, logger)
	dispatcher.Subscribe(kbus, topics.Dispatch)

	router := api.NewRouter()
	relay.RegisterRoutes(router, ingester, redisClient)

	srv := &http.Server{Addr: cfg.Relay.Addr, Handler: router}
	go func() {
		logger.Info("relay service listening", zap.String("addr", cfg.Relay.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ingester.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
}
