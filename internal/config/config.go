package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "github.com/goccy/go-yaml"

	"order-saga/internal/kafka"
	"order-saga/internal/postgres"
)

type Config struct {
	Orders    OrdersConfig      `yaml:"orders"`
	Inventory ParticipantConfig `yaml:"inventory"`
	Customer  ParticipantConfig `yaml:"customer"`
	Relay     RelayConfig       `yaml:"relay"`
	Redis     RedisConfig       `yaml:"redis"`
	Kafka     kafka.Config      `yaml:"kafka"`
	Postgres  postgres.Config   `yaml:"postgres"`
}

type OrdersConfig struct {
	Addr    string `yaml:"addr"`
	GroupID string `yaml:"group_id"`
}

type ParticipantConfig struct {
	Addr    string `yaml:"addr"`
	GroupID string `yaml:"group_id"`
}

type RelayConfig struct {
	Addr           string        `yaml:"addr"`
	GroupID        string        `yaml:"group_id"`
	IngestInterval time.Duration `yaml:"ingest_interval"`
	Workers        int           `yaml:"workers"`
	WorkDelay      time.Duration `yaml:"work_delay"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Orders.Addr) == "" {
		c.Orders.Addr = ":8080"
	}
	if strings.TrimSpace(c.Orders.GroupID) == "" {
		c.Orders.GroupID = "orders-saga"
	}
	if strings.TrimSpace(c.Inventory.Addr) == "" {
		c.Inventory.Addr = ":8082"
	}
	if strings.TrimSpace(c.Inventory.GroupID) == "" {
		c.Inventory.GroupID = "inventory-service"
	}
	if strings.TrimSpace(c.Customer.Addr) == "" {
		c.Customer.Addr = ":8083"
	}
	if strings.TrimSpace(c.Customer.GroupID) == "" {
		c.Customer.GroupID = "customer-service"
	}
	if strings.TrimSpace(c.Relay.Addr) == "" {
		c.Relay.Addr = ":8081"
	}
	if strings.TrimSpace(c.Relay.GroupID) == "" {
		c.Relay.GroupID = "relay"
	}
	if c.Relay.IngestInterval <= 0 {
		c.Relay.IngestInterval = time.Second
	}
	if c.Relay.Workers <= 0 {
		c.Relay.Workers = 4
	}
	if c.Relay.WorkDelay < 0 {
		c.Relay.WorkDelay = 0
	}
}

func (c Config) ValidateForOrders() error {
	if strings.TrimSpace(c.Orders.Addr) == "" {
		return fmt.Errorf("orders.addr is required")
	}
	if strings.TrimSpace(c.Orders.GroupID) == "" {
		return fmt.Errorf("orders.group_id is required")
	}
	if err := validateRedis(c.Redis); err != nil {
		return err
	}
	if err := c.Kafka.ValidateSaga(); err != nil {
		return err
	}
	return c.Postgres.Validate()
}

func (c Config) ValidateForInventory() error {
	if strings.TrimSpace(c.Inventory.Addr) == "" {
		return fmt.Errorf("inventory.addr is required")
	}
	if strings.TrimSpace(c.Inventory.GroupID) == "" {
		return fmt.Errorf("inventory.group_id is required")
	}
	if err := c.Kafka.ValidateSaga(); err != nil {
		return err
	}
	return c.Postgres.Validate()
}

func (c Config) ValidateForCustomer() error {
	if strings.TrimSpace(c.Customer.Addr) == "" {
		return fmt.Errorf("customer.addr is required")
	}
	if strings.TrimSpace(c.Customer.GroupID) == "" {
		return fmt.Errorf("customer.group_id is required")
	}
	if err := c.Kafka.ValidateSaga(); err != nil {
		return err
	}
	return c.Postgres.Validate()
}

func (c Config) ValidateForRelay() error {
	if strings.TrimSpace(c.Relay.Addr) == "" {
		return fmt.Errorf("relay.addr is required")
	}
	if strings.TrimSpace(c.Relay.GroupID) == "" {
		return fmt.Errorf("relay.group_id is required")
	}
	if err := validateRedis(c.Redis); err != nil {
		return err
	}
	return c.Kafka.ValidateRelay()
}

func validateRedis(cfg RedisConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("redis.addr is required")
	}
	return nil
}
